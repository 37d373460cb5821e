package config

// ConfigDiff describes what changed between two configs.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists sections whose changes only apply after a
	// restart (e.g. "providers", "storage").
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed. Only the log
// level can be applied without a restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	oldServer, newServer := old.Server, new.Server
	oldServer.LogLevel, newServer.LogLevel = "", ""
	if !serverEqual(oldServer, newServer) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !providersEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.Storage != new.Storage {
		d.RestartRequired = append(d.RestartRequired, "storage")
	}
	if old.Auth != new.Auth {
		d.RestartRequired = append(d.RestartRequired, "auth")
	}
	if old.Telemetry.ServiceName != new.Telemetry.ServiceName ||
		old.Telemetry.MetricsEnabled() != new.Telemetry.MetricsEnabled() {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}

func serverEqual(a, b ServerConfig) bool {
	if a.ListenAddr != b.ListenAddr || a.LogFile != b.LogFile || a.MaxBodyBytes != b.MaxBodyBytes {
		return false
	}
	switch {
	case a.TLS == nil && b.TLS == nil:
		return true
	case a.TLS == nil || b.TLS == nil:
		return false
	default:
		return *a.TLS == *b.TLS
	}
}

func providersEqual(a, b ProvidersConfig) bool {
	if a.Timeout != b.Timeout || a.Breaker != b.Breaker {
		return false
	}
	if !entryEqual(a.Primary, b.Primary) || !entryEqual(a.Secondary, b.Secondary) {
		return false
	}
	if len(a.STT) != len(b.STT) {
		return false
	}
	for i := range a.STT {
		if !entryEqual(a.STT[i], b.STT[i]) {
			return false
		}
	}
	return true
}

// entryEqual compares the scalar fields and the option keys with their
// printed values.
func entryEqual(a, b ProviderEntry) bool {
	if a.Name != b.Name || a.APIKey != b.APIKey || a.BaseURL != b.BaseURL || a.Model != b.Model {
		return false
	}
	if len(a.Options) != len(b.Options) {
		return false
	}
	for k, v := range a.Options {
		w, ok := b.Options[k]
		if !ok || fmtValue(v) != fmtValue(w) {
			return false
		}
	}
	return true
}
