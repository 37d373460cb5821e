// Package config provides the configuration schema, loader, provider registry
// and file watcher for the Podium server.
package config

import (
	"log/slog"
	"time"
)

// LogLevel controls log verbosity for the Podium server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Level converts l to a slog level. Unknown values map to Info.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StorageDriver selects the persistence backend.
type StorageDriver string

const (
	StoragePostgres StorageDriver = "postgres"
	StorageSQLite   StorageDriver = "sqlite"
	StorageMemory   StorageDriver = "memory"
)

// IsValid reports whether d is a recognised driver.
func (d StorageDriver) IsValid() bool {
	switch d {
	case StoragePostgres, StorageSQLite, StorageMemory:
		return true
	}
	return false
}

// Defaults applied by [LoadFromReader] and [Default].
const (
	DefaultListenAddr      = ":8080"
	DefaultProviderTimeout = 30 * time.Second
	DefaultTokenTTL        = 7 * 24 * time.Hour
	DefaultCookieName      = "podium_session"
	DefaultServiceName     = "podium"
	DefaultSQLitePath      = "podium.db"
)

// Config is the root configuration structure for Podium.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. It is the only setting applied live when
	// the config file changes.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFile, when set, additionally writes JSON logs to a rotating file.
	LogFile LogFileConfig `yaml:"log_file"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`

	// MaxBodyBytes caps request bodies. Audio uploads are the largest.
	// Default: 25 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LogFileConfig configures log file rotation.
type LogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares the AI providers. Each entry selects a named
// provider registered in the [Registry].
type ProvidersConfig struct {
	// Primary is the first AI tier. Optional.
	Primary ProviderEntry `yaml:"primary"`

	// Secondary is used when the primary is out of quota. Optional.
	Secondary ProviderEntry `yaml:"secondary"`

	// STT lists transcription backends in fallback order.
	STT []ProviderEntry `yaml:"stt"`

	// Timeout bounds every provider call. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// Breaker tunes the per-provider circuit breakers.
	Breaker BreakerConfig `yaml:"breaker"`
}

// BreakerConfig mirrors resilience.CircuitBreakerConfig. Zero values take
// the breaker's defaults.
type BreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
	HalfOpenMax  int           `yaml:"half_open_max"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "gemini").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o-mini", "nova-2").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// Configured reports whether the entry names a provider.
func (e ProviderEntry) Configured() bool { return e.Name != "" }

// StorageConfig selects and configures persistence.
type StorageConfig struct {
	// Driver is postgres, sqlite or memory. Default: memory.
	Driver StorageDriver `yaml:"driver"`

	// DSN is the PostgreSQL connection string or the SQLite file path.
	DSN string `yaml:"dsn"`
}

// AuthConfig configures login tokens and their cookie.
type AuthConfig struct {
	CookieName   string        `yaml:"cookie_name"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// TelemetryConfig configures OpenTelemetry.
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name"`

	// Metrics enables the Prometheus /metrics endpoint. Default: true.
	Metrics *bool `yaml:"metrics"`
}

// MetricsEnabled reports whether /metrics is served.
func (t TelemetryConfig) MetricsEnabled() bool {
	return t.Metrics == nil || *t.Metrics
}

// Default returns a configuration that runs without a config file: memory
// storage, no AI providers, local analysis only.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills every unset field that has a default.
func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 25 << 20
	}
	if c.Providers.Timeout <= 0 {
		c.Providers.Timeout = DefaultProviderTimeout
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Storage.Driver == StorageSQLite && c.Storage.DSN == "" {
		c.Storage.DSN = DefaultSQLitePath
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = DefaultCookieName
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = DefaultTokenTTL
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}
