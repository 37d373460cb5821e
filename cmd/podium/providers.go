package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/podium/internal/app"
	"github.com/MrWong99/podium/internal/config"
	"github.com/MrWong99/podium/internal/resilience"
	"github.com/MrWong99/podium/pkg/provider/llm"
	"github.com/MrWong99/podium/pkg/provider/llm/anyllm"
	"github.com/MrWong99/podium/pkg/provider/llm/openai"
	"github.com/MrWong99/podium/pkg/provider/stt"
	"github.com/MrWong99/podium/pkg/provider/stt/deepgram"
	"github.com/MrWong99/podium/pkg/provider/stt/whisper"
)

// registerBuiltinProviders wires all built-in provider factories into reg.
// timeout bounds the HTTP clients of providers that take one.
func registerBuiltinProviders(reg *config.Registry, timeout time.Duration) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		opts := []openai.Option{openai.WithTimeout(timeout)}
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		if org := config.OptString(entry.Options, "organization"); org != "" {
			opts = append(opts, openai.WithOrganization(org))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// The remaining hosted backends share the same pattern: optional APIKey
	// plus optional BaseURL.
	for _, providerName := range []string{
		"anthropic", "gemini", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.NewOllama(entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────
	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := config.OptString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		rate, ok, err := config.OptInt(entry.Options, "sample_rate")
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, whisper.WithSampleRate(rate))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	reg.RegisterSTT("deepgram", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []deepgram.Option
		if entry.Model != "" {
			opts = append(opts, deepgram.WithModel(entry.Model))
		}
		if lang := config.OptString(entry.Options, "language"); lang != "" {
			opts = append(opts, deepgram.WithLanguage(lang))
		}
		if entry.BaseURL != "" {
			opts = append(opts, deepgram.WithEndpoint(entry.BaseURL))
		}
		return deepgram.New(entry.APIKey, opts...)
	})

	for _, kind := range []string{"llm", "stt"} {
		for _, name := range reg.Names(kind) {
			slog.Debug("registered provider", "kind", kind, "name", name)
		}
	}
}

// buildProviders instantiates all providers named in cfg using the registry.
// Several STT entries are chained into one failover transcriber.
func buildProviders(cfg *config.Config, reg *config.Registry) (*app.Providers, error) {
	ps := &app.Providers{}
	var err error

	if ps.Primary, err = createLLM(reg, "primary", cfg.Providers.Primary); err != nil {
		return nil, err
	}
	if ps.Secondary, err = createLLM(reg, "secondary", cfg.Providers.Secondary); err != nil {
		return nil, err
	}

	b := cfg.Providers.Breaker
	fbCfg := resilience.FallbackConfig{CircuitBreaker: resilience.CircuitBreakerConfig{
		MaxFailures:  b.MaxFailures,
		ResetTimeout: b.ResetTimeout,
		HalfOpenMax:  b.HalfOpenMax,
	}}
	var chain *resilience.STTFallback
	for _, entry := range cfg.Providers.STT {
		t, err := reg.CreateSTT(entry)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Warn("unknown provider, skipping", "kind", "stt", "name", entry.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create stt provider %q: %w", entry.Name, err)
		}
		slog.Info("provider created", "kind", "stt", "name", entry.Name)
		if chain == nil {
			chain = resilience.NewSTTFallback(t, entry.Name, fbCfg)
			continue
		}
		chain.AddFallback(entry.Name, t)
	}
	if chain != nil {
		ps.STT = chain
	}

	return ps, nil
}

func createLLM(reg *config.Registry, slot string, entry config.ProviderEntry) (llm.Provider, error) {
	if !entry.Configured() {
		return nil, nil
	}
	p, err := reg.CreateLLM(entry)
	if errors.Is(err, config.ErrProviderNotRegistered) {
		slog.Warn("unknown provider, skipping", "kind", "llm", "slot", slot, "name", entry.Name)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create %s provider %q: %w", slot, entry.Name, err)
	}
	slog.Info("provider created", "kind", "llm", "slot", slot, "name", entry.Name)
	return p, nil
}
