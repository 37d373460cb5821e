// Package app wires all Podium subsystems into a running server.
//
// The App struct owns the full lifecycle: New opens storage and connects the
// analyzers to the HTTP API, Run serves until the context is cancelled, and
// Shutdown drains connections and closes everything in order.
//
// For testing, inject doubles via functional options (WithStore,
// WithMetrics). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/api"
	"github.com/MrWong99/podium/internal/auth"
	"github.com/MrWong99/podium/internal/coach"
	"github.com/MrWong99/podium/internal/config"
	"github.com/MrWong99/podium/internal/health"
	"github.com/MrWong99/podium/internal/insight"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/resilience"
	"github.com/MrWong99/podium/internal/store"
	"github.com/MrWong99/podium/internal/store/memstore"
	"github.com/MrWong99/podium/internal/store/postgres"
	"github.com/MrWong99/podium/internal/store/sqlite"
	"github.com/MrWong99/podium/pkg/provider/llm"
	"github.com/MrWong99/podium/pkg/provider/stt"
)

// readHeaderTimeout bounds slow clients before a handler runs.
const readHeaderTimeout = 10 * time.Second

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	Primary   llm.Provider
	Secondary llm.Provider
	STT       stt.Transcriber
}

// App owns all subsystem lifetimes.
type App struct {
	cfg       *config.Config
	providers *Providers
	version   string

	store          store.Store
	metrics        *observe.Metrics
	metricsHandler http.Handler

	coach    *coach.Orchestrator
	language *analysis.LanguageAnalyzer
	auth     *auth.Service
	handler  http.Handler
	server   *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a store instead of opening the configured driver. The
// App does not close an injected store.
func WithStore(s store.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects the metric instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithMetricsHandler serves h at /metrics when telemetry metrics are
// enabled. Usually the handler returned by [observe.InitProvider].
func WithMetricsHandler(h http.Handler) Option {
	return func(a *App) { a.metricsHandler = h }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(a *App) { a.version = v }
}

// ─── New ─────────────────────────────────────────────────────────────────────

// New creates an App by wiring all subsystems together. providers may be nil,
// in which case every request is scored by the local analyzers.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	if providers == nil {
		providers = &Providers{}
	}
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Storage ───────────────────────────────────────────────────────
	if err := a.initStore(ctx); err != nil {
		return nil, fmt.Errorf("app: init store: %w", err)
	}

	// ── 2. Accounts ──────────────────────────────────────────────────────
	a.auth = auth.New(a.store, auth.WithTTL(cfg.Auth.TokenTTL))

	// ── 3. Analyzers ─────────────────────────────────────────────────────
	a.initAnalyzers()

	// ── 4. HTTP API ──────────────────────────────────────────────────────
	a.initHTTP()

	return a, nil
}

// ─── Init helpers ────────────────────────────────────────────────────────────

// initStore opens the configured storage driver unless one was injected.
func (a *App) initStore(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	sc := a.cfg.Storage
	var (
		st  store.Store
		err error
	)
	switch sc.Driver {
	case config.StoragePostgres:
		st, err = postgres.New(ctx, sc.DSN)
	case config.StorageSQLite:
		st, err = sqlite.Open(ctx, sc.DSN)
	case config.StorageMemory, "":
		slog.Warn("using in-memory storage, accounts and sessions are lost on restart")
		st = memstore.New()
	default:
		return fmt.Errorf("unknown storage driver %q", sc.Driver)
	}
	if err != nil {
		return err
	}
	slog.Info("storage ready", "driver", sc.Driver)

	a.store = st
	a.closers = append(a.closers, st.Close)
	return nil
}

// breakerConfig converts the config block into breaker tuning. Zero values
// keep the breaker defaults.
func breakerConfig(b config.BreakerConfig) resilience.CircuitBreakerConfig {
	return resilience.CircuitBreakerConfig{
		MaxFailures:  b.MaxFailures,
		ResetTimeout: b.ResetTimeout,
		HalfOpenMax:  b.HalfOpenMax,
	}
}

// NewCoach builds the analysis state machine for cfg. m may be nil.
func NewCoach(cfg *config.Config, p *Providers, m *observe.Metrics) *coach.Orchestrator {
	pc := cfg.Providers
	opts := []coach.Option{
		coach.WithTimeout(pc.Timeout),
		coach.WithBreakerConfig(breakerConfig(pc.Breaker)),
	}
	if m != nil {
		opts = append(opts, coach.WithMetrics(m))
	}
	if p != nil && p.Primary != nil {
		opts = append(opts, coach.WithPrimary(coach.NewTier(pc.Primary.Name, p.Primary)))
	}
	if p != nil && p.Secondary != nil {
		opts = append(opts, coach.WithSecondary(coach.NewTier(pc.Secondary.Name, p.Secondary)))
	}
	return coach.New(opts...)
}

// initAnalyzers builds the coach state machine and the grammar analyzer.
func (a *App) initAnalyzers() {
	pc := a.cfg.Providers
	breaker := breakerConfig(pc.Breaker)
	a.coach = NewCoach(a.cfg, a.providers, a.metrics)

	// The grammar endpoint has no state machine of its own; it reaches the
	// secondary through a fallback group when the primary is down.
	var insightLLM llm.Provider
	switch {
	case a.providers.Primary != nil:
		fb := resilience.NewLLMFallback(a.providers.Primary, pc.Primary.Name, resilience.FallbackConfig{CircuitBreaker: breaker})
		if a.providers.Secondary != nil {
			fb.AddFallback(pc.Secondary.Name, a.providers.Secondary)
		}
		insightLLM = fb
	case a.providers.Secondary != nil:
		insightLLM = a.providers.Secondary
	}
	if insightLLM != nil {
		a.language = analysis.NewLanguageAnalyzer(insight.NewScorer(insightLLM))
	} else {
		a.language = analysis.NewLanguageAnalyzer(nil)
	}

	slog.Info("analyzers ready",
		"primary", pc.Primary.Name,
		"secondary", pc.Secondary.Name,
		"transcription", a.providers.STT != nil,
	)
}

// initHTTP builds the API handler and the server that serves it.
func (a *App) initHTTP() {
	checks := health.New(a.version,
		health.Ping("store", a.store),
		health.Checker{Name: "providers", Check: a.coach.CheckProviders, Optional: true},
	)

	opts := []api.Option{
		api.WithLanguageAnalyzer(a.language),
		api.WithCookies(auth.Cookies{Name: a.cfg.Auth.CookieName, Secure: a.cfg.Auth.SecureCookie}),
		api.WithMetrics(a.metrics),
		api.WithMaxBodyBytes(a.cfg.Server.MaxBodyBytes),
		api.WithHealth(checks),
	}
	if a.providers.STT != nil {
		opts = append(opts, api.WithTranscriber(a.providers.STT))
	}
	if a.metricsHandler != nil && a.cfg.Telemetry.MetricsEnabled() {
		opts = append(opts, api.WithMetricsHandler(a.metricsHandler))
	}

	a.handler = api.New(a.coach, a.store, a.auth, opts...).Handler()
	a.server = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// Handler returns the fully wired HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// ─── Run ─────────────────────────────────────────────────────────────────────

// Run listens on the configured address and blocks until ctx is cancelled or
// the server fails. On cancellation it returns ctx.Err(); call Shutdown to
// drain in-flight requests.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen: %w", err)
	}
	return a.Serve(ctx, ln)
}

// Serve is [App.Run] on an existing listener.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		tlsCfg := a.cfg.Server.TLS
		if tlsCfg != nil {
			errCh <- a.server.ServeTLS(ln, tlsCfg.CertFile, tlsCfg.KeyFile)
			return
		}
		errCh <- a.server.Serve(ln)
	}()

	slog.Info("podium listening", "addr", ln.Addr().String(), "tls", a.cfg.Server.TLS != nil)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("app: serve: %w", err)
	}
}

// ─── Shutdown ────────────────────────────────────────────────────────────────

// Shutdown stops accepting connections, waits for in-flight requests and then
// runs the closers in order. It respects the context deadline: if ctx expires
// before all closers finish, remaining closers are skipped and the context
// error is returned. Only the first call does anything.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.server.Shutdown(ctx); err != nil {
			slog.Warn("http shutdown error", "err", err)
			shutdownErr = err
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
