// Package api serves Podium's HTTP interface.
//
// All routes live on one [http.ServeMux] using method patterns. Everything
// under /api except registration and login requires an authenticated
// caller. Responses are JSON and gzip-compressed when the client accepts it;
// the pose stream websocket bypasses compression.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/MrWong99/podium/internal/analysis"
	"github.com/MrWong99/podium/internal/auth"
	"github.com/MrWong99/podium/internal/coach"
	"github.com/MrWong99/podium/internal/health"
	"github.com/MrWong99/podium/internal/observe"
	"github.com/MrWong99/podium/internal/store"
	"github.com/MrWong99/podium/pkg/provider/stt"
)

const (
	defaultMaxBodyBytes = 25 << 20
	poseStreamPath      = "/api/pose-stream"
)

// Analyzer produces a composite analysis. *coach.Orchestrator implements it.
type Analyzer interface {
	Analyze(ctx context.Context, req coach.Request) (coach.CompositeAnalysis, error)
}

var _ Analyzer = (*coach.Orchestrator)(nil)

// Option configures a [Server].
type Option func(*Server)

// WithTranscriber enables /api/transcribe-audio. Without it the endpoint
// answers 503.
func WithTranscriber(t stt.Transcriber) Option {
	return func(s *Server) { s.stt = t }
}

// WithLanguageAnalyzer sets the analyzer behind /api/analyze-grammar.
// Default: heuristics only, no AI insights.
func WithLanguageAnalyzer(a *analysis.LanguageAnalyzer) Option {
	return func(s *Server) { s.language = a }
}

// WithCookies configures the login cookie.
func WithCookies(c auth.Cookies) Option {
	return func(s *Server) { s.cookies = c }
}

// WithMetrics sets the metrics recorder. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxBodyBytes caps request bodies. Default: 25 MiB.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithHealth mounts /healthz and /readyz.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// Server holds the handler dependencies.
type Server struct {
	coach    Analyzer
	store    store.Store
	auth     *auth.Service
	language *analysis.LanguageAnalyzer
	stt      stt.Transcriber
	cookies  auth.Cookies
	metrics  *observe.Metrics
	maxBody  int64

	metricsHandler http.Handler
	health         *health.Handler
}

// New creates a Server.
func New(a Analyzer, st store.Store, svc *auth.Service, opts ...Option) *Server {
	s := &Server{
		coach:   a,
		store:   st,
		auth:    svc,
		maxBody: defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.language == nil {
		s.language = analysis.NewLanguageAnalyzer(nil)
	}
	return s
}

// Handler returns the root handler with tracing, request metrics and
// compression applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	protect := s.auth.Middleware(s.cookies)
	authed := func(fn http.HandlerFunc) http.Handler { return protect(fn) }

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.Handle("GET /api/auth/me", authed(s.handleMe))
	mux.Handle("DELETE /api/account", authed(s.handleDeleteAccount))

	mux.Handle("POST /api/analyze-speech", authed(s.handleAnalyzeSpeech))
	mux.Handle("POST /api/analyze-grammar", authed(s.handleAnalyzeGrammar))
	mux.Handle("POST /api/transcribe-audio", authed(s.handleTranscribeAudio))
	mux.Handle("GET "+poseStreamPath, authed(s.handlePoseStream))

	mux.Handle("POST /api/speech-sessions", authed(s.handleCreateSession))
	mux.Handle("GET /api/speech-sessions", authed(s.handleListSessions))
	mux.Handle("GET /api/speech-sessions/{id}", authed(s.handleGetSession))

	if s.health != nil {
		s.health.Register(mux)
	}
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	gz := gzhttp.GzipHandler(mux)
	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == poseStreamPath {
			mux.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
	return observe.Middleware(s.metrics)(root)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v and reports failures as
// 400, or 413 for an oversized body. It returns false when a response has
// been written.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
