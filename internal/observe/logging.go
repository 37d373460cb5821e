package observe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig configures [NewLogger].
type LogConfig struct {
	// Level is shared with the config watcher so the level can change at
	// runtime. Nil means info.
	Level *slog.LevelVar

	// Stderr receives human-readable text logs. Nil means os.Stderr.
	Stderr io.Writer

	// File, if set, also writes JSON logs to a rotating file.
	File string

	// MaxSizeMB, MaxBackups and MaxAgeDays tune rotation. Zero values use
	// 50 MB, 5 backups and 28 days.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger builds the application logger. The returned closer releases the
// log file and is never nil.
func NewLogger(cfg LogConfig) (*slog.Logger, io.Closer) {
	level := cfg.Level
	if level == nil {
		level = new(slog.LevelVar)
	}
	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	text := slog.NewTextHandler(stderr, opts)
	if cfg.File == "" {
		return slog.New(text), io.NopCloser(nil)
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    orDefault(cfg.MaxSizeMB, 50),
		MaxBackups: orDefault(cfg.MaxBackups, 5),
		MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		Compress:   true,
	}
	return slog.New(fanout{text, slog.NewJSONHandler(lj, opts)}), lj
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// fanout sends every record to all handlers that accept its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
