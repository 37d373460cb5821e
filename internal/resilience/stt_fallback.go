package resilience

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrWong99/podium/pkg/provider/stt"
)

// STTFallback implements [stt.Transcriber] by failing over across several
// transcription backends, each behind its own breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Transcriber]
}

var _ stt.Transcriber = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Transcriber, primaryName string, cfg FallbackConfig) *STTFallback {
	cfg.CircuitBreaker.IsFailure = sttFailure(cfg.CircuitBreaker.IsFailure)
	return &STTFallback{group: NewFallbackGroup(primary, primaryName, cfg)}
}

// AddFallback registers another backend.
func (f *STTFallback) AddFallback(name string, t stt.Transcriber) {
	f.group.AddFallback(name, t)
}

// Transcribe sends audio to the first healthy backend.
func (f *STTFallback) Transcribe(ctx context.Context, audio stt.Audio) (*stt.Result, error) {
	res, name, err := ExecuteTagged(f.group, func(t stt.Transcriber) (*stt.Result, error) {
		return t.Transcribe(ctx, audio)
	})
	if err == nil {
		slog.Debug("audio transcribed", "provider", name, "bytes", len(audio.Data))
	}
	return res, err
}

// sttFailure keeps bad client payloads from tripping a healthy backend.
func sttFailure(next func(error) bool) func(error) bool {
	if next == nil {
		next = defaultIsFailure
	}
	return func(err error) bool {
		if errors.Is(err, stt.ErrInvalidAudio) {
			return false
		}
		return next(err)
	}
}
