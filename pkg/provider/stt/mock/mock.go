// Package mock provides test doubles for the stt package interfaces.
//
// Use Transcriber to feed a controlled Result to the transcription endpoint
// and inspect which audio payloads were delivered.
//
// Example:
//
//	tr := &mock.Transcriber{
//	    Result: &stt.Result{Text: "hello", Segments: segs},
//	}
//	res, _ := tr.Transcribe(ctx, audio)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/podium/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Audio is a copy of the payload passed to Transcribe.
	Audio stt.Audio
}

// Transcriber is a mock implementation of stt.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Result is returned by Transcribe. May be nil (returns nil, nil).
	Result *stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Result, Err.
func (t *Transcriber) Transcribe(ctx context.Context, audio stt.Audio) (*stt.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := audio
	cp.Data = append([]byte(nil), audio.Data...)
	t.Calls = append(t.Calls, TranscribeCall{Ctx: ctx, Audio: cp})
	return t.Result, t.Err
}

// CallCount returns the number of Transcribe calls. Thread-safe.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = nil
}

// Ensure Transcriber implements stt.Transcriber at compile time.
var _ stt.Transcriber = (*Transcriber)(nil)
