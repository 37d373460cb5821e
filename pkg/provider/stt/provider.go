// Package stt defines the Transcriber interface for Speech-to-Text backends.
//
// A transcriber wraps a batch transcription service (a local whisper.cpp
// server or the Deepgram pre-recorded API) and turns one recorded clip into
// text plus timestamped segments. The segments feed the delivery timing
// analyzer, so adapters should return them whenever the backend reports them.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// ErrInvalidAudio is returned when an audio payload cannot be decoded. It is a
// client error and must never trigger provider fallback.
var ErrInvalidAudio = errors.New("stt: invalid audio payload")

// Audio is one recorded clip submitted for transcription.
type Audio struct {
	// Data is the encoded audio file (webm, wav, mp3, ...) or raw 16-bit PCM
	// when Format is "pcm".
	Data []byte

	// Format is the container or MIME subtype, e.g. "webm", "wav", "pcm".
	// Empty means "let the backend sniff it".
	Format string

	// Language is an optional BCP-47 hint. Empty lets the backend auto-detect.
	Language string
}

// Transcriber is the abstraction over any batch STT backend.
type Transcriber interface {
	// Transcribe sends the clip to the backend and waits for the full result.
	// ctx bounds the whole request.
	Transcribe(ctx context.Context, audio Audio) (*Result, error)
}
