// Package deepgram provides a Deepgram-backed STT transcriber using the
// Deepgram pre-recorded audio API. It implements the stt.Transcriber interface.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrWong99/podium/pkg/provider/stt"
)

const (
	deepgramEndpoint = "https://api.deepgram.com/v1/listen"
	defaultModel     = "nova-3"
	defaultTimeout   = 60 * time.Second
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring the Deepgram Transcriber.
type Option func(*Transcriber)

// WithModel sets the Deepgram model to use (e.g., "nova-3", "base").
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage pins the recognition language (e.g., "en", "de"). When unset,
// Deepgram's language detection is enabled.
func WithLanguage(language string) Option {
	return func(t *Transcriber) {
		t.language = language
	}
}

// WithEndpoint overrides the API endpoint. Used by tests and self-hosted
// deployments.
func WithEndpoint(endpoint string) Option {
	return func(t *Transcriber) {
		t.endpoint = endpoint
	}
}

// Transcriber implements stt.Transcriber backed by the Deepgram REST API.
type Transcriber struct {
	apiKey     string
	model      string
	language   string
	endpoint   string
	httpClient *http.Client
}

// New creates a new Deepgram Transcriber. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	t := &Transcriber{
		apiKey:     apiKey,
		model:      defaultModel,
		endpoint:   deepgramEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Transcribe uploads the clip and converts Deepgram utterances into segments.
func (t *Transcriber) Transcribe(ctx context.Context, audio stt.Audio) (*stt.Result, error) {
	if len(audio.Data) == 0 {
		return nil, fmt.Errorf("deepgram: %w: empty audio", stt.ErrInvalidAudio)
	}

	u, err := t.buildURL(audio.Language)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(audio.Data))
	if err != nil {
		return nil, fmt.Errorf("deepgram: create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+t.apiKey)
	req.Header.Set("Content-Type", contentType(audio.Format))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepgram: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("deepgram: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram: server returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	res, err := parseDeepgramResponse(data)
	if err != nil {
		return nil, fmt.Errorf("deepgram: %w", err)
	}
	if res.Language == "" {
		res.Language = t.language
	}
	return res, nil
}

// buildURL constructs the Deepgram endpoint URL for one request.
func (t *Transcriber) buildURL(langHint string) (string, error) {
	u, err := url.Parse(t.endpoint)
	if err != nil {
		return "", err
	}

	lang := langHint
	if lang == "" {
		lang = t.language
	}

	q := u.Query()
	q.Set("model", t.model)
	q.Set("punctuate", "true")
	q.Set("smart_format", "true")
	q.Set("utterances", "true")
	if lang != "" {
		q.Set("language", lang)
	} else {
		q.Set("detect_language", "true")
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// contentType maps a short format name onto the MIME type Deepgram expects.
func contentType(format string) string {
	switch f := strings.ToLower(format); f {
	case "":
		return "application/octet-stream"
	case "pcm", "l16", "s16le":
		return "audio/l16;rate=16000;channels=1"
	case "mp3":
		return "audio/mpeg"
	default:
		return "audio/" + f
	}
}

// deepgramResponse is the JSON structure returned by Deepgram for a
// pre-recorded request.
type deepgramResponse struct {
	Metadata struct {
		Duration float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			DetectedLanguage string `json:"detected_language"`
			Alternatives     []struct {
				Transcript string `json:"transcript"`
				Words      []struct {
					Word  string  `json:"word"`
					Start float64 `json:"start"`
					End   float64 `json:"end"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []struct {
			Start      float64 `json:"start"`
			End        float64 `json:"end"`
			Transcript string  `json:"transcript"`
		} `json:"utterances"`
	} `json:"results"`
}

// parseDeepgramResponse converts a raw Deepgram response into a Result.
// Utterances become segments; without them the whole first alternative is a
// single segment spanning its first to last word.
func parseDeepgramResponse(data []byte) (*stt.Result, error) {
	var resp deepgramResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
		return nil, errors.New("response has no alternatives")
	}

	ch := resp.Results.Channels[0]
	alt := ch.Alternatives[0]
	res := &stt.Result{
		Text:     strings.TrimSpace(alt.Transcript),
		Language: ch.DetectedLanguage,
		Duration: resp.Metadata.Duration,
	}

	for _, u := range resp.Results.Utterances {
		text := strings.TrimSpace(u.Transcript)
		if text == "" {
			continue
		}
		res.Segments = append(res.Segments, stt.Segment{Text: text, Start: u.Start, End: u.End})
	}
	if len(res.Segments) == 0 && res.Text != "" && len(alt.Words) > 0 {
		res.Segments = []stt.Segment{{
			Text:  res.Text,
			Start: alt.Words[0].Start,
			End:   alt.Words[len(alt.Words)-1].End,
		}}
	}
	return res, nil
}
