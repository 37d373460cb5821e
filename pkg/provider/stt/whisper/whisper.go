// Package whisper provides a local whisper.cpp-backed STT transcriber.
//
// It talks to a running whisper-server binary (which exposes a REST API at
// POST /inference) and requests the verbose JSON response so that per-segment
// timestamps are available to the delivery analyzer.
//
// Raw 16-bit PCM input (Format "pcm") is wrapped in a WAV container before
// upload; every other format is forwarded as-is and decoded by the server
// (whisper-server must be started with --convert for compressed formats such
// as webm).
//
// Usage:
//
//	t, err := whisper.New("http://localhost:8080", whisper.WithLanguage("en"))
//	res, err := t.Transcribe(ctx, stt.Audio{Data: wav, Format: "wav"})
package whisper

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/podium/pkg/provider/stt"
)

const (
	// bitsPerSample is fixed at 16 for the 16-bit signed little-endian PCM
	// audio that whisper.cpp expects.
	bitsPerSample = 16

	defaultLanguage   = "en"
	defaultSampleRate = 16000
	defaultTimeout    = 60 * time.Second
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with, which is the default.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage sets the language code sent to the whisper.cpp server when the
// request carries no hint of its own. Defaults to "en". "auto" enables
// detection.
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		t.language = lang
	}
}

// WithSampleRate sets the sample rate assumed for raw PCM input. Defaults to
// 16000.
func WithSampleRate(rate int) Option {
	return func(t *Transcriber) {
		t.sampleRate = rate
	}
}

// WithHTTPClient replaces the default HTTP client (60 s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// Transcriber implements stt.Transcriber backed by a whisper.cpp HTTP server.
type Transcriber struct {
	serverURL  string
	model      string
	language   string
	sampleRate int
	httpClient *http.Client
}

// New creates a Transcriber that connects to the whisper.cpp HTTP server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		sampleRate: defaultSampleRate,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// inferenceResponse mirrors the verbose_json body returned by whisper-server.
type inferenceResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"segments"`
}

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, audio stt.Audio) (*stt.Result, error) {
	if len(audio.Data) == 0 {
		return nil, fmt.Errorf("whisper: %w: empty audio", stt.ErrInvalidAudio)
	}

	data, filename := audio.Data, "audio"
	isPCM := false
	switch f := strings.ToLower(audio.Format); f {
	case "pcm", "l16", "s16le":
		data = encodeWAV(audio.Data, t.sampleRate, 1)
		filename += ".wav"
		isPCM = true
	case "":
	default:
		filename += "." + f
	}

	lang := audio.Language
	if lang == "" {
		lang = t.language
	}

	body, contentType, err := t.buildForm(data, filename, lang)
	if err != nil {
		return nil, err
	}

	endpoint := t.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var ir inferenceResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	res := toResult(ir, lang)
	if isPCM && res.Duration <= 0 {
		res.Duration = pcmDuration(audio.Data, t.sampleRate)
	}
	return res, nil
}

// buildForm encodes the multipart body for POST /inference.
func (t *Transcriber) buildForm(data []byte, filename, lang string) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", fmt.Errorf("whisper: write audio data: %w", err)
	}

	fields := map[string]string{
		"response_format": "verbose_json",
		"temperature":     "0.0",
	}
	if lang != "" {
		fields["language"] = lang
	}
	if t.model != "" {
		fields["model"] = t.model
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("whisper: write %s field: %w", k, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}
	return &body, mw.FormDataContentType(), nil
}

// toResult converts the server response, dropping empty segments.
func toResult(ir inferenceResponse, lang string) *stt.Result {
	res := &stt.Result{
		Text:     strings.TrimSpace(ir.Text),
		Language: ir.Language,
		Duration: ir.Duration,
	}
	if res.Language == "" && lang != "auto" {
		res.Language = lang
	}

	var parts []string
	for _, s := range ir.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		res.Segments = append(res.Segments, stt.Segment{Text: text, Start: s.Start, End: s.End})
		parts = append(parts, text)
	}
	if res.Text == "" {
		res.Text = strings.Join(parts, " ")
	}
	if res.Duration <= 0 && len(res.Segments) > 0 {
		res.Duration = res.Segments[len(res.Segments)-1].End
	}
	return res
}

// ---- helpers ----------------------------------------------------------------

// encodeWAV wraps raw 16-bit signed little-endian PCM data in a standard
// RIFF/WAV container.
func encodeWAV(pcm []byte, sampleRate, channels int) []byte {
	bps := bitsPerSample
	byteRate := sampleRate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(pcm)

	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize)) // file size − 8
	copy(buf[8:12], "WAVE")

	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)                 // sub-chunk size (PCM)
	binary.LittleEndian.PutUint16(buf[20:22], 1)                  // audio format: PCM
	binary.LittleEndian.PutUint16(buf[22:24], uint16(channels))   // num channels
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate)) // sample rate
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))   // byte rate
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign)) // block align
	binary.LittleEndian.PutUint16(buf[34:36], uint16(bps))        // bits per sample

	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	copy(buf[44:], pcm)

	return buf
}

// pcmDuration returns the length in seconds of mono 16-bit PCM at sampleRate.
func pcmDuration(pcm []byte, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	samples := len(pcm) / (bitsPerSample / 8)
	return math.Round(float64(samples)/float64(sampleRate)*1000) / 1000
}
