package whisper_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/MrWong99/podium/pkg/provider/stt"
	"github.com/MrWong99/podium/pkg/provider/stt/whisper"
)

// ---- helpers ----------------------------------------------------------------

const verboseBody = `{
	"task": "transcribe",
	"language": "english",
	"duration": 6.5,
	"text": " Hello everyone. Today I want to talk about focus.",
	"segments": [
		{"id": 0, "text": " Hello everyone.", "start": 0.0, "end": 1.8},
		{"id": 1, "text": "   ", "start": 1.8, "end": 2.0},
		{"id": 2, "text": " Today I want to talk about focus.", "start": 2.6, "end": 6.5}
	]
}`

// capturedForm holds the multipart fields the mock server observed.
type capturedForm struct {
	filename string
	fields   map[string]string
	fileHead []byte
}

// newMockServer creates a test server that responds to POST /inference with
// body. Every request is recorded in *got and counted in calls.
func newMockServer(t *testing.T, status int, body string, got *capturedForm, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if calls != nil {
			calls.Add(1)
		}
		if got != nil {
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			got.fields = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				got.fields[k] = v[0]
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			got.filename = hdr.Filename
			head := make([]byte, 4)
			_, _ = io.ReadFull(f, head)
			got.fileHead = head
			_ = f.Close()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
}

// ---- construction -----------------------------------------------------------

func TestNew_EmptyServerURL_ReturnsError(t *testing.T) {
	if _, err := whisper.New(""); err == nil {
		t.Fatal("expected error for empty serverURL, got nil")
	}
}

func TestNew_WithOptions_DoesNotError(t *testing.T) {
	tr, err := whisper.New("http://localhost:8080",
		whisper.WithModel("small"),
		whisper.WithLanguage("de"),
		whisper.WithSampleRate(16000),
		whisper.WithHTTPClient(http.DefaultClient),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr == nil {
		t.Fatal("expected non-nil Transcriber")
	}
}

// ---- transcription ----------------------------------------------------------

func TestTranscribe_ParsesSegments(t *testing.T) {
	var got capturedForm
	srv := newMockServer(t, http.StatusOK, verboseBody, &got, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL + "/")
	res, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("webmdata"), Format: "webm"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if res.Text != "Hello everyone. Today I want to talk about focus." {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2 (blank segment dropped)", len(res.Segments))
	}
	if res.Segments[1].Start != 2.6 || res.Segments[1].End != 6.5 {
		t.Errorf("segment[1] = %+v", res.Segments[1])
	}
	if res.Language != "english" {
		t.Errorf("language = %q, want english", res.Language)
	}
	if res.Duration != 6.5 {
		t.Errorf("duration = %v, want 6.5", res.Duration)
	}

	if got.filename != "audio.webm" {
		t.Errorf("filename = %q, want audio.webm", got.filename)
	}
	if got.fields["response_format"] != "verbose_json" {
		t.Errorf("response_format = %q", got.fields["response_format"])
	}
	if got.fields["language"] != "en" {
		t.Errorf("language field = %q, want default en", got.fields["language"])
	}
}

func TestTranscribe_PCMIsWrappedInWAV(t *testing.T) {
	var got capturedForm
	srv := newMockServer(t, http.StatusOK, `{"text":"hi","segments":[]}`, &got, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL, whisper.WithModel("base.en"))
	pcm := make([]byte, 32000) // 1 s of 16 kHz mono silence
	res, err := tr.Transcribe(context.Background(), stt.Audio{Data: pcm, Format: "pcm", Language: "de"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got.filename != "audio.wav" {
		t.Errorf("filename = %q, want audio.wav", got.filename)
	}
	if string(got.fileHead) != "RIFF" {
		t.Errorf("file header = %q, want RIFF", got.fileHead)
	}
	if got.fields["model"] != "base.en" {
		t.Errorf("model field = %q", got.fields["model"])
	}
	if got.fields["language"] != "de" {
		t.Errorf("language field = %q, want request hint de", got.fields["language"])
	}
	if res.Duration != 1 {
		t.Errorf("duration = %v, want 1 (derived from PCM length)", res.Duration)
	}
}

func TestTranscribe_TextFallsBackToSegments(t *testing.T) {
	body := `{"text":"","segments":[{"text":" one ","start":0,"end":1},{"text":"two","start":1,"end":2.5}]}`
	srv := newMockServer(t, http.StatusOK, body, nil, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	res, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("x")})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Text != "one two" {
		t.Errorf("text = %q, want %q", res.Text, "one two")
	}
	if res.Duration != 2.5 {
		t.Errorf("duration = %v, want 2.5", res.Duration)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	srv := newMockServer(t, http.StatusInternalServerError, `{"error":"model not loaded"}`, nil, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	_, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("x")})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q should mention status", err)
	}
}

func TestTranscribe_MalformedJSON(t *testing.T) {
	srv := newMockServer(t, http.StatusOK, `not json`, nil, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	if _, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("x")}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTranscribe_EmptyAudioSkipsServer(t *testing.T) {
	var calls atomic.Int32
	srv := newMockServer(t, http.StatusOK, verboseBody, nil, &calls)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	_, err := tr.Transcribe(context.Background(), stt.Audio{})
	if !errors.Is(err, stt.ErrInvalidAudio) {
		t.Fatalf("err = %v, want ErrInvalidAudio", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times, want 0", calls.Load())
	}
}

func TestTranscribe_CancelledContext(t *testing.T) {
	srv := newMockServer(t, http.StatusOK, verboseBody, nil, nil)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Transcribe(ctx, stt.Audio{Data: []byte("x")}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
