package deepgram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/MrWong99/podium/pkg/provider/stt"
)

const sampleResponse = `{
	"metadata": {"duration": 5.2},
	"results": {
		"channels": [{
			"detected_language": "en",
			"alternatives": [{
				"transcript": "Good morning. Let me tell you a story.",
				"words": [
					{"word": "good", "start": 0.1, "end": 0.4},
					{"word": "story", "start": 4.6, "end": 5.1}
				]
			}]
		}],
		"utterances": [
			{"start": 0.1, "end": 1.0, "transcript": "Good morning."},
			{"start": 1.9, "end": 5.1, "transcript": "Let me tell you a story."}
		]
	}
}`

func TestBuildURL_Defaults(t *testing.T) {
	tr, _ := New("key")
	raw, err := tr.buildURL("")
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}
	u, _ := url.Parse(raw)
	q := u.Query()

	assertEqual(t, "model", "nova-3", q.Get("model"))
	assertEqual(t, "utterances", "true", q.Get("utterances"))
	assertEqual(t, "detect_language", "true", q.Get("detect_language"))
	assertEqual(t, "language", "", q.Get("language"))
}

func TestBuildURL_LanguageHintWins(t *testing.T) {
	tr, _ := New("key", WithLanguage("en"), WithModel("base"))
	raw, _ := tr.buildURL("de")
	q, _ := url.ParseQuery(mustQuery(t, raw))

	assertEqual(t, "language", "de", q.Get("language"))
	assertEqual(t, "model", "base", q.Get("model"))
	assertEqual(t, "detect_language", "", q.Get("detect_language"))
}

func TestParseDeepgramResponse_Utterances(t *testing.T) {
	res, err := parseDeepgramResponse([]byte(sampleResponse))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	assertEqual(t, "text", "Good morning. Let me tell you a story.", res.Text)
	assertEqual(t, "language", "en", res.Language)
	if len(res.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(res.Segments))
	}
	if res.Segments[1].Start != 1.9 || res.Segments[1].End != 5.1 {
		t.Errorf("segment[1] = %+v", res.Segments[1])
	}
	if res.Duration != 5.2 {
		t.Errorf("duration = %v, want 5.2", res.Duration)
	}
}

func TestParseDeepgramResponse_NoUtterancesUsesWords(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":"hello there",
		"words":[{"word":"hello","start":0.5,"end":0.9},{"word":"there","start":1.0,"end":1.4}]}]}]}}`
	res, err := parseDeepgramResponse([]byte(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.Segments) != 1 {
		t.Fatalf("segments = %d, want 1", len(res.Segments))
	}
	if res.Segments[0].Start != 0.5 || res.Segments[0].End != 1.4 {
		t.Errorf("segment = %+v", res.Segments[0])
	}
}

func TestParseDeepgramResponse_EmptyAlternatives(t *testing.T) {
	if _, err := parseDeepgramResponse([]byte(`{"results":{"channels":[{"alternatives":[]}]}}`)); err == nil {
		t.Error("expected error for empty alternatives")
	}
}

func TestParseDeepgramResponse_InvalidJSON(t *testing.T) {
	if _, err := parseDeepgramResponse([]byte("{not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"":     "application/octet-stream",
		"webm": "audio/webm",
		"MP3":  "audio/mpeg",
		"pcm":  "audio/l16;rate=16000;channels=1",
	}
	for in, want := range tests {
		assertEqual(t, "contentType("+in+")", want, contentType(in))
	}
}

func TestTranscribe_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "audio/webm" {
			http.Error(w, "bad content type "+ct, http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "webmdata" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	tr, _ := New("secret", WithEndpoint(srv.URL+"/v1/listen"))
	res, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("webmdata"), Format: "webm"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(res.Segments))
	}
}

func TestTranscribe_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"err_code":"ASR_PAYMENT_REQUIRED"}`, http.StatusPaymentRequired)
	}))
	defer srv.Close()

	tr, _ := New("secret", WithEndpoint(srv.URL))
	if _, err := tr.Transcribe(context.Background(), stt.Audio{Data: []byte("x")}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	tr, _ := New("secret")
	_, err := tr.Transcribe(context.Background(), stt.Audio{})
	if !errors.Is(err, stt.ErrInvalidAudio) {
		t.Fatalf("err = %v, want ErrInvalidAudio", err)
	}
}

func TestNew_EmptyAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func mustQuery(t *testing.T, raw string) string {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u.RawQuery
}

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if want != got {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
