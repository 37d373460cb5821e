package stt

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestDecodeDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("RIFFdata"))

	tests := []struct {
		name       string
		uri        string
		fallback   string
		wantFormat string
		wantErr    bool
	}{
		{name: "webm with codecs", uri: "data:audio/webm;codecs=opus;base64," + payload, wantFormat: "webm"},
		{name: "wav", uri: "data:audio/wav;base64," + payload, wantFormat: "wav"},
		{name: "bare base64 uses fallback", uri: payload, fallback: "mp3", wantFormat: "mp3"},
		{name: "empty", uri: "  ", wantErr: true},
		{name: "no comma", uri: "data:audio/wav;base64", wantErr: true},
		{name: "not base64", uri: "data:audio/wav," + payload, wantErr: true},
		{name: "garbage payload", uri: "data:audio/wav;base64,!!!", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURI(tt.uri, tt.fallback)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAudio) {
					t.Fatalf("err = %v, want ErrInvalidAudio", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Format != tt.wantFormat {
				t.Errorf("format = %q, want %q", got.Format, tt.wantFormat)
			}
			if string(got.Data) != "RIFFdata" {
				t.Errorf("data = %q", got.Data)
			}
		})
	}
}
