package stt

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeDataURI parses a base64 data URI such as
// "data:audio/webm;codecs=opus;base64,GkXf..." into an Audio value. A bare
// base64 string without the "data:" prefix is accepted as well. fallbackFormat
// is used when the URI carries no MIME type.
func DecodeDataURI(uri, fallbackFormat string) (Audio, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Audio{}, fmt.Errorf("%w: empty audio", ErrInvalidAudio)
	}

	format := fallbackFormat
	payload := uri
	if rest, ok := strings.CutPrefix(uri, "data:"); ok {
		header, data, found := strings.Cut(rest, ",")
		if !found {
			return Audio{}, fmt.Errorf("%w: data URI without payload", ErrInvalidAudio)
		}
		if !strings.HasSuffix(header, ";base64") && !strings.Contains(header, ";base64;") {
			return Audio{}, fmt.Errorf("%w: data URI is not base64 encoded", ErrInvalidAudio)
		}
		mime, _, _ := strings.Cut(header, ";")
		if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
			format = sub
		}
		payload = data
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Audio{}, fmt.Errorf("%w: %w", ErrInvalidAudio, err)
	}
	if len(raw) == 0 {
		return Audio{}, fmt.Errorf("%w: empty audio", ErrInvalidAudio)
	}
	return Audio{Data: raw, Format: strings.ToLower(format)}, nil
}
