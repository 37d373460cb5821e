package insight

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/MrWong99/podium/internal/analysis"
)

// ErrMalformedResponse is returned when the model output is not the expected
// JSON object.
var ErrMalformedResponse = errors.New("insight: malformed model response")

// decode strips optional code fences and unmarshals content into v.
func decode(content string, v any) error {
	cleaned := stripMarkdown(content)
	if cleaned == "" {
		return fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// scoreOr rounds and clamps a model score into 0..100, or returns def when
// the model left it out.
func scoreOr(v *float64, def int) int {
	if v == nil {
		return def
	}
	return analysis.ClampScore(*v)
}

// stripMarkdown removes optional markdown code fences (```json ... ```) that
// some models prepend and append to JSON output.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

// cleanList trims entries, drops blanks and keeps at most n.
func cleanList(in []string, n int) []string {
	out := make([]string, 0, min(len(in), n))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == n {
			break
		}
	}
	return out
}
