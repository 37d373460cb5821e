package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrQuotaExceeded marks a provider failure caused by rate limiting or an
// exhausted usage quota. Adapters wrap it; callers test with errors.Is.
var ErrQuotaExceeded = errors.New("llm: quota or rate limit exceeded")

// quotaMarkers are lower-case substrings that providers use in error codes and
// messages to signal quota exhaustion when no structured status is available.
var quotaMarkers = []string{
	"insufficient_quota",
	"quota",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"resource_exhausted",
	"resource exhausted",
	"too many requests",
}

// QuotaError wraps err so that errors.Is(result, ErrQuotaExceeded) holds while
// the original error stays reachable through errors.As / errors.Unwrap.
func QuotaError(provider string, err error) error {
	return fmt.Errorf("%s: %w: %w", provider, ErrQuotaExceeded, err)
}

// IsQuota reports whether err represents a quota or rate-limit failure, either
// because it wraps [ErrQuotaExceeded] or because its message carries one of the
// known provider markers (HTTP 429 included).
func IsQuota(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}
	return HasQuotaMarker(err.Error())
}

// HasQuotaMarker reports whether msg looks like a quota or rate-limit message.
func HasQuotaMarker(msg string) bool {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "429") {
		return true
	}
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
