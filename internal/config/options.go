package config

import (
	"fmt"
	"strconv"
)

// OptString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a string.
func OptString(opts map[string]any, key string) string {
	s, _ := opts[key].(string)
	return s
}

func fmtValue(v any) string { return fmt.Sprintf("%v", v) }

// OptInt extracts an integer from a provider Options map. YAML numbers and
// numeric strings are both accepted. ok is false when the key is absent.
func OptInt(opts map[string]any, key string) (n int, ok bool, err error) {
	v, present := opts[key]
	if !present {
		return 0, false, nil
	}
	switch x := v.(type) {
	case int:
		return x, true, nil
	case float64:
		return int(x), true, nil
	case string:
		n, err := strconv.Atoi(x)
		if err != nil {
			return 0, true, fmt.Errorf("config: option %q: %w", key, err)
		}
		return n, true, nil
	}
	return 0, true, fmt.Errorf("config: option %q: unsupported value %v", key, fmtValue(v))
}
