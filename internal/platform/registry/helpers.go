package registry

import (
	"strconv"
	"strings"
	"time"
)

// Type-safe configuration extraction helpers for collectors.
// Collector configuration arrives as map[string]any decoded from YAML (int),
// TOML (int64) or JSON (float64); these helpers hide that difference.

// GetStringConfig extracts a string value from the config map with a default fallback.
// Returns the default value if the map is nil, the key is missing, the value is
// not a string or the string is empty.
func GetStringConfig(cfg map[string]any, key, defaultValue string) string {
	if cfg == nil {
		return defaultValue
	}

	if val, ok := cfg[key].(string); ok && val != "" {
		return val
	}

	return defaultValue
}

// GetIntConfig extracts an int value from the config map with a default fallback.
// Handles int, int64 and float64 as well as numeric strings.
func GetIntConfig(cfg map[string]any, key string, defaultValue int) int {
	if cfg == nil {
		return defaultValue
	}

	switch val := cfg[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return i
		}
	}

	return defaultValue
}

// GetBoolConfig extracts a bool value from the config map with a default fallback.
func GetBoolConfig(cfg map[string]any, key string, defaultValue bool) bool {
	if cfg == nil {
		return defaultValue
	}

	if val, ok := cfg[key].(bool); ok {
		return val
	}

	return defaultValue
}

// GetDurationConfig extracts a time.Duration value from the config map with a default fallback.
// Accepts duration as:
//   - time.Duration (direct)
//   - int, int64, float64 (seconds, the unit used by every config file)
//   - string (time.ParseDuration, or a bare number of seconds)
//
// Non-positive values fall back to the default.
func GetDurationConfig(cfg map[string]any, key string, defaultValue time.Duration) time.Duration {
	if cfg == nil {
		return defaultValue
	}

	val, exists := cfg[key]
	if !exists {
		return defaultValue
	}

	var d time.Duration
	switch v := val.(type) {
	case time.Duration:
		d = v
	case int:
		d = time.Duration(v) * time.Second
	case int64:
		d = time.Duration(v) * time.Second
	case float64:
		d = time.Duration(v * float64(time.Second))
	case string:
		s := strings.TrimSpace(v)
		if parsed, err := time.ParseDuration(s); err == nil {
			d = parsed
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			d = time.Duration(f * float64(time.Second))
		}
	}

	if d <= 0 {
		return defaultValue
	}
	return d
}

// GetSliceConfig extracts a []string slice from the config map with a default fallback.
// Converts []any to []string and splits comma-separated strings.
func GetSliceConfig(cfg map[string]any, key string, defaultValue []string) []string {
	if cfg == nil {
		return defaultValue
	}

	val, exists := cfg[key]
	if !exists {
		return defaultValue
	}

	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				// If any item is not a string, return default
				return defaultValue
			}
			out = append(out, str)
		}
		return out
	case string:
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}

	return defaultValue
}
