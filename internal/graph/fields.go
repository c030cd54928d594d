package graph

import (
	"strings"
	"time"
)

// stringField safely extracts a string field, returning "" if absent or not a string.
func stringField(obj map[string]any, field string) string {
	if v, ok := obj[field].(string); ok {
		return v
	}
	return ""
}

// firstString returns the first non-empty string among fields, or def.
func firstString(obj map[string]any, def string, fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(stringField(obj, f)); v != "" {
			return v
		}
	}
	return def
}

// mapField extracts a nested object.
func mapField(obj map[string]any, field string) map[string]any {
	if v, ok := obj[field].(map[string]any); ok {
		return v
	}
	return nil
}

// timeField parses an RFC 3339 timestamp field, returning nil when absent or malformed.
func timeField(obj map[string]any, fields ...string) *time.Time {
	for _, f := range fields {
		s := stringField(obj, f)
		if s == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			continue
		}
		return &t
	}
	return nil
}

// hasField reports whether the key is present with a non-null value.
func hasField(obj map[string]any, field string) bool {
	v, ok := obj[field]
	return ok && v != nil
}
