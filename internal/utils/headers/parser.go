package headers

import (
	"strings"
)

// ParseHeaders converts "Key: Value" strings into a map. Entries without a
// colon or with an empty key are ignored; a later entry overrides an earlier one.
func ParseHeaders(h []string) map[string]string {
	m := make(map[string]string)
	for _, hdr := range h {
		key, value, ok := strings.Cut(hdr, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		m[key] = strings.TrimSpace(value)
	}
	return m
}

// Merge returns a new map holding base overlaid with override
func Merge(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
