package layering

import (
	"sort"
	"strings"
)

// Expand turns a flat map keyed by separator-joined paths ("server.port")
// into a nested map. Keys are applied in sorted order so the result is
// deterministic; when a path and one of its prefixes both carry values the
// deeper path wins.
func Expand(flat map[string]any, separator string) map[string]any {
	out := map[string]any{}
	if len(flat) == 0 {
		return out
	}
	if separator == "" {
		separator = "."
	}

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		SetPath(out, strings.Split(key, separator), flat[key])
	}
	return out
}

// SetPath stores value at the nested location described by segments,
// creating intermediate maps as needed. A scalar never replaces a populated
// map.
func SetPath(target map[string]any, segments []string, value any) {
	if target == nil || len(segments) == 0 {
		return
	}
	current := target
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	leaf := segments[len(segments)-1]
	if existing, ok := current[leaf].(map[string]any); ok {
		if _, replacing := value.(map[string]any); !replacing && len(existing) > 0 {
			return
		}
	}
	current[leaf] = value
}
