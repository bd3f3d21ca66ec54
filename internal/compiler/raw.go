package compiler

import (
	"fmt"
	"strconv"
)

// rawMap is a generic definition mapping as produced by the structured-text
// loaders (TOML, YAML, JSON). The compiler is the only consumer; everything
// downstream works on the typed IR.
type rawMap = map[string]any

// asMap coerces a raw value to a nested mapping.
func asMap(v any) (rawMap, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asList coerces a raw value to a list.
func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// asString coerces a raw value to a string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// asInt coerces the integer shapes the three loaders produce: int from YAML,
// int64 from TOML, json.Number (as a Stringer) from the JSON decoder, and
// uint64 for TOML values above MaxInt64 range markers.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	case float64:
		// YAML and JSON loaders are configured to keep integers integral;
		// a float here is an author mistake unless it has no fraction.
		if n == float64(int64(n)) {
			return int64(n), true
		}
		return 0, false
	case fmt.Stringer:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// asBool coerces a raw value to a bool.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// optString returns a string key or "".
func optString(m rawMap, key string) string {
	s, _ := asString(m[key])
	return s
}

// optInt returns an integer key or the fallback.
func optInt(m rawMap, key string, fallback int64) (int64, bool) {
	v, present := m[key]
	if !present {
		return fallback, true
	}
	n, ok := asInt(v)
	if !ok {
		return 0, false
	}
	return n, true
}
