// Package jsonutil provides deep copy and deep structural equality helpers
// for decoded JSON/YAML values (map[string]any, []any, and scalars).
package jsonutil

// DeepCopy returns a deep copy of a decoded JSON value. Maps and slices
// are copied recursively; scalars are returned as-is.
func DeepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = DeepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = DeepCopy(item)
		}
		return out
	default:
		return v
	}
}

// DeepEqual reports whether two decoded JSON values are structurally
// equal. Objects are compared key-wise, arrays element-wise in order, and
// numbers numerically regardless of the decoded Go type (int vs float64).
func DeepEqual(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, item := range av {
			other, found := bv[k]
			if !found || !DeepEqual(item, other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i, item := range av {
			if !DeepEqual(item, bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		if af, ok := toFloat(a); ok {
			bf, bok := toFloat(b)
			return bok && af == bf
		}
		return a == b
	}
}

// toFloat normalizes the numeric types produced by JSON and YAML decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
