// Package jsonutil provides coercion of upstream values into plain
// JSON-representable Go values.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"time"
)

// Normalize converts an arbitrary value into a plain JSON-representable
// shape: map[string]any, []any, nil, bool, string, or float64/int64.
// It is total (never fails) and idempotent: normalizing a normalized value
// returns it unchanged. Anything that cannot be represented in JSON falls
// back to its string form.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case bool, string, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	case json.Number:
		// Prefer exact integers; fall back to float, then raw string.
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	default:
		// Anything json.Marshal can handle is already representable.
		if _, err := json.Marshal(val); err == nil {
			return val
		}
		return fmt.Sprint(val)
	}
}

// NormalizeRow normalizes every value of a result row in place-compatible
// fashion, returning a fresh map.
func NormalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = Normalize(v)
	}
	return out
}
