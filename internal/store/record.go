package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one document: a flat mapping of field names to JSON-compatible values.
type Record = map[string]any

// DecodeRecord parses a JSON object into a Record with normalised numbers.
func DecodeRecord(data []byte) (Record, error) {
	var v any
	if err := decodeNumbers(data, &v); err != nil {
		return nil, err
	}
	rec, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
	return Normalize(rec).(map[string]any), nil
}

func decodeNumbers(data []byte, out *any) error {
	decoder := jsonAPI.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	return decoder.Decode(out)
}

// Normalize rewrites numbers so that integral JSON numbers and Go integer kinds
// become int64 and everything else becomes float64. Maps and slices are rebuilt,
// other values pass through untouched.
func Normalize(v any) any {
	switch val := v.(type) {
	case jsoniter.Number:
		return normalizeNumber(string(val))
	case json.Number:
		return normalizeNumber(string(val))
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint:
		return normalizeUnsigned(uint64(val))
	case uint64:
		return normalizeUnsigned(val)
	case float32:
		return float64(val)
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
	case []string:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

// Unsigned values past MaxInt64 only fit a float64.
func normalizeUnsigned(u uint64) any {
	if u > math.MaxInt64 {
		return float64(u)
	}
	return int64(u)
}

func normalizeNumber(s string) any {
	n := json.Number(s)
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return s
}

// CloneRecord deep-copies a record so callers never share state with the table.
func CloneRecord(rec Record) Record {
	if rec == nil {
		return nil
	}
	return cloneValue(rec).(map[string]any)
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// recordID extracts the integer id of a record.
func recordID(rec Record, field string) (int64, bool) {
	switch v := rec[field].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}
