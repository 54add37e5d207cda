package query

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// valueKind groups stored values by how they compare.
type valueKind int

const (
	kindNil valueKind = iota
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
	kindOther
)

func (k valueKind) String() string {
	switch k {
	case kindNil:
		return "null"
	case kindBool:
		return "boolean"
	case kindNumber:
		return "number"
	case kindString:
		return "string"
	case kindArray:
		return "array"
	case kindObject:
		return "object"
	default:
		return "unknown"
	}
}

func kindOf(v any) valueKind {
	if v == nil {
		return kindNil
	}
	if _, ok := toFloat64(v); ok {
		return kindNumber
	}
	switch v.(type) {
	case bool:
		return kindBool
	case string:
		return kindString
	case map[string]any:
		return kindObject
	}
	if _, ok := toList(v); ok {
		return kindArray
	}
	return kindOther
}

// toFloat64 converts any Go numeric value to float64. Strings are never parsed.
func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case jsoniter.Number:
		f, err := v.Float64()
		return f, err == nil
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// toInt64 returns the exact integer value of integer kinds only.
func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// toList accepts the slice shapes callers realistically pass as list operands.
func toList(val any) ([]any, bool) {
	switch v := val.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

func isLiteral(v any) bool {
	switch kindOf(v) {
	case kindNil, kindBool, kindNumber, kindString:
		return true
	default:
		return false
	}
}

func isOrderable(v any) bool {
	k := kindOf(v)
	return k == kindNumber || k == kindString
}

// Equal reports type-aware equality: numbers compare numerically whatever their Go
// type, strings and booleans only equal their own kind, arrays and objects compare
// element by element. Values of different kinds are never equal.
func Equal(a, b any) bool {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}
	switch ka {
	case kindNil:
		return true
	case kindBool:
		return a.(bool) == b.(bool)
	case kindString:
		return a.(string) == b.(string)
	case kindNumber:
		if ia, ok := toInt64(a); ok {
			if ib, ok := toInt64(b); ok {
				return ia == ib
			}
		}
		fa, _ := toFloat64(a)
		fb, _ := toFloat64(b)
		return fa == fb
	case kindArray:
		la, _ := toList(a)
		lb, _ := toList(b)
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	case kindObject:
		ma, mb := a.(map[string]any), b.(map[string]any)
		if len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !Equal(va, vb) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// compareOrdered returns -1, 0 or 1. Both values must be numbers or both strings.
func compareOrdered(a, b any) (int, bool) {
	if fa, ok := toFloat64(a); ok {
		fb, ok := toFloat64(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		default:
			return 0, true
		}
	}
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func describe(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}
