package stream

import (
	"github.com/spf13/cast"
)

// ValueKind identifies the variant held by a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
	KindBool
	KindList
	KindMap
)

// String returns string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindBool:
		return "BOOL"
	case KindList:
		return "LIST"
	case KindMap:
		return "MAP"
	default:
		return "UNKNOWN"
	}
}

// Value is a tagged union over the payload types an event field may hold.
// Aggregations operate on the numeric kinds (INT, FLOAT) only; all other
// kinds are skipped by numeric consumers rather than failing the pipeline.
type Value struct {
	kind ValueKind
	raw  interface{}
}

// IntValue wraps an int64
func IntValue(v int64) Value {
	return Value{kind: KindInt, raw: v}
}

// FloatValue wraps a float64
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, raw: v}
}

// StringValue wraps a string
func StringValue(v string) Value {
	return Value{kind: KindString, raw: v}
}

// BoolValue wraps a bool
func BoolValue(v bool) Value {
	return Value{kind: KindBool, raw: v}
}

// ListValue wraps an ordered sequence of values
func ListValue(v []Value) Value {
	return Value{kind: KindList, raw: v}
}

// MapValue wraps a string-keyed mapping of values
func MapValue(v map[string]Value) Value {
	return Value{kind: KindMap, raw: v}
}

// Kind returns the variant tag
func (v Value) Kind() ValueKind {
	return v.kind
}

// Int returns the int64 payload; ok is false for non-INT values
func (v Value) Int() (int64, bool) {
	i, ok := v.raw.(int64)
	return i, ok
}

// Float returns the float64 payload; ok is false for non-FLOAT values
func (v Value) Float() (float64, bool) {
	f, ok := v.raw.(float64)
	return f, ok
}

// Str returns the string payload; ok is false for non-STRING values
func (v Value) Str() (string, bool) {
	s, ok := v.raw.(string)
	return s, ok
}

// Bool returns the bool payload; ok is false for non-BOOL values
func (v Value) Bool() (bool, bool) {
	b, ok := v.raw.(bool)
	return b, ok
}

// List returns the list payload; ok is false for non-LIST values
func (v Value) List() ([]Value, bool) {
	l, ok := v.raw.([]Value)
	return l, ok
}

// Map returns the map payload; ok is false for non-MAP values
func (v Value) Map() (map[string]Value, bool) {
	m, ok := v.raw.(map[string]Value)
	return m, ok
}

// Float64 coerces numeric values (INT, FLOAT) to float64.
// Non-numeric kinds return ok=false so aggregators can skip them.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt, KindFloat:
		f, err := cast.ToFloat64E(v.raw)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Interface returns the raw payload for serialization.
// List and Map values are unwrapped recursively.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindList:
		list := v.raw.([]Value)
		out := make([]interface{}, len(list))
		for i, item := range list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		m := v.raw.(map[string]Value)
		out := make(map[string]interface{}, len(m))
		for k, item := range m {
			out[k] = item.Interface()
		}
		return out
	default:
		return v.raw
	}
}

// ValueOf builds a Value from a dynamically typed payload field, e.g. a
// decoded JSON document. Unrecognized types are stringified.
func ValueOf(raw interface{}) Value {
	switch x := raw.(type) {
	case Value:
		return x
	case int:
		return IntValue(int64(x))
	case int32:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case float32:
		return FloatValue(float64(x))
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case bool:
		return BoolValue(x)
	case []interface{}:
		list := make([]Value, len(x))
		for i, item := range x {
			list[i] = ValueOf(item)
		}
		return ListValue(list)
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = ValueOf(item)
		}
		return MapValue(m)
	default:
		return StringValue(cast.ToString(raw))
	}
}
