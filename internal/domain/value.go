package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the dynamic SQL value types.
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindText
	KindBlob
)

// Value is a tagged union over the value types SQLite can store. It keeps
// NULL distinct from the empty string and integers distinct from floats, so
// values survive a round trip through the API without lossy coercion.
type Value struct {
	kind  Kind
	int   int64
	float float64
	text  string
	blob  []byte
}

func Null() Value           { return Value{kind: KindNull} }
func Integer(v int64) Value { return Value{kind: KindInteger, int: v} }
func Float(v float64) Value { return Value{kind: KindFloat, float: v} }
func Text(v string) Value   { return Value{kind: KindText, text: v} }
func Blob(v []byte) Value   { return Value{kind: KindBlob, blob: v} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) Int64() int64     { return v.int }
func (v Value) Float64() float64 { return v.float }
func (v Value) Text() string     { return v.text }
func (v Value) Blob() []byte     { return v.blob }

// FromDriver converts a value scanned from database/sql into a Value.
func FromDriver(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case int64:
		return Integer(v), nil
	case float64:
		return Float(v), nil
	case string:
		return Text(v), nil
	case []byte:
		b := make([]byte, len(v))
		copy(b, v)
		return Blob(b), nil
	case bool:
		if v {
			return Integer(1), nil
		}
		return Integer(0), nil
	case time.Time:
		return Text(v.UTC().Format(time.RFC3339)), nil
	default:
		return Value{}, fmt.Errorf("unsupported engine value type %T", v)
	}
}

// FromJSON converts a decoded JSON value (as produced by a json.Decoder with
// UseNumber) into a Value. JSON numbers without a fractional part become
// integers; arrays and objects are not bindable.
func FromJSON(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return Null(), nil
	case bool:
		if v {
			return Integer(1), nil
		}
		return Integer(0), nil
	case string:
		return Text(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Integer(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("unsupported numeric parameter %q", v.String())
		}
		return Float(f), nil
	case float64:
		return Float(v), nil
	default:
		return Value{}, fmt.Errorf("unsupported parameter type %T", v)
	}
}

// Driver returns the database/sql binding representation of the value.
func (v Value) Driver() any {
	switch v.kind {
	case KindInteger:
		return v.int
	case KindFloat:
		return v.float
	case KindText:
		return v.text
	case KindBlob:
		return v.blob
	default:
		return nil
	}
}

// MarshalJSON renders NULL as null, integers and floats as JSON numbers,
// text as a string, and blobs as base64.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return json.Marshal(v.int)
	case KindFloat:
		return json.Marshal(v.float)
	case KindText:
		return json.Marshal(v.text)
	case KindBlob:
		return json.Marshal(v.blob)
	default:
		return []byte("null"), nil
	}
}
