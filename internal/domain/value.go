package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind discriminates the variants a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindTimestamp
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTimestamp:
		return "timestamp"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Value is a tagged variant over {integer, float, timestamp, text, null}.
// The zero value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	t    time.Time
	s    string
}

func Null() Value               { return Value{} }
func Int(v int64) Value         { return Value{kind: KindInt, i: v} }
func Float(v float64) Value     { return Value{kind: KindFloat, f: v} }
func Timestamp(t time.Time) Value {
	return Value{kind: KindTimestamp, t: t.UTC()}
}
func Text(s string) Value { return Value{kind: KindText, s: s} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) Int64() int64  { return v.i }
func (v Value) Float64() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}
	return v.f
}
func (v Value) Time() time.Time { return v.t }

// Text returns the textual form of the value. Numeric and timestamp
// variants are rendered, so a column demoted to text keeps a uniform shape.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindTimestamp:
		return v.t.Format(time.RFC3339)
	case KindText:
		return v.s
	default:
		return ""
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindTimestamp:
		return json.Marshal(v.t.Format(time.RFC3339))
	case KindText:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}
