package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindRecord
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindRecord:
		return "record"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a tagged field value. The zero Value is absent.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	rec  Record
	list []Value
}

// Absent returns the sentinel for an unresolvable field.
func Absent() Value { return Value{} }

// Null returns an explicit null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Nested wraps a record as a value.
func Nested(r Record) Value {
	if r == nil {
		r = Record{}
	}
	return Value{kind: KindRecord, rec: r}
}

// List wraps a sequence of values.
func List(values ...Value) Value {
	if values == nil {
		values = []Value{}
	}
	return Value{kind: KindList, list: values}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Present reports whether the value is neither absent nor null.
func (v Value) Present() bool { return v.kind != KindAbsent && v.kind != KindNull }

// Empty reports whether the value is falsy: absent, null, "", 0 or false.
func (v Value) Empty() bool {
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindString:
		return v.str == ""
	case KindNumber:
		return v.num == 0 || math.IsNaN(v.num)
	case KindBool:
		return !v.b
	default:
		return false
	}
}

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

func (v Value) AsNumber() (float64, bool) { return v.num, v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsRecord() (Record, bool) { return v.rec, v.kind == KindRecord }

func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// Text returns the canonical string form of a present value. Absent and null
// values return ok=false.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.str, true
	case KindNumber:
		return formatNumber(v.num), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	case KindRecord, KindList:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(encoded), true
	default:
		return "", false
	}
}

// TextOrEmpty is Text with absent and null rendered as "".
func (v Value) TextOrEmpty() string {
	s, _ := v.Text()
	return s
}

// Equal compares two values structurally.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindRecord:
		return v.rec.Equal(other.rec)
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	if n == 0 {
		// covers -0
		return "0"
	}
	// Exponent form below 1e-6 and from 1e21 up, as browsers print numbers.
	if abs := math.Abs(n); abs < 1e-6 || abs >= 1e21 {
		mantissa, exponent, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
		sign, digits := exponent[:1], strings.TrimLeft(exponent[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// FromAny converts decoded JSON (or plain Go values) into a Value.
func FromAny(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case Record:
		return Nested(v)
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return String(v.String())
		}
		return Number(f)
	case map[string]any:
		rec := make(Record, len(v))
		for key, item := range v {
			rec[key] = FromAny(item)
		}
		return Nested(rec)
	case []any:
		values := make([]Value, len(v))
		for i, item := range v {
			values[i] = FromAny(item)
		}
		return List(values...)
	case fmt.Stringer:
		return String(v.String())
	default:
		return String(fmt.Sprintf("%v", v))
	}
}

// Any converts the value back into plain Go types. Absent maps to nil.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindRecord:
		return v.rec.Map()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON encodes absent values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent, KindNull:
		return []byte("null"), nil
	case KindNumber:
		if math.IsInf(v.num, 0) || math.IsNaN(v.num) {
			return []byte("null"), nil
		}
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindRecord:
		return json.Marshal(v.rec)
	case KindList:
		return json.Marshal(v.list)
	default:
		return json.Marshal(v.Any())
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
