package scriptit

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a primitive that can cross the host/script boundary.
// The zero Value is Undefined. Values are immutable.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

func NewString(s string) Value {
	return Value{kind: KindString, str: s}
}

func NewNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func NewBoolean(b bool) Value {
	return Value{kind: KindBoolean, b: b}
}

func Null() Value {
	return Value{kind: KindNull}
}

func Undefined() Value {
	return Value{}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) AsString() (string, bool) {
	return v.str, v.kind == KindString
}

func (v Value) AsNumber() (float64, bool) {
	return v.num, v.kind == KindNumber
}

func (v Value) AsBoolean() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) IsUndefined() bool {
	return v.kind == KindUndefined
}

// Equal reports structural equality. Numbers compare with IEEE-754
// semantics, so a NaN Value is never equal to anything.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindBoolean:
		return v.b == o.b
	}
	return true
}

// String renders v the way a script literal would look.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return formatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	}
	return "undefined"
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// lossyString replaces invalid UTF-8 sequences instead of failing.
func lossyString(s string) string {
	return strings.ToValidUTF8(s, "�")
}
