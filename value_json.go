package scriptit

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/pkg/errors"
)

// tagKey marks the JSON objects standing in for values plain JSON cannot
// carry. The bootstrap scripts use the same key.
const tagKey = "$scriptit"

const (
	tagUndefined = "undefined"
	tagNaN       = "NaN"
	tagPosInf    = "Infinity"
	tagNegInf    = "-Infinity"
)

type taggedValue struct {
	Tag string `json:"$scriptit"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindNull:
		return []byte("null"), nil
	case KindNumber:
		switch {
		case math.IsNaN(v.num):
			return json.Marshal(taggedValue{Tag: tagNaN})
		case math.IsInf(v.num, 1):
			return json.Marshal(taggedValue{Tag: tagPosInf})
		case math.IsInf(v.num, -1):
			return json.Marshal(taggedValue{Tag: tagNegInf})
		}
		return json.Marshal(v.num)
	}
	return json.Marshal(taggedValue{Tag: tagUndefined})
}

func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty JSON value")
	}
	switch data[0] {
	case 'n':
		*v = Null()
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = NewBoolean(b)
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = NewString(s)
		return nil
	case '{':
		return v.unmarshalTagged(data)
	case '[':
		return errors.New("arrays cannot cross the script boundary")
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = NewNumber(f)
	return nil
}

func (v *Value) unmarshalTagged(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	raw, ok := fields[tagKey]
	if !ok || len(fields) != 1 {
		return errors.New("objects cannot cross the script boundary")
	}
	var tag string
	if err := json.Unmarshal(raw, &tag); err != nil {
		return errors.Wrap(err, "decode value tag")
	}
	switch tag {
	case tagUndefined:
		*v = Undefined()
	case tagNaN:
		*v = NewNumber(math.NaN())
	case tagPosInf:
		*v = NewNumber(math.Inf(1))
	case tagNegInf:
		*v = NewNumber(math.Inf(-1))
	default:
		return errors.Errorf("unknown value tag %q", tag)
	}
	return nil
}

// EncodeValue serialises a single Value into its tagged JSON text.
func EncodeValue(v Value) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", NewSerializationError(err)
	}
	return string(data), nil
}

// DecodeValue parses tagged JSON text into a Value.
func DecodeValue(text string) (Value, error) {
	var v Value
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return Undefined(), NewSerializationError(err)
	}
	return v, nil
}

func EncodeValues(vs []Value) (string, error) {
	if vs == nil {
		vs = []Value{}
	}
	data, err := json.Marshal(vs)
	if err != nil {
		return "", NewSerializationError(err)
	}
	return string(data), nil
}

// DecodeValues parses a tagged JSON array into Values.
func DecodeValues(text string) ([]Value, error) {
	var vs []Value
	if err := json.Unmarshal([]byte(text), &vs); err != nil {
		return nil, NewSerializationError(errors.Wrap(err, "decode argument array"))
	}
	if vs == nil {
		return nil, NewSerializationError(errors.New("argument payload is not an array"))
	}
	return vs, nil
}
