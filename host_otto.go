package scriptit

import (
	"github.com/robertkrimen/otto"
)

// OttoHost is a Host backed by an otto interpreter. otto is ES5, so
// scripts run through it cannot use ES2015 syntax.
type OttoHost struct {
	vm *otto.Otto
}

func NewOttoHost() *OttoHost {
	return &OttoHost{vm: otto.New()}
}

func (h *OttoHost) Bootstrap(source string) (HostScope, error) {
	v, err := h.vm.Run(source)
	if err != nil {
		return nil, newOttoError(err)
	}
	if !v.IsObject() {
		return nil, &ottoError{msg: "host bootstrap did not produce a scripting environment"}
	}
	return &ottoScope{vm: h.vm, env: v.Object()}, nil
}

type ottoError struct {
	msg string
}

func newOttoError(err error) *ottoError {
	return &ottoError{msg: err.Error()}
}

func (e *ottoError) Error() string {
	return "otto: " + e.msg
}

func (e *ottoError) Message() string {
	return e.msg
}

type ottoScope struct {
	vm  *otto.Otto
	env *otto.Object
}

func (s *ottoScope) Compile(source string) (HostValue, error) {
	v, err := s.env.Call("compile", source)
	if err != nil {
		return nil, newOttoError(err)
	}
	return ottoValue{v: v}, nil
}

func (s *ottoScope) Run(compiled HostValue) (HostValue, error) {
	fn, ok := compiled.(ottoValue)
	if !ok || !fn.v.IsFunction() {
		return nil, &ottoError{msg: "run expects a function compiled by this host"}
	}
	v, err := s.env.Call("run", fn.v)
	if err != nil {
		return nil, newOttoError(err)
	}
	return ottoValue{v: v}, nil
}

func (s *ottoScope) Serialize(v HostValue) (string, error) {
	ov, ok := v.(ottoValue)
	if !ok {
		return "", &ottoError{msg: "serialize expects a value produced by this host"}
	}
	res, err := s.env.Call("serialize", ov.v)
	if err != nil {
		return "", newOttoError(err)
	}
	if !res.IsString() {
		return "", &ottoError{msg: "value has no JSON representation"}
	}
	return res.String(), nil
}

func (s *ottoScope) AddToGlobal(name string, v Value) error {
	if _, err := s.env.Call("addToGlobal", name, valueToOtto(v)); err != nil {
		return newOttoError(err)
	}
	return nil
}

func (s *ottoScope) SetCallToRust(fn func(handler, data string) (string, error)) error {
	cb := func(call otto.FunctionCall) otto.Value {
		if len(call.ArgumentList) != 2 {
			panic(s.vm.MakeTypeError("ScriptIt.core.callToRust expects 2 arguments"))
		}
		name, data := call.Argument(0), call.Argument(1)
		if !name.IsString() || !data.IsString() {
			panic(s.vm.MakeTypeError("ScriptIt.core.callToRust expects string arguments"))
		}
		res, err := fn(name.String(), data.String())
		if err != nil {
			panic(s.vm.MakeCustomError("Error", err.Error()))
		}
		v, err := s.vm.ToValue(res)
		if err != nil {
			panic(s.vm.MakeTypeError(err.Error()))
		}
		return v
	}
	if _, err := s.env.Call("setCallToRust", cb); err != nil {
		return newOttoError(err)
	}
	return nil
}

type ottoValue struct {
	v otto.Value
}

func (v ottoValue) IsObject() bool {
	return v.v.IsObject()
}

func (v ottoValue) IsFunction() bool {
	return v.v.IsFunction()
}

func (v ottoValue) AsBoolean() (bool, bool) {
	if !v.v.IsBoolean() {
		return false, false
	}
	b, err := v.v.ToBoolean()
	return b, err == nil
}

func (v ottoValue) AsString() (string, bool) {
	if !v.v.IsString() {
		return "", false
	}
	return v.v.String(), true
}

func (v ottoValue) AsNumber() (float64, bool) {
	if !v.v.IsNumber() {
		return 0, false
	}
	f, err := v.v.ToFloat()
	return f, err == nil
}

func (v ottoValue) IsNull() bool {
	return v.v.IsNull()
}

func (v ottoValue) IsUndefined() bool {
	return v.v.IsUndefined()
}

func valueToOtto(v Value) otto.Value {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		res, _ := otto.ToValue(s)
		return res
	case KindNumber:
		f, _ := v.AsNumber()
		res, _ := otto.ToValue(f)
		return res
	case KindBoolean:
		b, _ := v.AsBoolean()
		res, _ := otto.ToValue(b)
		return res
	case KindNull:
		return otto.NullValue()
	}
	return otto.UndefinedValue()
}
