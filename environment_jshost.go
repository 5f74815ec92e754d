package scriptit

import (
	"go.uber.org/zap"
)

// Host is a JavaScript evaluator the process does not own and can only
// reach through a narrow call boundary.
type Host interface {
	// Bootstrap evaluates source with the host's own eval and returns the
	// scripting scope the source's completion value describes.
	Bootstrap(source string) (HostScope, error)
}

// HostScope is the JSScriptingEnvironment object installed by the host
// bootstrap. Errors crossing it should implement HostError.
type HostScope interface {
	Compile(source string) (HostValue, error)
	Run(compiled HostValue) (HostValue, error)
	// Serialize renders v as tagged JSON inside the host.
	Serialize(v HostValue) (string, error)
	AddToGlobal(name string, v Value) error
	SetCallToRust(fn func(handler, data string) (string, error)) error
}

// HostValue is an opaque handle to a value living in the host.
type HostValue interface {
	IsObject() bool
	IsFunction() bool
	AsBoolean() (bool, bool)
	AsString() (string, bool)
	AsNumber() (float64, bool)
	IsNull() bool
	IsUndefined() bool
}

// HostError is a failure reported by the host, carrying its message.
type HostError interface {
	error
	Message() string
}

// Decoding selects how host results become Values.
type Decoding int

const (
	// DecodeTypeTest probes the host value's kind and reports a precise
	// CastError for objects and functions.
	DecodeTypeTest Decoding = iota
	// DecodeStructured serialises inside the host and decodes the JSON.
	// Anything non-primitive surfaces as a SerializationError.
	DecodeStructured
)

func (d Decoding) String() string {
	if d == DecodeStructured {
		return "structured"
	}
	return "typetest"
}

// JsHostEnvironment delegates evaluation to a Host. Code runs inside a
// with-scoped sandbox, which is weaker isolation than JsEnvironment gives:
// assignments to undeclared names still reach the host's globals.
type JsHostEnvironment struct {
	scope    HostScope
	registry *registry
	decoding Decoding
	logger   *zap.Logger
}

// NewJsHostEnvironment bootstraps host and binds the dispatch entry point.
// It panics if any bootstrap step fails.
func NewJsHostEnvironment(host Host, opts ...Option) *JsHostEnvironment {
	o := newOptions(opts)
	e := &JsHostEnvironment{
		decoding: o.decoding,
		logger:   o.logger.With(zap.String("backend", string(BackendJsHost))),
	}
	e.registry = newRegistry(e.logger)

	scope, err := host.Bootstrap(jsHostBootstrap)
	if err != nil {
		panic("evaluate host bootstrap: " + hostMessage(err))
	}
	compiled, err := scope.Compile(jsSharedBootstrap)
	if err != nil {
		panic("compile shared bootstrap: " + hostMessage(err))
	}
	if _, err := scope.Run(compiled); err != nil {
		panic("run shared bootstrap: " + hostMessage(err))
	}
	if err := scope.SetCallToRust(e.registry.dispatch); err != nil {
		panic("bind ScriptIt.core.callToRust: " + hostMessage(err))
	}
	e.scope = scope

	e.logger.Debug("environment bootstrapped", zap.Stringer("decoding", e.decoding))
	return e
}

func (e *JsHostEnvironment) Backend() Backend {
	return BackendJsHost
}

func (e *JsHostEnvironment) evaluate(source string) (HostValue, error) {
	compiled, err := e.scope.Compile(source)
	if err != nil {
		return nil, NewCompileError(hostMessage(err))
	}
	v, err := e.scope.Run(compiled)
	if err != nil {
		return nil, NewRuntimeError(hostMessage(err))
	}
	return v, nil
}

func (e *JsHostEnvironment) EvalExpression(source string) (Value, error) {
	v, err := e.evaluate("return " + source)
	if err != nil {
		return Undefined(), err
	}
	if e.decoding == DecodeStructured {
		text, err := e.scope.Serialize(v)
		if err != nil {
			return Undefined(), &ScriptError{Kind: ErrSerialization, Message: hostMessage(err), Cause: err}
		}
		return DecodeValue(text)
	}
	return hostToValue(v)
}

func (e *JsHostEnvironment) Run(source string) error {
	_, err := e.evaluate(source)
	return err
}

func (e *JsHostEnvironment) RunFile(path string) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	return e.Run(source)
}

func (e *JsHostEnvironment) SetGlobal(name string, v Value) error {
	if err := e.scope.AddToGlobal(name, v); err != nil {
		return NewRuntimeError(hostMessage(err))
	}
	return nil
}

func (e *JsHostEnvironment) RegisterCoreHandler(name string, h Handler) {
	e.registry.register(name, h)
	e.logger.Debug("registered core handler", zap.String("handler", name))
}

func (e *JsHostEnvironment) RegisterFunc(name string, fn Func) {
	registerFunc(e, e.logger, name, fn, jsFuncGlue)
}

func (e *JsHostEnvironment) Close() {
	e.scope = nil
}

func hostMessage(err error) string {
	if he, ok := err.(HostError); ok {
		return he.Message()
	}
	return err.Error()
}

func hostToValue(v HostValue) (Value, error) {
	if v.IsFunction() {
		return Undefined(), NewCastError("host function", "Value")
	}
	if v.IsObject() {
		return Undefined(), NewCastError("host object", "Value")
	}
	if b, ok := v.AsBoolean(); ok {
		return NewBoolean(b), nil
	}
	if s, ok := v.AsString(); ok {
		return NewString(lossyString(s)), nil
	}
	if f, ok := v.AsNumber(); ok {
		return NewNumber(f), nil
	}
	if v.IsNull() {
		return Null(), nil
	}
	if v.IsUndefined() {
		return Undefined(), nil
	}
	return Undefined(), NewCastError("host value", "Value")
}
