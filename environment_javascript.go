package scriptit

import (
	"sync"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

var jsPlatform struct {
	once      sync.Once
	bootstrap *goja.Program
}

// ensureJsPlatform compiles the bootstrap once per process. The compiled
// program is shared by every JsEnvironment.
func ensureJsPlatform() *goja.Program {
	jsPlatform.once.Do(func() {
		jsPlatform.bootstrap = goja.MustCompile("scriptit_bootstrap.js", jsNativeBootstrap+"\n"+jsSharedBootstrap, false)
	})
	return jsPlatform.bootstrap
}

// JsEnvironment owns a goja runtime and evaluates everything in its one
// global context.
type JsEnvironment struct {
	vm       *goja.Runtime
	registry *registry
	logger   *zap.Logger
}

// NewJsEnvironment creates a runtime and runs the bootstrap. It panics if
// the bootstrap fails: such an environment cannot be made safe to use.
func NewJsEnvironment(opts ...Option) *JsEnvironment {
	o := newOptions(opts)
	e := &JsEnvironment{
		vm:     goja.New(),
		logger: o.logger.With(zap.String("backend", string(BackendJs))),
	}
	e.registry = newRegistry(e.logger)

	if _, err := e.vm.RunProgram(ensureJsPlatform()); err != nil {
		panic("run js bootstrap: " + err.Error())
	}
	core := e.vm.Get("ScriptIt").ToObject(e.vm).Get("core").ToObject(e.vm)
	if err := core.Set("callToRust", e.callToRust); err != nil {
		panic("bind ScriptIt.core.callToRust: " + err.Error())
	}

	e.logger.Debug("environment bootstrapped")
	return e
}

func (e *JsEnvironment) Backend() Backend {
	return BackendJs
}

// callToRust is the dispatch entry point bound to ScriptIt.core.callToRust.
func (e *JsEnvironment) callToRust(call goja.FunctionCall) goja.Value {
	if len(call.Arguments) != 2 {
		panic(e.vm.NewTypeError("ScriptIt.core.callToRust expects 2 arguments, got %d", len(call.Arguments)))
	}
	name := lossyString(call.Argument(0).String())
	data := lossyString(call.Argument(1).String())
	res, err := e.registry.dispatch(name, data)
	if err != nil {
		panic(e.vm.NewGoError(err))
	}
	return e.vm.ToValue(res)
}

func (e *JsEnvironment) evaluate(source string) (goja.Value, error) {
	prog, err := goja.Compile("", source, false)
	if err != nil {
		return nil, NewCompileError(err.Error())
	}
	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return nil, NewRuntimeError(err.Error())
	}
	return v, nil
}

func (e *JsEnvironment) EvalExpression(source string) (Value, error) {
	v, err := e.evaluate(source)
	if err != nil {
		return Undefined(), err
	}
	return gojaToValue(v)
}

// Run never converts the completion value, so a statement ending in an
// object is not a failure. Cast errors raised elsewhere still surface.
func (e *JsEnvironment) Run(source string) error {
	_, err := e.evaluate(source)
	return err
}

func (e *JsEnvironment) RunFile(path string) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	return e.Run(source)
}

func (e *JsEnvironment) SetGlobal(name string, v Value) error {
	return e.vm.Set(name, valueToGoja(e.vm, v))
}

func (e *JsEnvironment) RegisterCoreHandler(name string, h Handler) {
	e.registry.register(name, h)
	e.logger.Debug("registered core handler", zap.String("handler", name))
}

func (e *JsEnvironment) RegisterFunc(name string, fn Func) {
	registerFunc(e, e.logger, name, fn, jsFuncGlue)
}

func (e *JsEnvironment) Close() {
	e.vm = nil
}

func gojaToValue(v goja.Value) (Value, error) {
	switch v.(type) {
	case *goja.Object:
		if _, ok := goja.AssertFunction(v); ok {
			return Undefined(), NewCastError("goja function", "Value")
		}
		return Undefined(), NewCastError("goja object", "Value")
	case *goja.Symbol:
		return Undefined(), NewCastError("goja symbol", "Value")
	}
	switch x := v.Export().(type) {
	case bool:
		return NewBoolean(x), nil
	case string:
		return NewString(lossyString(x)), nil
	case int64:
		return NewNumber(float64(x)), nil
	case float64:
		return NewNumber(x), nil
	}
	if goja.IsNull(v) {
		return Null(), nil
	}
	if goja.IsUndefined(v) {
		return Undefined(), nil
	}
	return Undefined(), NewCastError("goja value", "Value")
}

func valueToGoja(vm *goja.Runtime, v Value) goja.Value {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return vm.ToValue(s)
	case KindNumber:
		f, _ := v.AsNumber()
		return vm.ToValue(f)
	case KindBoolean:
		b, _ := v.AsBoolean()
		return vm.ToValue(b)
	case KindNull:
		return goja.Null()
	}
	return goja.Undefined()
}
