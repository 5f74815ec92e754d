package scriptit

import (
	"fmt"
	"reflect"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go.uber.org/zap"
)

// GoEnvironment interprets Go source with yaegi. Scripts reach the host
// through the imported package scriptit:
//
//	scriptit.CallToRust("name", "payload")
//	scriptit.Funcs["greet"]("world")
//
// Go resolves names at compile time, so an unknown identifier is a
// CompileError here rather than a RuntimeError.
type GoEnvironment struct {
	i        *interp.Interpreter
	registry *registry
	logger   *zap.Logger

	funcs    map[string]func(args ...interface{}) interface{}
	globals  map[string]interface{}
	declared map[string]bool
}

// NewGoEnvironment creates an interpreter that can import nothing but
// package scriptit unless WithGoStdlib is given. It panics if the
// bootstrap fails.
func NewGoEnvironment(opts ...Option) *GoEnvironment {
	o := newOptions(opts)
	e := &GoEnvironment{
		i:        interp.New(interp.Options{}),
		logger:   o.logger.With(zap.String("backend", string(BackendGo))),
		funcs:    make(map[string]func(args ...interface{}) interface{}),
		globals:  make(map[string]interface{}),
		declared: make(map[string]bool),
	}
	e.registry = newRegistry(e.logger)

	if o.goStdlib {
		if err := e.i.Use(stdlib.Symbols); err != nil {
			panic("load go stdlib symbols: " + err.Error())
		}
	}
	symbols := interp.Exports{
		"scriptit/scriptit": {
			"CallToRust":   reflect.ValueOf(e.callToRust),
			"RegisterFunc": reflect.ValueOf(e.registerScriptFunc),
			"Funcs":        reflect.ValueOf(&e.funcs).Elem(),
			"Globals":      reflect.ValueOf(&e.globals).Elem(),
		},
	}
	if err := e.i.Use(symbols); err != nil {
		panic("export scriptit package: " + err.Error())
	}
	if _, err := e.i.Eval(`import "scriptit"`); err != nil {
		panic("import scriptit package: " + err.Error())
	}

	e.logger.Debug("environment bootstrapped", zap.Bool("stdlib", o.goStdlib))
	return e
}

func (e *GoEnvironment) Backend() Backend {
	return BackendGo
}

// callToRust panics on failure; the interpreter reports the panic as a
// RuntimeError.
func (e *GoEnvironment) callToRust(name, data string) string {
	res, err := e.registry.dispatch(lossyString(name), lossyString(data))
	if err != nil {
		panic(err)
	}
	return res
}

func (e *GoEnvironment) registerScriptFunc(funcName, handlerName string) interface{} {
	e.funcs[funcName] = func(args ...interface{}) interface{} {
		vs := make([]Value, 0, len(args))
		for _, arg := range args {
			v, err := reflectToValue(reflect.ValueOf(arg))
			if err != nil {
				panic(err)
			}
			vs = append(vs, v)
		}
		data, err := EncodeValues(vs)
		if err != nil {
			panic(err)
		}
		res, err := DecodeValue(e.callToRust(handlerName, data))
		if err != nil {
			panic(err)
		}
		return valueToGo(res)
	}
	return nil
}

func (e *GoEnvironment) evaluate(source string) (reflect.Value, error) {
	prog, err := e.i.Compile(source)
	if err != nil {
		return reflect.Value{}, NewCompileError(err.Error())
	}
	v, err := e.i.Execute(prog)
	if err != nil {
		return reflect.Value{}, NewRuntimeError(err.Error())
	}
	return v, nil
}

func (e *GoEnvironment) EvalExpression(source string) (Value, error) {
	v, err := e.evaluate(source)
	if err != nil {
		return Undefined(), err
	}
	return reflectToValue(v)
}

func (e *GoEnvironment) Run(source string) error {
	_, err := e.evaluate(source)
	return err
}

func (e *GoEnvironment) RunFile(path string) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	return e.Run(source)
}

// SetGlobal declares name as an interface{} variable holding v.
func (e *GoEnvironment) SetGlobal(name string, v Value) error {
	e.globals[name] = valueToGo(v)
	stmt := fmt.Sprintf("%s = scriptit.Globals[%q]", name, name)
	if !e.declared[name] {
		stmt = "var " + stmt
	}
	if err := e.Run(stmt); err != nil {
		return err
	}
	e.declared[name] = true
	return nil
}

func (e *GoEnvironment) RegisterCoreHandler(name string, h Handler) {
	e.registry.register(name, h)
	e.logger.Debug("registered core handler", zap.String("handler", name))
}

func (e *GoEnvironment) RegisterFunc(name string, fn Func) {
	registerFunc(e, e.logger, name, fn, goFuncGlue)
}

func (e *GoEnvironment) Close() {
	e.i = nil
}

func reflectToValue(v reflect.Value) (Value, error) {
	if !v.IsValid() {
		return Undefined(), nil
	}
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return Null(), nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Bool:
		return NewBoolean(v.Bool()), nil
	case reflect.String:
		return NewString(lossyString(v.String())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewNumber(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return NewNumber(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return NewNumber(v.Float()), nil
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return Null(), nil
		}
	}
	return Undefined(), NewCastError("go "+v.Kind().String(), "Value")
}

// valueToGo maps Null and Undefined to a nil interface.
func valueToGo(v Value) interface{} {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return s
	case KindNumber:
		f, _ := v.AsNumber()
		return f
	case KindBoolean:
		b, _ := v.AsBoolean()
		return b
	}
	return nil
}
