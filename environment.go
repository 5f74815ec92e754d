package scriptit

import (
	"os"

	"github.com/pkg/errors"
)

// Backend names an Environment implementation.
type Backend string

const (
	BackendJs     Backend = "js"
	BackendJsHost Backend = "jshost"
	BackendLua    Backend = "lua"
	BackendGo     Backend = "go"
)

// Environment is one isolated script context plus its handler registry.
//
// An Environment is not safe for concurrent use. Every call runs to
// completion on the calling goroutine, including handlers invoked from
// script. Handlers may call back into the same Environment; whether that
// is safe depends on the backend's engine.
type Environment interface {
	Backend() Backend

	// EvalExpression evaluates source and converts its value.
	EvalExpression(source string) (Value, error)
	// Run evaluates source for its side effects only.
	Run(source string) error
	RunFile(path string) error

	// SetGlobal exposes a primitive under name in the script scope.
	SetGlobal(name string, v Value) error

	// RegisterCoreHandler makes h reachable as ScriptIt.core.callToRust(name, data).
	RegisterCoreHandler(name string, h Handler)
	// RegisterFunc makes fn reachable as ScriptIt.funcs.<name>(...args).
	RegisterFunc(name string, fn Func)

	Close()
}

// New constructs an Environment for backend. Bootstrap failures panic,
// an unknown backend is reported as an error.
func New(backend Backend, opts ...Option) (Environment, error) {
	switch backend {
	case BackendJs:
		return NewJsEnvironment(opts...), nil
	case BackendJsHost:
		o := newOptions(opts)
		host := o.host
		if host == nil {
			host = NewOttoHost()
		}
		return NewJsHostEnvironment(host, opts...), nil
	case BackendLua:
		return NewLuaEnvironment(opts...), nil
	case BackendGo:
		return NewGoEnvironment(opts...), nil
	}
	return nil, errors.Errorf("unsupported backend %q", backend)
}

// MustNew is like New but panics on an unknown backend.
func MustNew(backend Backend, opts ...Option) Environment {
	env, err := New(backend, opts...)
	if err != nil {
		panic(err)
	}
	return env
}

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "read script %s", path)
	}
	return string(data), nil
}
