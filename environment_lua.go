package scriptit

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ailncode/gluaxmlpath"
	"github.com/ciaos/gluahttp"
	"github.com/cjoudrey/gluaurl"
	"github.com/yuin/gluamapper"
	"github.com/yuin/gluare"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
	"go.uber.org/zap"
	luajson "layeh.com/gopher-json"
	luar "layeh.com/gopher-luar"
)

var luaPlatform struct {
	once      sync.Once
	bootstrap *lua.FunctionProto
}

func ensureLuaPlatform() *lua.FunctionProto {
	luaPlatform.once.Do(func() {
		const name = "scriptit_bootstrap.lua"
		chunk, err := parse.Parse(strings.NewReader(luaSharedBootstrap), name)
		if err != nil {
			panic("parse lua bootstrap: " + err.Error())
		}
		proto, err := lua.Compile(chunk, name)
		if err != nil {
			panic("compile lua bootstrap: " + err.Error())
		}
		luaPlatform.bootstrap = proto
	})
	return luaPlatform.bootstrap
}

// luaModules are the modules WithLuaModules can preload.
var luaModules = map[string]func() lua.LGFunction{
	"json":    func() lua.LGFunction { return luajson.Loader },
	"url":     func() lua.LGFunction { return gluaurl.Loader },
	"re":      func() lua.LGFunction { return gluare.Loader },
	"xmlpath": func() lua.LGFunction { return gluaxmlpath.Loader },
	"http": func() lua.LGFunction {
		return gluahttp.NewHttpModule(&http.Client{Timeout: 30 * time.Second}).Loader
	},
}

// luaRemovedGlobals reach the host's stdout or filesystem.
var luaRemovedGlobals = []string{"print", "dofile", "loadfile"}

// LuaEnvironment runs Lua through gopher-lua. Lua has no undefined, so
// nil converts to Null.
type LuaEnvironment struct {
	vm       *lua.LState
	registry *registry
	logger   *zap.Logger
}

// NewLuaEnvironment opens a state with only the base, table, string and
// math libraries plus the requested modules, then runs the bootstrap.
// It panics on an unknown module or a failed bootstrap.
func NewLuaEnvironment(opts ...Option) *LuaEnvironment {
	o := newOptions(opts)
	e := &LuaEnvironment{
		vm:     lua.NewState(lua.Options{SkipOpenLibs: true}),
		logger: o.logger.With(zap.String("backend", string(BackendLua))),
	}
	e.registry = newRegistry(e.logger)

	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	if len(o.luaModules) > 0 {
		libs = append(libs, struct {
			name string
			open lua.LGFunction
		}{lua.LoadLibName, lua.OpenPackage})
	}
	for _, lib := range libs {
		if err := e.vm.CallByParam(lua.P{
			Fn:      e.vm.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			panic("open lua library " + lib.name + ": " + err.Error())
		}
	}
	removed := luaRemovedGlobals
	if len(o.luaModules) == 0 {
		// the base library registers these even without the package library
		removed = append(removed[:len(removed):len(removed)], "require", "module")
	}
	for _, name := range removed {
		e.vm.SetGlobal(name, lua.LNil)
	}
	for _, name := range o.luaModules {
		loader, ok := luaModules[name]
		if !ok {
			panic("unknown lua module " + name)
		}
		e.vm.PreloadModule(name, loader())
	}

	core := e.vm.NewTable()
	e.vm.SetField(core, "encode", e.vm.NewFunction(e.encode))
	e.vm.SetField(core, "decode", e.vm.NewFunction(e.decode))
	scriptIt := e.vm.NewTable()
	e.vm.SetField(scriptIt, "core", core)
	e.vm.SetGlobal("ScriptIt", scriptIt)

	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.NewFunctionFromProto(ensureLuaPlatform()),
		NRet:    0,
		Protect: true,
	}); err != nil {
		panic("run lua bootstrap: " + err.Error())
	}
	e.vm.SetField(core, "callToRust", e.vm.NewFunction(e.callToRust))

	e.logger.Debug("environment bootstrapped", zap.Strings("modules", o.luaModules))
	return e
}

func (e *LuaEnvironment) Backend() Backend {
	return BackendLua
}

func (e *LuaEnvironment) callToRust(L *lua.LState) int {
	if L.GetTop() != 2 {
		L.RaiseError("ScriptIt.core.callToRust expects 2 arguments, got %d", L.GetTop())
		return 0
	}
	name := lossyString(L.CheckString(1))
	data := lossyString(L.CheckString(2))
	res, err := e.registry.dispatch(name, data)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(res))
	return 1
}

// encode packs its arguments into the tagged JSON array funcs expect.
func (e *LuaEnvironment) encode(L *lua.LState) int {
	n := L.GetTop()
	args := make([]Value, 0, n)
	for i := 1; i <= n; i++ {
		v, err := luaToValue(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
			return 0
		}
		args = append(args, v)
	}
	text, err := EncodeValues(args)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(lua.LString(text))
	return 1
}

func (e *LuaEnvironment) decode(L *lua.LState) int {
	v, err := DecodeValue(L.CheckString(1))
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(valueToLua(L, v))
	return 1
}

func (e *LuaEnvironment) evaluate(source string) (lua.LValue, error) {
	fn, err := e.vm.LoadString(source)
	if err != nil {
		return nil, NewCompileError(luaErrorMessage(err))
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}); err != nil {
		return nil, NewRuntimeError(luaErrorMessage(err))
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, nil
}

// EvalExpression evaluates source as "return <source>".
func (e *LuaEnvironment) EvalExpression(source string) (Value, error) {
	v, err := e.evaluate("return " + source)
	if err != nil {
		return Undefined(), err
	}
	return luaToValue(v)
}

func (e *LuaEnvironment) Run(source string) error {
	_, err := e.evaluate(source)
	return err
}

func (e *LuaEnvironment) RunFile(path string) error {
	source, err := readScript(path)
	if err != nil {
		return err
	}
	return e.Run(source)
}

func (e *LuaEnvironment) SetGlobal(name string, v Value) error {
	e.vm.SetGlobal(name, valueToLua(e.vm, v))
	return nil
}

func (e *LuaEnvironment) RegisterCoreHandler(name string, h Handler) {
	e.registry.register(name, h)
	e.logger.Debug("registered core handler", zap.String("handler", name))
}

func (e *LuaEnvironment) RegisterFunc(name string, fn Func) {
	registerFunc(e, e.logger, name, fn, luaFuncGlue)
}

func (e *LuaEnvironment) Close() {
	e.vm.Close()
}

func luaErrorMessage(err error) string {
	if apiErr, ok := err.(*lua.ApiError); ok && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

func luaToValue(lv lua.LValue) (Value, error) {
	switch lv.Type() {
	case lua.LTBool, lua.LTString, lua.LTNumber, lua.LTNil:
	default:
		return Undefined(), NewCastError("lua "+lv.Type().String(), "Value")
	}
	switch x := gluamapper.ToGoValue(lv, gluamapper.Option{NameFunc: gluamapper.ToUpperCamelCase}).(type) {
	case bool:
		return NewBoolean(x), nil
	case string:
		return NewString(lossyString(x)), nil
	case float64:
		return NewNumber(x), nil
	case nil:
		return Null(), nil
	}
	return Undefined(), NewCastError("lua value", "Value")
}

func valueToLua(L *lua.LState, v Value) lua.LValue {
	switch v.Kind() {
	case KindString:
		s, _ := v.AsString()
		return luar.New(L, s)
	case KindNumber:
		f, _ := v.AsNumber()
		return luar.New(L, f)
	case KindBoolean:
		b, _ := v.AsBoolean()
		return luar.New(L, b)
	}
	return lua.LNil
}
