package scriptit

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaEvalPrimitives(t *testing.T) {
	env := NewLuaEnvironment()
	defer env.Close()

	tests := []struct {
		source string
		want   Value
	}{
		{"true", NewBoolean(true)},
		{"false", NewBoolean(false)},
		{"'hello ' .. 'foo' .. '!'", NewString("hello foo!")},
		{"12 + 3", NewNumber(15)},
		{"nil", Null()},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			v, err := env.EvalExpression(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	v, err := env.EvalExpression("0/0")
	require.NoError(t, err)
	f, ok := v.AsNumber()
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))
}

func TestLuaErrors(t *testing.T) {
	env := NewLuaEnvironment()
	defer env.Close()

	_, err := env.EvalExpression("import async return")
	assert.True(t, IsKind(err, ErrCompile), "got %v", err)

	_, err = env.EvalExpression("unknown_function()")
	assert.True(t, IsKind(err, ErrRuntime), "got %v", err)

	err = env.Run("error('boom')")
	require.True(t, IsKind(err, ErrRuntime), "got %v", err)
	assert.Contains(t, err.Error(), "boom")

	_, err = env.EvalExpression("{1, 2}")
	var se *ScriptError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, ErrCast, se.Kind)
	assert.Equal(t, "lua table", se.From)

	assert.NoError(t, env.Run("t = {1, 2}"))
}

func TestLuaCoreHandlers(t *testing.T) {
	count := 0
	env := NewLuaEnvironment()
	defer env.Close()
	env.RegisterCoreHandler("count", func(string) (string, error) {
		count++
		return strconv.Itoa(count), nil
	})

	require.NoError(t, env.Run(`
		ScriptIt.core.callToRust('count', '')
		ScriptIt.core.callToRust('count', '')
	`))
	v, err := env.EvalExpression("ScriptIt.core.callToRust('count', '')")
	require.NoError(t, err)
	assert.Equal(t, NewString("3"), v)

	err = env.Run("ScriptIt.core.callToRust('not found', 'test')")
	require.True(t, IsKind(err, ErrRuntime), "got %v", err)
	assert.Contains(t, err.Error(), "can't get unregistered handler: not found")

	env.RegisterCoreHandler("fail", func(string) (string, error) {
		return "", errors.New("I am failing")
	})
	err = env.Run("ScriptIt.core.callToRust('fail', 'test')")
	require.True(t, IsKind(err, ErrRuntime), "got %v", err)
	assert.Contains(t, err.Error(), "I am failing")

	v, err = env.EvalExpression("select(2, pcall(ScriptIt.core.callToRust, 'fail', ''))")
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Contains(t, s, "I am failing")
}

func TestLuaRegisterFunc(t *testing.T) {
	env := NewLuaEnvironment()
	defer env.Close()

	var got []Value
	env.RegisterFunc("greet", func(args []Value) (Value, error) {
		got = args
		return greet(args)
	})
	env.RegisterFunc("echo", func(args []Value) (Value, error) {
		return args[0], nil
	})

	v, err := env.EvalExpression("ScriptIt.funcs.greet('Lua')")
	require.NoError(t, err)
	assert.Equal(t, NewString("Hello, Lua"), v)
	assert.Equal(t, []Value{NewString("Lua")}, got)

	v, err = env.EvalExpression("ScriptIt.funcs.echo(12.5) * 2")
	require.NoError(t, err)
	assert.Equal(t, NewNumber(25), v)

	err = env.Run("ScriptIt.funcs.echo({})")
	assert.True(t, IsKind(err, ErrRuntime), "got %v", err)
}

func TestLuaIsolation(t *testing.T) {
	env := NewLuaEnvironment()
	defer env.Close()

	for _, name := range []string{"print", "dofile", "loadfile", "io", "os", "require", "console"} {
		v, err := env.EvalExpression(name)
		require.NoError(t, err, name)
		assert.Equal(t, Null(), v, name)
	}
}

func TestLuaModules(t *testing.T) {
	env := NewLuaEnvironment(WithLuaModules("json", "re"))
	defer env.Close()

	v, err := env.EvalExpression(`require("json").decode('[1, 2, 3]')[3]`)
	require.NoError(t, err)
	assert.Equal(t, NewNumber(3), v)

	v, err = env.EvalExpression(`require("re").find("scriptit", "[a-z]+")`)
	require.NoError(t, err)
	assert.Equal(t, NewNumber(1), v)

	assert.Panics(t, func() { NewLuaEnvironment(WithLuaModules("nope")) })
}

func TestLuaSetGlobal(t *testing.T) {
	env := NewLuaEnvironment()
	defer env.Close()
	require.NoError(t, env.SetGlobal("answer", NewNumber(41)))
	require.NoError(t, env.SetGlobal("name", NewString("lua")))

	v, err := env.EvalExpression("answer + 1")
	require.NoError(t, err)
	assert.Equal(t, NewNumber(42), v)

	v, err = env.EvalExpression("name")
	require.NoError(t, err)
	assert.Equal(t, NewString("lua"), v)
}
