package scriptit

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOttoEnvironment(opts ...Option) *JsHostEnvironment {
	return NewJsHostEnvironment(NewOttoHost(), opts...)
}

func TestJsHostEvalPrimitives(t *testing.T) {
	for _, decoding := range []Decoding{DecodeTypeTest, DecodeStructured} {
		env := newOttoEnvironment(WithDecoding(decoding))
		tests := []struct {
			source string
			want   Value
		}{
			{"true", NewBoolean(true)},
			{"false", NewBoolean(false)},
			{"'hello ' + 'foo' + '!'", NewString("hello foo!")},
			{"12 + 3", NewNumber(15)},
			{"null", Null()},
			{"undefined", Undefined()},
		}
		for _, tt := range tests {
			t.Run(decoding.String()+"/"+tt.source, func(t *testing.T) {
				v, err := env.EvalExpression(tt.source)
				require.NoError(t, err)
				assert.Equal(t, tt.want, v)
			})
		}

		v, err := env.EvalExpression("NaN")
		require.NoError(t, err)
		f, ok := v.AsNumber()
		require.True(t, ok)
		assert.True(t, math.IsNaN(f))
	}
}

func TestJsHostErrors(t *testing.T) {
	env := newOttoEnvironment()

	_, err := env.EvalExpression("import async return")
	assert.True(t, IsKind(err, ErrCompile), "got %v", err)

	_, err = env.EvalExpression("unknown_variable")
	assert.True(t, IsKind(err, ErrRuntime), "got %v", err)

	// otto is ES5: template literals do not parse.
	_, err = env.EvalExpression("`hello`")
	assert.True(t, IsKind(err, ErrCompile), "got %v", err)
}

func TestJsHostObjectResult(t *testing.T) {
	env := newOttoEnvironment()
	_, err := env.EvalExpression("({a: 1})")
	var se *ScriptError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, ErrCast, se.Kind)
	assert.Equal(t, "host object", se.From)

	_, err = env.EvalExpression("(function () {})")
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, "host function", se.From)

	assert.NoError(t, env.Run("var obj = {a: 1}"))
}

func TestJsHostStructuredObjectResult(t *testing.T) {
	env := newOttoEnvironment(WithDecoding(DecodeStructured))

	_, err := env.EvalExpression("({a: 1})")
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)

	_, err = env.EvalExpression("(function () {})")
	assert.True(t, IsKind(err, ErrSerialization), "got %v", err)
}

func TestJsHostCoreHandlers(t *testing.T) {
	count := 0
	env := newOttoEnvironment()
	env.RegisterCoreHandler("count", func(string) (string, error) {
		count++
		return strconv.Itoa(count), nil
	})

	v, err := env.EvalExpression(`(
		ScriptIt.core.callToRust('count', ''),
		ScriptIt.core.callToRust('count', ''),
		ScriptIt.core.callToRust('count', '')
	)`)
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
}

func TestJsHostRegisterFunc(t *testing.T) {
	count := 0
	env := newOttoEnvironment()
	env.RegisterFunc("count", func([]Value) (Value, error) {
		count++
		return NewNumber(float64(count)), nil
	})
	env.RegisterFunc("greet", greet)

	v, err := env.EvalExpression(`(
		ScriptIt.funcs.count(),
		ScriptIt.funcs.count(),
		ScriptIt.funcs.count()
	)`)
	require.NoError(t, err)
	assert.Equal(t, NewNumber(3), v)

	v, err = env.EvalExpression(`ScriptIt.funcs.greet("Rust")`)
	require.NoError(t, err)
	assert.Equal(t, NewString("Hello, Rust"), v)
}

func TestJsHostIsolation(t *testing.T) {
	env := newOttoEnvironment()

	v, err := env.EvalExpression("console")
	require.NoError(t, err)
	assert.Equal(t, Undefined(), v)

	_, err = env.EvalExpression("prototype")
	assert.True(t, IsKind(err, ErrRuntime), "got %v", err)
}

func TestJsHostSetGlobal(t *testing.T) {
	env := newOttoEnvironment()
	require.NoError(t, env.SetGlobal("answer", NewNumber(41)))

	v, err := env.EvalExpression("answer + 1")
	require.NoError(t, err)
	assert.Equal(t, NewNumber(42), v)
}

type failingHost struct{}

func (failingHost) Bootstrap(string) (HostScope, error) {
	return nil, &ottoError{msg: "eval is disabled"}
}

func TestJsHostBootstrapFailurePanics(t *testing.T) {
	assert.PanicsWithValue(t, "evaluate host bootstrap: eval is disabled", func() {
		NewJsHostEnvironment(failingHost{})
	})
}
