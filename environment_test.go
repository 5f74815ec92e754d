package scriptit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewEachBackend(t *testing.T) {
	for _, backend := range []Backend{BackendJs, BackendJsHost, BackendLua, BackendGo} {
		t.Run(string(backend), func(t *testing.T) {
			env, err := New(backend, WithLogger(zap.NewNop()))
			require.NoError(t, err)
			defer env.Close()
			assert.Equal(t, backend, env.Backend())

			env.RegisterFunc("greet", greet)
			require.NoError(t, env.SetGlobal("who", NewString("world")))
		})
	}
}

func TestNewUnsupportedBackend(t *testing.T) {
	env, err := New(Backend("python"))
	assert.Nil(t, env)
	assert.EqualError(t, err, `unsupported backend "python"`)
}

func TestMustNew(t *testing.T) {
	env := MustNew(BackendLua)
	defer env.Close()
	assert.Equal(t, BackendLua, env.Backend())

	assert.Panics(t, func() { MustNew(Backend("python")) })
}

func TestNewJsHostUsesGivenHost(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = New(BackendJsHost, WithHost(failingHost{}))
	})
}

func TestRunFileEachBackend(t *testing.T) {
	scripts := map[Backend]string{
		BackendJs:     "var answer = 6 * 7;",
		BackendJsHost: "answer = 6 * 7;",
		BackendLua:    "answer = 6 * 7",
		BackendGo:     "var answer = 6 * 7",
	}
	for backend, script := range scripts {
		t.Run(string(backend), func(t *testing.T) {
			env, err := New(backend)
			require.NoError(t, err)
			defer env.Close()

			path := filepath.Join(t.TempDir(), "script")
			require.NoError(t, os.WriteFile(path, []byte(script), 0o600))
			require.NoError(t, env.RunFile(path))

			v, err := env.EvalExpression("answer")
			require.NoError(t, err)
			assert.Equal(t, NewNumber(42), v)

			err = env.RunFile(filepath.Join(t.TempDir(), "missing"))
			assert.Error(t, err)
		})
	}
}
