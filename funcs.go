package scriptit

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Func is a typed host function callable from script. Arguments and the
// result are marshalled through the tagged JSON codec.
type Func func(args []Value) (Value, error)

// funcHost is the part of an Environment the registration protocol needs.
type funcHost interface {
	RegisterCoreHandler(name string, h Handler)
	EvalExpression(source string) (Value, error)
}

// funcHandlerName namespaces by the public name and suffixes a random
// token, so repeated registrations never collide.
func funcHandlerName(funcName string) string {
	return fmt.Sprintf("func$%s$%s", funcName, uuid.NewString())
}

func funcHandler(fn Func) Handler {
	return func(data string) (string, error) {
		args, err := DecodeValues(data)
		if err != nil {
			return "", err
		}
		res, err := fn(args)
		if err != nil {
			return "", err
		}
		return EncodeValue(res)
	}
}

// registerFunc installs fn under funcName. glue builds the single
// expression that wires the script side; failing to evaluate it is a bug
// in the bootstrap, not a recoverable condition.
func registerFunc(env funcHost, logger *zap.Logger, funcName string, fn Func, glue func(funcName, handlerName string) string) {
	if fn == nil {
		panic("register nil func " + funcName)
	}
	handlerName := funcHandlerName(funcName)
	env.RegisterCoreHandler(handlerName, funcHandler(fn))
	if _, err := env.EvalExpression(glue(funcName, handlerName)); err != nil {
		panic(fmt.Sprintf("install func %s: %v", funcName, err))
	}
	logger.Debug("registered func", zap.String("func", funcName), zap.String("handler", handlerName))
}
