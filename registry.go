package scriptit

import (
	"fmt"

	"go.uber.org/zap"
)

// Handler is the lowest-level host callback reachable from script through
// ScriptIt.core.callToRust. Payloads are opaque text.
type Handler func(data string) (string, error)

// registry maps handler names to host callbacks. Each Environment owns
// exactly one; it is never shared between Environments.
type registry struct {
	handlers map[string]Handler
	logger   *zap.Logger
}

func newRegistry(logger *zap.Logger) *registry {
	return &registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

func (r *registry) register(name string, h Handler) {
	if h == nil {
		panic("register nil handler " + name)
	}
	if _, ok := r.handlers[name]; ok {
		r.logger.Debug("overwriting core handler", zap.String("handler", name))
	}
	r.handlers[name] = h
}

// dispatch runs the named handler. Its error text is what script sees in
// the thrown exception.
func (r *registry) dispatch(name, data string) (string, error) {
	h, ok := r.handlers[name]
	if !ok {
		r.logger.Debug("dispatch to unregistered handler", zap.String("handler", name))
		return "", fmt.Errorf("can't get unregistered handler: %s", name)
	}
	res, err := h(data)
	if err != nil {
		r.logger.Debug("core handler failed", zap.String("handler", name), zap.Error(err))
		return "", err
	}
	return res, nil
}
