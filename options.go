package scriptit

import "go.uber.org/zap"

type options struct {
	logger     *zap.Logger
	host       Host
	decoding   Decoding
	luaModules []string
	goStdlib   bool
}

// Option configures an Environment at construction time.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		logger:   zap.NewNop(),
		decoding: DecodeTypeTest,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHost selects the evaluator used by BackendJsHost. Defaults to a
// fresh OttoHost.
func WithHost(h Host) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithDecoding selects how BackendJsHost turns host results into Values.
func WithDecoding(d Decoding) Option {
	return func(o *options) {
		o.decoding = d
	}
}

// WithLuaModules preloads the named Lua modules so scripts can require
// them. Nothing is preloaded by default.
func WithLuaModules(names ...string) Option {
	return func(o *options) {
		o.luaModules = append(o.luaModules, names...)
	}
}

// WithGoStdlib lets BackendGo scripts import the Go standard library.
func WithGoStdlib() Option {
	return func(o *options) {
		o.goStdlib = true
	}
}
