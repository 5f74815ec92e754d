package scriptit

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of the construction options.
type Config struct {
	Backend  Backend      `yaml:"backend"`
	LogLevel string       `yaml:"log_level"`
	JsHost   JsHostConfig `yaml:"jshost"`
	Lua      LuaConfig    `yaml:"lua"`
	Go       GoConfig     `yaml:"go"`
	Pool     PoolConfig   `yaml:"pool"`
}

type JsHostConfig struct {
	// Decoding is "typetest" (default) or "structured".
	Decoding string `yaml:"decoding"`
}

type LuaConfig struct {
	Modules []string `yaml:"modules"`
}

type GoConfig struct {
	Stdlib bool `yaml:"stdlib"`
}

type PoolConfig struct {
	Size int `yaml:"size"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML, fills defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendJs
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.JsHost.Decoding == "" {
		cfg.JsHost.Decoding = DecodeTypeTest.String()
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendJs, BackendJsHost, BackendLua, BackendGo:
	default:
		return errors.Errorf("unsupported backend %q", c.Backend)
	}
	if _, err := parseDecoding(c.JsHost.Decoding); err != nil {
		return err
	}
	for _, name := range c.Lua.Modules {
		if _, ok := luaModules[name]; !ok {
			return errors.Errorf("unknown lua module %q", name)
		}
	}
	if c.Pool.Size < 0 {
		return errors.Errorf("pool size must not be negative, got %d", c.Pool.Size)
	}
	return nil
}

func parseDecoding(s string) (Decoding, error) {
	switch s {
	case "", DecodeTypeTest.String():
		return DecodeTypeTest, nil
	case DecodeStructured.String():
		return DecodeStructured, nil
	}
	return DecodeTypeTest, errors.Errorf("unknown decoding %q", s)
}

// Options turns the config into construction options, building the
// logger at the configured level.
func (c *Config) Options() ([]Option, error) {
	logger, err := NewLogger(c.LogLevel)
	if err != nil {
		return nil, err
	}
	decoding, err := parseDecoding(c.JsHost.Decoding)
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithLogger(logger),
		WithDecoding(decoding),
	}
	if len(c.Lua.Modules) > 0 {
		opts = append(opts, WithLuaModules(c.Lua.Modules...))
	}
	if c.Go.Stdlib {
		opts = append(opts, WithGoStdlib())
	}
	return opts, nil
}

func NewFromConfig(c *Config) (Environment, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return New(c.Backend, opts...)
}

func NewPoolFromConfig(c *Config, setup func(Environment)) (*Pool, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return InitPool(c.Backend, c.Pool.Size, setup, opts...)
}
