package scriptit

import (
	"sync"

	"github.com/pkg/errors"
)

// Pool keeps idle Environments of one backend for reuse. An Environment
// taken with Get belongs to the caller until it is handed back with Put;
// it is returned as-is, with whatever state the caller left in it.
type Pool struct {
	backend Backend
	setup   func(Environment)
	opts    []Option
	size    int
	m       sync.Mutex
	saved   []Environment
}

func (p *Pool) Get() Environment {
	p.m.Lock()
	defer p.m.Unlock()
	n := len(p.saved)
	if n == 0 {
		return p.New()
	}
	x := p.saved[n-1]
	p.saved = p.saved[0 : n-1]
	return x
}

// Put hands e back. When the pool already holds size idle environments,
// e is closed instead.
func (p *Pool) Put(e Environment) {
	p.m.Lock()
	defer p.m.Unlock()
	if p.size > 0 && len(p.saved) >= p.size {
		e.Close()
		return
	}
	p.saved = append(p.saved, e)
}

func (p *Pool) Shutdown() {
	p.m.Lock()
	defer p.m.Unlock()
	for _, e := range p.saved {
		e.Close()
	}
	p.saved = nil
}

// New builds a fresh Environment and runs the pool's setup on it.
func (p *Pool) New() Environment {
	env, err := New(p.backend, p.opts...)
	if err != nil {
		// InitPool validated the backend.
		panic(err)
	}
	if p.setup != nil {
		p.setup(env)
	}
	return env
}

// InitPool creates a pool for backend. setup, if not nil, runs once on
// every Environment the pool creates, typically to register handlers.
// size caps the idle environments kept; zero means unbounded.
func InitPool(backend Backend, size int, setup func(Environment), opts ...Option) (*Pool, error) {
	switch backend {
	case BackendJs, BackendJsHost, BackendLua, BackendGo:
	default:
		return nil, errors.Errorf("unsupported backend %q", backend)
	}
	if size < 0 {
		return nil, errors.Errorf("pool size must not be negative, got %d", size)
	}
	return &Pool{
		backend: backend,
		setup:   setup,
		opts:    opts,
		size:    size,
		m:       sync.Mutex{},
		saved:   make([]Environment, 0, 4),
	}, nil
}
