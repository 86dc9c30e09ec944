package proxy

import (
	"crypto/rand"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/marshal"
)

// DispatcherClass is the managed invocation handler backing every proxy.
const DispatcherClass = "io/github/wippyai/jbridge/NativeDispatcher"

// Options configure a proxy at creation.
type Options struct {
	// KeepAsDaemon keeps the proxy serving managed callers after a
	// non-forced Reset, until ClearDaemons.
	KeepAsDaemon bool
}

// Registry owns the proxies of one VM. It is safe for concurrent use.
type Registry struct {
	engine *marshal.Engine
	sched  host.Scheduler

	mu      sync.Mutex
	active  map[int64]*Proxy
	daemons map[int64]*Proxy

	nativesMu  sync.Mutex
	registered bool
}

// NewRegistry creates a registry whose callbacks run on sched.
func NewRegistry(engine *marshal.Engine, sched host.Scheduler) *Registry {
	return &Registry{
		engine:  engine,
		sched:   sched,
		active:  make(map[int64]*Proxy),
		daemons: make(map[int64]*Proxy),
	}
}

// Create builds a managed proxy implementing the interface iface whose
// methods dispatch to callbacks.
func (r *Registry) Create(env *jvm.Env, iface string, callbacks Callbacks, opts Options) (*Proxy, error) {
	if len(callbacks) == 0 {
		return nil, errors.Proxy("no callbacks given for %s", iface)
	}
	if err := r.registerNatives(env); err != nil {
		return nil, err
	}

	cls, err := env.LoadClass(iface)
	if err != nil {
		return nil, err
	}
	defer cls.Release()

	names := make([]string, 0, len(callbacks))
	for name := range callbacks {
		names = append(names, name)
	}
	slices.Sort(names)

	r.mu.Lock()
	id, err := r.newID()
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	p := &Proxy{
		id:        id,
		reg:       r,
		iface:     iface,
		opts:      opts,
		callbacks: make(Callbacks, len(callbacks)),
	}
	for name, cb := range callbacks {
		p.callbacks[name] = cb
	}
	// Reserve the id while the managed side is built.
	r.active[id] = p
	r.mu.Unlock()

	if err := p.build(env, cls, names); err != nil {
		r.mu.Lock()
		delete(r.active, id)
		r.mu.Unlock()
		return nil, err
	}

	Logger().Debug("proxy created", zap.Int64("id", id), zap.String("interface", iface), zap.Strings("methods", names))
	return p, nil
}

// newID returns a random id unused by any active or daemon proxy.
// The caller holds r.mu.
func (r *Registry) newID() (int64, error) {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, errors.Wrap(errors.PhaseProxy, errors.KindProxy, err, "generate proxy id")
		}
		id := int64(binary.LittleEndian.Uint64(b[:]) >> 1)
		if id == 0 {
			continue
		}
		_, active := r.active[id]
		_, daemon := r.daemons[id]
		if !active && !daemon {
			return id, nil
		}
	}
}

// lookup finds an active proxy, then a daemon.
func (r *Registry) lookup(id int64) (*Proxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.active[id]; ok {
		return p, true
	}
	p, ok := r.daemons[id]
	return p, ok
}

// Exists reports whether any proxy is active or kept as a daemon.
func (r *Registry) Exists() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active) > 0 || len(r.daemons) > 0
}

// Active returns the number of active proxies.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Daemons returns the number of daemon proxies.
func (r *Registry) Daemons() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.daemons)
}

// OnInvoke dispatches one invocation of method on proxy id to its host
// callback and blocks until the callback completes it. It is called on the
// invoking managed thread.
func (r *Registry) OnInvoke(env *jvm.Env, id int64, method string, args []any) (any, error) {
	p, ok := r.lookup(id)
	if !ok {
		return nil, errors.UnknownProxy(id)
	}
	cb, ok := p.callback(method)
	if !ok {
		return nil, errors.Proxy("no method with the name %s exists", method)
	}

	call := newCall(p, method, args)
	log := Logger().With(zap.Int64("proxy", id), zap.String("method", method), zap.Stringer("call", call.ID))
	log.Debug("proxy invocation posted")

	posted := r.sched.Post(func() {
		defer func() {
			if v := recover(); v != nil {
				perr := &jvm.PanicError{Value: v, Stack: string(debug.Stack())}
				if err := call.Fail(perr); err != nil {
					log.Warn("callback panicked after completing", zap.Any("panic", v))
				}
			}
		}()
		cb(call)
	})
	if !posted {
		return nil, errors.Proxy("host scheduler no longer accepts calls for %s", method)
	}

	res := <-call.done
	if res.err != nil {
		log.Debug("proxy invocation failed", zap.Error(res.err))
		return nil, res.err
	}
	log.Debug("proxy invocation completed")
	return res.value, nil
}

// ClearDaemons tears down every daemon proxy.
func (r *Registry) ClearDaemons(env *jvm.Env) error {
	r.mu.Lock()
	daemons := make([]*Proxy, 0, len(r.daemons))
	for id, p := range r.daemons {
		daemons = append(daemons, p)
		delete(r.daemons, id)
	}
	r.mu.Unlock()

	var errs []error
	for _, p := range daemons {
		p.mu.Lock()
		if err := p.teardown(env); err != nil {
			errs = append(errs, fmt.Errorf("proxy %d: %w", p.id, err))
		}
		p.mu.Unlock()
	}
	return stderrors.Join(errs...)
}
