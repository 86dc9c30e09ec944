package proxy

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jvm"
)

// State is the lifecycle state of a proxy.
type State uint8

const (
	StateActive State = iota
	StateDaemon
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateDaemon:
		return "daemon"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", s)
}

// Proxy is a managed object implementing an interface through host
// callbacks. It satisfies host.CallbackProxy, so it can be passed as an
// argument wherever the interface is expected.
type Proxy struct {
	id    int64
	reg   *Registry
	iface string
	opts  Options

	mu         sync.Mutex
	state      State
	callbacks  Callbacks
	instance   *jvm.GlobalRef
	dispatcher *jvm.GlobalRef
}

// build creates the dispatcher and the managed proxy instance.
func (p *Proxy) build(env *jvm.Env, iface *jvm.GlobalRef, names []string) error {
	strCls, err := env.FindClass("java/lang/String")
	if err != nil {
		return err
	}
	defer strCls.Delete()
	arr, err := env.NewObjectArray(len(names), strCls)
	if err != nil {
		return err
	}
	defer arr.Delete()
	for i, n := range names {
		s, err := env.NewString(n)
		if err != nil {
			return err
		}
		err = env.SetArrayElement(arr, i, s)
		s.Delete()
		if err != nil {
			return err
		}
	}

	dcls, err := env.FindClass(DispatcherClass)
	if err != nil {
		return err
	}
	defer dcls.Delete()
	disp, err := env.NewObjectBySig(dcls, "([Ljava/lang/String;J)V", jvm.RefValue(arr), jvm.LongValue(p.id))
	if err != nil {
		return err
	}
	defer disp.Delete()

	classCls, err := env.FindClass("java/lang/Class")
	if err != nil {
		return err
	}
	defer classCls.Delete()
	ifaces, err := env.NewObjectArray(1, classCls)
	if err != nil {
		return err
	}
	defer ifaces.Delete()
	if err := env.SetArrayElement(ifaces, 0, iface); err != nil {
		return err
	}

	loader := env.VM().ClassLoader()
	defer loader.Release()
	pcls, err := env.FindClass("java/lang/reflect/Proxy")
	if err != nil {
		return err
	}
	defer pcls.Delete()
	inst, err := env.CallStaticObjectMethod(pcls, "newProxyInstance",
		"(Ljava/lang/ClassLoader;[Ljava/lang/Class;Ljava/lang/reflect/InvocationHandler;)Ljava/lang/Object;",
		jvm.RefValue(loader), jvm.RefValue(ifaces), jvm.RefValue(disp))
	if err != nil {
		return err
	}
	if inst.IsNull() {
		return errors.NullContract("Proxy.newProxyInstance()")
	}

	instance, err := inst.Promote()
	if err != nil {
		inst.Delete()
		return err
	}
	dispatcher, err := env.NewGlobalRef(disp)
	if err != nil {
		instance.Release()
		return err
	}

	p.instance = instance
	p.dispatcher = dispatcher
	return nil
}

func (p *Proxy) callback(method string) (Callback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cb, ok := p.callbacks[method]
	return cb, ok
}

// ID returns the proxy's dispatch id.
func (p *Proxy) ID() int64 { return p.id }

// ProxyID returns the proxy's dispatch id.
func (p *Proxy) ProxyID() int64 { return p.id }

// Interface returns the implemented interface name.
func (p *Proxy) Interface() string { return p.iface }

// ManagedClassName returns the implemented interface name.
func (p *Proxy) ManagedClassName() string { return p.iface }

// ManagedRef returns the managed proxy instance. It fails once the proxy
// has been reset.
func (p *Proxy) ManagedRef() (*jvm.GlobalRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateActive || p.instance == nil {
		return nil, errors.ProxyDestroyed()
	}
	return p.instance, nil
}

// State returns the current lifecycle state.
func (p *Proxy) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Proxy) String() string {
	return fmt.Sprintf("proxy(%s, id=%d, %s)", p.iface, p.id, p.State())
}

// Reset detaches the proxy from the host. It keeps serving managed callers
// as a daemon when created with KeepAsDaemon, force is false and the
// dispatcher is still valid; otherwise the dispatcher is destroyed. A reset
// of a destroyed proxy is a no-op.
func (p *Proxy) Reset(env *jvm.Env, force bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateDestroyed:
		return nil
	case StateDaemon:
		if !force {
			return nil
		}
		p.reg.mu.Lock()
		delete(p.reg.daemons, p.id)
		p.reg.mu.Unlock()
		return p.teardown(env)
	}

	// The move between tables is one step so dispatch never misses a daemon.
	keep := p.opts.KeepAsDaemon && !force && p.valid(env)
	p.reg.mu.Lock()
	delete(p.reg.active, p.id)
	if keep {
		p.reg.daemons[p.id] = p
	}
	p.reg.mu.Unlock()

	if keep {
		p.state = StateDaemon
		p.instance.Release()
		p.instance = nil
		Logger().Debug("proxy kept as daemon", zap.Int64("id", p.id))
		return nil
	}
	return p.teardown(env)
}

// valid asks the dispatcher whether it still accepts invocations.
// The caller holds p.mu.
func (p *Proxy) valid(env *jvm.Env) bool {
	if p.dispatcher == nil {
		return false
	}
	r, err := env.CallMethod(p.dispatcher, "isValid", "()Z")
	if err != nil {
		Logger().Debug("dispatcher validity check failed", zap.Int64("id", p.id), zap.Error(err))
		return false
	}
	return r.Bool()
}

// teardown destroys the dispatcher and drops the callbacks.
// The caller holds p.mu.
func (p *Proxy) teardown(env *jvm.Env) error {
	if p.state == StateDestroyed {
		return nil
	}
	var err error
	if p.dispatcher != nil {
		if _, err = env.CallMethod(p.dispatcher, "destruct", "()V"); err != nil {
			Logger().Warn("dispatcher teardown failed", zap.Int64("id", p.id), zap.Error(err))
		}
		p.dispatcher.Release()
		p.dispatcher = nil
	}
	if p.instance != nil {
		p.instance.Release()
		p.instance = nil
	}
	clear(p.callbacks)
	p.callbacks = nil
	p.state = StateDestroyed
	Logger().Debug("proxy destroyed", zap.Int64("id", p.id))
	return err
}
