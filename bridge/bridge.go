package bridge

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/proxy"
	"github.com/wippyai/jbridge/reflection"
)

// Options configure a Bridge.
type Options struct {
	JVM jvm.Options

	// Config holds per-class configuration. Nil uses config.Default for
	// every class.
	Config *config.File

	// Scheduler runs host callbacks and async completions. Nil creates a
	// host.Loop, available through Loop.
	Scheduler host.Scheduler

	// CacheSize bounds descriptors resolved under non-default
	// configurations.
	CacheSize int
}

// Pumper is a scheduler the bridge can drive itself while a blocking call
// waits on host callbacks.
type Pumper interface {
	host.Scheduler
	RunOnce() int
}

// Bridge is one managed VM exposed to the host.
type Bridge struct {
	vm      *jvm.VM
	cfg     *config.File
	cache   *reflection.Cache
	engine  *marshal.Engine
	proxies *proxy.Registry
	sched   host.Scheduler
	pumper  Pumper

	mu   sync.Mutex
	jars []string
}

// New creates the VM through loader and sets up the bridge around it.
func New(loader *jvm.Loader, opts Options) (*Bridge, error) {
	vm, err := jvm.Create(loader, opts.JVM)
	if err != nil {
		return nil, err
	}

	sched := opts.Scheduler
	if sched == nil {
		sched = host.NewLoop()
	}
	b := &Bridge{
		vm:    vm,
		cfg:   opts.Config,
		cache: reflection.NewCache(opts.CacheSize),
		sched: sched,
	}
	b.pumper, _ = sched.(Pumper)
	b.engine = marshal.New(b.cache, b)
	b.proxies = proxy.NewRegistry(b.engine, sched)

	Logger().Debug("bridge created", zap.Bool("pump", b.pumper != nil))
	return b, nil
}

// VM returns the underlying VM.
func (b *Bridge) VM() *jvm.VM { return b.vm }

// Engine returns the bridge's marshalling engine.
func (b *Bridge) Engine() *marshal.Engine { return b.engine }

// Proxies returns the bridge's proxy registry.
func (b *Bridge) Proxies() *proxy.Registry { return b.proxies }

// Scheduler returns the scheduler host callbacks run on.
func (b *Bridge) Scheduler() host.Scheduler { return b.sched }

// Loop returns the scheduler as a *host.Loop, or nil when another
// scheduler was configured.
func (b *Bridge) Loop() *host.Loop {
	l, _ := b.sched.(*host.Loop)
	return l
}

// Attach returns a thread context for the calling goroutine. Close it when done.
func (b *Bridge) Attach() (*jvm.Env, error) {
	return b.vm.Attach(false)
}

func (b *Bridge) with(fn func(env *jvm.Env) error) error {
	env, err := b.vm.Attach(false)
	if err != nil {
		return err
	}
	defer env.Close()
	return fn(env)
}

// ImportClass resolves a class under its configured options.
func (b *Bridge) ImportClass(name string) (*Class, error) {
	return b.ImportClassWith(name, b.cfg.For(name))
}

// ImportClassWith resolves a class under cfg.
func (b *Bridge) ImportClassWith(name string, cfg config.Class) (*Class, error) {
	var c *Class
	err := b.with(func(env *jvm.Env) error {
		var err error
		c, err = b.class(env, name, cfg)
		return err
	})
	return c, err
}

// ImportClassAsync resolves a class on a worker goroutine.
func (b *Bridge) ImportClassAsync(name string) *Pending {
	return b.async(func(env *jvm.Env) (any, error) {
		return b.class(env, name, b.cfg.For(name))
	})
}

func (b *Bridge) class(env *jvm.Env, name string, cfg config.Class) (*Class, error) {
	d, err := b.cache.Get(env, name, cfg)
	if err != nil {
		return nil, err
	}
	return &Class{b: b, desc: d}, nil
}

// Wrap makes managed objects without a plain host form into Instances.
func (b *Bridge) Wrap(env *jvm.Env, ref *jvm.GlobalRef, class string) (any, error) {
	c, err := b.class(env, class, b.cfg.For(class))
	if err != nil {
		ref.Release()
		return nil, err
	}
	return &Instance{class: c, ref: ref}, nil
}

// CreateProxy implements the managed interface iface with host callbacks.
func (b *Bridge) CreateProxy(iface string, callbacks proxy.Callbacks, opts proxy.Options) (*proxy.Proxy, error) {
	var p *proxy.Proxy
	err := b.with(func(env *jvm.Env) error {
		var err error
		p, err = b.proxies.Create(env, iface, callbacks, opts)
		return err
	})
	return p, err
}

// ResetProxy resets p, keeping it as a daemon when it allows so and force is false.
func (b *Bridge) ResetProxy(p *proxy.Proxy, force bool) error {
	return b.with(func(env *jvm.Env) error {
		return p.Reset(env, force)
	})
}

// ClearDaemonProxies tears down every proxy kept as a daemon.
func (b *Bridge) ClearDaemonProxies() error {
	return b.with(b.proxies.ClearDaemons)
}

// IsInstanceOf reports whether v is an instance of className.
func (b *Bridge) IsInstanceOf(v host.Bridged, className string) (bool, error) {
	var ok bool
	err := b.with(func(env *jvm.Env) error {
		var err error
		ok, err = instanceOf(env, v, className)
		return err
	})
	return ok, err
}

func instanceOf(env *jvm.Env, v host.Bridged, className string) (bool, error) {
	ref, err := v.ManagedRef()
	if err != nil {
		return false, err
	}
	cls, err := env.LoadClass(className)
	if err != nil {
		return false, err
	}
	defer cls.Release()
	return env.IsInstanceOf(ref, cls), nil
}

// ClearCache drops every cached class descriptor. Classes already imported
// keep working.
func (b *Bridge) ClearCache() {
	b.cache.Clear()
}

// Close tears down daemon proxies and destroys the VM.
func (b *Bridge) Close() error {
	if err := b.ClearDaemonProxies(); err != nil {
		Logger().Warn("clear daemon proxies on close", zap.Error(err))
	}
	return b.vm.Destroy()
}
