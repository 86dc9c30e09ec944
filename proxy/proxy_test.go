package proxy_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/marshal"
	"github.com/wippyai/jbridge/proxy"
	"github.com/wippyai/jbridge/reflection"
	"github.com/wippyai/jbridge/simvm"
)

type fixture struct {
	rt  *simvm.Runtime
	vm  *jvm.VM
	env *jvm.Env
	eng *marshal.Engine
	reg *proxy.Registry
}

func setup(t *testing.T) *fixture {
	t.Helper()
	rt := simvm.New()
	if err := rt.Define(simvm.Demo()...); err != nil {
		t.Fatal(err)
	}
	vm, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	env, err := vm.Attach(false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		env.Close()
		_ = vm.Destroy()
	})

	loop := host.NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(cancel)

	eng := marshal.New(reflection.NewCache(0), nil)
	return &fixture{rt: rt, vm: vm, env: env, eng: eng, reg: proxy.NewRegistry(eng, loop)}
}

func (f *fixture) call(t *testing.T, env *jvm.Env, class, name, desc string, args ...any) (any, error) {
	t.Helper()
	cls, err := env.LoadClass(class)
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Release()
	sig := jtype.MustParseSignature(desc)
	id, err := env.MethodID(cls, name, desc, true)
	if err != nil {
		t.Fatal(err)
	}
	in, err := f.eng.Args(env, sig.Params, args)
	if err != nil {
		return nil, err
	}
	defer jvm.ReleaseAll(in)
	r, err := env.CallStatic(cls, id, sig.Return, jvm.Values(in)...)
	if err != nil {
		return nil, err
	}
	return f.eng.ToHost(env, r)
}

const applyDesc = "(Ldemo/Transformer;Ljava/lang/String;)Ljava/lang/String;"

func upper() proxy.Callbacks {
	return proxy.Callbacks{
		"transform": func(c *proxy.Call) {
			_ = c.Return(strings.ToUpper(c.Args[0].(string)))
		},
	}
}

func TestProxy_Dispatch(t *testing.T) {
	f := setup(t)
	p, err := f.reg.Create(f.env, "demo.Transformer", upper(), proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	got, err := f.call(t, f.env, "demo.Worker", "apply", applyDesc, p, "abc")
	if err != nil {
		t.Fatal(err)
	}
	if got != "ABC" {
		t.Fatalf("apply = %v", got)
	}
	if !f.reg.Exists() || f.reg.Active() != 1 {
		t.Fatalf("registry: exists=%v active=%d", f.reg.Exists(), f.reg.Active())
	}
}

func TestProxy_PrimitiveReturn(t *testing.T) {
	f := setup(t)
	var ran atomic.Int32
	p, err := f.reg.Create(f.env, "java.lang.Runnable", proxy.Callbacks{
		"run": func(c *proxy.Call) {
			ran.Add(1)
			_ = c.Return(nil)
		},
	}, proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	v, err := f.call(t, f.env, "demo.Worker", "run", "(Ljava/lang/Runnable;)V", p)
	if err != nil {
		t.Fatal(err)
	}
	if v != (host.Undefined{}) || ran.Load() != 1 {
		t.Fatalf("run = %v, ran %d", v, ran.Load())
	}
}

func TestProxy_FailThrowsIntoManaged(t *testing.T) {
	f := setup(t)
	p, err := f.reg.Create(f.env, "java.lang.Runnable", proxy.Callbacks{
		"run": func(c *proxy.Call) {
			_ = c.Fail(host.Errorf("callback refused"))
		},
	}, proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	got, err := f.call(t, f.env, "demo.Failing", "catching", "(Ljava/lang/Runnable;)Ljava/lang/String;", p)
	if err != nil {
		t.Fatal(err)
	}
	if got != "callback refused" {
		t.Fatalf("catching = %v", got)
	}

	_, err = f.call(t, f.env, "demo.Worker", "run", "(Ljava/lang/Runnable;)V", p)
	var me *jvm.ManagedException
	if !stderrors.As(err, &me) {
		t.Fatalf("run = %v, want managed exception", err)
	}
	defer me.Release()
	if !strings.Contains(me.Message(), "callback refused") {
		t.Fatalf("message %q", me.Message())
	}
	if !strings.Contains(me.ManagedStack(), "external.") {
		t.Fatalf("host frames missing from\n%s", me.ManagedStack())
	}
}

func TestProxy_PanicBecomesException(t *testing.T) {
	f := setup(t)
	p, err := f.reg.Create(f.env, "java.lang.Runnable", proxy.Callbacks{
		"run": func(*proxy.Call) { panic("boom") },
	}, proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	got, err := f.call(t, f.env, "demo.Failing", "catching", "(Ljava/lang/Runnable;)Ljava/lang/String;", p)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.(string); !strings.Contains(s, "boom") {
		t.Fatalf("catching = %v", got)
	}
}

func TestProxy_DoubleComplete(t *testing.T) {
	f := setup(t)
	second := make(chan error, 1)
	p, err := f.reg.Create(f.env, "java.lang.Runnable", proxy.Callbacks{
		"run": func(c *proxy.Call) {
			_ = c.Return(nil)
			second <- c.Fail(stderrors.New("late"))
		},
	}, proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	if _, err := f.call(t, f.env, "demo.Worker", "run", "(Ljava/lang/Runnable;)V", p); err != nil {
		t.Fatal(err)
	}
	if err := <-second; !errors.HasKind(err, errors.KindProxy) {
		t.Fatalf("second completion = %v", err)
	}
}

func TestProxy_UnknownID(t *testing.T) {
	f := setup(t)
	_, err := f.reg.OnInvoke(f.env, 42, "run", nil)
	if !errors.HasKind(err, errors.KindProxy) || !strings.Contains(err.Error(), "no proxy with id 42") {
		t.Fatalf("OnInvoke = %v", err)
	}
}

func TestProxy_CreateErrors(t *testing.T) {
	f := setup(t)
	if _, err := f.reg.Create(f.env, "demo.Transformer", nil, proxy.Options{}); !errors.HasKind(err, errors.KindProxy) {
		t.Fatalf("no callbacks: %v", err)
	}
	if _, err := f.reg.Create(f.env, "demo.Missing", upper(), proxy.Options{}); err == nil {
		t.Fatal("missing interface accepted")
	}
	if _, err := f.reg.Create(f.env, "demo.Box", upper(), proxy.Options{}); err == nil {
		t.Fatal("class accepted as interface")
	}
	if f.reg.Exists() {
		t.Fatal("failed creations left proxies behind")
	}
}

func TestProxy_ResetIsIdempotent(t *testing.T) {
	f := setup(t)
	p, err := f.reg.Create(f.env, "demo.Transformer", upper(), proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Reset(f.env, false); err != nil {
		t.Fatal(err)
	}
	if err := p.Reset(f.env, false); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if p.State() != proxy.StateDestroyed || f.reg.Exists() {
		t.Fatalf("state %s, exists %v", p.State(), f.reg.Exists())
	}
	if _, err := p.ManagedRef(); !errors.HasKind(err, errors.KindProxy) {
		t.Fatalf("ManagedRef after reset = %v", err)
	}
	_, err = f.call(t, f.env, "demo.Worker", "apply", applyDesc, p, "x")
	if !errors.HasKind(err, errors.KindProxy) || !strings.Contains(err.Error(), "already been destroyed") {
		t.Fatalf("destroyed proxy as argument: %v", err)
	}
}

func TestProxy_Daemon(t *testing.T) {
	f := setup(t)
	var calls atomic.Int32
	p, err := f.reg.Create(f.env, "demo.Transformer", proxy.Callbacks{
		"transform": func(c *proxy.Call) {
			calls.Add(1)
			_ = c.Return(c.Args[0])
		},
	}, proxy.Options{KeepAsDaemon: true})
	if err != nil {
		t.Fatal(err)
	}

	// Managed code keeping the proxy after the host let go of it.
	ref, err := p.ManagedRef()
	if err != nil {
		t.Fatal(err)
	}
	held := ref.Clone()
	defer held.Release()

	if err := p.Reset(f.env, false); err != nil {
		t.Fatal(err)
	}
	if p.State() != proxy.StateDaemon || f.reg.Daemons() != 1 || f.reg.Active() != 0 || !f.reg.Exists() {
		t.Fatalf("after reset: %s daemons=%d active=%d", p.State(), f.reg.Daemons(), f.reg.Active())
	}

	if err := callStaticRaw(f.env, "demo.Worker", "apply", applyDesc, held, "still here"); err != nil {
		t.Fatalf("daemon call: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d", calls.Load())
	}

	if err := f.reg.ClearDaemons(f.env); err != nil {
		t.Fatal(err)
	}
	if p.State() != proxy.StateDestroyed || f.reg.Exists() {
		t.Fatalf("after clear: %s exists=%v", p.State(), f.reg.Exists())
	}
	err = callStaticRaw(f.env, "demo.Worker", "apply", applyDesc, held, "gone")
	var me *jvm.ManagedException
	if !stderrors.As(err, &me) {
		t.Fatalf("call after clear = %v", err)
	}
	me.Release()
	if calls.Load() != 1 {
		t.Fatalf("destroyed daemon dispatched: calls = %d", calls.Load())
	}
}

func TestProxy_DispatchDuringDaemonReset(t *testing.T) {
	f := setup(t)
	for i := 0; i < 20; i++ {
		p, err := f.reg.Create(f.env, "demo.Transformer", proxy.Callbacks{
			"transform": func(c *proxy.Call) { _ = c.Return(c.Args[0]) },
		}, proxy.Options{KeepAsDaemon: true})
		if err != nil {
			t.Fatal(err)
		}
		id := p.ID()

		started := make(chan struct{})
		stop := make(chan struct{})
		var g errgroup.Group
		g.Go(func() error {
			env, err := f.vm.Attach(false)
			if err != nil {
				close(started)
				return err
			}
			defer env.Close()
			for n := 0; ; n++ {
				if n == 1 {
					close(started)
				}
				select {
				case <-stop:
					return nil
				default:
				}
				if _, err := f.reg.OnInvoke(env, id, "transform", []any{"x"}); err != nil {
					if n == 0 {
						close(started)
					}
					return fmt.Errorf("dispatch %d on proxy %d: %w", n, id, err)
				}
			}
		})

		<-started
		if err := p.Reset(f.env, false); err != nil {
			t.Fatal(err)
		}
		close(stop)
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
		if p.State() != proxy.StateDaemon {
			t.Fatalf("state = %s", p.State())
		}
		if err := f.reg.ClearDaemons(f.env); err != nil {
			t.Fatal(err)
		}
	}
}

func TestProxy_ForcedResetSkipsDaemon(t *testing.T) {
	f := setup(t)
	p, err := f.reg.Create(f.env, "demo.Transformer", upper(), proxy.Options{KeepAsDaemon: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Reset(f.env, true); err != nil {
		t.Fatal(err)
	}
	if p.State() != proxy.StateDestroyed || f.reg.Daemons() != 0 {
		t.Fatalf("forced reset: %s daemons=%d", p.State(), f.reg.Daemons())
	}
}

// callStaticRaw calls a static method passing held as the first argument
// and s as a managed string.
func callStaticRaw(env *jvm.Env, class, name, desc string, held *jvm.GlobalRef, s string) error {
	cls, err := env.LoadClass(class)
	if err != nil {
		return err
	}
	defer cls.Release()
	js, err := env.NewString(s)
	if err != nil {
		return err
	}
	defer js.Delete()
	r, err := env.CallStaticMethod(cls, name, desc, jvm.RefValue(held), jvm.RefValue(js))
	if err != nil {
		return err
	}
	r.Release()
	return nil
}

func TestProxy_ConcurrentManagedThreads(t *testing.T) {
	f := setup(t)
	var calls atomic.Int32
	p, err := f.reg.Create(f.env, "java.lang.Runnable", proxy.Callbacks{
		"run": func(c *proxy.Call) {
			calls.Add(1)
			_ = c.Return(nil)
		},
	}, proxy.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer p.Reset(f.env, true)

	const callers, threads = 4, 8
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			env, err := f.vm.Attach(false)
			if err != nil {
				return err
			}
			defer env.Close()
			n, err := runAll(env, p, threads)
			if err != nil {
				return err
			}
			if n != threads {
				return stderrors.New("not every managed thread completed")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := calls.Load(); got != callers*threads {
		t.Fatalf("calls = %d, want %d", got, callers*threads)
	}
}

func runAll(env *jvm.Env, p *proxy.Proxy, n int32) (int32, error) {
	ref, err := p.ManagedRef()
	if err != nil {
		return 0, err
	}
	cls, err := env.LoadClass("demo.Worker")
	if err != nil {
		return 0, err
	}
	defer cls.Release()
	r, err := env.CallStaticMethod(cls, "runAll", "(Ljava/lang/Runnable;I)I", jvm.RefValue(ref), jvm.IntValue(n))
	if err != nil {
		return 0, err
	}
	return r.Int(), nil
}
