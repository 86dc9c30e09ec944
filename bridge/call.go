package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/jvm"
)

// pumpInterval is how long the pump sleeps when the scheduler had no work.
const pumpInterval = time.Millisecond

// invoke runs fn on env, or on a helper thread while pumping the host
// scheduler when cfg asks for it and a proxy could call back into the host.
func (b *Bridge) invoke(env *jvm.Env, cfg config.Class, fn func(env *jvm.Env) (jvm.CallResult, error)) (jvm.CallResult, error) {
	if !cfg.PumpHostWhileProxyActive || b.pumper == nil || !b.proxies.Exists() {
		return fn(env)
	}

	type result struct {
		r   jvm.CallResult
		err error
	}
	done := make(chan result, 1)
	go func() {
		wenv, err := b.vm.Attach(false)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer wenv.Close()
		r, err := fn(wenv)
		done <- result{r, err}
	}()

	for {
		select {
		case res := <-done:
			return res.r, res.err
		default:
		}
		if b.pumper.RunOnce() == 0 {
			time.Sleep(pumpInterval)
		}
	}
}

// Pending is the result of an operation running on a worker goroutine.
// It completes on the host scheduler.
type Pending struct {
	done  chan struct{}
	value any
	err   error

	mu    sync.Mutex
	thens []func(any, error)
	sched func(func()) bool
}

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the outcome. It is only valid after Done is closed.
func (p *Pending) Result() (any, error) { return p.value, p.err }

// Wait blocks until the operation completes or ctx is done. It must not be
// called on the goroutine running the scheduler.
func (p *Pending) Wait(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Then runs fn on the host scheduler with the outcome.
func (p *Pending) Then(fn func(any, error)) {
	p.mu.Lock()
	select {
	case <-p.done:
		p.mu.Unlock()
		if !p.sched(func() { fn(p.value, p.err) }) {
			fn(p.value, p.err)
		}
		return
	default:
	}
	p.thens = append(p.thens, fn)
	p.mu.Unlock()
}

func (p *Pending) complete(v any, err error) {
	p.mu.Lock()
	p.value, p.err = v, err
	thens := p.thens
	p.thens = nil
	close(p.done)
	p.mu.Unlock()
	for _, fn := range thens {
		fn(v, err)
	}
}

// async runs fn on a worker goroutine with its own attachment and delivers
// the outcome through the host scheduler.
func (b *Bridge) async(fn func(env *jvm.Env) (any, error)) *Pending {
	p := &Pending{done: make(chan struct{}), sched: b.sched.Post}
	go func() {
		var v any
		env, err := b.vm.Attach(false)
		if err == nil {
			v, err = fn(env)
			env.Close()
		}
		if !b.sched.Post(func() { p.complete(v, err) }) {
			Logger().Debug("scheduler closed, completing async call in place")
			p.complete(v, err)
		}
	}()
	return p
}
