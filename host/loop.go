package host

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// Scheduler is the host's post-and-return primitive. Post never blocks and
// reports false once the scheduler no longer accepts work.
type Scheduler interface {
	Post(task func()) bool
}

// Loop is a single-consumer task queue. Any goroutine may Post; tasks run
// on whichever goroutine calls RunOnce or Run, one at a time, in post order.
// A task may itself call RunOnce; a second goroutine calling RunOnce while
// another one is running tasks gets nothing to do.
type Loop struct {
	queue  []func()
	wake   chan struct{}
	mu     sync.Mutex
	closed bool
	owner  int64 // goroutine running tasks, 0 when idle
	depth  int
	ran    atomic.Uint64
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues task.
func (l *Loop) Post(task func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, task)
	l.mu.Unlock()
	l.signal()
	return true
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// Ran returns the number of tasks run so far.
func (l *Loop) Ran() uint64 {
	return l.ran.Load()
}

// RunOnce runs the tasks queued at the time of the call and returns how
// many ran. Tasks posted while they run wait for the next turn. It returns
// 0 without running anything while another goroutine is running tasks.
func (l *Loop) RunOnce() int {
	self := goid.Get()
	l.mu.Lock()
	if l.owner != 0 && l.owner != self {
		l.mu.Unlock()
		return 0
	}
	l.owner = self
	l.depth++
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		if l.depth--; l.depth == 0 {
			l.owner = 0
		}
		l.mu.Unlock()
	}()
	for _, task := range batch {
		task()
		l.ran.Add(1)
	}
	return len(batch)
}

// drained reports whether the loop is closed with nothing queued or running.
func (l *Loop) drained() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed && len(l.queue) == 0 && l.owner == 0
}

// Run runs tasks as they arrive until ctx is done or the loop is closed.
// After Close it returns once every accepted task has run.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunOnce()
		if l.isClosed() {
			for !l.drained() {
				if l.RunOnce() == 0 {
					runtime.Gosched()
				}
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close stops accepting tasks. Queued tasks still run on the next turn.
func (l *Loop) Close() {
	l.mu.Lock()
	already := l.closed
	l.closed = true
	l.mu.Unlock()
	if !already {
		l.signal()
	}
}

type ctxKeyScheduler struct{}

// WithScheduler attaches s to ctx.
func WithScheduler(ctx context.Context, s Scheduler) context.Context {
	return context.WithValue(ctx, ctxKeyScheduler{}, s)
}

// GetScheduler returns the scheduler attached to ctx, or nil.
func GetScheduler(ctx context.Context) Scheduler {
	if v := ctx.Value(ctxKeyScheduler{}); v != nil {
		return v.(Scheduler)
	}
	return nil
}
