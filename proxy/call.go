package proxy

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wippyai/jbridge/errors"
)

// Callback handles one invocation of a proxied method. It runs on the host
// scheduler and must complete the call exactly once, now or later.
type Callback func(c *Call)

// Callbacks maps interface method names to their callbacks.
type Callbacks map[string]Callback

type outcome struct {
	value any
	err   error
}

// Call is one pending invocation from a managed thread. Bridged objects in
// Args are owned by the callback.
type Call struct {
	ID     uuid.UUID
	Proxy  *Proxy
	Method string
	Args   []any

	done      chan outcome
	completed atomic.Bool
}

func newCall(p *Proxy, method string, args []any) *Call {
	return &Call{
		ID:     uuid.New(),
		Proxy:  p,
		Method: method,
		Args:   args,
		done:   make(chan outcome, 1),
	}
}

// Return completes the call with v, which is converted to the method's
// return type on the managed thread.
func (c *Call) Return(v any) error {
	return c.complete(outcome{value: v})
}

// Fail completes the call with err. The managed caller sees it thrown as
// an exception carrying the host stack when err has one.
func (c *Call) Fail(err error) error {
	if err == nil {
		err = errors.Proxy("callback %s failed", c.Method)
	}
	return c.complete(outcome{err: err})
}

// Completed reports whether Return or Fail has been called.
func (c *Call) Completed() bool {
	return c.completed.Load()
}

func (c *Call) complete(o outcome) error {
	if !c.completed.CompareAndSwap(false, true) {
		return errors.DoubleComplete(c.Method)
	}
	c.done <- o
	return nil
}
