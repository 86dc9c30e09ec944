package host

import (
	"fmt"
	"runtime/debug"
)

// StackTracer is implemented by errors that carry a host stack. The managed
// exception built from such an error lists those frames.
type StackTracer interface {
	HostStack() string
}

// Error is a host failure with the stack captured where it was created.
type Error struct {
	Err   error
	Stack string
}

// NewError wraps err with the current goroutine's stack.
func NewError(err error) *Error {
	return &Error{Err: err, Stack: string(debug.Stack())}
}

// Errorf formats an Error.
func Errorf(format string, args ...any) *Error {
	return NewError(fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	if e.Err == nil {
		return "host error"
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HostStack returns the captured stack.
func (e *Error) HostStack() string { return e.Stack }
