// Package host defines the host side of the bridge: the dynamic value model
// the marshalling engine converts to and from, and the cooperative scheduler
// that host callbacks run on.
//
// # Values
//
// The host value model is deliberately small:
//
//	nil                 null
//	Undefined{}         undefined
//	bool                boolean
//	float64, int*, ...  number (Go integer and float kinds are accepted)
//	*big.Int            arbitrary-precision integer
//	string              string
//	[]any, []int32, ... array-like
//	[]byte              binary buffer
//	Bridged             an object of a bridged managed class
//	CallbackProxy       a managed proxy backed by host callbacks
//
// # Scheduler
//
// The host runtime is one logical thread. Managed threads never call into it
// directly; they Post a task and wait for it to complete. Loop is the
// reference Scheduler: tasks queue without blocking and run when the owner
// calls RunOnce or Run.
package host
