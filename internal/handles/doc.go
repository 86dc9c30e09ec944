// Package handles provides generation-checked handle tables with lifecycle
// observers.
//
// A Table hands out opaque non-zero handles for stored values. Each slot
// carries a generation that is bumped on reuse, so freeing a handle twice is
// detected even after its slot has been handed out again:
//
//	t := handles.New[*Object](0)
//	var c handles.Counter
//	t.Subscribe(&c)
//	h, _ := t.Insert(obj)
//	t.Remove(h)
//	t.Remove(h) // reported as EventStale
//	c.Stale()   // 1
package handles
