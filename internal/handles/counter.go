package handles

import "sync/atomic"

// Counter is an Observer tallying lifecycle events.
type Counter struct {
	created atomic.Int64
	dropped atomic.Int64
	stale   atomic.Int64
}

func (c *Counter) OnHandleEvent(e Event) {
	switch e.Type {
	case EventCreated:
		c.created.Add(1)
	case EventDropped:
		c.dropped.Add(1)
	case EventStale:
		c.stale.Add(1)
	}
}

// Created returns the number of inserts observed.
func (c *Counter) Created() int64 { return c.created.Load() }

// Dropped returns the number of successful removals observed.
func (c *Counter) Dropped() int64 { return c.dropped.Load() }

// Stale returns the number of removals of handles that were not live.
func (c *Counter) Stale() int64 { return c.stale.Load() }

// Outstanding returns created minus dropped.
func (c *Counter) Outstanding() int64 { return c.Created() - c.Dropped() }
