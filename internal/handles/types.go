package handles

// Handle is an opaque reference to a slot in a Table.
// The low 32 bits index the slot and the high 32 bits carry its generation,
// so a handle to a freed slot stays invalid after the slot is reused.
// Handle 0 is reserved and always invalid.
type Handle uint64

func makeHandle(idx, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(idx+1))
}

func (h Handle) index() (uint32, bool) {
	lo := uint32(h)
	if lo == 0 {
		return 0, false
	}
	return lo - 1, true
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// EventType identifies a lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	// EventStale reports a Remove of a handle that is not live.
	EventStale
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventStale:
		return "stale"
	}
	return "unknown"
}

// Event is a lifecycle notification.
type Event struct {
	Value  any
	Handle Handle
	Tag    uint32
	Type   EventType
}

// Observer receives lifecycle notifications. Observers run after the table
// lock is released and may call back into the table.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Dropper is optionally implemented by values that need cleanup on removal.
type Dropper interface {
	Drop()
}
