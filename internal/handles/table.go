package handles

import (
	"errors"
	"sync"
)

var ErrClosed = errors.New("handle table closed")

// Table stores values of type T behind generation-checked handles and
// reports lifecycle events to its observers.
type Table[T any] struct {
	entries   []entry[T]
	freeList  []uint32
	observers []Observer
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	tag       uint32
	live      int
	closed    bool
}

type entry[T any] struct {
	value T
	gen   uint32
	valid bool
}

// New creates a table. tag is copied into every event the table emits.
func New[T any](tag uint32) *Table[T] {
	return &Table[T]{
		entries:  make([]entry[T], 0, 64),
		freeList: make([]uint32, 0, 16),
		tag:      tag,
	}
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v T) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, ErrClosed
	}

	var idx uint32
	if n := len(t.freeList); n > 0 {
		idx = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
	} else {
		t.entries = append(t.entries, entry[T]{})
		idx = uint32(len(t.entries) - 1)
	}
	e := &t.entries[idx]
	e.gen++
	e.value = v
	e.valid = true
	t.live++
	h := makeHandle(idx, e.gen)
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: h, Tag: t.tag, Value: v})
	return h, nil
}

// Get returns the value behind h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.lookup(h)
	if e == nil {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Contains reports whether h is live.
func (t *Table[T]) Contains(h Handle) bool {
	_, ok := t.Get(h)
	return ok
}

// Remove frees h and returns its value. Removing a handle that is not live
// reports EventStale and returns false.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	e := t.lookup(h)
	if e == nil {
		t.mu.Unlock()
		t.notify(Event{Type: EventStale, Handle: h, Tag: t.tag})
		var zero T
		return zero, false
	}
	v := e.value
	var zero T
	e.value = zero
	e.valid = false
	t.live--
	idx, _ := h.index()
	t.freeList = append(t.freeList, idx)
	t.mu.Unlock()

	if d, ok := any(v).(Dropper); ok {
		d.Drop()
	}
	t.notify(Event{Type: EventDropped, Handle: h, Tag: t.tag, Value: v})
	return v, true
}

func (t *Table[T]) lookup(h Handle) *entry[T] {
	idx, ok := h.index()
	if !ok || int(idx) >= len(t.entries) {
		return nil
	}
	e := &t.entries[idx]
	if !e.valid || e.gen != h.generation() {
		return nil
	}
	return e
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// Each calls fn for every live handle until fn returns false.
// fn must not modify the table.
func (t *Table[T]) Each(fn func(Handle, T) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.entries {
		e := &t.entries[i]
		if e.valid && !fn(makeHandle(uint32(i), e.gen), e.value) {
			return
		}
	}
}

// Subscribe adds an observer.
func (t *Table[T]) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Clear removes every live handle, emitting events for each.
func (t *Table[T]) Clear() {
	var hs []Handle
	t.Each(func(h Handle, _ T) bool {
		hs = append(hs, h)
		return true
	})
	for _, h := range hs {
		t.Remove(h)
	}
}

// Close clears the table and rejects further inserts.
func (t *Table[T]) Close() error {
	t.Clear()
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	return nil
}

func (t *Table[T]) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnHandleEvent(e)
	}
}
