package handles

import (
	"sync"
	"testing"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnHandleEvent(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func TestTable_Basic(t *testing.T) {
	table := New[string](7)

	h, err := table.Insert("test")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}

	v, ok := table.Get(h)
	if !ok || v != "test" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	v, ok = table.Remove(h)
	if !ok || v != "test" {
		t.Fatalf("Remove = %q, %v", v, ok)
	}
	if table.Len() != 0 {
		t.Fatalf("Len = %d, want 0", table.Len())
	}
}

func TestTable_StaleAfterReuse(t *testing.T) {
	table := New[int](0)
	var c Counter
	table.Subscribe(&c)

	h1, _ := table.Insert(1)
	table.Remove(h1)
	h2, _ := table.Insert(2)

	if h1 == h2 {
		t.Fatal("reused slot must produce a new handle")
	}
	if _, ok := table.Get(h1); ok {
		t.Fatal("stale handle must not resolve")
	}
	if _, ok := table.Remove(h1); ok {
		t.Fatal("stale remove must fail")
	}
	if v, ok := table.Get(h2); !ok || v != 2 {
		t.Fatalf("Get(h2) = %d, %v", v, ok)
	}

	if c.Created() != 2 || c.Dropped() != 1 || c.Stale() != 1 {
		t.Fatalf("counter = %d/%d/%d", c.Created(), c.Dropped(), c.Stale())
	}
	if c.Outstanding() != 1 {
		t.Fatalf("Outstanding = %d", c.Outstanding())
	}
}

func TestTable_Observer(t *testing.T) {
	table := New[string](3)
	rec := &recorder{}
	table.Subscribe(rec)

	h, _ := table.Insert("x")
	table.Remove(h)
	table.Remove(0)

	want := []EventType{EventCreated, EventDropped, EventStale}
	if len(rec.events) != len(want) {
		t.Fatalf("got %d events, want %d", len(rec.events), len(want))
	}
	for i, w := range want {
		if rec.events[i].Type != w {
			t.Fatalf("event %d = %v, want %v", i, rec.events[i].Type, w)
		}
		if rec.events[i].Tag != 3 {
			t.Fatalf("event %d tag = %d", i, rec.events[i].Tag)
		}
	}
	if rec.events[0].Handle != h || rec.events[0].Value != "x" {
		t.Fatalf("created event = %+v", rec.events[0])
	}
}

type dropValue struct{ dropped *int }

func (d dropValue) Drop() { *d.dropped++ }

func TestTable_DropperAndClose(t *testing.T) {
	table := New[dropValue](0)
	n := 0
	for i := 0; i < 3; i++ {
		if _, err := table.Insert(dropValue{&n}); err != nil {
			t.Fatal(err)
		}
	}
	if err := table.Close(); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("dropped %d, want 3", n)
	}
	if _, err := table.Insert(dropValue{&n}); err != ErrClosed {
		t.Fatalf("Insert after Close: %v", err)
	}
}

func TestTable_Each(t *testing.T) {
	table := New[int](0)
	for i := 0; i < 5; i++ {
		table.Insert(i)
	}
	sum := 0
	table.Each(func(_ Handle, v int) bool {
		sum += v
		return true
	})
	if sum != 10 {
		t.Fatalf("sum = %d", sum)
	}

	seen := 0
	table.Each(func(Handle, int) bool {
		seen++
		return seen < 2
	})
	if seen != 2 {
		t.Fatalf("early stop visited %d", seen)
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := New[int](0)
	var c Counter
	table.Subscribe(&c)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				h, _ := table.Insert(i)
				table.Remove(h)
			}
		}()
	}
	wg.Wait()

	if table.Len() != 0 || c.Outstanding() != 0 || c.Stale() != 0 {
		t.Fatalf("len=%d outstanding=%d stale=%d", table.Len(), c.Outstanding(), c.Stale())
	}
}

func BenchmarkTable_InsertRemove(b *testing.B) {
	table := New[int](0)
	for i := 0; i < b.N; i++ {
		h, _ := table.Insert(i)
		table.Remove(h)
	}
}
