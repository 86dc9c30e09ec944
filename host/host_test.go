package host

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    any
		want string
	}{
		{nil, "null"},
		{Undefined{}, "undefined"},
		{true, "boolean"},
		{"s", "string"},
		{3.5, "number"},
		{int64(3), "number"},
		{big.NewInt(7), "bigint"},
		{[]byte{1}, "buffer"},
		{[]any{1}, "array"},
		{[]int32{1}, "array"},
		{struct{}{}, "struct {}"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.v); got != tt.want {
			t.Fatalf("TypeName(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestAsArray(t *testing.T) {
	if _, ok := AsArray([]byte{1, 2}); ok {
		t.Fatal("buffers are not array-like")
	}
	got, ok := AsArray([]float64{1, 2})
	if !ok || len(got) != 2 || got[1] != 2.0 {
		t.Fatalf("AsArray = %v, %v", got, ok)
	}
	if v, ok := First([]string{"a", "b"}); !ok || v != "a" {
		t.Fatalf("First = %v, %v", v, ok)
	}
	if _, ok := First([]any{}); ok {
		t.Fatal("empty array has no first element")
	}
	if n, ok := ArrayLen([3]int{}); !ok || n != 3 {
		t.Fatalf("ArrayLen = %d, %v", n, ok)
	}
	if !IsNullish(Undefined{}) || !IsNullish(nil) || IsNullish(0) {
		t.Fatal("IsNullish")
	}
}

func TestError(t *testing.T) {
	base := errors.New("handler failed")
	err := NewError(base)
	if !errors.Is(err, base) {
		t.Fatal("Unwrap")
	}
	var st StackTracer = err
	if !strings.Contains(st.HostStack(), "TestError") {
		t.Fatalf("stack does not include the caller:\n%s", st.HostStack())
	}
	if Errorf("code %d", 7).Error() != "code 7" {
		t.Fatal("Errorf")
	}
}

func TestLoop_RunOnce(t *testing.T) {
	l := NewLoop()
	var order []int
	for i := 0; i < 3; i++ {
		l.Post(func() {
			order = append(order, i)
			if i == 0 {
				l.Post(func() { order = append(order, 99) })
			}
		})
	}
	if n := l.RunOnce(); n != 3 {
		t.Fatalf("first turn ran %d", n)
	}
	if l.Pending() != 1 {
		t.Fatal("task posted during a turn must wait for the next one")
	}
	l.RunOnce()
	want := []int{0, 1, 2, 99}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v", order)
		}
	}
	if l.Ran() != 4 {
		t.Fatalf("Ran = %d", l.Ran())
	}
}

func TestLoop_Run(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	var wg sync.WaitGroup
	var mu sync.Mutex
	count := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reply := make(chan struct{})
			if !l.Post(func() {
				mu.Lock()
				count++
				mu.Unlock()
				close(reply)
			}) {
				t.Error("Post rejected")
				return
			}
			<-reply
		}()
	}
	wg.Wait()
	l.Close()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if count != 50 {
		t.Fatalf("count = %d", count)
	}
	if l.Post(func() {}) {
		t.Fatal("Post after Close must be rejected")
	}
}

func TestLoop_CloseRacesPost(t *testing.T) {
	for i := 0; i < 100; i++ {
		l := NewLoop()
		done := make(chan error, 1)
		go func() { done <- l.Run(context.Background()) }()

		var accepted, ran atomic.Int64
		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for l.Post(func() { ran.Add(1) }) {
					accepted.Add(1)
				}
			}()
		}
		time.Sleep(50 * time.Microsecond)
		l.Close()
		wg.Wait()
		if err := <-done; err != nil {
			t.Fatal(err)
		}
		if accepted.Load() != ran.Load() {
			t.Fatalf("round %d: accepted %d tasks, ran %d", i, accepted.Load(), ran.Load())
		}
	}
}

func TestLoop_SingleConsumer(t *testing.T) {
	l := NewLoop()
	entered := make(chan struct{})
	release := make(chan struct{})
	first := make(chan int, 1)
	l.Post(func() {
		close(entered)
		<-release
	})
	go func() { first <- l.RunOnce() }()
	<-entered

	var ran atomic.Bool
	l.Post(func() { ran.Store(true) })
	if n := l.RunOnce(); n != 0 || ran.Load() {
		t.Fatalf("second consumer ran %d tasks", n)
	}

	close(release)
	if n := <-first; n != 1 {
		t.Fatalf("first consumer ran %d tasks", n)
	}
	if n := l.RunOnce(); n != 1 || !ran.Load() {
		t.Fatalf("after release ran %d tasks", n)
	}
}

func TestLoop_ReentrantRunOnce(t *testing.T) {
	l := NewLoop()
	var inner bool
	l.Post(func() {
		l.Post(func() { inner = true })
		if n := l.RunOnce(); n != 1 {
			t.Errorf("nested RunOnce ran %d tasks", n)
		}
	})
	if n := l.RunOnce(); n != 1 || !inner {
		t.Fatalf("outer ran %d, inner ran %v", n, inner)
	}
}

func TestSchedulerContext(t *testing.T) {
	l := NewLoop()
	ctx := WithScheduler(context.Background(), l)
	if GetScheduler(ctx) != l {
		t.Fatal("scheduler not carried by context")
	}
	if GetScheduler(context.Background()) != nil {
		t.Fatal("empty context has no scheduler")
	}
}
