package jvm_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jvm"
)

func TestManagedException_Chain(t *testing.T) {
	for _, depth := range []int32{1, 2, 5} {
		t.Run(fmt.Sprintf("depth%d", depth), func(t *testing.T) {
			_, vm := newVM(t)
			env := attach(t, vm)

			cls, err := env.FindClass("demo/Failing")
			if err != nil {
				t.Fatal(err)
			}
			defer cls.Delete()
			_, err = env.CallStaticMethod(cls, "fail", "(I)V", jvm.IntValue(depth))

			var me *jvm.ManagedException
			if !stderrors.As(err, &me) {
				t.Fatalf("error %v is not a ManagedException", err)
			}
			defer me.Release()
			if len(me.Causes) != int(depth) {
				t.Fatalf("%d causes: %v", len(me.Causes), me.Causes)
			}
			if len(me.StackFrames) == 0 {
				t.Fatal("no stack frames")
			}
			if !strings.Contains(me.RootCause(), "root cause") {
				t.Fatalf("root cause = %q", me.RootCause())
			}
			if depth > 1 && !strings.HasSuffix(me.Message(), "level 1") {
				t.Fatalf("outermost = %q", me.Message())
			}
			if me.HostStack == "" {
				t.Fatal("host stack not captured")
			}
			if env.ExceptionPending() {
				t.Fatal("exception still pending after capture")
			}

			s, err := env.NewString("after")
			if err != nil {
				t.Fatalf("follow-up call: %v", err)
			}
			s.Delete()

			if me.Throwable.IsNull() {
				t.Fatal("throwable not retained")
			}
			if err := me.Rethrow(env); err != nil {
				t.Fatal(err)
			}
			if !env.ExceptionPending() {
				t.Fatal("Rethrow did not make the exception pending")
			}
			s, err = env.NewString("check")
			var again *jvm.ManagedException
			if !stderrors.As(err, &again) {
				s.Delete()
				t.Fatalf("rethrown exception not observed: %v", err)
			}
			defer again.Release()
			if again.Message() != me.Message() {
				t.Fatalf("rethrown %q, want %q", again.Message(), me.Message())
			}
		})
	}
}

func TestManagedException_Error(t *testing.T) {
	me := &jvm.ManagedException{
		Causes:      []string{"outer: a", "inner: b"},
		StackFrames: []string{"x.Y.z(Y.java)"},
	}
	want := "outer: a\nCaused by: inner: b"
	if got := me.Error(); got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if got := me.ManagedStack(); got != "outer: a\n    at x.Y.z(Y.java)" {
		t.Fatalf("ManagedStack() = %q", got)
	}
	if (&jvm.ManagedException{}).Error() == "" {
		t.Fatal("empty exception must still have a message")
	}
}

func TestCaptureFailureSurfacesAsNotFound(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	_, err := env.LoadClass("demo.DoesNotExist")
	if err == nil || !errors.HasKind(err, errors.KindClassResolution) {
		t.Fatalf("LoadClass = %v", err)
	}
	var me *jvm.ManagedException
	if !stderrors.As(err, &me) || !strings.Contains(me.Message(), "ClassNotFoundException") {
		t.Fatalf("cause = %v", err)
	}
	me.Release()
}

func TestThrowHostError(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	perr := &jvm.PanicError{Value: "boom", Stack: "goroutine 7 [running]:\nmain.handler(0x1)\n\t/src/main.go:12 +0x1d\n"}
	env.ThrowHostError(perr)
	if !env.ExceptionPending() {
		t.Fatal("no exception pending")
	}

	s, err := env.NewString("trigger")
	if err == nil {
		s.Delete()
		t.Fatal("expected pending exception to surface")
	}
	var me *jvm.ManagedException
	if !stderrors.As(err, &me) {
		t.Fatalf("error %v", err)
	}
	defer me.Release()
	if !strings.Contains(me.Message(), "HostException") || !strings.Contains(me.Message(), "panic: boom") {
		t.Fatalf("message = %q", me.Message())
	}
	found := false
	for _, f := range me.StackFrames {
		if f == "external.main.handler(/src/main.go:12)" {
			found = true
		}
	}
	if !found {
		t.Fatalf("host frame missing from %v", me.StackFrames)
	}
}

func TestParseHostStack(t *testing.T) {
	stack := `goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/acme/app.(*Handler).Serve(0xc000010000, {0x0, 0x0})
	/src/app/handler.go:42 +0x1d
panic({0x4a2f20?, 0x5b3c10?})
	/usr/local/go/src/runtime/panic.go:770 +0x132
main.main()
	/src/main.go:8 +0x25
created by main.start in goroutine 1
	/src/main.go:4 +0x10
`
	got := jvm.ParseHostStack(stack)
	want := []string{
		"github.com/acme/app.(*Handler).Serve (/src/app/handler.go:42)",
		"main.main (/src/main.go:8)",
	}
	if len(got) != len(want) {
		t.Fatalf("ParseHostStack = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
	if len(jvm.ParseHostStack("")) != 0 {
		t.Fatal("empty stack must yield no frames")
	}
}
