package jvm_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/simvm"
)

func newVM(t *testing.T) (*simvm.Runtime, *jvm.VM) {
	t.Helper()
	rt := simvm.New()
	if err := rt.Define(simvm.Demo()...); err != nil {
		t.Fatalf("Define: %v", err)
	}
	vm, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { _ = vm.Destroy() })
	return rt, vm
}

func attach(t *testing.T, vm *jvm.VM) *jvm.Env {
	t.Helper()
	env, err := vm.Attach(false)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(env.Close)
	return env
}

func TestLoader_Once(t *testing.T) {
	rt := simvm.New()
	l := jvm.NewLoader(rt.Opener())
	if _, err := l.Load("libjvm.so"); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	_, err := l.Load("libjvm.so")
	if !stderrors.Is(err, jvm.ErrAlreadyLoaded) {
		t.Fatalf("second Load = %v, want ErrAlreadyLoaded", err)
	}
	if !errors.HasKind(err, errors.KindLibraryLoad) {
		t.Fatalf("kind of %v", err)
	}
}

func TestLoader_OpenFailureAllowsRetry(t *testing.T) {
	calls := 0
	l := jvm.NewLoader(func(path string) (jvm.Library, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("cannot open %s", path)
		}
		return simvm.New(), nil
	})
	if _, err := l.Load("missing.so"); err == nil || !errors.HasKind(err, errors.KindLibraryLoad) {
		t.Fatalf("Load = %v", err)
	}
	if _, err := l.Load("present.so"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestCreate_VersionError(t *testing.T) {
	rt := simvm.New()
	_, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{Version: 0x00010001})
	if err == nil || !errors.HasKind(err, errors.KindVMCreate) {
		t.Fatalf("Create = %v", err)
	}
	if !strings.Contains(err.Error(), jvm.StatusVersion.String()) {
		t.Fatalf("message %q lacks status text", err)
	}
}

func TestAttach_RefCounted(t *testing.T) {
	_, vm := newVM(t)

	e1, err := vm.Attach(false)
	if err != nil {
		t.Fatal(err)
	}
	e2, err := vm.Attach(false)
	if err != nil {
		t.Fatal(err)
	}
	if vm.Attached() != 1 {
		t.Fatalf("Attached = %d, want 1", vm.Attached())
	}
	e2.Close()
	if vm.Attached() != 1 {
		t.Fatal("inner Close must not detach")
	}
	e1.Close()
	if vm.Attached() != 0 {
		t.Fatalf("Attached after Close = %d", vm.Attached())
	}
}

func TestAttach_ContextLoaderInstalled(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	cls, err := env.FindClass("java/lang/Thread")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Delete()
	thread, err := env.CallStaticObjectMethod(cls, "currentThread", "()Ljava/lang/Thread;")
	if err != nil {
		t.Fatal(err)
	}
	defer thread.Delete()
	loader, err := env.CallObjectMethod(thread, "getContextClassLoader", "()Ljava/lang/ClassLoader;")
	if err != nil {
		t.Fatal(err)
	}
	defer loader.Delete()
	if loader.IsNull() {
		t.Fatal("context loader not installed")
	}
}

func TestLocalRef_DeleteOnce(t *testing.T) {
	rt, vm := newVM(t)
	env := attach(t, vm)
	before := rt.Stats()

	s, err := env.NewString("hello")
	if err != nil {
		t.Fatal(err)
	}
	s.Delete()
	s.Delete()

	after := rt.Stats()
	if after.LocalDoubleFrees != before.LocalDoubleFrees {
		t.Fatal("Delete freed twice")
	}
	if after.LiveLocals != before.LiveLocals {
		t.Fatalf("live locals %d -> %d", before.LiveLocals, after.LiveLocals)
	}
}

func TestLocalRef_Promote(t *testing.T) {
	rt, vm := newVM(t)
	env := attach(t, vm)
	before := rt.Stats()

	s, err := env.NewString("promoted")
	if err != nil {
		t.Fatal(err)
	}
	g, err := s.Promote()
	if err != nil {
		t.Fatal(err)
	}
	s.Delete()

	mid := rt.Stats()
	if mid.LiveLocals != before.LiveLocals {
		t.Fatal("Promote must free the local slot")
	}
	if mid.LiveGlobals != before.LiveGlobals+1 {
		t.Fatal("Promote must create one global")
	}

	str, err := env.GoString(g)
	if err != nil || str != "promoted" {
		t.Fatalf("GoString = %q, %v", str, err)
	}

	g.Release()
	g.Release()
	after := rt.Stats()
	if after.LiveGlobals != before.LiveGlobals || after.GlobalDoubleFrees != 0 {
		t.Fatalf("globals after release: %+v", after)
	}
}

func TestGlobalRef_LastOwnerFrees(t *testing.T) {
	rt, vm := newVM(t)
	env := attach(t, vm)
	before := rt.Stats()

	s, _ := env.NewString("shared")
	g, _ := s.Promote()
	c := g.Clone()
	if !g.SameSlot(c) {
		t.Fatal("clone must share the slot")
	}

	g.Release()
	if rt.Stats().GlobalsFreed != before.GlobalsFreed {
		t.Fatal("slot freed while an owner remains")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Release()
	}()
	<-done

	after := rt.Stats()
	if after.GlobalsFreed != before.GlobalsFreed+1 || after.GlobalDoubleFrees != 0 {
		t.Fatalf("stats %+v", after)
	}
	if vm.Attached() != 1 {
		t.Fatalf("release thread stayed attached: %d", vm.Attached())
	}
}

func TestGlobalRef_ReleaseAfterDestroy(t *testing.T) {
	rt := simvm.New()
	vm, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	env, err := vm.Attach(false)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := env.NewString("late")
	g, _ := s.Promote()
	env.Close()

	if err := vm.Destroy(); err != nil {
		t.Fatal(err)
	}
	g.Release()
	if _, err := vm.Attach(false); err == nil || !errors.HasKind(err, errors.KindAttach) {
		t.Fatalf("Attach after Destroy = %v", err)
	}
}

func TestLocalRef_ForeignEnvPanics(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)
	s, err := env.NewString("mine")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Delete()

	panicked := make(chan any, 1)
	go func() {
		defer func() { panicked <- recover() }()
		other, err := vm.Attach(false)
		if err != nil {
			panicked <- err
			return
		}
		defer other.Close()
		_, _ = other.GoString(s)
	}()
	if r := <-panicked; r == nil {
		t.Fatal("using a local reference from another thread must panic")
	}
}

func TestCall_BoxRoundTrip(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	cls, err := env.LoadClass("demo.Box")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Release()

	obj, err := env.NewObjectBySig(cls, "(I)V", jvm.IntValue(5))
	if err != nil {
		t.Fatal(err)
	}
	defer obj.Delete()

	res, err := env.CallMethod(obj, "get", "()I")
	if err != nil {
		t.Fatal(err)
	}
	if res.Kind != jvm.ResultInt || res.Int() != 5 {
		t.Fatalf("get() = %v", res)
	}

	str, err := env.ToString(obj)
	if err != nil || str != "Box(5)" {
		t.Fatalf("ToString = %q, %v", str, err)
	}

	name, err := env.ObjectClassName(obj)
	if err != nil || name != "demo.Box" {
		t.Fatalf("ObjectClassName = %q, %v", name, err)
	}
}

func TestFields(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	cls, err := env.FindClass("demo/Box")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Delete()
	obj, err := env.NewObjectBySig(cls, "()V")
	if err != nil {
		t.Fatal(err)
	}
	defer obj.Delete()

	intType := jtype.Of(jtype.Int)
	fid, err := env.FieldID(cls, "value", "I", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := env.SetField(obj, fid, intType, jvm.IntValue(42)); err != nil {
		t.Fatal(err)
	}
	res, err := env.GetField(obj, fid, intType)
	if err != nil || res.Int() != 42 {
		t.Fatalf("GetField = %v, %v", res, err)
	}

	sid, err := env.FieldID(cls, "created", "I", true)
	if err != nil {
		t.Fatal(err)
	}
	res, err = env.GetStaticField(cls, sid, intType)
	if err != nil || res.Int() < 1 {
		t.Fatalf("GetStaticField = %v, %v", res, err)
	}

	if _, err := env.FieldID(cls, "missing", "I", false); err == nil || !errors.HasKind(err, errors.KindNotFound) {
		t.Fatalf("missing field = %v", err)
	}
	if env.ExceptionPending() {
		t.Fatal("lookup failure left an exception pending")
	}
}

func TestArrays(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	arr, err := env.NewPrimitiveArray(jtype.Double, 3)
	if err != nil {
		t.Fatal(err)
	}
	defer arr.Delete()
	if err := env.SetArrayRegion(arr, []float64{1.5, 2.5, 3}); err != nil {
		t.Fatal(err)
	}
	n, err := env.ArrayLength(arr)
	if err != nil || n != 3 {
		t.Fatalf("ArrayLength = %d, %v", n, err)
	}
	buf := jvm.NewBuffer(jtype.Double, n).([]float64)
	if err := env.GetArrayRegion(arr, buf); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 1.5 || buf[2] != 3 {
		t.Fatalf("region = %v", buf)
	}

	strCls, _ := env.FindClass("java/lang/String")
	defer strCls.Delete()
	objs, err := env.NewObjectArray(2, strCls)
	if err != nil {
		t.Fatal(err)
	}
	defer objs.Delete()
	s, _ := env.NewString("x")
	defer s.Delete()
	if err := env.SetArrayElement(objs, 1, s); err != nil {
		t.Fatal(err)
	}
	el0, err := env.ArrayElement(objs, 0)
	if err != nil || !el0.IsNull() {
		t.Fatalf("element 0 = %v, %v", el0, err)
	}
	el1, err := env.ArrayElement(objs, 1)
	if err != nil {
		t.Fatal(err)
	}
	defer el1.Delete()
	if got, _ := env.GoString(el1); got != "x" {
		t.Fatalf("element 1 = %q", got)
	}

	if _, err := env.ArrayElement(objs, 5); err == nil {
		t.Fatal("expected out of bounds error")
	}
}

func TestReplaceClassLoader(t *testing.T) {
	_, vm := newVM(t)
	env := attach(t, vm)

	old := vm.ClassLoader()
	defer old.Release()

	cls, _ := env.FindClass("java/lang/ClassLoader")
	defer cls.Delete()
	sys, err := env.CallStaticObjectMethod(cls, "getSystemClassLoader", "()Ljava/lang/ClassLoader;")
	if err != nil {
		t.Fatal(err)
	}
	g, err := sys.Promote()
	if err != nil {
		t.Fatal(err)
	}
	vm.ReplaceClassLoader(g)
	g.Release()

	cur := vm.ClassLoader()
	defer cur.Release()
	if cur.IsNull() || cur.SameSlot(old) {
		t.Fatal("loader not replaced")
	}
	if _, err := env.LoadClass("demo.Box"); err != nil {
		t.Fatalf("LoadClass through replaced loader: %v", err)
	}
}
