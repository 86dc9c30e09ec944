package simvm

import (
	"fmt"
	"runtime"
	"testing"
	"time"

	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

func newThread(t *testing.T) (*Runtime, *Thread) {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	rt := New()
	if err := rt.Define(Demo()...); err != nil {
		t.Fatalf("Define: %v", err)
	}
	_, env, st := rt.CreateVM(jvm.DefaultVersion, nil)
	if st != jvm.StatusOK {
		t.Fatalf("CreateVM: %v", st)
	}
	return rt, env.(*Thread)
}

func TestCreateVM(t *testing.T) {
	rt := New()
	if _, _, st := rt.CreateVM(0x00010001, nil); st != jvm.StatusVersion {
		t.Fatalf("old version: %v", st)
	}
	if _, _, st := rt.CreateVM(jvm.DefaultVersion, []string{"bad"}); st != jvm.StatusInvalid {
		t.Fatalf("bad args: %v", st)
	}
	if _, _, st := rt.CreateVM(jvm.DefaultVersion, []string{"-Xmx1g"}); st != jvm.StatusOK {
		t.Fatalf("create: %v", st)
	}
	if _, _, st := rt.CreateVM(jvm.DefaultVersion, nil); st != jvm.StatusExists {
		t.Fatalf("second create: %v", st)
	}
}

func TestConstructAndCall(t *testing.T) {
	_, th := newThread(t)

	cls := th.FindClass("demo/Box")
	if cls == 0 {
		t.Fatal("FindClass returned null")
	}
	ctor := th.GetMethodID(cls, "<init>", "(I)V")
	obj := th.NewObject(cls, ctor, []uint64{jvm.EncodeSlot(jtype.Int, int32(5))})
	if th.ExceptionCheck() {
		t.Fatal("unexpected exception")
	}

	get := th.GetMethodID(cls, "get", "()I")
	got := jvm.DecodeSlot(jtype.Int, th.CallMethod(jtype.Int, obj, get, nil)).(int32)
	if got != 5 {
		t.Fatalf("get() = %d, want 5", got)
	}

	fid := th.GetFieldID(cls, "value", "I")
	th.SetField(jtype.Int, obj, fid, jvm.EncodeSlot(jtype.Int, int32(9)))
	if v := jvm.DecodeSlot(jtype.Int, th.GetField(jtype.Int, obj, fid)).(int32); v != 9 {
		t.Fatalf("field = %d", v)
	}

	sid := th.GetStaticFieldID(cls, "created", "I")
	if n := jvm.DecodeSlot(jtype.Int, th.GetStaticField(jtype.Int, cls, sid)).(int32); n != 1 {
		t.Fatalf("created = %d", n)
	}
}

func TestMissingMemberRaises(t *testing.T) {
	_, th := newThread(t)

	if r := th.FindClass("demo/Missing"); r != 0 || !th.ExceptionCheck() {
		t.Fatal("expected NoClassDefFoundError")
	}
	th.ExceptionClear()

	cls := th.FindClass("demo/Box")
	if id := th.GetMethodID(cls, "nope", "()V"); id != 0 || !th.ExceptionCheck() {
		t.Fatal("expected NoSuchMethodError")
	}
	th.ExceptionClear()
}

func TestExceptionChain(t *testing.T) {
	_, th := newThread(t)

	cls := th.FindClass("demo/Failing")
	fail := th.GetStaticMethodID(cls, "fail", "(I)V")
	th.CallStaticMethod(jtype.Void, cls, fail, []uint64{jvm.EncodeSlot(jtype.Int, int32(3))})
	if !th.ExceptionCheck() {
		t.Fatal("expected pending exception")
	}
	ex := th.deref(th.ExceptionOccurred())
	th.ExceptionClear()

	depth := 0
	for cur := ex; cur != nil; cur = cur.Value().(*throwable).cause {
		depth++
		if len(cur.Value().(*throwable).frames) == 0 {
			t.Fatalf("level %d has no frames", depth)
		}
	}
	if depth != 3 {
		t.Fatalf("depth = %d, want 3", depth)
	}
	if got := (&Thrown{Obj: ex}).Error(); got != "java.lang.IllegalStateException: level 1" {
		t.Fatalf("outer = %q", got)
	}
}

func TestThrowRaisesPending(t *testing.T) {
	_, th := newThread(t)

	err := th.Exception("java.lang.IllegalStateException", "bad state")
	thrown, ok := err.(*Thrown)
	if !ok || thrown.Error() != "java.lang.IllegalStateException: bad state" {
		t.Fatalf("Exception = %v", err)
	}
	if st := th.Throw(th.newLocal(thrown.Obj)); st != jvm.StatusOK || !th.ExceptionCheck() {
		t.Fatalf("Throw = %v, pending %v", st, th.ExceptionCheck())
	}
	if th.deref(th.ExceptionOccurred()) != thrown.Obj {
		t.Fatal("pending exception is not the thrown object")
	}
	th.ExceptionClear()

	if st := th.Throw(th.newLocal(th.rt.String("not throwable"))); st != jvm.StatusErr || th.ExceptionCheck() {
		t.Fatalf("Throw of a string = %v", st)
	}
}

func TestArrayRegion(t *testing.T) {
	_, th := newThread(t)

	arr := th.NewPrimitiveArray(jtype.Int, 3)
	th.SetArrayRegion(arr, 0, []int32{1, 2, 3})
	out := make([]int32, 3)
	th.GetArrayRegion(arr, 0, out)
	if out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatalf("region = %v", out)
	}

	th.GetArrayRegion(arr, 2, make([]int32, 2))
	if !th.ExceptionCheck() {
		t.Fatal("expected out of bounds")
	}
	th.ExceptionClear()

	th.GetArrayRegion(arr, 0, make([]int64, 1))
	if !th.ExceptionCheck() {
		t.Fatal("expected store exception on type mismatch")
	}
	th.ExceptionClear()
}

func TestReferenceAccounting(t *testing.T) {
	rt, th := newThread(t)
	before := rt.Stats()

	s := th.NewString([]uint16{'h', 'i'})
	g := th.NewGlobalRef(s)
	th.DeleteLocalRef(s)
	th.DeleteLocalRef(s)
	th.DeleteGlobalRef(g)

	after := rt.Stats()
	if after.LocalDoubleFrees-before.LocalDoubleFrees != 1 {
		t.Fatalf("local double frees = %d", after.LocalDoubleFrees-before.LocalDoubleFrees)
	}
	if after.GlobalsCreated-before.GlobalsCreated != 1 || after.GlobalsFreed-before.GlobalsFreed != 1 {
		t.Fatalf("globals %+v", after)
	}
	if after.LiveLocals != before.LiveLocals {
		t.Fatalf("live locals %d -> %d", before.LiveLocals, after.LiveLocals)
	}
}

func TestForeignLocalPanics(t *testing.T) {
	rt, th := newThread(t)
	other, _ := rt.vm.AttachCurrentThread(false)

	s := th.NewString([]uint16{'x'})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	other.(*Thread).GetString(s)
}

func TestProxyForwarding(t *testing.T) {
	rt, th := newThread(t)

	var seen []string
	err := rt.Define(&Class{
		Name:       "test.Handler",
		Interfaces: []string{"java.lang.reflect.InvocationHandler"},
		Methods: []*Method{
			Ctor("()V", noop),
			Instance("invoke", invokeDesc, func(t *Thread, _ *Object, args []any) (any, error) {
				m := asObject(args[1]).Value().(*Method)
				seen = append(seen, m.Name)
				return t.rt.String("upper:" + asObject(args[2]).Elements()[0].GoString()), nil
			}),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	h, err := th.New("test.Handler", "()V")
	if err != nil {
		t.Fatal(err)
	}
	iface := rt.mustClass("demo.Transformer")
	pc, err := rt.proxyClass([]*Class{iface})
	if err != nil {
		t.Fatal(err)
	}
	proxy := rt.alloc(pc, h)

	worker := rt.mustClass("demo.Worker")
	apply := worker.findMethod("apply", "(Ldemo/Transformer;Ljava/lang/String;)Ljava/lang/String;", true)
	res, err := th.Invoke(apply, nil, proxy, rt.String("x"))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := asObject(res).GoString(); got != "upper:x" {
		t.Fatalf("apply = %q", got)
	}
	if len(seen) != 1 || seen[0] != "transform" {
		t.Fatalf("seen = %v", seen)
	}

	if again, _ := rt.proxyClass([]*Class{iface}); again != pc {
		t.Fatal("proxy class not cached")
	}
}

func TestURLClassLoader(t *testing.T) {
	rt, th := newThread(t)

	if err := rt.DefineOn("file:/plugins/a.jar", &Class{Name: "plugin.A", Methods: []*Method{Ctor("()V", noop)}}); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.lookupClass("plugin.A", nil); err == nil {
		t.Fatal("path class must not be visible to the system loader")
	}

	url, err := th.New("java.net.URL", "(Ljava/lang/String;)V", rt.String("file:/plugins/a.jar"))
	if err != nil {
		t.Fatal(err)
	}
	loader, err := th.New("java.net.URLClassLoader", "([Ljava/net/URL;Ljava/lang/ClassLoader;)V",
		rt.ObjectArray("java.net.URL", []*Object{url}), rt.systemLoader)
	if err != nil {
		t.Fatal(err)
	}

	cls, err := th.InvokeByName(loader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;", rt.String("plugin.A"))
	if err != nil {
		t.Fatalf("loadClass: %v", err)
	}
	if c := asObject(cls).Value().(*Class); c.Name != "plugin.A" {
		t.Fatalf("loaded %s", c.Name)
	}

	if _, err := th.InvokeByName(loader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;", rt.String("plugin.B")); err == nil {
		t.Fatal("expected ClassNotFoundException")
	}
}

func TestContextClassLoader(t *testing.T) {
	rt, th := newThread(t)

	done := make(chan error, 1)
	go func() {
		cur := th.threadObject()
		got, err := th.InvokeByName(cur, "getContextClassLoader", "()Ljava/lang/ClassLoader;")
		if err != nil {
			done <- err
			return
		}
		if asObject(got) != rt.systemLoader {
			done <- fmt.Errorf("context loader = %v, want system loader", got)
			return
		}
		if _, err := th.InvokeByName(cur, "setContextClassLoader", "(Ljava/lang/ClassLoader;)V", (*Object)(nil)); err != nil {
			done <- err
			return
		}
		if l := th.ContextClassLoader(); l != nil {
			done <- fmt.Errorf("context loader after reset = %v", l)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("context class loader access blocked")
	}
}

func TestReflection(t *testing.T) {
	rt, th := newThread(t)

	box := rt.mustClass("demo.Box").object()
	res, err := th.InvokeByName(box, "getMethods", "()[Ljava/lang/reflect/Method;")
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, m := range asObject(res).Elements() {
		names[m.Value().(*Method).Name] = true
	}
	for _, want := range []string{"get", "set", "of", "toString", "hashCode", "getClass"} {
		if !names[want] {
			t.Fatalf("getMethods missing %s", want)
		}
	}

	ctors, err := th.InvokeByName(box, "getConstructors", "()[Ljava/lang/reflect/Constructor;")
	if err != nil {
		t.Fatal(err)
	}
	if n := len(asObject(ctors).Elements()); n != 2 {
		t.Fatalf("constructors = %d", n)
	}

	arrCls, err := rt.lookupClass("[I", nil)
	if err != nil {
		t.Fatal(err)
	}
	if arrCls.Name != "[I" || !arrCls.array {
		t.Fatalf("array class %+v", arrCls.Name)
	}
}

func TestFormatPrimitive(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{int32(5), "5"},
		{3.0, "3.0"},
		{float32(1.5), "1.5"},
		{true, "true"},
		{uint16('x'), "x"},
	}
	for _, tt := range tests {
		if got := formatPrimitive(tt.in); got != tt.want {
			t.Fatalf("formatPrimitive(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
