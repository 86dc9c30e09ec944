package simvm

import (
	"fmt"
	"runtime"

	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// Thrown carries a managed throwable through Go error returns.
type Thrown struct {
	Obj *Object
}

func (e *Thrown) Error() string {
	th, _ := e.Obj.Value().(*throwable)
	if th == nil || !th.hasMessage {
		return e.Obj.class.Name
	}
	return e.Obj.class.Name + ": " + th.message
}

// Exception creates an exception of the named class and returns it as an error.
func (t *Thread) Exception(className, msg string) error {
	return &Thrown{Obj: t.newThrowable(t.rt.mustClass(className), msg, true, nil)}
}

// ExceptionCause is Exception with a cause.
func (t *Thread) ExceptionCause(className, msg string, cause *Object) error {
	return &Thrown{Obj: t.newThrowable(t.rt.mustClass(className), msg, true, cause)}
}

// newThrowable allocates a throwable whose stack trace is the current call
// stack, innermost frame first.
func (t *Thread) newThrowable(c *Class, msg string, hasMessage bool, cause *Object) *Object {
	o := t.rt.newInstance(c)
	o.value = &throwable{message: msg, hasMessage: hasMessage, cause: cause, frames: t.stackTrace()}
	return o
}

func (t *Thread) stackTrace() []string {
	frames := make([]string, len(t.stack))
	for i, f := range t.stack {
		frames[len(t.stack)-1-i] = f
	}
	return frames
}

// Invoke calls m on this with Go-level arguments. Instance methods dispatch
// on the runtime class of this.
func (t *Thread) Invoke(m *Method, this *Object, args ...any) (any, error) {
	if !m.Static {
		if this == nil {
			return nil, t.Exception("java.lang.NullPointerException", "cannot invoke "+m.class.Name+"."+m.Name+" on null")
		}
		m = this.class.dispatch(m)
	}
	t.stack = append(t.stack, m.frame())
	defer func() { t.stack = t.stack[:len(t.stack)-1] }()

	switch {
	case m.Native:
		return t.callNative(m, this, args)
	case m.Impl != nil:
		return m.Impl(t, this, args)
	default:
		return nil, t.Exception("java.lang.AbstractMethodError", m.class.Name+"."+m.Name+m.Desc)
	}
}

// InvokeByName looks the method up by name and descriptor and invokes it.
func (t *Thread) InvokeByName(this *Object, name, desc string, args ...any) (any, error) {
	m := this.class.findMethod(name, desc, false)
	if m == nil {
		return nil, t.Exception("java.lang.NoSuchMethodError", name)
	}
	return t.Invoke(m, this, args...)
}

// Construct allocates an instance of c and runs ctor on it.
func (t *Thread) Construct(c *Class, ctor *Method, args ...any) (*Object, error) {
	if c.Interface || c.Abstract {
		return nil, t.Exception("java.lang.InstantiationException", c.Name)
	}
	var o *Object
	if c.assignableTo(t.rt.mustClass("java.lang.Throwable")) {
		o = t.newThrowable(c, "", false, nil)
	} else {
		o = t.rt.newInstance(c)
	}
	t.stack = append(t.stack, ctor.frame())
	defer func() { t.stack = t.stack[:len(t.stack)-1] }()
	if ctor.Impl != nil {
		if _, err := ctor.Impl(t, o, args); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// New constructs an instance of the named class using the constructor with
// descriptor desc.
func (t *Thread) New(className, desc string, args ...any) (*Object, error) {
	c, err := t.rt.lookupClass(className, nil)
	if err != nil {
		return nil, t.Exception("java.lang.NoClassDefFoundError", className)
	}
	ctor := c.findMethod("<init>", desc, false)
	if ctor == nil {
		return nil, t.Exception("java.lang.NoSuchMethodError", "<init>"+desc)
	}
	return t.Construct(c, ctor, args...)
}

// callNative runs a registered native implementation in a fresh local frame.
// Locals the implementation leaves behind are freed when the frame pops.
func (t *Thread) callNative(m *Method, this *Object, args []any) (any, error) {
	fn := m.class.native(m.Name + m.Desc)
	if fn == nil {
		return nil, t.Exception("java.lang.UnsatisfiedLinkError", m.class.Name+"."+m.Name+m.Desc)
	}

	t.pushFrame()
	self := this
	if m.Static {
		self = m.class.object()
	}
	thisRef := t.newLocal(self)
	slots := make([]uint64, len(args))
	for i, p := range m.sig.Params {
		slots[i] = t.encode(p.Kind(), args[i])
	}

	ret := fn(t, thisRef, slots)

	var res any
	if t.pending == nil {
		if k := m.sig.Return.Kind(); k != jtype.Void {
			res = t.decode(k, ret)
		}
	}
	t.popFrame()

	if p := t.pending; p != nil {
		t.pending = nil
		return nil, &Thrown{Obj: p}
	}
	return res, nil
}

// Spawn runs fn on a new managed thread. The thread is pinned to its own OS
// thread for its lifetime, like any thread the managed runtime creates.
func (t *Thread) Spawn(fn func(*Thread)) {
	rt := t.rt
	rt.workers.Add(1)
	go func() {
		defer rt.workers.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		th := rt.vm.newThread(false)
		defer func() {
			th.detach()
			rt.vm.threads.Add(-1)
		}()
		fn(th)
	}()
}

// unbox converts a boxed value to the primitive of kind k.
func (t *Thread) unbox(k jtype.Kind, v any) (any, error) {
	o := asObject(v)
	if o == nil {
		return nil, t.Exception("java.lang.NullPointerException", "cannot unbox null to "+k.String())
	}
	val := o.Value()
	if k == jtype.Boolean || k == jtype.Char {
		if o.class.Name != k.Boxed().String() {
			return nil, t.Exception("java.lang.ClassCastException", fmt.Sprintf("%s cannot be cast to %s", o.class.Name, k.Boxed()))
		}
		return val, nil
	}
	n, ok := convertNumber(val, k)
	if !ok {
		return nil, t.Exception("java.lang.ClassCastException", fmt.Sprintf("%s cannot be cast to %s", o.class.Name, k.Boxed()))
	}
	return n, nil
}

func (rt *Runtime) boxValue(k jtype.Kind, v any) *Object {
	if k.IsReference() {
		return asObject(v)
	}
	return rt.Box(k, v)
}

// convertNumber converts any numeric primitive to kind k with the managed
// runtime's narrowing rules.
func convertNumber(v any, k jtype.Kind) (any, bool) {
	var i int64
	var f float64
	isFloat := false
	switch n := v.(type) {
	case int8:
		i = int64(n)
	case int16:
		i = int64(n)
	case int32:
		i = int64(n)
	case int64:
		i = n
	case uint16:
		i = int64(n)
	case float32:
		f, isFloat = float64(n), true
	case float64:
		f, isFloat = n, true
	default:
		return nil, false
	}
	if isFloat {
		switch k {
		case jtype.Float:
			return float32(f), true
		case jtype.Double:
			return f, true
		}
		i = int64(f)
	}
	switch k {
	case jtype.Byte:
		return int8(i), true
	case jtype.Short:
		return int16(i), true
	case jtype.Char:
		return uint16(i), true
	case jtype.Int:
		return int32(i), true
	case jtype.Long:
		return i, true
	case jtype.Float:
		return float32(i), true
	case jtype.Double:
		return float64(i), true
	}
	return nil, false
}

var _ jvm.Library = (*Runtime)(nil)
