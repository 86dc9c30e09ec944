package simvm

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/wippyai/jbridge/internal/handles"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// Thread is one attached thread. It implements jvm.NativeEnv.
// A Thread is confined to the goroutine that owns it.
type Thread struct {
	vm       *VM
	rt       *Runtime
	frames   [][]handles.Handle
	stack    []string
	pending  *Object
	obj      *Object
	id       int64
	daemon   bool
	detached bool
}

var _ jvm.NativeEnv = (*Thread)(nil)

// Runtime returns the owning runtime.
func (t *Thread) Runtime() *Runtime { return t.rt }

func (t *Thread) newLocal(o *Object) jvm.Ref {
	if o == nil {
		return 0
	}
	h, err := t.rt.locals.Insert(&local{obj: o, owner: t})
	if err != nil {
		panic(err)
	}
	top := len(t.frames) - 1
	t.frames[top] = append(t.frames[top], h)
	if top == 0 && len(t.frames[0]) > 1024 {
		t.compactBase()
	}
	return jvm.Ref(uint64(h))
}

func (t *Thread) compactBase() {
	live := t.frames[0][:0]
	for _, h := range t.frames[0] {
		if t.rt.locals.Contains(h) {
			live = append(live, h)
		}
	}
	t.frames[0] = live
}

func (t *Thread) pushFrame() {
	t.frames = append(t.frames, nil)
}

func (t *Thread) popFrame() {
	top := len(t.frames) - 1
	t.freeFrame(t.frames[top])
	t.frames = t.frames[:top]
}

func (t *Thread) freeFrame(frame []handles.Handle) {
	for _, h := range frame {
		if t.rt.locals.Contains(h) {
			t.rt.locals.Remove(h)
			t.rt.frameFreed.Add(1)
		}
	}
}

func (t *Thread) detach() {
	for len(t.frames) > 1 {
		t.popFrame()
	}
	t.freeFrame(t.frames[0])
	t.frames[0] = nil
	t.detached = true
}

func (t *Thread) deref(r jvm.Ref) *Object {
	if r == 0 {
		return nil
	}
	raw := uint64(r)
	if raw&globalTag != 0 {
		o, ok := t.rt.globals.Get(handles.Handle(raw &^ globalTag))
		if !ok {
			panic(fmt.Sprintf("simvm: use of deleted global reference %#x", raw))
		}
		return o
	}
	l, ok := t.rt.locals.Get(handles.Handle(raw))
	if !ok {
		panic(fmt.Sprintf("simvm: use of deleted local reference %#x", raw))
	}
	if l.owner != t {
		panic(fmt.Sprintf("simvm: local reference of thread %d used on thread %d", l.owner.id, t.id))
	}
	return l.obj
}

func (t *Thread) classOf(r jvm.Ref) *Class {
	o := t.deref(r)
	if o == nil {
		panic("simvm: null class reference")
	}
	c, ok := o.value.(*Class)
	if !ok {
		panic("simvm: reference is not a class")
	}
	return c
}

// raise makes err the pending exception.
func (t *Thread) raise(err error) {
	if th, ok := err.(*Thrown); ok {
		t.pending = th.Obj
		return
	}
	t.pending = t.newThrowable(t.rt.mustClass("java.lang.RuntimeException"), err.Error(), true, nil)
}

func (t *Thread) encode(k jtype.Kind, v any) uint64 {
	switch {
	case k == jtype.Void:
		return 0
	case k.IsPrimitive():
		return jvm.EncodeSlot(k, v)
	default:
		return jvm.RefSlot(t.newLocal(asObject(v)))
	}
}

func (t *Thread) decode(k jtype.Kind, slot uint64) any {
	if k.IsReference() {
		return t.deref(jvm.SlotRef(slot))
	}
	return jvm.DecodeSlot(k, slot)
}

func (t *Thread) decodeArgs(m *Method, args []uint64) []any {
	if len(args) != len(m.sig.Params) {
		panic(fmt.Sprintf("simvm: %s.%s%s called with %d arguments", m.class.Name, m.Name, m.Desc, len(args)))
	}
	out := make([]any, len(args))
	for i, p := range m.sig.Params {
		out[i] = t.decode(p.Kind(), args[i])
	}
	return out
}

func (t *Thread) FindClass(internalName string) jvm.Ref {
	name := strings.ReplaceAll(internalName, "/", ".")
	c, err := t.rt.lookupClass(name, nil)
	if err != nil {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.NoClassDefFoundError"), internalName, true, nil)
		return 0
	}
	return t.newLocal(c.object())
}

func (t *Thread) GetObjectClass(obj jvm.Ref) jvm.Ref {
	o := t.deref(obj)
	if o == nil {
		return 0
	}
	return t.newLocal(o.class.object())
}

func (t *Thread) IsAssignableFrom(from, to jvm.Ref) bool {
	return t.classOf(from).assignableTo(t.classOf(to))
}

func (t *Thread) IsInstanceOf(obj, class jvm.Ref) bool {
	o := t.deref(obj)
	return o == nil || o.class.assignableTo(t.classOf(class))
}

func (t *Thread) GetMethodID(class jvm.Ref, name, sig string) jvm.MethodID {
	return t.methodID(class, name, sig, false)
}

func (t *Thread) GetStaticMethodID(class jvm.Ref, name, sig string) jvm.MethodID {
	return t.methodID(class, name, sig, true)
}

func (t *Thread) methodID(class jvm.Ref, name, sig string, static bool) jvm.MethodID {
	c := t.classOf(class)
	m := c.findMethod(name, sig, static)
	if m == nil {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.NoSuchMethodError"), name, true, nil)
		return 0
	}
	return m.id
}

func (t *Thread) GetFieldID(class jvm.Ref, name, sig string) jvm.FieldID {
	return t.fieldID(class, name, sig, false)
}

func (t *Thread) GetStaticFieldID(class jvm.Ref, name, sig string) jvm.FieldID {
	return t.fieldID(class, name, sig, true)
}

func (t *Thread) fieldID(class jvm.Ref, name, sig string, static bool) jvm.FieldID {
	f := t.classOf(class).findField(name, sig, static)
	if f == nil {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.NoSuchFieldError"), name, true, nil)
		return 0
	}
	return f.id
}

func (t *Thread) CallMethod(ret jtype.Kind, obj jvm.Ref, id jvm.MethodID, args []uint64) uint64 {
	m := t.rt.method(id)
	this := t.deref(obj)
	res, err := t.Invoke(m, this, t.decodeArgs(m, args)...)
	if err != nil {
		t.raise(err)
		return 0
	}
	return t.encode(m.sig.Return.Kind(), res)
}

func (t *Thread) CallStaticMethod(ret jtype.Kind, class jvm.Ref, id jvm.MethodID, args []uint64) uint64 {
	m := t.rt.method(id)
	if !m.Static {
		panic("simvm: CallStaticMethod on instance method " + m.Name)
	}
	res, err := t.Invoke(m, nil, t.decodeArgs(m, args)...)
	if err != nil {
		t.raise(err)
		return 0
	}
	return t.encode(m.sig.Return.Kind(), res)
}

func (t *Thread) NewObject(class jvm.Ref, ctor jvm.MethodID, args []uint64) jvm.Ref {
	c := t.classOf(class)
	m := t.rt.method(ctor)
	o, err := t.Construct(c, m, t.decodeArgs(m, args)...)
	if err != nil {
		t.raise(err)
		return 0
	}
	return t.newLocal(o)
}

func (t *Thread) GetField(kind jtype.Kind, obj jvm.Ref, id jvm.FieldID) uint64 {
	f := t.rt.field(id)
	return t.encode(f.typ.Kind(), t.deref(obj).getField(f))
}

func (t *Thread) SetField(kind jtype.Kind, obj jvm.Ref, id jvm.FieldID, v uint64) {
	f := t.rt.field(id)
	t.deref(obj).setField(f, t.decode(f.typ.Kind(), v))
}

func (t *Thread) GetStaticField(kind jtype.Kind, class jvm.Ref, id jvm.FieldID) uint64 {
	f := t.rt.field(id)
	return t.encode(f.typ.Kind(), f.class.staticValue(f))
}

func (t *Thread) SetStaticField(kind jtype.Kind, class jvm.Ref, id jvm.FieldID, v uint64) {
	f := t.rt.field(id)
	f.class.setStatic(f, t.decode(f.typ.Kind(), v))
}

func (t *Thread) NewLocalRef(ref jvm.Ref) jvm.Ref {
	return t.newLocal(t.deref(ref))
}

func (t *Thread) DeleteLocalRef(ref jvm.Ref) {
	if ref == 0 {
		return
	}
	raw := uint64(ref)
	if raw&globalTag != 0 {
		panic("simvm: DeleteLocalRef on a global reference")
	}
	h := handles.Handle(raw)
	if l, ok := t.rt.locals.Get(h); ok && l.owner != t {
		panic(fmt.Sprintf("simvm: local reference of thread %d deleted on thread %d", l.owner.id, t.id))
	}
	t.rt.locals.Remove(h)
}

func (t *Thread) NewGlobalRef(ref jvm.Ref) jvm.Ref {
	o := t.deref(ref)
	if o == nil {
		return 0
	}
	h, err := t.rt.globals.Insert(o)
	if err != nil {
		panic(err)
	}
	return jvm.Ref(uint64(h) | globalTag)
}

func (t *Thread) DeleteGlobalRef(ref jvm.Ref) {
	if ref == 0 {
		return
	}
	raw := uint64(ref)
	if raw&globalTag == 0 {
		panic("simvm: DeleteGlobalRef on a local reference")
	}
	t.rt.globals.Remove(handles.Handle(raw &^ globalTag))
}

func (t *Thread) NewString(chars []uint16) jvm.Ref {
	return t.newLocal(t.rt.String(string(utf16.Decode(chars))))
}

func (t *Thread) GetString(str jvm.Ref) []uint16 {
	o := t.deref(str)
	s, ok := o.Value().(string)
	if !ok {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.ClassCastException"), o.class.Name+" is not a string", true, nil)
		return nil
	}
	return utf16.Encode([]rune(s))
}

func (t *Thread) GetArrayLength(arr jvm.Ref) int32 {
	n, ok := arrayLen(t.deref(arr).Value())
	if !ok {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.IllegalArgumentException"), "not an array", true, nil)
		return 0
	}
	return int32(n)
}

func (t *Thread) NewPrimitiveArray(elem jtype.Kind, length int32) jvm.Ref {
	if length < 0 {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.NegativeArraySizeException"), fmt.Sprint(length), true, nil)
		return 0
	}
	buf := jvm.NewBuffer(elem, int(length))
	if buf == nil {
		panic("simvm: primitive array of " + elem.String())
	}
	return t.newLocal(t.rt.PrimitiveArray(elem, buf))
}

func (t *Thread) NewObjectArray(length int32, elemClass jvm.Ref, init jvm.Ref) jvm.Ref {
	if length < 0 {
		t.pending = t.newThrowable(t.rt.mustClass("java.lang.NegativeArraySizeException"), fmt.Sprint(length), true, nil)
		return 0
	}
	c := t.classOf(elemClass)
	fill := t.deref(init)
	els := make([]*Object, length)
	for i := range els {
		els[i] = fill
	}
	return t.newLocal(t.rt.alloc(t.rt.arrayClassOf(c), els))
}

func (t *Thread) GetArrayRegion(arr jvm.Ref, start int32, buf any) {
	o := t.deref(arr)
	o.mu.Lock()
	err := copyRegion(buf, o.value, int(start), false)
	o.mu.Unlock()
	if err != nil {
		t.raise(t.regionError(err))
	}
}

func (t *Thread) SetArrayRegion(arr jvm.Ref, start int32, buf any) {
	o := t.deref(arr)
	o.mu.Lock()
	err := copyRegion(o.value, buf, int(start), true)
	o.mu.Unlock()
	if err != nil {
		t.raise(t.regionError(err))
	}
}

func (t *Thread) regionError(err error) error {
	cls := "java.lang.ArrayIndexOutOfBoundsException"
	if err == errRegionType {
		cls = "java.lang.ArrayStoreException"
	}
	return t.Exception(cls, err.Error())
}

func (t *Thread) GetObjectArrayElement(arr jvm.Ref, index int32) jvm.Ref {
	o := t.deref(arr)
	els := o.Elements()
	if index < 0 || int(index) >= len(els) {
		t.raise(t.Exception("java.lang.ArrayIndexOutOfBoundsException", fmt.Sprintf("Index %d out of bounds for length %d", index, len(els))))
		return 0
	}
	return t.newLocal(els[index])
}

func (t *Thread) SetObjectArrayElement(arr jvm.Ref, index int32, v jvm.Ref) {
	o := t.deref(arr)
	val := t.deref(v)
	if err := t.Store(o, int(index), val); err != nil {
		t.raise(err)
	}
}

// Store writes an element of an object array with the managed runtime's
// bounds and store checks.
func (t *Thread) Store(arr *Object, index int, v *Object) error {
	arr.mu.Lock()
	defer arr.mu.Unlock()
	els, ok := arr.value.([]*Object)
	if !ok {
		return t.Exception("java.lang.IllegalArgumentException", "not an object array")
	}
	if index < 0 || index >= len(els) {
		return t.Exception("java.lang.ArrayIndexOutOfBoundsException", fmt.Sprintf("Index %d out of bounds for length %d", index, len(els)))
	}
	if v != nil {
		elem, err := t.rt.classForType(arr.class.component, arr.class.url)
		if err == nil && !v.class.assignableTo(elem) {
			return t.Exception("java.lang.ArrayStoreException", v.class.Name)
		}
	}
	els[index] = v
	return nil
}

func (t *Thread) Throw(obj jvm.Ref) jvm.Status {
	o := t.deref(obj)
	if o == nil || !o.class.assignableTo(t.rt.mustClass("java.lang.Throwable")) {
		return jvm.StatusErr
	}
	t.pending = o
	return jvm.StatusOK
}

func (t *Thread) ThrowNew(class jvm.Ref, msg string) jvm.Status {
	c := t.classOf(class)
	if !c.assignableTo(t.rt.mustClass("java.lang.Throwable")) {
		return jvm.StatusErr
	}
	t.pending = t.newThrowable(c, msg, true, nil)
	return jvm.StatusOK
}

func (t *Thread) ExceptionOccurred() jvm.Ref {
	return t.newLocal(t.pending)
}

func (t *Thread) ExceptionCheck() bool {
	return t.pending != nil
}

func (t *Thread) ExceptionClear() {
	t.pending = nil
}

func (t *Thread) RegisterNatives(class jvm.Ref, methods []jvm.NativeMethod) jvm.Status {
	c := t.classOf(class)
	for _, nm := range methods {
		var decl *Method
		for _, m := range c.Methods {
			if m.Native && m.Name == nm.Name && m.Desc == nm.Signature {
				decl = m
				break
			}
		}
		if decl == nil {
			t.pending = t.newThrowable(t.rt.mustClass("java.lang.NoSuchMethodError"), nm.Name, true, nil)
			return jvm.StatusErr
		}
		c.mu.Lock()
		c.natives[nm.Name+nm.Signature] = nm.Fn
		c.mu.Unlock()
	}
	return jvm.StatusOK
}
