package jvm

import (
	"fmt"
	"runtime"
	"strings"
	"unicode/utf16"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
)

// Env is a thread context: the managed runtime's per-thread interface bound
// to the OS thread that obtained it. Using an Env, or a LocalRef it created,
// from another thread panics.
type Env struct {
	vm          *VM
	native      NativeEnv
	tid         int64
	tracked     bool
	closed      bool
	translating bool
}

// VM returns the owning VM.
func (e *Env) VM() *VM {
	return e.vm
}

// Close releases this context's attachment and unpins the goroutine.
func (e *Env) Close() {
	if e == nil || e.closed {
		return
	}
	e.checkThread()
	e.closed = true
	if e.tracked {
		e.vm.release(e.tid)
	}
	runtime.UnlockOSThread()
}

func (e *Env) checkThread() {
	if tid := threadID(); tid != e.tid {
		panic(fmt.Sprintf("jvm: thread context of thread %d used on thread %d", e.tid, tid))
	}
}

// ref unwraps o after verifying ownership.
func (e *Env) ref(o Object) Ref {
	if o == nil {
		return 0
	}
	if l, ok := o.(*LocalRef); ok && l != nil && l.env.native != e.native {
		panic("jvm: local reference used outside its owning thread context")
	}
	return o.raw()
}

func (e *Env) wrap(r Ref) *LocalRef {
	if r == 0 {
		return nil
	}
	return &LocalRef{env: e, ref: r}
}

// borrow wraps a reference owned by the managed runtime's native frame.
func (e *Env) borrow(r Ref) *LocalRef {
	if r == 0 {
		return nil
	}
	return &LocalRef{env: e, ref: r, noFree: true}
}

// check converts a pending exception into an error.
func (e *Env) check() error {
	if !e.native.ExceptionCheck() {
		return nil
	}
	if e.translating {
		e.native.ExceptionClear()
		return errNestedException
	}
	return e.captureException()
}

// ExceptionPending reports whether an exception is pending on this thread.
func (e *Env) ExceptionPending() bool {
	e.checkThread()
	return e.native.ExceptionCheck()
}

// FindClass looks a class up by dotted or internal name through the
// bootstrap lookup. Application classes should use LoadClass.
func (e *Env) FindClass(name string) (*LocalRef, error) {
	e.checkThread()
	internal := strings.ReplaceAll(name, ".", "/")
	r := e.native.FindClass(internal)
	if err := e.check(); err != nil {
		return nil, errors.ClassNotFound(strings.ReplaceAll(name, "/", "."), err)
	}
	if r == 0 {
		return nil, errors.ClassNotFound(strings.ReplaceAll(name, "/", "."), nil)
	}
	return e.wrap(r), nil
}

// LoadClass loads a class through the active class loader.
func (e *Env) LoadClass(name string) (*GlobalRef, error) {
	cls, err := e.loadClassLocal(name)
	if err != nil {
		return nil, err
	}
	return cls.Promote()
}

func (e *Env) loadClassLocal(name string) (*LocalRef, error) {
	loader := e.vm.ClassLoader()
	defer loader.Release()
	if loader.IsNull() {
		return e.FindClass(name)
	}

	jname, err := e.NewString(name)
	if err != nil {
		return nil, err
	}
	defer jname.Delete()

	cls, err := e.CallObjectMethod(loader, "loadClass", "(Ljava/lang/String;)Ljava/lang/Class;", RefValue(jname))
	if err != nil {
		return nil, errors.ClassNotFound(name, err)
	}
	if cls.IsNull() {
		return nil, errors.ClassNotFound(name, errors.NullContract("ClassLoader.loadClass()"))
	}
	return cls, nil
}

// TypeClass returns the class object for t. Primitive types resolve to their
// wrapper classes.
func (e *Env) TypeClass(t jtype.Type) (*LocalRef, error) {
	if t.IsArray() {
		return e.FindClass(t.InternalName())
	}
	switch t.Kind() {
	case jtype.Object:
		return e.loadClassLocal(t.ClassName())
	default:
		return e.FindClass(t.InternalName())
	}
}

// ObjectClass returns the runtime class of o.
func (e *Env) ObjectClass(o Object) (*LocalRef, error) {
	e.checkThread()
	r := e.ref(o)
	if r == 0 {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "class of null reference")
	}
	return e.wrap(e.native.GetObjectClass(r)), nil
}

// ClassName returns Class.getName() of a class object.
func (e *Env) ClassName(class Object) (string, error) {
	s, err := e.CallObjectMethod(class, "getName", "()Ljava/lang/String;")
	if err != nil {
		return "", err
	}
	defer s.Delete()
	if s.IsNull() {
		return "", errors.NullContract("Class.getName()")
	}
	return e.GoString(s)
}

// ObjectClassName returns the runtime class name of o.
func (e *Env) ObjectClassName(o Object) (string, error) {
	cls, err := e.ObjectClass(o)
	if err != nil {
		return "", err
	}
	defer cls.Delete()
	return e.ClassName(cls)
}

// IsAssignableFrom reports whether values of class from can be assigned to class to.
func (e *Env) IsAssignableFrom(from, to Object) bool {
	e.checkThread()
	return e.native.IsAssignableFrom(e.ref(from), e.ref(to))
}

// IsInstanceOf reports whether o is an instance of class. Null is an instance of every class.
func (e *Env) IsInstanceOf(o, class Object) bool {
	e.checkThread()
	return e.native.IsInstanceOf(e.ref(o), e.ref(class))
}

// MethodID resolves a method on class by name and descriptor.
func (e *Env) MethodID(class Object, name, sig string, static bool) (MethodID, error) {
	e.checkThread()
	var id MethodID
	if static {
		id = e.native.GetStaticMethodID(e.ref(class), name, sig)
	} else {
		id = e.native.GetMethodID(e.ref(class), name, sig)
	}
	if err := e.check(); err != nil {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(name).Detail("method %s%s", name, sig).Cause(err).Build()
	}
	if id == 0 {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(name).Detail("method %s%s", name, sig).Build()
	}
	return id, nil
}

// FieldID resolves a field on class by name and descriptor.
func (e *Env) FieldID(class Object, name, sig string, static bool) (FieldID, error) {
	e.checkThread()
	var id FieldID
	if static {
		id = e.native.GetStaticFieldID(e.ref(class), name, sig)
	} else {
		id = e.native.GetFieldID(e.ref(class), name, sig)
	}
	if err := e.check(); err != nil {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(name).Detail("field %s %s", name, sig).Cause(err).Build()
	}
	if id == 0 {
		return 0, errors.New(errors.PhaseResolve, errors.KindNotFound).
			Path(name).Detail("field %s %s", name, sig).Build()
	}
	return id, nil
}

// Call invokes an instance method. Reference results are promoted to global references.
func (e *Env) Call(obj Object, id MethodID, ret jtype.Type, args ...Value) (CallResult, error) {
	e.checkThread()
	r := e.ref(obj)
	if r == 0 {
		return CallResult{}, errors.InvalidInput(errors.PhaseInvoke, "instance method called on null reference")
	}
	slot := e.native.CallMethod(ret.Kind(), r, id, slots(args))
	return e.result(ret, slot)
}

// CallStatic invokes a static method of class.
func (e *Env) CallStatic(class Object, id MethodID, ret jtype.Type, args ...Value) (CallResult, error) {
	e.checkThread()
	slot := e.native.CallStaticMethod(ret.Kind(), e.ref(class), id, slots(args))
	return e.result(ret, slot)
}

// CallLocal invokes an instance method returning a reference and keeps the
// result local to this thread. A null result is a nil LocalRef.
func (e *Env) CallLocal(obj Object, id MethodID, args ...Value) (*LocalRef, error) {
	e.checkThread()
	r := e.ref(obj)
	if r == 0 {
		return nil, errors.InvalidInput(errors.PhaseInvoke, "instance method called on null reference")
	}
	slot := e.native.CallMethod(jtype.LangObject, r, id, slots(args))
	return e.localResult(slot)
}

// CallStaticLocal is CallLocal for static methods.
func (e *Env) CallStaticLocal(class Object, id MethodID, args ...Value) (*LocalRef, error) {
	e.checkThread()
	slot := e.native.CallStaticMethod(jtype.LangObject, e.ref(class), id, slots(args))
	return e.localResult(slot)
}

// CallMethod invokes an instance method by name and descriptor.
func (e *Env) CallMethod(obj Object, name, sig string, args ...Value) (CallResult, error) {
	id, ret, err := e.lookup(obj, name, sig)
	if err != nil {
		return CallResult{}, err
	}
	return e.Call(obj, id, ret, args...)
}

// CallObjectMethod invokes an instance method returning a reference by name and descriptor.
func (e *Env) CallObjectMethod(obj Object, name, sig string, args ...Value) (*LocalRef, error) {
	id, _, err := e.lookup(obj, name, sig)
	if err != nil {
		return nil, err
	}
	return e.CallLocal(obj, id, args...)
}

// CallStaticMethod invokes a static method by name and descriptor.
func (e *Env) CallStaticMethod(class Object, name, sig string, args ...Value) (CallResult, error) {
	ret, err := returnType(sig)
	if err != nil {
		return CallResult{}, err
	}
	id, err := e.MethodID(class, name, sig, true)
	if err != nil {
		return CallResult{}, err
	}
	return e.CallStatic(class, id, ret, args...)
}

// CallStaticObjectMethod invokes a static method returning a reference by name and descriptor.
func (e *Env) CallStaticObjectMethod(class Object, name, sig string, args ...Value) (*LocalRef, error) {
	id, err := e.MethodID(class, name, sig, true)
	if err != nil {
		return nil, err
	}
	return e.CallStaticLocal(class, id, args...)
}

func (e *Env) lookup(obj Object, name, sig string) (MethodID, jtype.Type, error) {
	ret, err := returnType(sig)
	if err != nil {
		return 0, jtype.Type{}, err
	}
	cls, err := e.ObjectClass(obj)
	if err != nil {
		return 0, jtype.Type{}, err
	}
	defer cls.Delete()
	id, err := e.MethodID(cls, name, sig, false)
	return id, ret, err
}

func returnType(sig string) (jtype.Type, error) {
	s, err := jtype.ParseSignature(sig)
	if err != nil {
		return jtype.Type{}, errors.Wrap(errors.PhaseInvoke, errors.KindInvalidInput, err, "parse method descriptor")
	}
	return s.Return, nil
}

// NewObject allocates an instance of class using the constructor ctor.
func (e *Env) NewObject(class Object, ctor MethodID, args ...Value) (*LocalRef, error) {
	e.checkThread()
	r := e.native.NewObject(e.ref(class), ctor, slots(args))
	if err := e.check(); err != nil {
		if r != 0 {
			e.native.DeleteLocalRef(r)
		}
		return nil, err
	}
	if r == 0 {
		return nil, errors.NullContract("NewObject")
	}
	return e.wrap(r), nil
}

// NewObjectBySig allocates an instance using the constructor with descriptor sig.
func (e *Env) NewObjectBySig(class Object, sig string, args ...Value) (*LocalRef, error) {
	id, err := e.MethodID(class, "<init>", sig, false)
	if err != nil {
		return nil, err
	}
	return e.NewObject(class, id, args...)
}

// GetField reads an instance field.
func (e *Env) GetField(obj Object, id FieldID, t jtype.Type) (CallResult, error) {
	e.checkThread()
	r := e.ref(obj)
	if r == 0 {
		return CallResult{}, errors.InvalidInput(errors.PhaseInvoke, "field read on null reference")
	}
	return e.result(t, e.native.GetField(t.Kind(), r, id))
}

// SetField writes an instance field.
func (e *Env) SetField(obj Object, id FieldID, t jtype.Type, v Value) error {
	e.checkThread()
	r := e.ref(obj)
	if r == 0 {
		return errors.InvalidInput(errors.PhaseInvoke, "field write on null reference")
	}
	e.native.SetField(t.Kind(), r, id, v.slot)
	return e.check()
}

// GetStaticField reads a static field.
func (e *Env) GetStaticField(class Object, id FieldID, t jtype.Type) (CallResult, error) {
	e.checkThread()
	return e.result(t, e.native.GetStaticField(t.Kind(), e.ref(class), id))
}

// SetStaticField writes a static field.
func (e *Env) SetStaticField(class Object, id FieldID, t jtype.Type, v Value) error {
	e.checkThread()
	e.native.SetStaticField(t.Kind(), e.ref(class), id, v.slot)
	return e.check()
}

func (e *Env) result(ret jtype.Type, slot uint64) (CallResult, error) {
	if ret.IsPrimitive() {
		if err := e.check(); err != nil {
			return CallResult{}, err
		}
		return primitiveResult(ret.Kind(), slot), nil
	}
	local, err := e.localResult(slot)
	if err != nil {
		return CallResult{}, err
	}
	if local.IsNull() {
		return NullResult(), nil
	}
	g, err := local.Promote()
	if err != nil {
		local.Delete()
		return CallResult{}, err
	}
	return ObjectResult(g, ret), nil
}

func (e *Env) localResult(slot uint64) (*LocalRef, error) {
	r := SlotRef(slot)
	if err := e.check(); err != nil {
		if r != 0 {
			e.native.DeleteLocalRef(r)
		}
		return nil, err
	}
	return e.wrap(r), nil
}

// NewLocalRef creates a new local reference to o.
func (e *Env) NewLocalRef(o Object) (*LocalRef, error) {
	e.checkThread()
	r := e.ref(o)
	if r == 0 {
		return nil, nil
	}
	nr := e.native.NewLocalRef(r)
	if nr == 0 {
		return nil, errors.NullContract("NewLocalRef")
	}
	return e.wrap(nr), nil
}

// NewGlobalRef creates a new global reference to o.
func (e *Env) NewGlobalRef(o Object) (*GlobalRef, error) {
	e.checkThread()
	r := e.ref(o)
	if r == 0 {
		return nil, nil
	}
	g := e.native.NewGlobalRef(r)
	if err := e.check(); err != nil {
		return nil, errors.Wrap(errors.PhaseInvoke, errors.KindInternalProtocol, err, "failed to create global reference")
	}
	if g == 0 {
		return nil, errors.NullContract("NewGlobalRef")
	}
	return newGlobalRef(e.vm, g), nil
}

// NewString creates a managed string.
func (e *Env) NewString(s string) (*LocalRef, error) {
	e.checkThread()
	r := e.native.NewString(utf16.Encode([]rune(s)))
	if err := e.check(); err != nil {
		if r != 0 {
			e.native.DeleteLocalRef(r)
		}
		return nil, err
	}
	if r == 0 {
		return nil, errors.NullContract("NewString")
	}
	return e.wrap(r), nil
}

// GoString reads a managed string.
func (e *Env) GoString(o Object) (string, error) {
	e.checkThread()
	r := e.ref(o)
	if r == 0 {
		return "", errors.InvalidInput(errors.PhaseDecode, "string of null reference")
	}
	chars := e.native.GetString(r)
	if err := e.check(); err != nil {
		return "", err
	}
	return string(utf16.Decode(chars)), nil
}

// ToString calls toString() on o.
func (e *Env) ToString(o Object) (string, error) {
	s, err := e.CallObjectMethod(o, "toString", "()Ljava/lang/String;")
	if err != nil {
		return "", err
	}
	defer s.Delete()
	if s.IsNull() {
		return "null", nil
	}
	return e.GoString(s)
}

// Throw makes o the pending exception.
func (e *Env) Throw(o Object) error {
	e.checkThread()
	if st := e.native.Throw(e.ref(o)); st != StatusOK {
		return errors.Wrap(errors.PhaseInvoke, errors.KindInternalProtocol, nil, "throw: "+st.String())
	}
	return nil
}

// ThrowNew raises a new exception of the named class with msg.
func (e *Env) ThrowNew(className, msg string) error {
	cls, err := e.FindClass(className)
	if err != nil {
		return err
	}
	defer cls.Delete()
	if st := e.native.ThrowNew(e.ref(cls), msg); st != StatusOK {
		return errors.Wrap(errors.PhaseInvoke, errors.KindInternalProtocol, nil, "throw: "+st.String())
	}
	return nil
}
