package simvm

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wippyai/jbridge/internal/handles"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// MinVersion is the oldest interface version CreateVM accepts.
const MinVersion int32 = 0x00010008

const globalTag = uint64(1) << 62

const (
	tagLocal uint32 = iota + 1
	tagGlobal
)

// Runtime is an in-process managed runtime implementing the primitive set.
// It keeps every local and global reference in handle tables so tests can
// account for each create and free.
type Runtime struct {
	classes     map[string]*Class
	pathClasses map[string]map[string]*Class
	arrays      map[string]*Class
	primitives  map[jtype.Kind]*Class
	proxies     map[string]*Class
	methods     []*Method
	fields      []*Field
	mu          sync.RWMutex

	locals      *handles.Table[*local]
	globals     *handles.Table[*Object]
	localCount  handles.Counter
	globalCount handles.Counter
	frameFreed  atomic.Int64

	nextHash   atomic.Int32
	nextThread atomic.Int64
	nextProxy  atomic.Int64
	created    atomic.Bool

	systemLoader *Object
	vm           *VM
	workers      sync.WaitGroup
}

type local struct {
	obj   *Object
	owner *Thread
}

// New creates a runtime with the core library installed.
func New() *Runtime {
	rt := &Runtime{
		classes:     make(map[string]*Class),
		pathClasses: make(map[string]map[string]*Class),
		arrays:      make(map[string]*Class),
		primitives:  make(map[jtype.Kind]*Class),
		proxies:     make(map[string]*Class),
		locals:      handles.New[*local](tagLocal),
		globals:     handles.New[*Object](tagGlobal),
	}
	rt.locals.Subscribe(&rt.localCount)
	rt.globals.Subscribe(&rt.globalCount)

	for k := jtype.Void; k <= jtype.Double; k++ {
		rt.primitives[k] = &Class{Name: k.String(), rt: rt, primitive: true, typ: jtype.Of(k)}
	}
	if err := rt.Define(langClasses()...); err != nil {
		panic(err)
	}
	if err := rt.Define(bridgeClasses()...); err != nil {
		panic(err)
	}
	rt.systemLoader = rt.alloc(rt.mustClass("java.lang.ClassLoader"), &loaderState{})
	return rt
}

// Opener returns a library opener that hands out this runtime for any path.
func (rt *Runtime) Opener() jvm.Opener {
	return func(string) (jvm.Library, error) {
		return rt, nil
	}
}

// CreateVM implements jvm.Library.
func (rt *Runtime) CreateVM(version int32, args []string) (jvm.NativeVM, jvm.NativeEnv, jvm.Status) {
	if version < MinVersion {
		return nil, nil, jvm.StatusVersion
	}
	for _, a := range args {
		if !strings.HasPrefix(a, "-") {
			return nil, nil, jvm.StatusInvalid
		}
	}
	if !rt.created.CompareAndSwap(false, true) {
		return nil, nil, jvm.StatusExists
	}
	rt.vm = &VM{rt: rt}
	return rt.vm, rt.vm.newThread(false), jvm.StatusOK
}

// Define links classes into the system class path.
func (rt *Runtime) Define(classes ...*Class) error {
	return rt.define("", classes)
}

// DefineOn links classes that are only visible to URL class loaders whose
// search path contains url.
func (rt *Runtime) DefineOn(url string, classes ...*Class) error {
	return rt.define(url, classes)
}

func (rt *Runtime) define(url string, classes []*Class) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	scope := rt.classes
	if url != "" {
		scope = rt.pathClasses[url]
		if scope == nil {
			scope = make(map[string]*Class)
			rt.pathClasses[url] = scope
		}
	}
	for _, c := range classes {
		if _, ok := scope[c.Name]; ok {
			return fmt.Errorf("class %s already defined", c.Name)
		}
		c.rt = rt
		c.url = url
		c.typ = jtype.Parse(c.Name)
		c.natives = make(map[string]jvm.NativeFunc)
		c.statics = make(map[*Field]any)
		scope[c.Name] = c
	}
	for _, c := range classes {
		if err := rt.link(c, scope); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Runtime) link(c *Class, scope map[string]*Class) error {
	lookup := func(name string) *Class {
		if k, ok := scope[name]; ok {
			return k
		}
		return rt.classes[name]
	}
	if c.Name != "java.lang.Object" && !c.Interface {
		super := c.Super
		if super == "" {
			super = "java.lang.Object"
		}
		if c.super = lookup(super); c.super == nil {
			return fmt.Errorf("class %s: superclass %s not defined", c.Name, super)
		}
	}
	for _, name := range c.Interfaces {
		i := lookup(name)
		if i == nil {
			return fmt.Errorf("class %s: interface %s not defined", c.Name, name)
		}
		c.ifaces = append(c.ifaces, i)
	}
	for _, m := range c.Methods {
		sig, err := jtype.ParseSignature(m.Desc)
		if err != nil {
			return fmt.Errorf("class %s: method %s: %w", c.Name, m.Name, err)
		}
		m.class = c
		m.sig = sig
		rt.methods = append(rt.methods, m)
		m.id = jvm.MethodID(len(rt.methods))
	}
	for _, f := range c.Fields {
		t, err := jtype.FromDescriptor(f.Desc)
		if err != nil {
			return fmt.Errorf("class %s: field %s: %w", c.Name, f.Name, err)
		}
		f.class = c
		f.typ = t
		rt.fields = append(rt.fields, f)
		f.id = jvm.FieldID(len(rt.fields))
		if f.Static && f.Init != nil {
			c.statics[f] = f.Init
		}
	}
	return nil
}

func (rt *Runtime) method(id jvm.MethodID) *Method {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if id == 0 || int(id) > len(rt.methods) {
		panic(fmt.Sprintf("simvm: invalid method id %d", id))
	}
	return rt.methods[id-1]
}

func (rt *Runtime) field(id jvm.FieldID) *Field {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if id == 0 || int(id) > len(rt.fields) {
		panic(fmt.Sprintf("simvm: invalid field id %d", id))
	}
	return rt.fields[id-1]
}

func (rt *Runtime) mustClass(name string) *Class {
	c, err := rt.lookupClass(name, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// lookupClass finds a class by dotted or Class.getName name as seen by
// urls, a URL class loader search path. A nil path sees system classes only.
func (rt *Runtime) lookupClass(name string, urls []string) (*Class, error) {
	if strings.HasPrefix(name, "[") {
		t, err := jtype.FromClassName(name)
		if err != nil {
			return nil, err
		}
		url := ""
		if len(urls) > 0 {
			url = urls[0]
		}
		return rt.classForType(t, url)
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()
	if c, ok := rt.classes[name]; ok {
		return c, nil
	}
	for _, u := range urls {
		if c, ok := rt.pathClasses[u][name]; ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("class %s not found", name)
}

// classForType maps a declared type to its class as seen from a class
// defined on url.
func (rt *Runtime) classForType(t jtype.Type, url string) (*Class, error) {
	if t.IsPrimitive() {
		return rt.primitives[t.Kind()], nil
	}
	if !t.IsArray() {
		var urls []string
		if url != "" {
			urls = []string{url}
		}
		return rt.lookupClass(t.Name(), urls)
	}

	inner, _ := t.Inner()
	if _, err := rt.classForType(inner, url); err != nil {
		return nil, err
	}
	name := t.ClassName()
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if c, ok := rt.arrays[name]; ok {
		return c, nil
	}
	c := &Class{
		Name:      name,
		rt:        rt,
		array:     true,
		component: inner,
		typ:       t,
		url:       url,
		super:     rt.classes["java.lang.Object"],
		natives:   map[string]jvm.NativeFunc{},
		statics:   map[*Field]any{},
	}
	rt.arrays[name] = c
	return c, nil
}

func (rt *Runtime) arrayClassOf(elem *Class) *Class {
	c, err := rt.classForType(jtype.ArrayOf(elem.typ), elem.url)
	if err != nil {
		panic(err)
	}
	return c
}

func (rt *Runtime) alloc(c *Class, value any) *Object {
	return &Object{class: c, value: value, hash: rt.nextHash.Add(1)}
}

// newInstance allocates an object with every instance field at its zero value.
func (rt *Runtime) newInstance(c *Class) *Object {
	o := rt.alloc(c, nil)
	o.fields = make(map[*Field]any)
	for k := c; k != nil; k = k.super {
		for _, f := range k.Fields {
			if !f.Static {
				o.fields[f] = zeroValue(f.typ)
			}
		}
	}
	return o
}

// String creates a string object.
func (rt *Runtime) String(s string) *Object {
	return rt.alloc(rt.mustClass("java.lang.String"), s)
}

// ObjectArray creates an array of the named element class.
func (rt *Runtime) ObjectArray(elem string, els []*Object) *Object {
	return rt.alloc(rt.arrayClassOf(rt.mustClass(elem)), els)
}

// PrimitiveArray creates a primitive array from a typed slice.
func (rt *Runtime) PrimitiveArray(k jtype.Kind, slice any) *Object {
	c, _ := rt.classForType(jtype.ArrayOf(jtype.Of(k)), "")
	return rt.alloc(c, slice)
}

// Box wraps a primitive in its wrapper class.
func (rt *Runtime) Box(k jtype.Kind, v any) *Object {
	return rt.alloc(rt.mustClass(k.Boxed().String()), v)
}

// Stats is a snapshot of reference accounting.
type Stats struct {
	LocalsCreated     int64
	LocalsFreed       int64
	LocalsFrameFreed  int64
	LocalDoubleFrees  int64
	GlobalsCreated    int64
	GlobalsFreed      int64
	GlobalDoubleFrees int64
	LiveLocals        int
	LiveGlobals       int
}

// Stats returns the current reference accounting.
func (rt *Runtime) Stats() Stats {
	return Stats{
		LocalsCreated:     rt.localCount.Created(),
		LocalsFreed:       rt.localCount.Dropped(),
		LocalsFrameFreed:  rt.frameFreed.Load(),
		LocalDoubleFrees:  rt.localCount.Stale(),
		GlobalsCreated:    rt.globalCount.Created(),
		GlobalsFreed:      rt.globalCount.Dropped(),
		GlobalDoubleFrees: rt.globalCount.Stale(),
		LiveLocals:        rt.locals.Len(),
		LiveGlobals:       rt.globals.Len(),
	}
}

// Wait blocks until every managed thread started by the runtime has finished.
func (rt *Runtime) Wait() {
	rt.workers.Wait()
}

// VM implements jvm.NativeVM.
type VM struct {
	rt        *Runtime
	threads   atomic.Int64
	destroyed atomic.Bool
}

func (vm *VM) newThread(daemon bool) *Thread {
	vm.threads.Add(1)
	return &Thread{
		vm:     vm,
		rt:     vm.rt,
		id:     vm.rt.nextThread.Add(1),
		frames: [][]handles.Handle{nil},
		daemon: daemon,
	}
}

// AttachCurrentThread implements jvm.NativeVM.
func (vm *VM) AttachCurrentThread(daemon bool) (jvm.NativeEnv, jvm.Status) {
	if vm.destroyed.Load() {
		return nil, jvm.StatusDetached
	}
	return vm.newThread(daemon), jvm.StatusOK
}

// DetachThread implements jvm.NativeVM.
func (vm *VM) DetachThread(env jvm.NativeEnv) jvm.Status {
	t, ok := env.(*Thread)
	if !ok || t.detached {
		return jvm.StatusInvalid
	}
	t.detach()
	vm.threads.Add(-1)
	return jvm.StatusOK
}

// Destroy implements jvm.NativeVM.
func (vm *VM) Destroy() jvm.Status {
	if !vm.destroyed.CompareAndSwap(false, true) {
		return jvm.StatusErr
	}
	return jvm.StatusOK
}

// Threads returns the number of attached threads.
func (vm *VM) Threads() int64 { return vm.threads.Load() }
