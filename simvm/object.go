package simvm

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Object is a managed heap object.
//
// Value carries the object's intrinsic payload: a Go string for strings, the
// primitive for boxed values, a typed slice for primitive arrays, []*Object
// for object arrays and the runtime's bookkeeping for classes, reflective
// members and throwables.
type Object struct {
	class  *Class
	value  any
	fields map[*Field]any
	mu     sync.Mutex
	hash   int32
}

// Class returns the runtime class.
func (o *Object) Class() *Class { return o.class }

// Value returns the intrinsic payload.
func (o *Object) Value() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// SetValue replaces the intrinsic payload.
func (o *Object) SetValue(v any) {
	o.mu.Lock()
	o.value = v
	o.mu.Unlock()
}

// Get reads an instance field by name.
func (o *Object) Get(name string) any {
	o.mu.Lock()
	defer o.mu.Unlock()
	for f, v := range o.fields {
		if f.Name == name {
			return v
		}
	}
	return nil
}

// Set writes an instance field by name.
func (o *Object) Set(name string, v any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for f := range o.fields {
		if f.Name == name {
			o.fields[f] = v
			return
		}
	}
	panic(fmt.Sprintf("simvm: %s has no field %s", o.class.Name, name))
}

func (o *Object) getField(f *Field) any {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v, ok := o.fields[f]; ok {
		return v
	}
	return zeroValue(f.typ)
}

func (o *Object) setField(f *Field, v any) {
	o.mu.Lock()
	o.fields[f] = v
	o.mu.Unlock()
}

// GoString returns the contents of a string object.
func (o *Object) GoString() string {
	if o == nil {
		return "null"
	}
	s, _ := o.Value().(string)
	return s
}

// Elements returns the elements of an object array.
func (o *Object) Elements() []*Object {
	els, _ := o.Value().([]*Object)
	return els
}

func asObject(v any) *Object {
	o, _ := v.(*Object)
	return o
}

type throwable struct {
	cause      *Object
	message    string
	frames     []string
	hasMessage bool
}

type loaderState struct {
	parent *Object
	urls   []string
}

type threadState struct {
	contextLoader *Object
	name          string
}

type dispatcherState struct {
	names []string
	id    int64
	valid atomic.Bool
}
