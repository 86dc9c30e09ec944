package bridge

import (
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/overload"
)

// Instance is a managed object of an imported class. It owns one global
// reference, dropped by Release.
type Instance struct {
	class *Class
	ref   *jvm.GlobalRef
}

// Class returns the instance's class as seen by the bridge.
func (i *Instance) Class() *Class { return i.class }

// ManagedRef returns the object reference.
func (i *Instance) ManagedRef() (*jvm.GlobalRef, error) {
	if i.ref.Released() {
		return nil, errors.InvalidInput(errors.PhaseEncode, "instance of "+i.class.Name()+" has been released")
	}
	return i.ref, nil
}

// ManagedClassName returns the class name the instance was bridged as.
func (i *Instance) ManagedClassName() string { return i.class.Name() }

// Release drops the object reference.
func (i *Instance) Release() { i.ref.Release() }

// Call invokes the instance method name with the overload matching args.
func (i *Instance) Call(name string, args ...any) (any, error) {
	var v any
	err := i.class.b.with(func(env *jvm.Env) error {
		var err error
		v, err = i.call(env, name, args)
		return err
	})
	return v, err
}

// CallAsync invokes the instance method name on a worker goroutine.
func (i *Instance) CallAsync(name string, args ...any) *Pending {
	return i.class.b.async(func(env *jvm.Env) (any, error) {
		return i.call(env, name, args)
	})
}

// Dispatch invokes a method by accessor name: the blocking variant returns
// its result, the async variant returns a *Pending.
func (i *Instance) Dispatch(accessor string, args ...any) (any, error) {
	name, blocking := i.class.desc.Lookup(accessor, false)
	if blocking {
		return i.Call(name, args...)
	}
	return i.CallAsync(name, args...), nil
}

func (i *Instance) call(env *jvm.Env, name string, args []any) (any, error) {
	d := i.class.desc
	ms, ok := d.Methods[name]
	if !ok {
		return nil, errors.MemberNotFound(d.Name, "method", name)
	}
	ref, err := i.ManagedRef()
	if err != nil {
		return nil, err
	}
	m, err := overload.Method(env, name, ms, args)
	if err != nil {
		return nil, err
	}
	in, err := i.class.b.engine.Args(env, m.Params, args)
	if err != nil {
		return nil, err
	}
	defer jvm.ReleaseAll(in)

	r, err := i.class.b.invoke(env, d.Config, func(env *jvm.Env) (jvm.CallResult, error) {
		return env.Call(ref, m.ID, m.Return, jvm.Values(in)...)
	})
	if err != nil {
		return nil, err
	}
	return i.class.b.engine.ToHost(env, r)
}

// Get reads the instance field name.
func (i *Instance) Get(name string) (any, error) {
	d := i.class.desc
	f, ok := d.Fields[name]
	if !ok {
		return nil, errors.MemberNotFound(d.Name, "field", name)
	}
	ref, err := i.ManagedRef()
	if err != nil {
		return nil, err
	}
	var v any
	err = i.class.b.with(func(env *jvm.Env) error {
		r, err := env.GetField(ref, f.ID, f.Type)
		if err != nil {
			return err
		}
		v, err = i.class.b.engine.ToHost(env, r)
		return err
	})
	return v, err
}

// Set writes the instance field name.
func (i *Instance) Set(name string, v any) error {
	d := i.class.desc
	f, ok := d.Fields[name]
	if !ok {
		return errors.MemberNotFound(d.Name, "field", name)
	}
	ref, err := i.ManagedRef()
	if err != nil {
		return err
	}
	return i.class.b.with(func(env *jvm.Env) error {
		r, err := i.class.b.engine.ToResult(env, v, f.Type)
		if err != nil {
			return err
		}
		defer r.Release()
		return env.SetField(ref, f.ID, f.Type, r.Value())
	})
}

// InstanceOf reports whether the object is an instance of className.
func (i *Instance) InstanceOf(className string) (bool, error) {
	return i.class.b.IsInstanceOf(i, className)
}

// String returns the object's toString.
func (i *Instance) String() string {
	v, err := i.Call("toString")
	if s, ok := v.(string); ok && err == nil {
		return s
	}
	return i.class.Name()
}
