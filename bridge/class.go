package bridge

import (
	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/overload"
	"github.com/wippyai/jbridge/reflection"
)

// Class is an imported managed class: its constructors, static methods and
// static fields.
type Class struct {
	b    *Bridge
	desc *reflection.ClassDescriptor
}

// Name returns the dotted class name.
func (c *Class) Name() string { return c.desc.Name }

// Descriptor returns the resolved members.
func (c *Class) Descriptor() *reflection.ClassDescriptor { return c.desc }

// Config returns the configuration the class was imported under.
func (c *Class) Config() config.Class { return c.desc.Config }

// New constructs an instance with the constructor matching args.
func (c *Class) New(args ...any) (*Instance, error) {
	var inst *Instance
	err := c.b.with(func(env *jvm.Env) error {
		var err error
		inst, err = c.construct(env, args)
		return err
	})
	return inst, err
}

// NewAsync constructs an instance on a worker goroutine. The Pending value
// is an *Instance.
func (c *Class) NewAsync(args ...any) *Pending {
	return c.b.async(func(env *jvm.Env) (any, error) {
		return c.construct(env, args)
	})
}

func (c *Class) construct(env *jvm.Env, args []any) (*Instance, error) {
	ctor, err := overload.Constructor(env, c.desc.Name, c.desc.Constructors, args)
	if err != nil {
		return nil, err
	}
	in, err := c.b.engine.Args(env, ctor.Params, args)
	if err != nil {
		return nil, err
	}
	defer jvm.ReleaseAll(in)

	r, err := c.b.invoke(env, c.desc.Config, func(env *jvm.Env) (jvm.CallResult, error) {
		l, err := env.NewObject(c.desc.Class, ctor.ID, jvm.Values(in)...)
		if err != nil {
			return jvm.CallResult{}, err
		}
		g, err := l.Promote()
		if err != nil {
			l.Delete()
			return jvm.CallResult{}, err
		}
		return jvm.ObjectResult(g, c.desc.Type), nil
	})
	if err != nil {
		return nil, err
	}
	return &Instance{class: c, ref: r.Ref}, nil
}

// Call invokes the static method name with the overload matching args.
func (c *Class) Call(name string, args ...any) (any, error) {
	var v any
	err := c.b.with(func(env *jvm.Env) error {
		var err error
		v, err = c.call(env, name, args)
		return err
	})
	return v, err
}

// CallAsync invokes the static method name on a worker goroutine.
func (c *Class) CallAsync(name string, args ...any) *Pending {
	return c.b.async(func(env *jvm.Env) (any, error) {
		return c.call(env, name, args)
	})
}

// Dispatch invokes a static method by accessor name: the blocking variant
// returns its result, the async variant returns a *Pending.
func (c *Class) Dispatch(accessor string, args ...any) (any, error) {
	name, blocking := c.desc.Lookup(accessor, true)
	if blocking {
		return c.Call(name, args...)
	}
	return c.CallAsync(name, args...), nil
}

func (c *Class) call(env *jvm.Env, name string, args []any) (any, error) {
	ms, ok := c.desc.StaticMethods[name]
	if !ok {
		return nil, errors.MemberNotFound(c.desc.Name, "static method", name)
	}
	m, err := overload.Method(env, name, ms, args)
	if err != nil {
		return nil, err
	}
	in, err := c.b.engine.Args(env, m.Params, args)
	if err != nil {
		return nil, err
	}
	defer jvm.ReleaseAll(in)

	r, err := c.b.invoke(env, c.desc.Config, func(env *jvm.Env) (jvm.CallResult, error) {
		return env.CallStatic(c.desc.Class, m.ID, m.Return, jvm.Values(in)...)
	})
	if err != nil {
		return nil, err
	}
	return c.b.engine.ToHost(env, r)
}

// Get reads the static field name.
func (c *Class) Get(name string) (any, error) {
	f, ok := c.desc.StaticFields[name]
	if !ok {
		return nil, errors.MemberNotFound(c.desc.Name, "static field", name)
	}
	var v any
	err := c.b.with(func(env *jvm.Env) error {
		r, err := env.GetStaticField(c.desc.Class, f.ID, f.Type)
		if err != nil {
			return err
		}
		v, err = c.b.engine.ToHost(env, r)
		return err
	})
	return v, err
}

// Set writes the static field name.
func (c *Class) Set(name string, v any) error {
	f, ok := c.desc.StaticFields[name]
	if !ok {
		return errors.MemberNotFound(c.desc.Name, "static field", name)
	}
	return c.b.with(func(env *jvm.Env) error {
		r, err := c.b.engine.ToResult(env, v, f.Type)
		if err != nil {
			return err
		}
		defer r.Release()
		return env.SetStaticField(c.desc.Class, f.ID, f.Type, r.Value())
	})
}

// IsInstance reports whether v is an instance of the class.
func (c *Class) IsInstance(v host.Bridged) (bool, error) {
	return c.b.IsInstanceOf(v, c.desc.Name)
}
