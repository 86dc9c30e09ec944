package marshal

import (
	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/reflection"
)

// ObjectFactory wraps a managed object that has no plain host
// representation. The factory takes ownership of ref.
type ObjectFactory interface {
	Wrap(env *jvm.Env, ref *jvm.GlobalRef, class string) (any, error)
}

// FactoryFunc adapts a function to ObjectFactory.
type FactoryFunc func(env *jvm.Env, ref *jvm.GlobalRef, class string) (any, error)

func (f FactoryFunc) Wrap(env *jvm.Env, ref *jvm.GlobalRef, class string) (any, error) {
	return f(env, ref, class)
}

// Object is the generic bridged object handle.
type Object struct {
	Ref   *jvm.GlobalRef
	Class *reflection.ClassDescriptor
}

func (o *Object) ManagedRef() (*jvm.GlobalRef, error) { return o.Ref, nil }
func (o *Object) ManagedClassName() string            { return o.Class.Name }

// Release drops the object reference.
func (o *Object) Release() { o.Ref.Release() }

// DescriptorFactory wraps objects as *Object with descriptors from Cache
// under the default configuration.
type DescriptorFactory struct {
	Cache *reflection.Cache
}

func (f DescriptorFactory) Wrap(env *jvm.Env, ref *jvm.GlobalRef, class string) (any, error) {
	d, err := f.Cache.Get(env, class, config.Default())
	if err != nil {
		ref.Release()
		return nil, err
	}
	return &Object{Ref: ref, Class: d}, nil
}
