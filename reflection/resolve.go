package reflection

import (
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

const modStatic = 0x0008

// ResolveClass loads name through the active class loader.
func ResolveClass(env *jvm.Env, name string) (*jvm.GlobalRef, error) {
	return env.LoadClass(name)
}

// ResolveMembers enumerates the public methods, fields and constructors of
// class, inherited members included, keeping those whose static flag equals
// static. Constructors are only collected for the instance side.
//
// The instance side always exposes a zero-argument toString returning
// java.lang.String. When the class has none (interfaces do not inherit
// Object's methods) the one from java.lang.Object is used.
func ResolveMembers(env *jvm.Env, class *jvm.GlobalRef, static bool) (*Members, error) {
	r := &resolver{env: env, class: class}
	m := &Members{}

	methods, err := r.array(class, "getMethods", "()[Ljava/lang/reflect/Method;")
	if err != nil {
		return nil, err
	}
	for _, obj := range methods {
		meth, ok, err := r.method(obj, static)
		obj.Delete()
		if err != nil {
			deleteAll(methods)
			return nil, err
		}
		if ok {
			m.Methods = append(m.Methods, meth)
		}
	}

	if !static && !hasToString(m.Methods) {
		meth, err := r.objectToString()
		if err != nil {
			return nil, err
		}
		m.Methods = append(m.Methods, meth)
	}

	fields, err := r.array(class, "getFields", "()[Ljava/lang/reflect/Field;")
	if err != nil {
		return nil, err
	}
	for _, obj := range fields {
		f, ok, err := r.field(obj, static)
		obj.Delete()
		if err != nil {
			deleteAll(fields)
			return nil, err
		}
		if ok {
			m.Fields = append(m.Fields, f)
		}
	}

	if static {
		return m, nil
	}

	ctors, err := r.array(class, "getConstructors", "()[Ljava/lang/reflect/Constructor;")
	if err != nil {
		return nil, err
	}
	for _, obj := range ctors {
		c, err := r.constructor(obj)
		obj.Delete()
		if err != nil {
			deleteAll(ctors)
			return nil, err
		}
		m.Constructors = append(m.Constructors, c)
	}
	return m, nil
}

func hasToString(ms []*Method) bool {
	for _, m := range ms {
		if m.Name == "toString" && len(m.Params) == 0 && m.Return.Kind() == jtype.String {
			return true
		}
	}
	return false
}

func deleteAll(refs []*jvm.LocalRef) {
	for _, r := range refs {
		r.Delete()
	}
}

type resolver struct {
	env   *jvm.Env
	class *jvm.GlobalRef
}

// array calls a reflective method returning an object array and unpacks it.
// Null elements violate the contract.
func (r *resolver) array(obj jvm.Object, name, sig string) ([]*jvm.LocalRef, error) {
	arr, err := r.env.CallObjectMethod(obj, name, sig)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseResolve, errors.KindClassResolution, err, name)
	}
	if arr.IsNull() {
		return nil, errors.NullContract(name + "()")
	}
	defer arr.Delete()

	n, err := r.env.ArrayLength(arr)
	if err != nil {
		return nil, err
	}
	out := make([]*jvm.LocalRef, 0, n)
	for i := 0; i < n; i++ {
		el, err := r.env.ArrayElement(arr, i)
		if err == nil && el.IsNull() {
			err = errors.NullContract(name + "()[]")
		}
		if err != nil {
			deleteAll(out)
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

func (r *resolver) string(obj jvm.Object, name string) (string, error) {
	s, err := r.env.CallObjectMethod(obj, name, "()Ljava/lang/String;")
	if err != nil {
		return "", err
	}
	if s.IsNull() {
		return "", errors.NullContract(name + "()")
	}
	defer s.Delete()
	return r.env.GoString(s)
}

func (r *resolver) isStatic(obj jvm.Object) (bool, error) {
	res, err := r.env.CallMethod(obj, "getModifiers", "()I")
	if err != nil {
		return false, err
	}
	return res.Int()&modStatic != 0, nil
}

// typeOf converts a Class object into a ManagedType through Class.getName.
func (r *resolver) typeOf(cls jvm.Object) (jtype.Type, error) {
	name, err := r.string(cls, "getName")
	if err != nil {
		return jtype.Type{}, err
	}
	t, err := jtype.FromClassName(name)
	if err != nil {
		return jtype.Type{}, errors.Wrap(errors.PhaseResolve, errors.KindInternalProtocol, err, "class name "+name)
	}
	return t, nil
}

func (r *resolver) classType(obj jvm.Object, getter string) (jtype.Type, error) {
	cls, err := r.env.CallObjectMethod(obj, getter, "()Ljava/lang/Class;")
	if err != nil {
		return jtype.Type{}, err
	}
	if cls.IsNull() {
		return jtype.Type{}, errors.NullContract(getter + "()")
	}
	defer cls.Delete()
	return r.typeOf(cls)
}

func (r *resolver) params(obj jvm.Object) ([]jtype.Type, error) {
	classes, err := r.array(obj, "getParameterTypes", "()[Ljava/lang/Class;")
	if err != nil {
		return nil, err
	}
	defer deleteAll(classes)
	out := make([]jtype.Type, len(classes))
	for i, c := range classes {
		if out[i], err = r.typeOf(c); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *resolver) declaring(obj jvm.Object) (string, error) {
	t, err := r.classType(obj, "getDeclaringClass")
	if err != nil {
		return "", err
	}
	return t.Name(), nil
}

func (r *resolver) method(obj *jvm.LocalRef, static bool) (*Method, bool, error) {
	st, err := r.isStatic(obj)
	if err != nil || st != static {
		return nil, false, err
	}
	name, err := r.string(obj, "getName")
	if err != nil {
		return nil, false, err
	}
	params, err := r.params(obj)
	if err != nil {
		return nil, false, err
	}
	ret, err := r.classType(obj, "getReturnType")
	if err != nil {
		return nil, false, err
	}
	decl, err := r.declaring(obj)
	if err != nil {
		return nil, false, err
	}

	m := &Method{Class: r.class, Name: name, Declaring: decl, Params: params, Return: ret, Static: static}
	if m.ID, err = r.env.MethodID(r.class, name, m.Descriptor(), static); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (r *resolver) objectToString() (*Method, error) {
	obj, err := r.env.FindClass("java/lang/Object")
	if err != nil {
		return nil, err
	}
	defer obj.Delete()

	m := &Method{
		Class:     r.class,
		Name:      "toString",
		Declaring: "java.lang.Object",
		Return:    jtype.Of(jtype.String),
	}
	if m.ID, err = r.env.MethodID(obj, m.Name, m.Descriptor(), false); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *resolver) field(obj *jvm.LocalRef, static bool) (*Field, bool, error) {
	st, err := r.isStatic(obj)
	if err != nil || st != static {
		return nil, false, err
	}
	name, err := r.string(obj, "getName")
	if err != nil {
		return nil, false, err
	}
	typ, err := r.classType(obj, "getType")
	if err != nil {
		return nil, false, err
	}
	decl, err := r.declaring(obj)
	if err != nil {
		return nil, false, err
	}

	f := &Field{Class: r.class, Name: name, Declaring: decl, Type: typ, Static: static}
	if f.ID, err = r.env.FieldID(r.class, name, typ.Descriptor(), static); err != nil {
		return nil, false, err
	}
	return f, true, nil
}

func (r *resolver) constructor(obj *jvm.LocalRef) (*Constructor, error) {
	name, err := r.string(obj, "getName")
	if err != nil {
		return nil, err
	}
	params, err := r.params(obj)
	if err != nil {
		return nil, err
	}
	c := &Constructor{Class: r.class, Name: name, Params: params}
	if c.ID, err = r.env.MethodID(r.class, "<init>", c.Descriptor(), false); err != nil {
		return nil, err
	}
	return c, nil
}
