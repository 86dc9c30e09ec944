package simvm

// Instance declares a public instance method.
func Instance(name, desc string, impl Impl) *Method {
	return &Method{Name: name, Desc: desc, Impl: impl}
}

// Static declares a public static method.
func Static(name, desc string, impl Impl) *Method {
	return &Method{Name: name, Desc: desc, Impl: impl, Static: true}
}

// Ctor declares a public constructor.
func Ctor(desc string, impl Impl) *Method {
	return &Method{Name: "<init>", Desc: desc, Impl: impl}
}

// Abstract declares an abstract or interface method.
func Abstract(name, desc string) *Method {
	return &Method{Name: name, Desc: desc}
}

// Native declares a native method implemented through RegisterNatives.
func Native(name, desc string) *Method {
	return &Method{Name: name, Desc: desc, Native: true}
}

// InstanceField declares a public instance field.
func InstanceField(name, desc string) *Field {
	return &Field{Name: name, Desc: desc}
}

// StaticField declares a public static field with an initial value.
func StaticField(name, desc string, init any) *Field {
	return &Field{Name: name, Desc: desc, Static: true, Init: init}
}

func noop(*Thread, *Object, []any) (any, error) { return nil, nil }
