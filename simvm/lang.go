package simvm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/wippyai/jbridge/jtype"
)

const invokeDesc = "(Ljava/lang/Object;Ljava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"

func langClasses() []*Class {
	classes := []*Class{
		objectClass(),
		{Name: "java.lang.CharSequence", Interface: true, Methods: []*Method{
			Abstract("length", "()I"),
			Abstract("charAt", "(I)C"),
			Abstract("toString", "()Ljava/lang/String;"),
		}},
		stringClass(),
		classClass(),
		{Name: "java.lang.Number", Abstract: true, Methods: numberMethods()},
		boxClass(jtype.Boolean, "java.lang.Object", "booleanValue"),
		boxClass(jtype.Char, "java.lang.Object", "charValue"),
		boxClass(jtype.Byte, "java.lang.Number", ""),
		boxClass(jtype.Short, "java.lang.Number", ""),
		boxClass(jtype.Int, "java.lang.Number", ""),
		boxClass(jtype.Long, "java.lang.Number", ""),
		boxClass(jtype.Float, "java.lang.Number", ""),
		boxClass(jtype.Double, "java.lang.Number", ""),
		reflectMethodClass("java.lang.reflect.Method", false),
		reflectMethodClass("java.lang.reflect.Constructor", true),
		reflectFieldClass(),
		stackTraceElementClass(),
		throwableClass("java.lang.Throwable", ""),
		threadClass(),
		classLoaderClass(),
		urlClass(),
		urlClassLoaderClass(),
		{Name: "java.lang.Runnable", Interface: true, Methods: []*Method{Abstract("run", "()V")}},
		{Name: "java.lang.reflect.InvocationHandler", Interface: true, Methods: []*Method{Abstract("invoke", invokeDesc)}},
		proxyClass(),
	}
	for _, e := range [][2]string{
		{"java.lang.Exception", "java.lang.Throwable"},
		{"java.lang.Error", "java.lang.Throwable"},
		{"java.lang.RuntimeException", "java.lang.Exception"},
		{"java.lang.ReflectiveOperationException", "java.lang.Exception"},
		{"java.lang.ClassNotFoundException", "java.lang.ReflectiveOperationException"},
		{"java.lang.NoSuchMethodException", "java.lang.ReflectiveOperationException"},
		{"java.lang.IllegalAccessException", "java.lang.ReflectiveOperationException"},
		{"java.lang.InstantiationException", "java.lang.ReflectiveOperationException"},
		{"java.lang.IllegalStateException", "java.lang.RuntimeException"},
		{"java.lang.IllegalArgumentException", "java.lang.RuntimeException"},
		{"java.lang.UnsupportedOperationException", "java.lang.RuntimeException"},
		{"java.lang.NullPointerException", "java.lang.RuntimeException"},
		{"java.lang.ClassCastException", "java.lang.RuntimeException"},
		{"java.lang.ArithmeticException", "java.lang.RuntimeException"},
		{"java.lang.IndexOutOfBoundsException", "java.lang.RuntimeException"},
		{"java.lang.ArrayIndexOutOfBoundsException", "java.lang.IndexOutOfBoundsException"},
		{"java.lang.ArrayStoreException", "java.lang.RuntimeException"},
		{"java.lang.NegativeArraySizeException", "java.lang.RuntimeException"},
		{"java.lang.LinkageError", "java.lang.Error"},
		{"java.lang.NoClassDefFoundError", "java.lang.LinkageError"},
		{"java.lang.UnsatisfiedLinkError", "java.lang.LinkageError"},
		{"java.lang.IncompatibleClassChangeError", "java.lang.LinkageError"},
		{"java.lang.NoSuchMethodError", "java.lang.IncompatibleClassChangeError"},
		{"java.lang.NoSuchFieldError", "java.lang.IncompatibleClassChangeError"},
		{"java.lang.AbstractMethodError", "java.lang.IncompatibleClassChangeError"},
	} {
		classes = append(classes, throwableClass(e[0], e[1]))
	}
	return classes
}

func objectClass() *Class {
	return &Class{Name: "java.lang.Object", Methods: []*Method{
		Ctor("()V", noop),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(fmt.Sprintf("%s@%x", this.class.Name, this.hash)), nil
		}),
		Instance("hashCode", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return this.hash, nil
		}),
		Instance("equals", "(Ljava/lang/Object;)Z", func(_ *Thread, this *Object, args []any) (any, error) {
			return this == asObject(args[0]), nil
		}),
		Instance("getClass", "()Ljava/lang/Class;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return this.class.object(), nil
		}),
	}}
}

func stringClass() *Class {
	str := func(o *Object) string { return o.GoString() }
	return &Class{Name: "java.lang.String", Interfaces: []string{"java.lang.CharSequence"}, Methods: []*Method{
		Instance("toString", "()Ljava/lang/String;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return this, nil
		}),
		Instance("length", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return int32(len(utf16.Encode([]rune(str(this))))), nil
		}),
		Instance("isEmpty", "()Z", func(_ *Thread, this *Object, _ []any) (any, error) {
			return str(this) == "", nil
		}),
		Instance("charAt", "(I)C", func(t *Thread, this *Object, args []any) (any, error) {
			units := utf16.Encode([]rune(str(this)))
			i := args[0].(int32)
			if i < 0 || int(i) >= len(units) {
				return nil, t.Exception("java.lang.IndexOutOfBoundsException", fmt.Sprintf("index %d, length %d", i, len(units)))
			}
			return units[i], nil
		}),
		Instance("concat", "(Ljava/lang/String;)Ljava/lang/String;", func(t *Thread, this *Object, args []any) (any, error) {
			return t.rt.String(str(this) + str(asObject(args[0]))), nil
		}),
		Instance("equals", "(Ljava/lang/Object;)Z", func(_ *Thread, this *Object, args []any) (any, error) {
			o := asObject(args[0])
			return o != nil && o.class == this.class && str(o) == str(this), nil
		}),
		Instance("hashCode", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			var h int32
			for _, u := range utf16.Encode([]rune(str(this))) {
				h = 31*h + int32(u)
			}
			return h, nil
		}),
		Static("valueOf", "(Ljava/lang/Object;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
			o := asObject(args[0])
			if o == nil {
				return t.rt.String("null"), nil
			}
			return t.InvokeByName(o, "toString", "()Ljava/lang/String;")
		}),
	}}
}

func classClass() *Class {
	cls := func(o *Object) *Class { return o.Value().(*Class) }
	classObj := func(c *Class) any {
		if c == nil {
			return (*Object)(nil)
		}
		return c.object()
	}
	return &Class{Name: "java.lang.Class", Methods: []*Method{
		Instance("getName", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(cls(this).Name), nil
		}),
		Instance("getSimpleName", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(cls(this).SimpleName()), nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			c := cls(this)
			switch {
			case c.primitive:
				return t.rt.String(c.Name), nil
			case c.Interface:
				return t.rt.String("interface " + c.Name), nil
			}
			return t.rt.String("class " + c.Name), nil
		}),
		Instance("isArray", "()Z", func(_ *Thread, this *Object, _ []any) (any, error) {
			return cls(this).array, nil
		}),
		Instance("isInterface", "()Z", func(_ *Thread, this *Object, _ []any) (any, error) {
			return cls(this).Interface, nil
		}),
		Instance("isPrimitive", "()Z", func(_ *Thread, this *Object, _ []any) (any, error) {
			return cls(this).primitive, nil
		}),
		Instance("getModifiers", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return cls(this).modifiers(), nil
		}),
		Instance("getSuperclass", "()Ljava/lang/Class;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return classObj(cls(this).super), nil
		}),
		Instance("getComponentType", "()Ljava/lang/Class;", func(t *Thread, this *Object, _ []any) (any, error) {
			c := cls(this)
			if !c.array {
				return (*Object)(nil), nil
			}
			el, err := t.rt.classForType(c.component, c.url)
			if err != nil {
				return nil, t.Exception("java.lang.NoClassDefFoundError", c.component.Name())
			}
			return el.object(), nil
		}),
		Instance("isInstance", "(Ljava/lang/Object;)Z", func(_ *Thread, this *Object, args []any) (any, error) {
			o := asObject(args[0])
			return o != nil && o.class.assignableTo(cls(this)), nil
		}),
		Instance("isAssignableFrom", "(Ljava/lang/Class;)Z", func(t *Thread, this *Object, args []any) (any, error) {
			o := asObject(args[0])
			if o == nil {
				return nil, t.Exception("java.lang.NullPointerException", "class is null")
			}
			return cls(o).assignableTo(cls(this)), nil
		}),
		Instance("getMethods", "()[Ljava/lang/reflect/Method;", func(t *Thread, this *Object, _ []any) (any, error) {
			ms := cls(this).publicMethods()
			els := make([]*Object, len(ms))
			for i, m := range ms {
				els[i] = t.rt.methodObject(m)
			}
			return t.rt.ObjectArray("java.lang.reflect.Method", els), nil
		}),
		Instance("getConstructors", "()[Ljava/lang/reflect/Constructor;", func(t *Thread, this *Object, _ []any) (any, error) {
			ms := cls(this).constructors()
			els := make([]*Object, len(ms))
			for i, m := range ms {
				els[i] = t.rt.methodObject(m)
			}
			return t.rt.ObjectArray("java.lang.reflect.Constructor", els), nil
		}),
		Instance("getFields", "()[Ljava/lang/reflect/Field;", func(t *Thread, this *Object, _ []any) (any, error) {
			fs := cls(this).publicFields()
			els := make([]*Object, len(fs))
			for i, f := range fs {
				els[i] = t.rt.fieldObject(f)
			}
			return t.rt.ObjectArray("java.lang.reflect.Field", els), nil
		}),
	}}
}

func numberMethods() []*Method {
	var ms []*Method
	for _, k := range []jtype.Kind{jtype.Byte, jtype.Short, jtype.Int, jtype.Long, jtype.Float, jtype.Double} {
		k := k
		ms = append(ms, Instance(k.String()+"Value", "()"+jtype.Of(k).Descriptor(), func(t *Thread, this *Object, _ []any) (any, error) {
			return t.unbox(k, this)
		}))
	}
	return ms
}

func boxClass(k jtype.Kind, super, accessor string) *Class {
	prim := jtype.Of(k).Descriptor()
	self := jtype.Of(k.Boxed()).Descriptor()
	methods := []*Method{
		Static("valueOf", "("+prim+")"+self, func(t *Thread, _ *Object, args []any) (any, error) {
			return t.rt.Box(k, args[0]), nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(formatPrimitive(this.Value())), nil
		}),
		Instance("equals", "(Ljava/lang/Object;)Z", func(_ *Thread, this *Object, args []any) (any, error) {
			o := asObject(args[0])
			return o != nil && o.class == this.class && o.Value() == this.Value(), nil
		}),
		Instance("hashCode", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			switch v := this.Value().(type) {
			case bool:
				if v {
					return int32(1231), nil
				}
				return int32(1237), nil
			case int64:
				return int32(v ^ v>>32), nil
			case float64:
				b := math.Float64bits(v)
				return int32(b ^ b>>32), nil
			case float32:
				return int32(math.Float32bits(v)), nil
			default:
				n, _ := convertNumber(v, jtype.Int)
				return n, nil
			}
		}),
	}
	if accessor != "" {
		methods = append(methods, Instance(accessor, "()"+prim, func(_ *Thread, this *Object, _ []any) (any, error) {
			return this.Value(), nil
		}))
	}
	return &Class{Name: k.Boxed().String(), Super: super, Methods: methods}
}

// formatPrimitive renders a primitive the way the managed runtime's
// toString does.
func formatPrimitive(v any) string {
	switch n := v.(type) {
	case bool:
		return strconv.FormatBool(n)
	case uint16:
		return string(utf16.Decode([]uint16{n}))
	case float32:
		return formatFloat(float64(n), 32)
	case float64:
		return formatFloat(n, 64)
	default:
		return fmt.Sprint(n)
	}
}

func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(f, 'f', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func reflectMethodClass(name string, ctor bool) *Class {
	meth := func(o *Object) *Method { return o.Value().(*Method) }
	methods := []*Method{
		Instance("getName", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			m := meth(this)
			if m.Name == "<init>" {
				return t.rt.String(m.class.Name), nil
			}
			return t.rt.String(m.Name), nil
		}),
		Instance("getModifiers", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return meth(this).modifiers(), nil
		}),
		Instance("getDeclaringClass", "()Ljava/lang/Class;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return meth(this).class.object(), nil
		}),
		Instance("getParameterCount", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return int32(len(meth(this).sig.Params)), nil
		}),
		Instance("getParameterTypes", "()[Ljava/lang/Class;", func(t *Thread, this *Object, _ []any) (any, error) {
			m := meth(this)
			els := make([]*Object, len(m.sig.Params))
			for i, p := range m.sig.Params {
				c, err := t.rt.classForType(p, m.class.url)
				if err != nil {
					return nil, t.Exception("java.lang.NoClassDefFoundError", p.Name())
				}
				els[i] = c.object()
			}
			return t.rt.ObjectArray("java.lang.Class", els), nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(meth(this).String()), nil
		}),
	}
	if !ctor {
		methods = append(methods, Instance("getReturnType", "()Ljava/lang/Class;", func(t *Thread, this *Object, _ []any) (any, error) {
			m := meth(this)
			c, err := t.rt.classForType(m.sig.Return, m.class.url)
			if err != nil {
				return nil, t.Exception("java.lang.NoClassDefFoundError", m.sig.Return.Name())
			}
			return c.object(), nil
		}))
	}
	return &Class{Name: name, Methods: methods}
}

func reflectFieldClass() *Class {
	fld := func(o *Object) *Field { return o.Value().(*Field) }
	return &Class{Name: "java.lang.reflect.Field", Methods: []*Method{
		Instance("getName", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(fld(this).Name), nil
		}),
		Instance("getModifiers", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
			return fld(this).modifiers(), nil
		}),
		Instance("getDeclaringClass", "()Ljava/lang/Class;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return fld(this).class.object(), nil
		}),
		Instance("getType", "()Ljava/lang/Class;", func(t *Thread, this *Object, _ []any) (any, error) {
			f := fld(this)
			c, err := t.rt.classForType(f.typ, f.class.url)
			if err != nil {
				return nil, t.Exception("java.lang.NoClassDefFoundError", f.typ.Name())
			}
			return c.object(), nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			f := fld(this)
			s := "public "
			if f.Static {
				s += "static "
			}
			return t.rt.String(s + f.typ.Name() + " " + f.class.Name + "." + f.Name), nil
		}),
	}}
}

func (rt *Runtime) methodObject(m *Method) *Object {
	m.once.Do(func() {
		cls := "java.lang.reflect.Method"
		if m.Name == "<init>" {
			cls = "java.lang.reflect.Constructor"
		}
		m.obj = rt.alloc(rt.mustClass(cls), m)
	})
	return m.obj
}

func (rt *Runtime) fieldObject(f *Field) *Object {
	f.once.Do(func() {
		f.obj = rt.alloc(rt.mustClass("java.lang.reflect.Field"), f)
	})
	return f.obj
}

func stackTraceElementClass() *Class {
	return &Class{Name: "java.lang.StackTraceElement", Methods: []*Method{
		Ctor("(Ljava/lang/String;Ljava/lang/String;Ljava/lang/String;I)V", func(_ *Thread, this *Object, args []any) (any, error) {
			src := "Unknown Source"
			if f := asObject(args[2]); f != nil {
				src = f.GoString()
				if line := args[3].(int32); line >= 0 {
					src += ":" + strconv.Itoa(int(line))
				}
			}
			this.SetValue(asObject(args[0]).GoString() + "." + asObject(args[1]).GoString() + "(" + src + ")")
			return nil, nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			s, _ := this.Value().(string)
			return t.rt.String(s), nil
		}),
	}}
}

// throwableClass declares a throwable with the four standard constructors.
func throwableClass(name, super string) *Class {
	state := func(o *Object) *throwable { return o.Value().(*throwable) }
	c := &Class{Name: name, Super: super, Methods: []*Method{
		Ctor("()V", noop),
		Ctor("(Ljava/lang/String;)V", func(_ *Thread, this *Object, args []any) (any, error) {
			th := state(this)
			if m := asObject(args[0]); m != nil {
				th.message, th.hasMessage = m.GoString(), true
			}
			return nil, nil
		}),
		Ctor("(Ljava/lang/String;Ljava/lang/Throwable;)V", func(_ *Thread, this *Object, args []any) (any, error) {
			th := state(this)
			if m := asObject(args[0]); m != nil {
				th.message, th.hasMessage = m.GoString(), true
			}
			th.cause = asObject(args[1])
			return nil, nil
		}),
		Ctor("(Ljava/lang/Throwable;)V", func(t *Thread, this *Object, args []any) (any, error) {
			th := state(this)
			if cause := asObject(args[0]); cause != nil {
				s, err := t.InvokeByName(cause, "toString", "()Ljava/lang/String;")
				if err != nil {
					return nil, err
				}
				th.message, th.hasMessage = asObject(s).GoString(), true
				th.cause = cause
			}
			return nil, nil
		}),
	}}
	if super != "" {
		return c
	}
	c.Methods = append(c.Methods,
		Instance("getMessage", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			th := state(this)
			if !th.hasMessage {
				return (*Object)(nil), nil
			}
			return t.rt.String(th.message), nil
		}),
		Instance("getCause", "()Ljava/lang/Throwable;", func(_ *Thread, this *Object, _ []any) (any, error) {
			if cause := state(this).cause; cause != this {
				return cause, nil
			}
			return (*Object)(nil), nil
		}),
		Instance("initCause", "(Ljava/lang/Throwable;)Ljava/lang/Throwable;", func(t *Thread, this *Object, args []any) (any, error) {
			cause := asObject(args[0])
			if cause == this {
				return nil, t.Exception("java.lang.IllegalArgumentException", "Self-causation not permitted")
			}
			state(this).cause = cause
			return this, nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String((&Thrown{Obj: this}).Error()), nil
		}),
		Instance("getStackTrace", "()[Ljava/lang/StackTraceElement;", func(t *Thread, this *Object, _ []any) (any, error) {
			frames := state(this).frames
			els := make([]*Object, len(frames))
			for i, f := range frames {
				els[i] = t.rt.alloc(t.rt.mustClass("java.lang.StackTraceElement"), f)
			}
			return t.rt.ObjectArray("java.lang.StackTraceElement", els), nil
		}),
		Instance("setStackTrace", "([Ljava/lang/StackTraceElement;)V", func(_ *Thread, this *Object, args []any) (any, error) {
			arr := asObject(args[0])
			var frames []string
			for _, el := range arr.Elements() {
				s, _ := el.Value().(string)
				frames = append(frames, s)
			}
			state(this).frames = frames
			return nil, nil
		}),
	)
	return c
}

func threadClass() *Class {
	state := func(o *Object) *threadState { return o.Value().(*threadState) }
	return &Class{Name: "java.lang.Thread", Methods: []*Method{
		Static("currentThread", "()Ljava/lang/Thread;", func(t *Thread, _ *Object, _ []any) (any, error) {
			return t.threadObject(), nil
		}),
		Instance("getName", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			return t.rt.String(state(this).name), nil
		}),
		Instance("getContextClassLoader", "()Ljava/lang/ClassLoader;", func(_ *Thread, this *Object, _ []any) (any, error) {
			this.mu.Lock()
			defer this.mu.Unlock()
			return this.value.(*threadState).contextLoader, nil
		}),
		Instance("setContextClassLoader", "(Ljava/lang/ClassLoader;)V", func(_ *Thread, this *Object, args []any) (any, error) {
			loader := asObject(args[0])
			this.mu.Lock()
			this.value.(*threadState).contextLoader = loader
			this.mu.Unlock()
			return nil, nil
		}),
	}}
}

func (t *Thread) threadObject() *Object {
	if t.obj == nil {
		t.obj = t.rt.alloc(t.rt.mustClass("java.lang.Thread"), &threadState{
			name:          fmt.Sprintf("Thread-%d", t.id),
			contextLoader: t.rt.systemLoader,
		})
	}
	return t.obj
}

// ContextClassLoader returns the thread's context class loader.
func (t *Thread) ContextClassLoader() *Object {
	o := t.threadObject()
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value.(*threadState).contextLoader
}

func classLoaderClass() *Class {
	return &Class{Name: "java.lang.ClassLoader", Methods: []*Method{
		Static("getSystemClassLoader", "()Ljava/lang/ClassLoader;", func(t *Thread, _ *Object, _ []any) (any, error) {
			return t.rt.systemLoader, nil
		}),
		Instance("loadClass", "(Ljava/lang/String;)Ljava/lang/Class;", func(t *Thread, this *Object, args []any) (any, error) {
			name := asObject(args[0])
			if name == nil {
				return nil, t.Exception("java.lang.NullPointerException", "class name is null")
			}
			c, err := t.rt.lookupClass(name.GoString(), loaderPath(this))
			if err != nil {
				return nil, t.Exception("java.lang.ClassNotFoundException", name.GoString())
			}
			return c.object(), nil
		}),
		Instance("getParent", "()Ljava/lang/ClassLoader;", func(_ *Thread, this *Object, _ []any) (any, error) {
			return this.Value().(*loaderState).parent, nil
		}),
	}}
}

// loaderPath collects the search path of a loader and its ancestors,
// parents first.
func loaderPath(loader *Object) []string {
	var chain []*loaderState
	for l := loader; l != nil; {
		st := l.Value().(*loaderState)
		chain = append(chain, st)
		l = st.parent
	}
	var urls []string
	for i := len(chain) - 1; i >= 0; i-- {
		urls = append(urls, chain[i].urls...)
	}
	return urls
}

func urlClass() *Class {
	return &Class{Name: "java.net.URL", Methods: []*Method{
		Ctor("(Ljava/lang/String;)V", func(t *Thread, this *Object, args []any) (any, error) {
			spec := asObject(args[0])
			if spec == nil || !strings.Contains(spec.GoString(), ":") {
				return nil, t.Exception("java.lang.IllegalArgumentException", "no protocol: "+spec.GoString())
			}
			this.SetValue(spec.GoString())
			return nil, nil
		}),
		Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
			s, _ := this.Value().(string)
			return t.rt.String(s), nil
		}),
	}}
}

func urlClassLoaderClass() *Class {
	return &Class{Name: "java.net.URLClassLoader", Super: "java.lang.ClassLoader", Methods: []*Method{
		Ctor("([Ljava/net/URL;Ljava/lang/ClassLoader;)V", func(t *Thread, this *Object, args []any) (any, error) {
			st := &loaderState{parent: asObject(args[1])}
			for _, u := range asObject(args[0]).Elements() {
				if u == nil {
					return nil, t.Exception("java.lang.NullPointerException", "url is null")
				}
				s, _ := u.Value().(string)
				st.urls = append(st.urls, s)
			}
			this.SetValue(st)
			return nil, nil
		}),
		Instance("getURLs", "()[Ljava/net/URL;", func(t *Thread, this *Object, _ []any) (any, error) {
			st := this.Value().(*loaderState)
			els := make([]*Object, len(st.urls))
			for i, u := range st.urls {
				els[i] = t.rt.alloc(t.rt.mustClass("java.net.URL"), u)
			}
			return t.rt.ObjectArray("java.net.URL", els), nil
		}),
	}}
}

func proxyClass() *Class {
	return &Class{Name: "java.lang.reflect.Proxy", Methods: []*Method{
		Static("newProxyInstance",
			"(Ljava/lang/ClassLoader;[Ljava/lang/Class;Ljava/lang/reflect/InvocationHandler;)Ljava/lang/Object;",
			func(t *Thread, _ *Object, args []any) (any, error) {
				h := asObject(args[2])
				if h == nil {
					return nil, t.Exception("java.lang.NullPointerException", "invocation handler is null")
				}
				var ifaces []*Class
				for _, c := range asObject(args[1]).Elements() {
					k := c.Value().(*Class)
					if !k.Interface {
						return nil, t.Exception("java.lang.IllegalArgumentException", k.Name+" is not an interface")
					}
					ifaces = append(ifaces, k)
				}
				pc, err := t.rt.proxyClass(ifaces)
				if err != nil {
					return nil, t.Exception("java.lang.IllegalArgumentException", err.Error())
				}
				return t.rt.alloc(pc, h), nil
			}),
		Static("isProxyClass", "(Ljava/lang/Class;)Z", func(t *Thread, _ *Object, args []any) (any, error) {
			c := asObject(args[0]).Value().(*Class)
			return c.super != nil && c.super.Name == "java.lang.reflect.Proxy", nil
		}),
		Static("getInvocationHandler", "(Ljava/lang/Object;)Ljava/lang/reflect/InvocationHandler;", func(t *Thread, _ *Object, args []any) (any, error) {
			o := asObject(args[0])
			if o == nil || o.class.super == nil || o.class.super.Name != "java.lang.reflect.Proxy" {
				return nil, t.Exception("java.lang.IllegalArgumentException", "not a proxy instance")
			}
			return o.Value(), nil
		}),
	}}
}

// proxyClass returns the generated class implementing ifaces. Every
// interface method and the Object methods equals, hashCode and toString
// forward to the instance's invocation handler.
func (rt *Runtime) proxyClass(ifaces []*Class) (*Class, error) {
	names := make([]string, len(ifaces))
	url := ""
	for i, c := range ifaces {
		names[i] = c.Name
		if c.url != "" {
			url = c.url
		}
	}
	key := strings.Join(names, ",")

	rt.mu.RLock()
	pc, ok := rt.proxies[key]
	rt.mu.RUnlock()
	if ok {
		return pc, nil
	}

	obj := rt.mustClass("java.lang.Object")
	var methods []*Method
	seen := map[string]bool{}
	add := func(m *Method) {
		if k := m.Name + m.Desc; !seen[k] {
			seen[k] = true
			methods = append(methods, &Method{Name: m.Name, Desc: m.Desc, Impl: forwardToHandler(m)})
		}
	}
	for _, n := range [][2]string{
		{"equals", "(Ljava/lang/Object;)Z"},
		{"hashCode", "()I"},
		{"toString", "()Ljava/lang/String;"},
	} {
		add(obj.findMethod(n[0], n[1], false))
	}
	for _, c := range ifaces {
		for _, m := range c.publicMethods() {
			if !m.Static {
				add(m)
			}
		}
	}

	pc = &Class{
		Name:       fmt.Sprintf("jdk.proxy.$Proxy%d", rt.nextProxy.Add(1)),
		Super:      "java.lang.reflect.Proxy",
		Interfaces: names,
		Methods:    methods,
	}
	if err := rt.define(url, []*Class{pc}); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if existing, ok := rt.proxies[key]; ok {
		return existing, nil
	}
	rt.proxies[key] = pc
	return pc, nil
}

func forwardToHandler(im *Method) Impl {
	return func(t *Thread, this *Object, args []any) (any, error) {
		h := asObject(this.Value())
		var arr *Object
		if len(args) > 0 {
			els := make([]*Object, len(args))
			for i, p := range im.sig.Params {
				els[i] = t.rt.boxValue(p.Kind(), args[i])
			}
			arr = t.rt.ObjectArray("java.lang.Object", els)
		}
		res, err := t.InvokeByName(h, "invoke", invokeDesc, this, t.rt.methodObject(im), arr)
		if err != nil {
			return nil, err
		}
		switch k := im.sig.Return.Kind(); {
		case k == jtype.Void:
			return nil, nil
		case k.IsPrimitive():
			return t.unbox(k, res)
		}
		return res, nil
	}
}
