package simvm

import (
	"strings"
	"sync"

	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// Reflection modifier bits.
const (
	ModPublic    = 0x0001
	ModPrivate   = 0x0002
	ModStatic    = 0x0008
	ModNative    = 0x0100
	ModInterface = 0x0200
	ModAbstract  = 0x0400
)

// Impl implements a managed method in Go. Arguments and the return value use
// Go values per declared kind: bool, int8, uint16, int16, int32, int64,
// float32 and float64 for primitives, *Object for references. A returned
// error becomes a thrown exception; use Thread.Exception to raise a specific class.
type Impl func(t *Thread, this *Object, args []any) (any, error)

// Method declares a method or, with Name "<init>", a constructor.
type Method struct {
	Impl    Impl
	Name    string
	Desc    string
	Static  bool
	Native  bool
	Private bool

	class *Class
	sig   jtype.Signature
	id    jvm.MethodID
	once  sync.Once
	obj   *Object
}

// Field declares a field. Init is the initial value of a static field.
type Field struct {
	Init    any
	Name    string
	Desc    string
	Static  bool
	Private bool

	class *Class
	typ   jtype.Type
	id    jvm.FieldID
	once  sync.Once
	obj   *Object
}

// Class declares a managed class. Super and Interfaces are dotted names
// resolved when the class is defined; an empty Super means java.lang.Object.
type Class struct {
	Name       string
	Super      string
	Interfaces []string
	Methods    []*Method
	Fields     []*Field
	Interface  bool
	Abstract   bool

	rt        *Runtime
	super     *Class
	ifaces    []*Class
	url       string
	component jtype.Type
	array     bool
	primitive bool
	typ       jtype.Type

	mu      sync.Mutex
	natives map[string]jvm.NativeFunc
	statics map[*Field]any
	objOnce sync.Once
	obj     *Object
}

func (c *Class) modifiers() int32 {
	mod := int32(ModPublic)
	if c.Interface {
		mod |= ModInterface | ModAbstract
	} else if c.Abstract {
		mod |= ModAbstract
	}
	return mod
}

// SimpleName returns the name without its package.
func (c *Class) SimpleName() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[i+1:]
	}
	return c.Name
}

// object returns the java.lang.Class instance for c.
func (c *Class) object() *Object {
	c.objOnce.Do(func() {
		c.obj = c.rt.alloc(c.rt.mustClass("java.lang.Class"), c)
	})
	return c.obj
}

// findMethod looks name and desc up through the class hierarchy.
func (c *Class) findMethod(name, desc string, static bool) *Method {
	if name == "<init>" {
		for _, m := range c.Methods {
			if m.Name == name && m.Desc == desc {
				return m
			}
		}
		return nil
	}
	seen := map[*Class]bool{}
	var walk func(k *Class) *Method
	walk = func(k *Class) *Method {
		if k == nil || seen[k] {
			return nil
		}
		seen[k] = true
		for _, m := range k.Methods {
			if m.Name == name && m.Desc == desc && m.Static == static {
				return m
			}
		}
		if m := walk(k.super); m != nil {
			return m
		}
		for _, i := range k.ifaces {
			if m := walk(i); m != nil {
				return m
			}
		}
		return nil
	}
	return walk(c)
}

// dispatch selects the implementation of m for an instance of c.
func (c *Class) dispatch(m *Method) *Method {
	for k := c; k != nil; k = k.super {
		for _, cand := range k.Methods {
			if cand.Name == m.Name && cand.Desc == m.Desc && !cand.Static && (cand.Impl != nil || cand.Native) {
				return cand
			}
		}
	}
	return m
}

func (c *Class) findField(name, desc string, static bool) *Field {
	for k := c; k != nil; k = k.super {
		for _, f := range k.Fields {
			if f.Name == name && f.Desc == desc && f.Static == static {
				return f
			}
		}
		for _, i := range k.ifaces {
			if f := i.findField(name, desc, static); f != nil {
				return f
			}
		}
	}
	return nil
}

// publicMethods lists public non-constructor methods, inherited ones
// included. Overrides hide the methods they override.
func (c *Class) publicMethods() []*Method {
	var out []*Method
	seen := map[string]bool{}
	visited := map[*Class]bool{}
	var walk func(k *Class)
	walk = func(k *Class) {
		if k == nil || visited[k] {
			return
		}
		visited[k] = true
		for _, m := range k.Methods {
			key := m.Name + m.Desc
			if m.Private || m.Name == "<init>" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, m)
		}
		walk(k.super)
		for _, i := range k.ifaces {
			walk(i)
		}
	}
	walk(c)
	return out
}

func (c *Class) publicFields() []*Field {
	var out []*Field
	visited := map[*Class]bool{}
	var walk func(k *Class)
	walk = func(k *Class) {
		if k == nil || visited[k] {
			return
		}
		visited[k] = true
		for _, f := range k.Fields {
			if !f.Private {
				out = append(out, f)
			}
		}
		for _, i := range k.ifaces {
			walk(i)
		}
		walk(k.super)
	}
	walk(c)
	return out
}

func (c *Class) constructors() []*Method {
	var out []*Method
	for _, m := range c.Methods {
		if m.Name == "<init>" && !m.Private {
			out = append(out, m)
		}
	}
	return out
}

// assignableTo reports whether values of c may be stored where to is expected.
func (c *Class) assignableTo(to *Class) bool {
	if c == to {
		return true
	}
	if c.primitive || to.primitive {
		return false
	}
	if to.Name == "java.lang.Object" {
		return true
	}
	if c.array {
		if !to.array {
			return false
		}
		if c.component.IsPrimitive() || to.component.IsPrimitive() {
			return c.component.Equal(to.component)
		}
		from, err1 := c.rt.classForType(c.component, c.url)
		dst, err2 := c.rt.classForType(to.component, to.url)
		return err1 == nil && err2 == nil && from.assignableTo(dst)
	}
	if c.super != nil && c.super.assignableTo(to) {
		return true
	}
	for _, i := range c.ifaces {
		if i.assignableTo(to) {
			return true
		}
	}
	return false
}

func (c *Class) native(key string) jvm.NativeFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.natives[key]
}

func (c *Class) staticValue(f *Field) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.statics[f]; ok {
		return v
	}
	return zeroValue(f.typ)
}

func (c *Class) setStatic(f *Field, v any) {
	c.mu.Lock()
	c.statics[f] = v
	c.mu.Unlock()
}

func (m *Method) modifiers() int32 {
	mod := int32(ModPublic)
	if m.Private {
		mod = ModPrivate
	}
	if m.Static {
		mod |= ModStatic
	}
	if m.Native {
		mod |= ModNative
	}
	if m.Impl == nil && !m.Native && m.Name != "<init>" {
		mod |= ModAbstract
	}
	return mod
}

// Class returns the declaring class.
func (m *Method) Class() *Class { return m.class }

// Signature returns the parsed descriptor.
func (m *Method) Signature() jtype.Signature { return m.sig }

func (m *Method) frame() string {
	src := m.class.SimpleName() + ".java"
	if m.Native {
		src = "Native Method"
	}
	return m.class.Name + "." + m.Name + "(" + src + ")"
}

func (m *Method) String() string {
	var b strings.Builder
	b.WriteString("public ")
	if m.Static {
		b.WriteString("static ")
	}
	if m.Name == "<init>" {
		b.WriteString(m.class.Name)
	} else {
		b.WriteString(m.sig.Return.Name())
		b.WriteByte(' ')
		b.WriteString(m.class.Name)
		b.WriteByte('.')
		b.WriteString(m.Name)
	}
	b.WriteByte('(')
	for i, p := range m.sig.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Name())
	}
	b.WriteByte(')')
	return b.String()
}

func (f *Field) modifiers() int32 {
	mod := int32(ModPublic)
	if f.Private {
		mod = ModPrivate
	}
	if f.Static {
		mod |= ModStatic
	}
	return mod
}

func zeroValue(t jtype.Type) any {
	switch t.Kind() {
	case jtype.Boolean:
		return false
	case jtype.Byte:
		return int8(0)
	case jtype.Char:
		return uint16(0)
	case jtype.Short:
		return int16(0)
	case jtype.Int:
		return int32(0)
	case jtype.Long:
		return int64(0)
	case jtype.Float:
		return float32(0)
	case jtype.Double:
		return float64(0)
	}
	return (*Object)(nil)
}
