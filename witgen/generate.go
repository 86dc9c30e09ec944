package witgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/reflection"
)

// DefaultPackage names the generated package when none is given.
const DefaultPackage = "jbridge:classes"

// Generate renders one interface per descriptor under package pkg.
func Generate(pkg string, descs ...*reflection.ClassDescriptor) string {
	if pkg == "" {
		pkg = DefaultPackage
	}
	var b strings.Builder
	fmt.Fprintf(&b, "package %s;\n", pkg)
	for _, d := range descs {
		b.WriteByte('\n')
		b.WriteString(Interface(d))
	}
	return b.String()
}

type writer struct {
	b     strings.Builder
	m     *Mapper
	d     *reflection.ClassDescriptor
	self  string
	taken names
}

// Interface renders the interface for one class.
func Interface(d *reflection.ClassDescriptor) string {
	w := &writer{m: NewMapper(), d: d, taken: names{}}
	w.self = Name(d.Name)
	w.m.Resource(d.Name)

	w.constructors()
	w.methods(d.StaticMethodNames(), d.StaticMethods, true)
	w.methods(d.MethodNames(), d.Methods, false)
	w.fields(d.StaticFieldNames(), d.StaticFields, true)
	w.fields(d.FieldNames(), d.Fields, false)
	members := w.b.String()

	var out strings.Builder
	fmt.Fprintf(&out, "/// Bridged from %s.\n", d.Name)
	fmt.Fprintf(&out, "interface %s {\n", w.self)
	for _, c := range w.m.Resources() {
		if c != d.Name {
			fmt.Fprintf(&out, "  resource %s;\n", Name(c))
		}
	}
	fmt.Fprintf(&out, "  resource %s {\n", w.self)
	out.WriteString(members)
	out.WriteString("  }\n}\n")
	return out.String()
}

func (w *writer) line(name, static, async string, params []jtype.Type, result string) {
	ps := make([]string, len(params))
	for i, p := range params {
		ps[i] = fmt.Sprintf("arg%d: %s", i, Render(w.m.Param(p)))
	}
	fmt.Fprintf(&w.b, "    %s: %s%sfunc(%s)", w.taken.take(name), static, async, strings.Join(ps, ", "))
	if result != "" {
		w.b.WriteString(" -> " + result)
	}
	w.b.WriteString(";\n")
}

func (w *writer) constructors() {
	for _, c := range w.d.Constructors {
		w.line("new", "static ", "", c.Params, w.self)
	}
}

func (w *writer) methods(order []string, byName map[string][]*reflection.Method, static bool) {
	prefix := ""
	if static {
		prefix = "static "
	}
	for _, name := range order {
		sync, async := w.d.AccessorNames(name)
		for _, m := range byName[name] {
			ret := Render(w.m.Result(m.Return))
			w.line(Name(sync), prefix, "", m.Params, ret)
			w.line(Name(async), prefix, "async ", m.Params, ret)
		}
	}
}

func (w *writer) fields(order []string, byName map[string]*reflection.Field, static bool) {
	prefix := ""
	if static {
		prefix = "static "
	}
	for _, name := range order {
		f := byName[name]
		w.line("get-"+strings.TrimPrefix(Name(name), "%"), prefix, "", nil, Render(w.m.Result(f.Type)))
		w.line("set-"+strings.TrimPrefix(Name(name), "%"), prefix, "", []jtype.Type{f.Type}, "")
	}
}
