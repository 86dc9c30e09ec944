package witgen

import (
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/jbridge/jtype"
)

// Mapper maps managed types to WIT types. Classes referenced along the way
// become resources, shared by every type that names them.
type Mapper struct {
	resources map[string]*wit.TypeDef
	order     []string
}

// NewMapper returns an empty mapper.
func NewMapper() *Mapper {
	return &Mapper{resources: make(map[string]*wit.TypeDef)}
}

// Resource returns the resource declared for a class, creating it on first use.
func (m *Mapper) Resource(class string) *wit.TypeDef {
	if td, ok := m.resources[class]; ok {
		return td
	}
	name := Name(class)
	td := &wit.TypeDef{Name: &name, Kind: &wit.Resource{}}
	m.resources[class] = td
	m.order = append(m.order, class)
	return td
}

// Resources returns the classes seen so far, in first-use order.
func (m *Mapper) Resources() []string {
	return append([]string(nil), m.order...)
}

// Result maps t as a returned value. Void maps to nil.
func (m *Mapper) Result(t jtype.Type) wit.Type {
	return m.convert(t, false)
}

// Param maps t as a parameter.
func (m *Mapper) Param(t jtype.Type) wit.Type {
	return m.convert(t, true)
}

func (m *Mapper) convert(t jtype.Type, param bool) wit.Type {
	k := t.Kind()
	switch {
	case k == jtype.Void:
		return nil
	case t.IsPrimitive():
		return primitive(k)
	case k.IsBoxed():
		return option(primitive(k.Base()))
	case t.IsString():
		return option(wit.String{})
	case k == jtype.Array:
		inner, _ := t.Inner()
		if inner.Kind() == jtype.Byte {
			return option(list(wit.U8{}))
		}
		return option(list(m.convert(inner, param)))
	}

	res := m.Resource(t.Name())
	if param {
		return option(&wit.TypeDef{Kind: &wit.Borrow{Type: res}})
	}
	return option(&wit.TypeDef{Kind: &wit.Own{Type: res}})
}

func primitive(k jtype.Kind) wit.Type {
	switch k {
	case jtype.Boolean:
		return wit.Bool{}
	case jtype.Byte:
		return wit.S8{}
	case jtype.Char:
		return wit.Char{}
	case jtype.Short:
		return wit.S16{}
	case jtype.Int:
		return wit.S32{}
	case jtype.Long:
		return wit.S64{}
	case jtype.Float:
		return wit.F32{}
	default:
		return wit.F64{}
	}
}

func option(t wit.Type) wit.Type { return &wit.TypeDef{Kind: &wit.Option{Type: t}} }
func list(t wit.Type) wit.Type   { return &wit.TypeDef{Kind: &wit.List{Type: t}} }

// Render returns the WIT text of t.
func Render(t wit.Type) string {
	switch x := t.(type) {
	case nil:
		return ""
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.S32:
		return "s32"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if x.Name != nil {
			return *x.Name
		}
		return renderKind(x.Kind)
	}
	return "_"
}

func renderKind(k wit.TypeDefKind) string {
	switch x := k.(type) {
	case *wit.Option:
		return "option<" + Render(x.Type) + ">"
	case *wit.List:
		return "list<" + Render(x.Type) + ">"
	case *wit.Own:
		return Render(x.Type)
	case *wit.Borrow:
		return "borrow<" + Render(x.Type) + ">"
	case *wit.Tuple:
		parts := make([]string, len(x.Types))
		for i, t := range x.Types {
			parts[i] = Render(t)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	}
	return "_"
}
