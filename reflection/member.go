package reflection

import (
	"strings"

	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// Method is a resolved public method.
type Method struct {
	Class     *jvm.GlobalRef
	Name      string
	Declaring string
	Params    []jtype.Type
	Return    jtype.Type
	ID        jvm.MethodID
	Static    bool
}

// Signature returns the parameter and return types.
func (m *Method) Signature() jtype.Signature {
	return jtype.Signature{Return: m.Return, Params: m.Params}
}

// Descriptor returns the runtime method descriptor.
func (m *Method) Descriptor() string {
	return m.Signature().Descriptor()
}

// String renders the method as "public [static ]ret name(params)".
func (m *Method) String() string {
	return render(m.Static, m.Signature().Format(m.Name))
}

// Field is a resolved public field.
type Field struct {
	Class     *jvm.GlobalRef
	Name      string
	Declaring string
	Type      jtype.Type
	ID        jvm.FieldID
	Static    bool
}

func (f *Field) String() string {
	return render(f.Static, f.Type.Name()+" "+f.Name)
}

// Constructor is a resolved public constructor.
type Constructor struct {
	Class  *jvm.GlobalRef
	Name   string
	Params []jtype.Type
	ID     jvm.MethodID
}

// Descriptor returns the runtime constructor descriptor.
func (c *Constructor) Descriptor() string {
	return jtype.Signature{Return: jtype.Of(jtype.Void), Params: c.Params}.Descriptor()
}

func (c *Constructor) String() string {
	return render(false, jtype.Signature{Params: c.Params}.Format(c.Name))
}

func render(static bool, body string) string {
	var b strings.Builder
	b.WriteString("public ")
	if static {
		b.WriteString("static ")
	}
	b.WriteString(body)
	return b.String()
}

// Members is the result of ResolveMembers.
type Members struct {
	Methods      []*Method
	Fields       []*Field
	Constructors []*Constructor
}
