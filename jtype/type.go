package jtype

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

// Kind is the declared kind of a managed value.
type Kind uint8

const (
	Void Kind = iota
	Boolean
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	BoxedBoolean
	BoxedByte
	BoxedChar
	BoxedShort
	BoxedInt
	BoxedLong
	BoxedFloat
	BoxedDouble
	String
	CharSequence
	LangObject
	Object
	Array
)

var kindNames = [...]string{
	Void:         "void",
	Boolean:      "boolean",
	Byte:         "byte",
	Char:         "char",
	Short:        "short",
	Int:          "int",
	Long:         "long",
	Float:        "float",
	Double:       "double",
	BoxedBoolean: "java.lang.Boolean",
	BoxedByte:    "java.lang.Byte",
	BoxedChar:    "java.lang.Character",
	BoxedShort:   "java.lang.Short",
	BoxedInt:     "java.lang.Integer",
	BoxedLong:    "java.lang.Long",
	BoxedFloat:   "java.lang.Float",
	BoxedDouble:  "java.lang.Double",
	String:       "java.lang.String",
	CharSequence: "java.lang.CharSequence",
	LangObject:   "java.lang.Object",
	Object:       "object",
	Array:        "array",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// IsPrimitive reports whether k is void or one of the eight primitive kinds.
func (k Kind) IsPrimitive() bool {
	return k <= Double
}

// IsBoxed reports whether k is a primitive wrapper class.
func (k Kind) IsBoxed() bool {
	return k >= BoxedBoolean && k <= BoxedDouble
}

// IsReference reports whether values of k are object references.
func (k Kind) IsReference() bool {
	return k > Double
}

// Base maps a wrapper kind to its primitive kind. Other kinds map to themselves.
func (k Kind) Base() Kind {
	if k.IsBoxed() {
		return k - BoxedBoolean + Boolean
	}
	return k
}

// Boxed maps a primitive kind to its wrapper kind. Other kinds map to themselves.
func (k Kind) Boxed() Kind {
	if k >= Boolean && k <= Double {
		return k - Boolean + BoxedBoolean
	}
	return k
}

// Type is the canonical description of a managed value's declared kind.
// Types are immutable and compare cheaply through a cached signature hash.
type Type struct {
	inner *Type
	name  string
	hash  uint64
	kind  Kind
}

var namedKinds = map[string]Kind{}

func init() {
	for k := Void; k <= LangObject; k++ {
		namedKinds[kindNames[k]] = k
	}
}

func newType(kind Kind, name string, inner *Type) Type {
	return Type{kind: kind, name: name, inner: inner, hash: xxh3.HashString(name)}
}

// Of returns the type for a kind that needs no class name.
// Object and Array require a name or inner type; use Parse or ArrayOf.
func Of(k Kind) Type {
	if k == Object || k == Array {
		panic("jtype: Of called with " + k.String())
	}
	return newType(k, kindNames[k], nil)
}

// ArrayOf returns the array type with the given element type.
func ArrayOf(inner Type) Type {
	in := inner
	return newType(Array, inner.name+"[]", &in)
}

// Parse builds a type from a canonical dotted name such as "int",
// "java.lang.String" or "int[][]". Internal names with slashes and
// Class.getName array forms are accepted too.
func Parse(name string) Type {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "[") {
		if t, err := FromClassName(name); err == nil {
			return t
		}
	}
	if strings.HasSuffix(name, "[]") {
		return ArrayOf(Parse(strings.TrimSuffix(name, "[]")))
	}
	name = strings.ReplaceAll(name, "/", ".")
	if k, ok := namedKinds[name]; ok {
		return newType(k, name, nil)
	}
	return newType(Object, name, nil)
}

// FromClassName parses the form returned by Class.getName: dotted names for
// plain classes and descriptor-like names ("[I", "[Ljava.lang.String;") for arrays.
func FromClassName(name string) (Type, error) {
	if strings.HasPrefix(name, "[") {
		return FromDescriptor(strings.ReplaceAll(name, ".", "/"))
	}
	if name == "" {
		return Type{}, fmt.Errorf("empty class name")
	}
	return Parse(name), nil
}

// FromDescriptor parses a single field descriptor such as "I",
// "Ljava/lang/String;" or "[[D".
func FromDescriptor(desc string) (Type, error) {
	t, n, err := parseDescriptor(desc, 0)
	if err != nil {
		return Type{}, err
	}
	if n != len(desc) {
		return Type{}, fmt.Errorf("trailing data in descriptor %q", desc)
	}
	return t, nil
}

func parseDescriptor(s string, i int) (Type, int, error) {
	if i >= len(s) {
		return Type{}, i, fmt.Errorf("unexpected end of descriptor %q", s)
	}
	var k Kind
	switch s[i] {
	case 'V':
		k = Void
	case 'Z':
		k = Boolean
	case 'B':
		k = Byte
	case 'C':
		k = Char
	case 'S':
		k = Short
	case 'I':
		k = Int
	case 'J':
		k = Long
	case 'F':
		k = Float
	case 'D':
		k = Double
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return Type{}, i, fmt.Errorf("unterminated class descriptor in %q", s)
		}
		return Parse(s[i+1 : i+end]), i + end + 1, nil
	case '[':
		inner, n, err := parseDescriptor(s, i+1)
		if err != nil {
			return Type{}, n, err
		}
		if inner.kind == Void {
			return Type{}, n, fmt.Errorf("array of void in %q", s)
		}
		return ArrayOf(inner), n, nil
	default:
		return Type{}, i, fmt.Errorf("invalid descriptor character %q in %q", s[i], s)
	}
	return Of(k), i + 1, nil
}

// Kind returns the type's kind.
func (t Type) Kind() Kind { return t.kind }

// Name returns the canonical dotted name.
func (t Type) Name() string { return t.name }

func (t Type) String() string { return t.name }

// Hash returns the cached signature hash.
func (t Type) Hash() uint64 { return t.hash }

// Equal reports whether two types describe the same signature.
func (t Type) Equal(o Type) bool {
	return t.hash == o.hash && t.name == o.name
}

// IsZero reports whether t was never initialized.
func (t Type) IsZero() bool { return t.name == "" }

// Inner returns the element type of an array.
func (t Type) Inner() (Type, bool) {
	if t.kind != Array {
		return Type{}, false
	}
	return *t.inner, true
}

func (t Type) IsPrimitive() bool { return t.kind.IsPrimitive() }
func (t Type) IsArray() bool     { return t.kind == Array }
func (t Type) IsVoid() bool      { return t.kind == Void }
func (t Type) IsBoolean() bool   { return t.kind.Base() == Boolean }
func (t Type) IsByte() bool      { return t.kind.Base() == Byte }
func (t Type) IsChar() bool      { return t.kind.Base() == Char }
func (t Type) IsShort() bool     { return t.kind.Base() == Short }
func (t Type) IsInt() bool       { return t.kind.Base() == Int }
func (t Type) IsLong() bool      { return t.kind.Base() == Long }
func (t Type) IsFloat() bool     { return t.kind.Base() == Float }
func (t Type) IsDouble() bool    { return t.kind.Base() == Double }

// IsString reports whether t is java.lang.String or java.lang.CharSequence.
func (t Type) IsString() bool { return t.kind == String || t.kind == CharSequence }

// IsByteArray reports whether t is byte[] or Byte[].
func (t Type) IsByteArray() bool {
	return t.kind == Array && t.inner.IsByte()
}

// Boxed returns the wrapper type for a primitive type, or t itself.
func (t Type) Boxed() Type {
	if t.kind >= Boolean && t.kind <= Double {
		return Of(t.kind.Boxed())
	}
	return t
}

// Descriptor returns the field descriptor, e.g. "I" or "[Ljava/lang/String;".
func (t Type) Descriptor() string {
	switch t.kind {
	case Void:
		return "V"
	case Boolean:
		return "Z"
	case Byte:
		return "B"
	case Char:
		return "C"
	case Short:
		return "S"
	case Int:
		return "I"
	case Long:
		return "J"
	case Float:
		return "F"
	case Double:
		return "D"
	case Array:
		return "[" + t.inner.Descriptor()
	default:
		return "L" + strings.ReplaceAll(t.name, ".", "/") + ";"
	}
}

// ClassName returns the name under which the type's class is looked up:
// primitives map to their wrapper class, arrays to their descriptor form.
func (t Type) ClassName() string {
	switch {
	case t.kind == Array:
		return strings.ReplaceAll(t.Descriptor(), "/", ".")
	case t.kind >= Boolean && t.kind <= Double:
		return t.kind.Boxed().String()
	default:
		return t.name
	}
}

// InternalName returns the slash-separated name accepted by FindClass.
func (t Type) InternalName() string {
	if t.kind == Array {
		return t.Descriptor()
	}
	return strings.ReplaceAll(t.ClassName(), ".", "/")
}
