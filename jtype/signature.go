package jtype

import (
	"fmt"
	"strings"
)

// Signature describes a method's parameter and return types.
type Signature struct {
	Return Type
	Params []Type
}

// NewSignature builds a signature from dotted type names.
func NewSignature(ret string, params ...string) Signature {
	sig := Signature{Return: Parse(ret), Params: make([]Type, len(params))}
	for i, p := range params {
		sig.Params[i] = Parse(p)
	}
	return sig
}

// ParseSignature parses a method descriptor such as "(ILjava/lang/String;)V".
func ParseSignature(desc string) (Signature, error) {
	if !strings.HasPrefix(desc, "(") {
		return Signature{}, fmt.Errorf("method descriptor %q must start with '('", desc)
	}
	var sig Signature
	i := 1
	for {
		if i >= len(desc) {
			return Signature{}, fmt.Errorf("unterminated parameter list in %q", desc)
		}
		if desc[i] == ')' {
			i++
			break
		}
		t, n, err := parseDescriptor(desc, i)
		if err != nil {
			return Signature{}, err
		}
		if t.kind == Void {
			return Signature{}, fmt.Errorf("void parameter in %q", desc)
		}
		sig.Params = append(sig.Params, t)
		i = n
	}
	ret, n, err := parseDescriptor(desc, i)
	if err != nil {
		return Signature{}, err
	}
	if n != len(desc) {
		return Signature{}, fmt.Errorf("trailing data in method descriptor %q", desc)
	}
	sig.Return = ret
	return sig, nil
}

// MustParseSignature is ParseSignature for descriptors known at compile time.
func MustParseSignature(desc string) Signature {
	sig, err := ParseSignature(desc)
	if err != nil {
		panic(err)
	}
	return sig
}

// Descriptor returns the method descriptor.
func (s Signature) Descriptor() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range s.Params {
		b.WriteString(p.Descriptor())
	}
	b.WriteByte(')')
	if s.Return.IsZero() {
		b.WriteByte('V')
	} else {
		b.WriteString(s.Return.Descriptor())
	}
	return b.String()
}

// Format renders the signature as "ret name(p1, p2)".
func (s Signature) Format(name string) string {
	var b strings.Builder
	if !s.Return.IsZero() {
		b.WriteString(s.Return.Name())
		b.WriteByte(' ')
	}
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name())
	}
	b.WriteByte(')')
	return b.String()
}

// Equal reports whether both signatures have the same parameters and return type.
func (s Signature) Equal(o Signature) bool {
	if len(s.Params) != len(o.Params) || !s.Return.Equal(o.Return) {
		return false
	}
	for i := range s.Params {
		if !s.Params[i].Equal(o.Params[i]) {
			return false
		}
	}
	return true
}
