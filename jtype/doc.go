// Package jtype describes managed value kinds.
//
// A Type is built from a dotted class name ("java.lang.String", "int[]"),
// a field descriptor ("Ljava/lang/String;", "[I") or the name reported by
// Class.getName ("[Ljava.lang.String;"). All three resolve to the same
// canonical dotted form:
//
//	a := jtype.Parse("int[]")
//	b, _ := jtype.FromDescriptor("[I")
//	a.Equal(b) // true
//
// Signature pairs parameter types with a return type and converts between
// method descriptors and the "ret name(p1, p2)" display form.
package jtype
