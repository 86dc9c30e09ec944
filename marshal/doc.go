// Package marshal converts values between the host value model (see package
// host) and managed values.
//
// Host to managed conversion is driven by the declared parameter type.
// Managed to host conversion is driven by the declared return type, except
// that a value declared as java.lang.Object is re-resolved against its
// runtime class: boxed primitives and strings become plain host values,
// arrays are converted element by element, and anything else becomes a
// bridged object handle.
//
// Primitive arrays are copied with one bulk region call. byte[] maps to
// []byte. Object arrays keep null elements. Nested arrays are walked with an
// explicit stack bounded by MaxDepth.
package marshal
