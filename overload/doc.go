// Package overload selects among same-named managed members by the shape of
// the host arguments at the call site.
//
// Selection is first fit, not best fit: the first candidate in declaration
// order whose parameters accept every argument wins. A first pass applies the
// strict compatibility rules; only when it finds nothing does a second pass
// also let java.lang.Object parameters take any value.
package overload
