// Package witgen renders class descriptors as WIT interfaces.
//
// Each class becomes an interface holding one resource. Constructors are
// static functions returning the resource, overloads get an "-oN" suffix
// and every method is emitted twice: the blocking accessor as a func and
// the scheduled accessor as an async func, both named through the class
// configuration's suffixes. Fields become get-/set- functions.
//
// Managed references are nullable on the host side, so reference types are
// wrapped in option<>. Parameters borrow resources, results own them. byte[]
// maps to list<u8> because the host sees it as a byte slice.
package witgen
