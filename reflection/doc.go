// Package reflection discovers the public members of managed classes through
// the managed runtime's own reflection API and caches the result as
// ClassDescriptors.
//
// Members are resolved once per class and configuration. A descriptor is
// shared by pointer between every host-side instance of the class.
package reflection
