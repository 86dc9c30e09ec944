// Package errors provides structured error types for the bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: member path, host/managed type names,
// overload candidates and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseEncode, errors.KindTypeConversion).
//		Path("com.example.Box", "set").
//		HostType("string").
//		ManagedType("int").
//		Detail("cannot convert string to integer").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OutOfRange(300, "byte")
//	err := errors.NoMatchingOverload("method", "f", candidates)
//
// Managed exceptions are not represented here; see jvm.ManagedException.
// All errors implement the standard error interface and support errors.Is/As.
package errors
