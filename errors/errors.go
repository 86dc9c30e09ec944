package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the bridge the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // shared library and VM creation
	PhaseAttach  Phase = "attach"  // thread attachment
	PhaseResolve Phase = "resolve" // class and member reflection
	PhaseMatch   Phase = "match"   // overload selection
	PhaseEncode  Phase = "encode"  // host to managed
	PhaseDecode  Phase = "decode"  // managed to host
	PhaseInvoke  Phase = "invoke"  // managed calls
	PhaseProxy   Phase = "proxy"   // callback dispatch
	PhaseConfig  Phase = "config"  // class configuration
)

// Kind categorizes the error
type Kind string

const (
	KindLibraryLoad        Kind = "library_load"
	KindVMCreate           Kind = "vm_create"
	KindAttach             Kind = "attach"
	KindClassResolution    Kind = "class_resolution"
	KindOverloadResolution Kind = "overload_resolution"
	KindTypeConversion     Kind = "type_conversion"
	KindProxy              Kind = "proxy"
	KindInternalProtocol   Kind = "internal_protocol"
	KindNotFound           Kind = "not_found"
	KindInvalidInput       Kind = "invalid_input"
	KindUnsupported        Kind = "unsupported"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value       any
	Cause       error
	Phase       Phase
	Kind        Kind
	HostType    string
	ManagedType string
	Detail      string
	Path        []string
	Candidates  []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.HostType != "" || e.ManagedType != "" {
		b.WriteString(": ")
		switch {
		case e.HostType != "" && e.ManagedType != "":
			b.WriteString("host type ")
			b.WriteString(e.HostType)
			b.WriteString(", managed type ")
			b.WriteString(e.ManagedType)
		case e.HostType != "":
			b.WriteString("host type ")
			b.WriteString(e.HostType)
		default:
			b.WriteString("managed type ")
			b.WriteString(e.ManagedType)
		}
	}

	if e.Detail != "" {
		if e.HostType != "" || e.ManagedType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	for _, c := range e.Candidates {
		b.WriteString("\n\t")
		b.WriteString(c)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the member path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// HostType sets the host value type name
func (b *Builder) HostType(t string) *Builder {
	b.err.HostType = t
	return b
}

// ManagedType sets the managed type name
func (b *Builder) ManagedType(t string) *Builder {
	b.err.ManagedType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Candidates sets the signatures that were considered
func (b *Builder) Candidates(c []string) *Builder {
	b.err.Candidates = c
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the bridge taxonomy

// LibraryLoad creates a shared library loading error
func LibraryLoad(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLibraryLoad,
		Detail: fmt.Sprintf("load library %q", path),
		Cause:  cause,
	}
}

// VMCreate creates a VM creation error from a translated status
func VMCreate(status int, msg string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindVMCreate,
		Detail: fmt.Sprintf("create vm: %s (status %d)", msg, status),
		Value:  status,
	}
}

// Attach creates a thread attachment error
func Attach(status int, msg string) *Error {
	return &Error{
		Phase:  PhaseAttach,
		Kind:   KindAttach,
		Detail: fmt.Sprintf("attach thread: %s (status %d)", msg, status),
		Value:  status,
	}
}

// ClassNotFound creates a class resolution error
func ClassNotFound(name string, cause error) *Error {
	return &Error{
		Phase:       PhaseResolve,
		Kind:        KindClassResolution,
		ManagedType: name,
		Detail:      "class could not be resolved",
		Cause:       cause,
	}
}

// MemberNotFound creates a not-found error for a named member of a class
func MemberNotFound(class, kind, name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotFound,
		Path:   []string{class, name},
		Detail: fmt.Sprintf("no %s named '%s'", kind, name),
	}
}

// NoMatchingOverload creates an overload resolution error listing every candidate
func NoMatchingOverload(what, name string, candidates []string) *Error {
	return &Error{
		Phase:      PhaseMatch,
		Kind:       KindOverloadResolution,
		Detail:     fmt.Sprintf("No %s found with name '%s' and matching signature. Options were:", what, name),
		Candidates: candidates,
	}
}

// TypeConversion creates an incompatible value error
func TypeConversion(phase Phase, hostType, managedType, detail string) *Error {
	return &Error{
		Phase:       phase,
		Kind:        KindTypeConversion,
		HostType:    hostType,
		ManagedType: managedType,
		Detail:      detail,
	}
}

// OutOfRange creates a numeric range conversion error
func OutOfRange(value any, managedType string) *Error {
	return &Error{
		Phase:       PhaseEncode,
		Kind:        KindTypeConversion,
		ManagedType: managedType,
		Detail:      fmt.Sprintf("value %v is out of range for %s", value, managedType),
		Value:       value,
	}
}

// NotSingleCharacter creates a char conversion error
func NotSingleCharacter(s string) *Error {
	return &Error{
		Phase:       PhaseEncode,
		Kind:        KindTypeConversion,
		ManagedType: "char",
		Detail:      "managed character must be a single character",
		Value:       s,
	}
}

// NotAssignable creates an assignability error
func NotAssignable(from, to string) *Error {
	return &Error{
		Phase:       PhaseEncode,
		Kind:        KindTypeConversion,
		ManagedType: to,
		Detail:      fmt.Sprintf("%s is not assignable to %s", from, to),
	}
}

// Proxy creates a proxy dispatch error
func Proxy(detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{
		Phase:  PhaseProxy,
		Kind:   KindProxy,
		Detail: detail,
	}
}

// UnknownProxy creates an error for a dispatch to an id that is not registered
func UnknownProxy(id int64) *Error {
	return &Error{
		Phase:  PhaseProxy,
		Kind:   KindProxy,
		Detail: fmt.Sprintf("no proxy with id %d exists", id),
		Value:  id,
	}
}

// ProxyDestroyed creates an error for use of a destroyed proxy
func ProxyDestroyed() *Error {
	return Proxy("the proxy has already been destroyed")
}

// DoubleComplete creates an error for a second completion of a callback
func DoubleComplete(method string) *Error {
	return &Error{
		Phase:  PhaseProxy,
		Kind:   KindProxy,
		Path:   []string{method},
		Detail: "callback completed more than once",
	}
}

// NullContract creates an internal protocol error for a null where the contract forbids it
func NullContract(call string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindInternalProtocol,
		Detail: fmt.Sprintf("%s returned null", call),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// HasKind reports whether any *Error in err's chain has the given kind.
func HasKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}
