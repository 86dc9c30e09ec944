package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:       PhaseEncode,
				Kind:        KindTypeConversion,
				Path:        []string{"com.example.Box", "set"},
				HostType:    "string",
				ManagedType: "int",
				Detail:      "cannot convert",
			},
			contains: []string{"[encode]", "type_conversion", "com.example.Box.set", "string", "int", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindInternalProtocol,
			},
			contains: []string{"[decode]", "internal_protocol"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindLibraryLoad,
				Detail: "load library",
				Cause:  errors.New("no such file"),
			},
			contains: []string{"[load]", "library_load", "caused by", "no such file"},
		},
		{
			name:     "candidates listed",
			err:      NoMatchingOverload("method", "f", []string{"public int f(java.lang.String)", "public static void f(int)"}),
			contains: []string{"No method found with name 'f'", "\n\tpublic int f(java.lang.String)", "\n\tpublic static void f(int)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ClassNotFound("a.B", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find the cause")
	}
	if err.Unwrap() != cause {
		t.Fatal("Unwrap returned wrong cause")
	}
}

func TestError_Is(t *testing.T) {
	err := UnknownProxy(42)
	if !errors.Is(err, &Error{Phase: PhaseProxy, Kind: KindProxy}) {
		t.Fatal("expected match on phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhaseProxy, Kind: KindTypeConversion}) {
		t.Fatal("kind mismatch should not match")
	}

	var target *Error
	wrapped := Wrap(PhaseInvoke, KindInternalProtocol, err, "outer")
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As failed")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseEncode, KindTypeConversion).
		Path("a", "b").
		HostType("bool").
		ManagedType("int").
		Value(true).
		Detail("got %s", "bool").
		Build()

	if err.Phase != PhaseEncode || err.Kind != KindTypeConversion {
		t.Fatalf("phase/kind = %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "got bool" {
		t.Fatalf("detail = %q", err.Detail)
	}
	if len(err.Path) != 2 || err.Value != true {
		t.Fatalf("unexpected builder state: %+v", err)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		kind  Kind
		phase Phase
		text  string
	}{
		{LibraryLoad("/lib/libjvm.so", nil), KindLibraryLoad, PhaseLoad, "libjvm.so"},
		{VMCreate(-4, "not enough memory"), KindVMCreate, PhaseLoad, "not enough memory"},
		{Attach(-2, "thread detached"), KindAttach, PhaseAttach, "thread detached"},
		{OutOfRange(300, "byte"), KindTypeConversion, PhaseEncode, "out of range for byte"},
		{NotSingleCharacter("ab"), KindTypeConversion, PhaseEncode, "single character"},
		{NotAssignable("java.lang.String", "java.lang.Integer"), KindTypeConversion, PhaseEncode, "is not assignable to"},
		{UnknownProxy(7), KindProxy, PhaseProxy, "no proxy with id 7"},
		{ProxyDestroyed(), KindProxy, PhaseProxy, "already been destroyed"},
		{DoubleComplete("run"), KindProxy, PhaseProxy, "more than once"},
		{NullContract("Class.getMethods()"), KindInternalProtocol, PhaseResolve, "Class.getMethods() returned null"},
		{MemberNotFound("a.B", "method", "x"), KindNotFound, PhaseResolve, "no method named 'x'"},
	}

	for _, tt := range tests {
		if tt.err.Kind != tt.kind || tt.err.Phase != tt.phase {
			t.Errorf("%v: got %s/%s", tt.err, tt.err.Phase, tt.err.Kind)
		}
		if !strings.Contains(tt.err.Error(), tt.text) {
			t.Errorf("%q does not contain %q", tt.err.Error(), tt.text)
		}
	}
}

func TestHasKind(t *testing.T) {
	inner := ProxyDestroyed()
	outer := Wrap(PhaseInvoke, KindInternalProtocol, inner, "outer")
	if !HasKind(outer, KindProxy) {
		t.Fatal("expected proxy kind in chain")
	}
	if !HasKind(outer, KindInternalProtocol) {
		t.Fatal("expected outer kind")
	}
	if HasKind(outer, KindAttach) {
		t.Fatal("unexpected attach kind")
	}
	if HasKind(nil, KindProxy) {
		t.Fatal("nil has no kind")
	}
}
