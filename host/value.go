package host

import (
	"fmt"
	"math/big"

	"github.com/wippyai/jbridge/jvm"
)

// Undefined is the host's "no value", distinct from nil (null).
type Undefined struct{}

func (Undefined) String() string { return "undefined" }

// Bridged is a host value wrapping a managed object. The reference stays
// owned by the value.
type Bridged interface {
	ManagedRef() (*jvm.GlobalRef, error)
	ManagedClassName() string
}

// CallbackProxy is a bridged managed proxy whose methods dispatch to host
// callbacks. ManagedRef fails once the proxy has been destroyed.
type CallbackProxy interface {
	Bridged
	ProxyID() int64
}

// IsNullish reports whether v is nil or Undefined.
func IsNullish(v any) bool {
	switch v.(type) {
	case nil, Undefined, *Undefined:
		return true
	}
	return false
}

// IsNumber reports whether v is one of the accepted number representations.
func IsNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, *big.Int:
		return true
	}
	return false
}

// TypeName describes v for error messages.
func TypeName(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Undefined, *Undefined:
		return "undefined"
	case bool:
		return "boolean"
	case string:
		return "string"
	case *big.Int:
		return "bigint"
	case []byte:
		return "buffer"
	case CallbackProxy:
		return "proxy(" + x.ManagedClassName() + ")"
	case Bridged:
		return x.ManagedClassName()
	}
	if IsNumber(v) {
		return "number"
	}
	if _, ok := AsArray(v); ok {
		return "array"
	}
	return fmt.Sprintf("%T", v)
}
