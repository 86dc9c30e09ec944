package overload

import (
	"math"
	"math/big"
	"unicode/utf16"

	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// Compatible reports whether the host value v may be passed where t is
// declared. env is only used for values carrying a managed class.
func Compatible(env *jvm.Env, v any, t jtype.Type) bool {
	switch x := v.(type) {
	case nil, host.Undefined, *host.Undefined:
		return t.Kind().IsReference()
	case string:
		return t.IsString() || (t.IsChar() && len(utf16.Encode([]rune(x))) == 1)
	case bool:
		return t.IsBoolean()
	case *big.Int:
		return t.IsLong()
	case []byte:
		return t.IsByteArray()
	case host.Bridged:
		return instanceOf(env, x, t)
	}

	if host.IsNumber(v) {
		switch {
		case t.IsInt(), t.IsLong(), t.IsFloat(), t.IsDouble(), t.IsShort():
			return true
		case t.IsByte():
			return mayBeByte(v)
		}
		return false
	}

	if n, ok := host.ArrayLen(v); ok {
		if !t.IsArray() {
			return false
		}
		if n == 0 {
			return true
		}
		inner, _ := t.Inner()
		el, _ := host.First(v)
		return Compatible(env, el, inner)
	}
	return false
}

func accepts(env *jvm.Env, v any, t jtype.Type, fallback bool) bool {
	if fallback && t.Kind() == jtype.LangObject {
		return true
	}
	return Compatible(env, v, t)
}

// mayBeByte reports whether a number is an integer in [-128, 127].
func mayBeByte(v any) bool {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int8:
		return true
	case int16:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint8:
		f = float64(x)
	case uint16:
		f = float64(x)
	case uint32:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return false
	}
	return f >= math.MinInt8 && f <= math.MaxInt8 && f == math.Trunc(f)
}

// instanceOf asks the managed runtime whether the bridged object is an
// instance of t's class.
func instanceOf(env *jvm.Env, b host.Bridged, t jtype.Type) bool {
	if env == nil || !t.Kind().IsReference() {
		return false
	}
	ref, err := b.ManagedRef()
	if err != nil {
		return false
	}
	if t.Kind() == jtype.LangObject {
		return true
	}
	cls, err := env.TypeClass(t)
	if err != nil {
		return false
	}
	defer cls.Delete()
	return env.IsInstanceOf(ref, cls)
}
