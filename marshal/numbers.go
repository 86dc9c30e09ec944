package marshal

import (
	"math"
	"math/big"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
)

// toFloat returns v as a float64 for any accepted number representation.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f, true
	}
	return 0, false
}

// integer returns v as an int64 within [lo, hi]. Fractional numbers are
// truncated toward zero.
func integer(v any, lo, hi int64, managed string) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, errors.OutOfRange(v, managed)
		}
		n = int64(x)
	case uint8:
		n = int64(x)
	case uint16:
		n = int64(x)
	case uint32:
		n = int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return 0, errors.OutOfRange(v, managed)
		}
		n = int64(x)
	case *big.Int:
		if !x.IsInt64() {
			return 0, errors.OutOfRange(v, managed)
		}
		n = x.Int64()
	default:
		f, ok := toFloat(v)
		if !ok {
			return 0, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), managed, "expected a number")
		}
		f = math.Trunc(f)
		if math.IsNaN(f) || f < float64(lo) || f > float64(hi) {
			return 0, errors.OutOfRange(v, managed)
		}
		return int64(f), nil
	}
	if n < lo || n > hi {
		return 0, errors.OutOfRange(v, managed)
	}
	return n, nil
}

// objectKind picks the wrapper a number becomes when the declared type is
// java.lang.Object: integral values that fit an int become Integer, other
// floats become Double, other integers become Long.
func objectKind(v any) jtype.Kind {
	switch x := v.(type) {
	case float32:
		return jtype.BoxedFloat
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt32 && x <= math.MaxInt32 {
			return jtype.BoxedInt
		}
		return jtype.BoxedDouble
	case *big.Int:
		return jtype.BoxedLong
	}
	if _, err := integer(v, math.MinInt32, math.MaxInt32, "int"); err == nil {
		return jtype.BoxedInt
	}
	return jtype.BoxedLong
}
