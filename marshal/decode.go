package marshal

import (
	"math/big"
	"strconv"
	"unicode/utf16"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// ToHost converts r to a host value and takes ownership of its reference.
//
// Objects declared as java.lang.Object are re-resolved by their runtime
// class, so a boxed number, string or array comes back as the matching host
// value. Objects declared with a named class are re-resolved only when the
// runtime class is a wrapper, String or an array. Anything else is handed
// to the engine's ObjectFactory.
func (e *Engine) ToHost(env *jvm.Env, r jvm.CallResult) (any, error) {
	switch r.Kind {
	case jvm.ResultVoid:
		return host.Undefined{}, nil
	case jvm.ResultNull:
		return nil, nil
	case jvm.ResultObject:
		l, err := r.Ref.Local(env)
		r.Ref.Release()
		if err != nil {
			return nil, err
		}
		if l.IsNull() {
			return nil, nil
		}
		return e.decode(env, l, r.Type)
	}
	return primitiveHost(r), nil
}

func primitiveHost(r jvm.CallResult) any {
	switch r.Kind {
	case jvm.ResultBoolean:
		return r.Bool()
	case jvm.ResultByte:
		return float64(r.Byte())
	case jvm.ResultChar:
		return string(utf16.Decode([]uint16{r.Char()}))
	case jvm.ResultShort:
		return float64(r.Short())
	case jvm.ResultInt:
		return float64(r.Int())
	case jvm.ResultLong:
		return big.NewInt(r.Long())
	case jvm.ResultFloat:
		return float64(r.Float())
	case jvm.ResultDouble:
		return r.Double()
	}
	return host.Undefined{}
}

// frame is an object array whose elements are being converted.
type frame struct {
	arr  *jvm.LocalRef
	elem jtype.Type
	out  []any
	next int
}

// decode converts the object l declared as t. Nested object arrays are
// walked with an explicit stack bounded by MaxDepth.
func (e *Engine) decode(env *jvm.Env, l *jvm.LocalRef, t jtype.Type) (any, error) {
	v, f, err := e.single(env, l, t)
	if err != nil || f == nil {
		return v, err
	}
	stack := []*frame{f}
	fail := func(err error) (any, error) {
		for _, f := range stack {
			f.arr.Delete()
		}
		return nil, err
	}
	for {
		top := stack[len(stack)-1]
		if top.next == len(top.out) {
			top.arr.Delete()
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return top.out, nil
			}
			parent := stack[len(stack)-1]
			parent.out[parent.next] = top.out
			parent.next++
			continue
		}
		el, err := env.ArrayElement(top.arr, top.next)
		if err != nil {
			return fail(err)
		}
		if el.IsNull() {
			top.out[top.next] = nil
			top.next++
			continue
		}
		v, f, err := e.single(env, el, top.elem)
		if err != nil {
			return fail(pathErr(err, "["+strconv.Itoa(top.next)+"]"))
		}
		if f != nil {
			if len(stack) >= MaxDepth {
				f.arr.Delete()
				return fail(errors.InvalidInput(errors.PhaseDecode, "array nesting exceeds the maximum depth"))
			}
			stack = append(stack, f)
			continue
		}
		top.out[top.next] = v
		top.next++
	}
}

// single converts one non-null object. Object arrays are returned as a new
// frame that takes over l; in every other case l is consumed.
func (e *Engine) single(env *jvm.Env, l *jvm.LocalRef, declared jtype.Type) (any, *frame, error) {
	t, err := runtimeType(env, l, declared)
	if err != nil {
		l.Delete()
		return nil, nil, err
	}
	k := t.Kind()
	switch {
	case k.IsBoxed():
		defer l.Delete()
		base := jtype.Of(k.Base())
		r, err := env.CallMethod(l, base.Name()+"Value", "()"+base.Descriptor())
		if err != nil {
			return nil, nil, err
		}
		return primitiveHost(r), nil, nil
	case k == jtype.String:
		defer l.Delete()
		s, err := env.GoString(l)
		return s, nil, err
	case k == jtype.CharSequence:
		defer l.Delete()
		s, err := env.ToString(l)
		return s, nil, err
	case k == jtype.Array:
		inner, _ := t.Inner()
		n, err := env.ArrayLength(l)
		if err != nil {
			l.Delete()
			return nil, nil, err
		}
		if !inner.IsPrimitive() {
			return nil, &frame{arr: l, elem: inner, out: make([]any, n)}, nil
		}
		defer l.Delete()
		v, err := primitiveArray(env, l, inner.Kind(), n)
		return v, nil, err
	}
	g, err := l.Promote()
	if err != nil {
		l.Delete()
		return nil, nil, err
	}
	v, err := e.factory.Wrap(env, g, t.Name())
	return v, nil, err
}

// runtimeType picks the type used to convert l.
func runtimeType(env *jvm.Env, l *jvm.LocalRef, declared jtype.Type) (jtype.Type, error) {
	if declared.IsZero() {
		declared = jtype.Of(jtype.LangObject)
	}
	k := declared.Kind()
	if k != jtype.LangObject && k != jtype.Object {
		return declared, nil
	}
	name, err := env.ObjectClassName(l)
	if err != nil {
		return jtype.Type{}, err
	}
	rt, err := jtype.FromClassName(name)
	if err != nil {
		return jtype.Type{}, errors.Wrap(errors.PhaseDecode, errors.KindTypeConversion, err, "runtime class "+name)
	}
	if k == jtype.LangObject {
		return rt, nil
	}
	switch rk := rt.Kind(); {
	case rk.IsBoxed(), rk == jtype.String, rk == jtype.Array:
		return rt, nil
	}
	return declared, nil
}

// primitiveArray copies a primitive array in one bulk read.
func primitiveArray(env *jvm.Env, arr *jvm.LocalRef, k jtype.Kind, n int) (any, error) {
	buf := jvm.NewBuffer(k, n)
	if n > 0 {
		if err := env.GetArrayRegion(arr, buf); err != nil {
			return nil, err
		}
	}
	switch b := buf.(type) {
	case []bool:
		return b, nil
	case []int8:
		out := make([]byte, len(b))
		for i, x := range b {
			out[i] = byte(x)
		}
		return out, nil
	case []uint16:
		out := make([]string, len(b))
		for i, x := range b {
			out[i] = string(utf16.Decode([]uint16{x}))
		}
		return out, nil
	case []int16:
		return widen(b), nil
	case []int32:
		return widen(b), nil
	case []float32:
		return widen(b), nil
	case []float64:
		return b, nil
	case []int64:
		out := make([]*big.Int, len(b))
		for i, x := range b {
			out[i] = big.NewInt(x)
		}
		return out, nil
	}
	return nil, errors.Unsupported(errors.PhaseDecode, "array of "+k.String())
}

func widen[T int16 | int32 | float32](in []T) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = float64(x)
	}
	return out
}
