package marshal

import (
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// ToResult converts the host value v to a value of the declared type t.
// Object results hold a global reference owned by the caller.
func (e *Engine) ToResult(env *jvm.Env, v any, t jtype.Type) (jvm.CallResult, error) {
	if t.IsPrimitive() {
		return primitive(v, t.Kind())
	}
	r, err := e.toRef(env, v, t, 0)
	if err != nil {
		return jvm.CallResult{}, err
	}
	if r.global != nil {
		return jvm.ObjectResult(r.global.Clone(), t), nil
	}
	if r.local.IsNull() {
		return jvm.NullResult(), nil
	}
	g, err := r.local.Promote()
	if err != nil {
		r.local.Delete()
		return jvm.CallResult{}, err
	}
	return jvm.ObjectResult(g, t), nil
}

// ref is a converted reference: either a new local or a global borrowed
// from a bridged host value. Both nil means null.
type ref struct {
	local  *jvm.LocalRef
	global *jvm.GlobalRef
}

func (r ref) object() jvm.Object {
	if r.global != nil {
		return r.global
	}
	if r.local == nil {
		return nil
	}
	return r.local
}

func (r ref) release() {
	r.local.Delete()
}

func primitive(v any, k jtype.Kind) (jvm.CallResult, error) {
	name := k.String()
	if host.IsNullish(v) {
		return jvm.CallResult{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), name, "primitive values cannot be null")
	}
	switch k {
	case jtype.Boolean:
		b, ok := v.(bool)
		if !ok {
			return jvm.CallResult{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), name, "expected a boolean")
		}
		return jvm.BoolResult(b), nil
	case jtype.Char:
		s, ok := v.(string)
		if !ok {
			return jvm.CallResult{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), name, "expected a string")
		}
		units := utf16.Encode([]rune(s))
		if len(units) != 1 {
			return jvm.CallResult{}, errors.NotSingleCharacter(s)
		}
		return jvm.CharResult(units[0]), nil
	case jtype.Byte:
		n, err := integer(v, math.MinInt8, math.MaxInt8, name)
		return jvm.ByteResult(int8(n)), err
	case jtype.Short:
		n, err := integer(v, math.MinInt16, math.MaxInt16, name)
		return jvm.ShortResult(int16(n)), err
	case jtype.Int:
		n, err := integer(v, math.MinInt32, math.MaxInt32, name)
		return jvm.IntResult(int32(n)), err
	case jtype.Long:
		n, err := integer(v, math.MinInt64, math.MaxInt64, name)
		return jvm.LongResult(n), err
	case jtype.Float, jtype.Double:
		f, ok := toFloat(v)
		if !ok {
			return jvm.CallResult{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), name, "expected a number")
		}
		if k == jtype.Float {
			return jvm.FloatResult(float32(f)), nil
		}
		return jvm.DoubleResult(f), nil
	}
	return jvm.CallResult{}, errors.Unsupported(errors.PhaseEncode, "conversion to "+name)
}

func (e *Engine) toRef(env *jvm.Env, v any, t jtype.Type, depth int) (ref, error) {
	if depth > MaxDepth {
		return ref{}, errors.InvalidInput(errors.PhaseEncode, "array nesting exceeds the maximum depth")
	}
	if host.IsNullish(v) {
		return ref{}, nil
	}
	if p, ok := v.(host.CallbackProxy); ok {
		return bridged(env, p, t)
	}
	if b, ok := v.(host.Bridged); ok {
		return bridged(env, b, t)
	}

	k := t.Kind()
	switch {
	case k.IsBoxed():
		r, err := primitive(v, k.Base())
		if err != nil {
			return ref{}, err
		}
		l, err := box(env, r, k)
		return ref{local: l}, err
	case k == jtype.String || k == jtype.CharSequence:
		s, ok := v.(string)
		if !ok {
			return ref{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), t.Name(), "expected a string")
		}
		l, err := env.NewString(s)
		return ref{local: l}, err
	case k == jtype.Array:
		return e.array(env, v, t, depth)
	case k == jtype.LangObject:
		return e.object(env, v, depth)
	}
	return ref{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), t.Name(), "expected a bridged object")
}

// object converts v for a java.lang.Object parameter by its own shape.
func (e *Engine) object(env *jvm.Env, v any, depth int) (ref, error) {
	switch x := v.(type) {
	case bool:
		l, err := box(env, jvm.BoolResult(x), jtype.BoxedBoolean)
		return ref{local: l}, err
	case string:
		l, err := env.NewString(x)
		return ref{local: l}, err
	case []byte:
		return e.array(env, v, jtype.ArrayOf(jtype.Of(jtype.Byte)), depth)
	}
	if host.IsNumber(v) {
		k := objectKind(v)
		r, err := primitive(v, k.Base())
		if err != nil {
			return ref{}, err
		}
		l, err := box(env, r, k)
		return ref{local: l}, err
	}
	if _, ok := host.ArrayLen(v); ok {
		return e.array(env, v, jtype.ArrayOf(jtype.Of(jtype.LangObject)), depth)
	}
	return ref{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), "java.lang.Object", "no managed representation")
}

// bridged passes the object carried by b after checking it is an instance of t.
func bridged(env *jvm.Env, b host.Bridged, t jtype.Type) (ref, error) {
	g, err := b.ManagedRef()
	if err != nil {
		return ref{}, err
	}
	if t.IsPrimitive() {
		return ref{}, errors.NotAssignable(b.ManagedClassName(), t.Name())
	}
	if t.Kind() != jtype.LangObject {
		cls, err := env.TypeClass(t)
		if err != nil {
			return ref{}, err
		}
		ok := env.IsInstanceOf(g, cls)
		cls.Delete()
		if !ok {
			return ref{}, errors.NotAssignable(b.ManagedClassName(), t.Name())
		}
	}
	return ref{global: g}, nil
}

// box wraps a primitive result with the wrapper's valueOf.
func box(env *jvm.Env, r jvm.CallResult, boxed jtype.Kind) (*jvm.LocalRef, error) {
	bt := jtype.Of(boxed)
	cls, err := env.FindClass(bt.InternalName())
	if err != nil {
		return nil, err
	}
	defer cls.Delete()
	prim := jtype.Of(boxed.Base())
	return env.CallStaticObjectMethod(cls, "valueOf", "("+prim.Descriptor()+")"+bt.Descriptor(), r.Value())
}

func (e *Engine) array(env *jvm.Env, v any, t jtype.Type, depth int) (ref, error) {
	inner, _ := t.Inner()

	if buf, ok := v.([]byte); ok && inner.Kind() == jtype.BoxedByte {
		// Byte[] takes the buffer element-wise, with the same wrap as byte[].
		els := make([]any, len(buf))
		for i, b := range buf {
			els[i] = float64(int8(b))
		}
		v = els
	} else if ok {
		if inner.Kind() != jtype.Byte {
			return ref{}, errors.TypeConversion(errors.PhaseEncode, "buffer", t.Name(), "buffers convert to byte[] or Byte[] only")
		}
		arr, err := env.NewPrimitiveArray(jtype.Byte, len(buf))
		if err != nil {
			return ref{}, err
		}
		data := make([]int8, len(buf))
		for i, b := range buf {
			data[i] = int8(b)
		}
		if err := env.SetArrayRegion(arr, data); err != nil {
			arr.Delete()
			return ref{}, err
		}
		return ref{local: arr}, nil
	}

	els, ok := host.AsArray(v)
	if !ok {
		return ref{}, errors.TypeConversion(errors.PhaseEncode, host.TypeName(v), t.Name(), "expected an array")
	}

	if inner.IsPrimitive() {
		arr, err := env.NewPrimitiveArray(inner.Kind(), len(els))
		if err != nil {
			return ref{}, err
		}
		buf := jvm.NewBuffer(inner.Kind(), len(els))
		if err := fill(buf, els, inner.Kind()); err != nil {
			arr.Delete()
			return ref{}, err
		}
		if err := env.SetArrayRegion(arr, buf); err != nil {
			arr.Delete()
			return ref{}, err
		}
		return ref{local: arr}, nil
	}

	cls, err := env.TypeClass(inner)
	if err != nil {
		return ref{}, err
	}
	arr, err := env.NewObjectArray(len(els), cls)
	cls.Delete()
	if err != nil {
		return ref{}, err
	}
	for i, el := range els {
		r, err := e.toRef(env, el, inner, depth+1)
		if err != nil {
			arr.Delete()
			return ref{}, pathErr(err, "["+strconv.Itoa(i)+"]")
		}
		err = env.SetArrayElement(arr, i, r.object())
		r.release()
		if err != nil {
			arr.Delete()
			return ref{}, err
		}
	}
	return ref{local: arr}, nil
}

// fill converts els into the typed buffer for kind k.
func fill(buf any, els []any, k jtype.Kind) error {
	for i, el := range els {
		r, err := primitive(el, k)
		if err != nil {
			return pathErr(err, "["+strconv.Itoa(i)+"]")
		}
		switch b := buf.(type) {
		case []bool:
			b[i] = r.Bool()
		case []int8:
			b[i] = r.Byte()
		case []uint16:
			b[i] = r.Char()
		case []int16:
			b[i] = r.Short()
		case []int32:
			b[i] = r.Int()
		case []int64:
			b[i] = r.Long()
		case []float32:
			b[i] = r.Float()
		case []float64:
			b[i] = r.Double()
		}
	}
	return nil
}
