package jvm

import (
	"fmt"

	"github.com/wippyai/jbridge/jtype"
)

// ResultKind tags the variant held by a CallResult.
type ResultKind uint8

const (
	ResultVoid ResultKind = iota
	ResultNull
	ResultBoolean
	ResultByte
	ResultChar
	ResultShort
	ResultInt
	ResultLong
	ResultFloat
	ResultDouble
	ResultObject
)

func (k ResultKind) String() string {
	switch k {
	case ResultVoid:
		return "void"
	case ResultNull:
		return "null"
	case ResultBoolean:
		return "boolean"
	case ResultByte:
		return "byte"
	case ResultChar:
		return "char"
	case ResultShort:
		return "short"
	case ResultInt:
		return "int"
	case ResultLong:
		return "long"
	case ResultFloat:
		return "float"
	case ResultDouble:
		return "double"
	case ResultObject:
		return "object"
	}
	return fmt.Sprintf("result(%d)", k)
}

// CallResult carries an actual managed value across the bridge.
// Object results own a GlobalRef and may cross threads; Release drops it.
type CallResult struct {
	Ref  *GlobalRef
	Type jtype.Type
	bits uint64
	Kind ResultKind
}

func VoidResult() CallResult { return CallResult{Kind: ResultVoid} }
func NullResult() CallResult { return CallResult{Kind: ResultNull} }

func BoolResult(v bool) CallResult {
	return CallResult{Kind: ResultBoolean, bits: BoolValue(v).slot}
}
func ByteResult(v int8) CallResult {
	return CallResult{Kind: ResultByte, bits: ByteValue(v).slot}
}
func CharResult(v uint16) CallResult {
	return CallResult{Kind: ResultChar, bits: CharValue(v).slot}
}
func ShortResult(v int16) CallResult {
	return CallResult{Kind: ResultShort, bits: ShortValue(v).slot}
}
func IntResult(v int32) CallResult {
	return CallResult{Kind: ResultInt, bits: IntValue(v).slot}
}
func LongResult(v int64) CallResult {
	return CallResult{Kind: ResultLong, bits: LongValue(v).slot}
}
func FloatResult(v float32) CallResult {
	return CallResult{Kind: ResultFloat, bits: FloatValue(v).slot}
}
func DoubleResult(v float64) CallResult {
	return CallResult{Kind: ResultDouble, bits: DoubleValue(v).slot}
}

// ObjectResult takes ownership of ref. A nil ref yields a Null result.
func ObjectResult(ref *GlobalRef, t jtype.Type) CallResult {
	if ref.IsNull() {
		return NullResult()
	}
	return CallResult{Kind: ResultObject, Ref: ref, Type: t}
}

func primitiveResult(k jtype.Kind, slot uint64) CallResult {
	switch k {
	case jtype.Void:
		return VoidResult()
	case jtype.Boolean:
		return CallResult{Kind: ResultBoolean, bits: slot}
	case jtype.Byte:
		return CallResult{Kind: ResultByte, bits: slot}
	case jtype.Char:
		return CallResult{Kind: ResultChar, bits: slot}
	case jtype.Short:
		return CallResult{Kind: ResultShort, bits: slot}
	case jtype.Int:
		return CallResult{Kind: ResultInt, bits: slot}
	case jtype.Long:
		return CallResult{Kind: ResultLong, bits: slot}
	case jtype.Float:
		return CallResult{Kind: ResultFloat, bits: slot}
	case jtype.Double:
		return CallResult{Kind: ResultDouble, bits: slot}
	}
	return VoidResult()
}

func (r CallResult) Bool() bool      { return DecodeSlot(jtype.Boolean, r.bits).(bool) }
func (r CallResult) Byte() int8      { return DecodeSlot(jtype.Byte, r.bits).(int8) }
func (r CallResult) Char() uint16    { return DecodeSlot(jtype.Char, r.bits).(uint16) }
func (r CallResult) Short() int16    { return DecodeSlot(jtype.Short, r.bits).(int16) }
func (r CallResult) Int() int32      { return DecodeSlot(jtype.Int, r.bits).(int32) }
func (r CallResult) Long() int64     { return DecodeSlot(jtype.Long, r.bits).(int64) }
func (r CallResult) Float() float32  { return DecodeSlot(jtype.Float, r.bits).(float32) }
func (r CallResult) Double() float64 { return DecodeSlot(jtype.Double, r.bits).(float64) }
func (r CallResult) IsNull() bool    { return r.Kind == ResultNull }
func (r CallResult) IsVoid() bool    { return r.Kind == ResultVoid }
func (r CallResult) IsObject() bool  { return r.Kind == ResultObject }
func (r CallResult) Primitive() jtype.Kind {
	switch r.Kind {
	case ResultBoolean:
		return jtype.Boolean
	case ResultByte:
		return jtype.Byte
	case ResultChar:
		return jtype.Char
	case ResultShort:
		return jtype.Short
	case ResultInt:
		return jtype.Int
	case ResultLong:
		return jtype.Long
	case ResultFloat:
		return jtype.Float
	case ResultDouble:
		return jtype.Double
	}
	return jtype.Void
}

// Value returns the argument slot for r. Object results pass their global reference.
func (r CallResult) Value() Value {
	switch r.Kind {
	case ResultObject:
		return RefValue(r.Ref)
	case ResultNull, ResultVoid:
		return NullValue()
	default:
		return Value{r.bits}
	}
}

// Release drops the reference held by an Object result.
func (r CallResult) Release() {
	if r.Kind == ResultObject {
		r.Ref.Release()
	}
}

// Values converts results into argument slots.
func Values(rs []CallResult) []Value {
	out := make([]Value, len(rs))
	for i, r := range rs {
		out[i] = r.Value()
	}
	return out
}

// ReleaseAll releases every Object result in rs.
func ReleaseAll(rs []CallResult) {
	for _, r := range rs {
		r.Release()
	}
}

func (r CallResult) String() string {
	switch r.Kind {
	case ResultVoid, ResultNull:
		return r.Kind.String()
	case ResultObject:
		return "object<" + r.Type.Name() + ">"
	default:
		return fmt.Sprintf("%s(%v)", r.Kind, DecodeSlot(r.Primitive(), r.bits))
	}
}
