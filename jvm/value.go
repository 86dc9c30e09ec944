package jvm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/jbridge/jtype"
)

// Value is one raw argument slot for a managed call.
// Slots use the same 64-bit encoding as wazero stack values.
type Value struct {
	slot uint64
}

func BoolValue(b bool) Value {
	if b {
		return Value{api.EncodeU32(1)}
	}
	return Value{api.EncodeU32(0)}
}

func ByteValue(v int8) Value      { return Value{api.EncodeI32(int32(v))} }
func CharValue(v uint16) Value    { return Value{api.EncodeU32(uint32(v))} }
func ShortValue(v int16) Value    { return Value{api.EncodeI32(int32(v))} }
func IntValue(v int32) Value      { return Value{api.EncodeI32(v)} }
func LongValue(v int64) Value     { return Value{api.EncodeI64(v)} }
func FloatValue(v float32) Value  { return Value{api.EncodeF32(v)} }
func DoubleValue(v float64) Value { return Value{api.EncodeF64(v)} }

// RefValue passes a reference. A nil Object passes null.
func RefValue(o Object) Value {
	if o == nil {
		return Value{}
	}
	return Value{api.EncodeExternref(uintptr(o.raw()))}
}

// NullValue passes a null reference.
func NullValue() Value { return Value{} }

// Slot returns the raw slot.
func (v Value) Slot() uint64 { return v.slot }

func slots(args []Value) []uint64 {
	if len(args) == 0 {
		return nil
	}
	out := make([]uint64, len(args))
	for i, a := range args {
		out[i] = a.slot
	}
	return out
}

// SlotType reports the wazero value type used to carry a kind in a slot.
func SlotType(k jtype.Kind) api.ValueType {
	switch k {
	case jtype.Boolean, jtype.Byte, jtype.Char, jtype.Short, jtype.Int:
		return api.ValueTypeI32
	case jtype.Long:
		return api.ValueTypeI64
	case jtype.Float:
		return api.ValueTypeF32
	case jtype.Double:
		return api.ValueTypeF64
	default:
		return api.ValueTypeExternref
	}
}

// SlotRef decodes a reference slot.
func SlotRef(slot uint64) Ref {
	return Ref(api.DecodeExternref(slot))
}

// RefSlot encodes a reference into a slot.
func RefSlot(r Ref) uint64 {
	return api.EncodeExternref(uintptr(r))
}

// EncodeSlot encodes a primitive Go value for kind k: bool, int8, uint16,
// int16, int32, int64, float32 or float64.
func EncodeSlot(k jtype.Kind, v any) uint64 {
	switch k {
	case jtype.Boolean:
		return BoolValue(v.(bool)).slot
	case jtype.Byte:
		return ByteValue(v.(int8)).slot
	case jtype.Char:
		return CharValue(v.(uint16)).slot
	case jtype.Short:
		return ShortValue(v.(int16)).slot
	case jtype.Int:
		return IntValue(v.(int32)).slot
	case jtype.Long:
		return LongValue(v.(int64)).slot
	case jtype.Float:
		return FloatValue(v.(float32)).slot
	case jtype.Double:
		return DoubleValue(v.(float64)).slot
	}
	return 0
}

// DecodeSlot is the inverse of EncodeSlot. Void decodes to nil.
func DecodeSlot(k jtype.Kind, slot uint64) any {
	switch k {
	case jtype.Boolean:
		return api.DecodeU32(slot) != 0
	case jtype.Byte:
		return int8(api.DecodeI32(slot))
	case jtype.Char:
		return uint16(api.DecodeU32(slot))
	case jtype.Short:
		return int16(api.DecodeI32(slot))
	case jtype.Int:
		return api.DecodeI32(slot)
	case jtype.Long:
		return int64(slot)
	case jtype.Float:
		return api.DecodeF32(slot)
	case jtype.Double:
		return api.DecodeF64(slot)
	}
	return nil
}
