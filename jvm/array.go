package jvm

import (
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
)

// NewBuffer allocates a contiguous buffer for bulk copies of a primitive array.
func NewBuffer(elem jtype.Kind, n int) any {
	switch elem {
	case jtype.Boolean:
		return make([]bool, n)
	case jtype.Byte:
		return make([]int8, n)
	case jtype.Char:
		return make([]uint16, n)
	case jtype.Short:
		return make([]int16, n)
	case jtype.Int:
		return make([]int32, n)
	case jtype.Long:
		return make([]int64, n)
	case jtype.Float:
		return make([]float32, n)
	case jtype.Double:
		return make([]float64, n)
	}
	return nil
}

// ArrayLength returns the length of a managed array.
func (e *Env) ArrayLength(arr Object) (int, error) {
	e.checkThread()
	r := e.ref(arr)
	if r == 0 {
		return 0, errors.InvalidInput(errors.PhaseDecode, "length of null array")
	}
	n := e.native.GetArrayLength(r)
	if err := e.check(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// NewPrimitiveArray allocates a primitive array of length n.
func (e *Env) NewPrimitiveArray(elem jtype.Kind, n int) (*LocalRef, error) {
	e.checkThread()
	if !elem.IsPrimitive() || elem == jtype.Void {
		return nil, errors.InvalidInput(errors.PhaseEncode, "primitive array of "+elem.String())
	}
	r := e.native.NewPrimitiveArray(elem, int32(n))
	if err := e.check(); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NullContract("New" + elem.String() + "Array")
	}
	return e.wrap(r), nil
}

// NewObjectArray allocates an array of n null elements of elemClass.
func (e *Env) NewObjectArray(n int, elemClass Object) (*LocalRef, error) {
	e.checkThread()
	r := e.native.NewObjectArray(int32(n), e.ref(elemClass), 0)
	if err := e.check(); err != nil {
		return nil, err
	}
	if r == 0 {
		return nil, errors.NullContract("NewObjectArray")
	}
	return e.wrap(r), nil
}

// GetArrayRegion copies len(buf) elements starting at index 0 into buf.
func (e *Env) GetArrayRegion(arr Object, buf any) error {
	e.checkThread()
	e.native.GetArrayRegion(e.ref(arr), 0, buf)
	return e.check()
}

// SetArrayRegion copies buf into the array starting at index 0.
func (e *Env) SetArrayRegion(arr Object, buf any) error {
	e.checkThread()
	e.native.SetArrayRegion(e.ref(arr), 0, buf)
	return e.check()
}

// ArrayElement returns element i of an object array. Null elements are nil.
func (e *Env) ArrayElement(arr Object, i int) (*LocalRef, error) {
	e.checkThread()
	r := e.native.GetObjectArrayElement(e.ref(arr), int32(i))
	return e.localResult(RefSlot(r))
}

// SetArrayElement stores v, which may be nil, at index i of an object array.
func (e *Env) SetArrayElement(arr Object, i int, v Object) error {
	e.checkThread()
	e.native.SetObjectArrayElement(e.ref(arr), int32(i), e.ref(v))
	return e.check()
}
