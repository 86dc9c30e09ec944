package jvm

import (
	"fmt"

	"github.com/wippyai/jbridge/jtype"
)

// Ref is a raw managed reference as seen by the primitive set. Zero is null.
// Outside this package references are only handled through LocalRef and GlobalRef.
type Ref uintptr

// MethodID identifies a resolved method or constructor for the lifetime of the process.
type MethodID uintptr

// FieldID identifies a resolved field for the lifetime of the process.
type FieldID uintptr

// Status is a raw status code returned by the managed runtime.
type Status int32

const (
	StatusOK       Status = 0
	StatusErr      Status = -1
	StatusDetached Status = -2
	StatusVersion  Status = -3
	StatusNoMemory Status = -4
	StatusExists   Status = -5
	StatusInvalid  Status = -6
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "success"
	case StatusErr:
		return "unknown error"
	case StatusDetached:
		return "thread detached from the vm"
	case StatusVersion:
		return "version error"
	case StatusNoMemory:
		return "not enough memory"
	case StatusExists:
		return "vm already created"
	case StatusInvalid:
		return "invalid arguments"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}

// Library is a loaded managed-runtime shared library.
type Library interface {
	// CreateVM creates the VM and attaches the calling thread to it.
	CreateVM(version int32, args []string) (NativeVM, NativeEnv, Status)
}

// Opener loads the shared library at path.
type Opener func(path string) (Library, error)

// NativeVM is the invocation interface of a created VM.
type NativeVM interface {
	AttachCurrentThread(daemon bool) (NativeEnv, Status)
	DetachThread(env NativeEnv) Status
	Destroy() Status
}

// NativeFunc implements a managed native method. Arguments arrive as raw
// slots in declaration order; the returned slot is decoded by the return kind.
type NativeFunc func(env NativeEnv, this Ref, args []uint64) uint64

// NativeMethod binds a NativeFunc to a declared native method.
type NativeMethod struct {
	Fn        NativeFunc
	Name      string
	Signature string
}

// NativeEnv is the per-thread primitive set of the managed runtime.
//
// Calls that can raise leave the exception pending; callers check with
// ExceptionCheck. Reference kinds (String, arrays, boxed values and classes)
// all use the object variants of Call, Get and Set.
type NativeEnv interface {
	FindClass(internalName string) Ref
	GetObjectClass(obj Ref) Ref
	IsAssignableFrom(from, to Ref) bool
	IsInstanceOf(obj, class Ref) bool

	GetMethodID(class Ref, name, sig string) MethodID
	GetStaticMethodID(class Ref, name, sig string) MethodID
	GetFieldID(class Ref, name, sig string) FieldID
	GetStaticFieldID(class Ref, name, sig string) FieldID

	CallMethod(ret jtype.Kind, obj Ref, id MethodID, args []uint64) uint64
	CallStaticMethod(ret jtype.Kind, class Ref, id MethodID, args []uint64) uint64
	NewObject(class Ref, ctor MethodID, args []uint64) Ref

	GetField(kind jtype.Kind, obj Ref, id FieldID) uint64
	SetField(kind jtype.Kind, obj Ref, id FieldID, v uint64)
	GetStaticField(kind jtype.Kind, class Ref, id FieldID) uint64
	SetStaticField(kind jtype.Kind, class Ref, id FieldID, v uint64)

	NewLocalRef(ref Ref) Ref
	DeleteLocalRef(ref Ref)
	NewGlobalRef(ref Ref) Ref
	DeleteGlobalRef(ref Ref)

	NewString(chars []uint16) Ref
	GetString(str Ref) []uint16

	GetArrayLength(arr Ref) int32
	NewPrimitiveArray(elem jtype.Kind, length int32) Ref
	NewObjectArray(length int32, elemClass Ref, init Ref) Ref
	// GetArrayRegion copies into buf, one of []bool, []int8, []uint16,
	// []int16, []int32, []int64, []float32 or []float64.
	GetArrayRegion(arr Ref, start int32, buf any)
	SetArrayRegion(arr Ref, start int32, buf any)
	GetObjectArrayElement(arr Ref, index int32) Ref
	SetObjectArrayElement(arr Ref, index int32, v Ref)

	Throw(obj Ref) Status
	ThrowNew(class Ref, msg string) Status
	ExceptionOccurred() Ref
	ExceptionCheck() bool
	ExceptionClear()

	RegisterNatives(class Ref, methods []NativeMethod) Status
}
