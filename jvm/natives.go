package jvm

import (
	"runtime/debug"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
)

// NativeArg is one argument received by a host-implemented native method.
type NativeArg struct {
	ref  *LocalRef
	slot uint64
	kind jtype.Kind
}

// Kind returns the declared kind of the argument.
func (a NativeArg) Kind() jtype.Kind { return a.kind }

// Ref returns a reference argument. The managed runtime owns it; Delete is a no-op.
func (a NativeArg) Ref() *LocalRef { return a.ref }

// Value decodes a primitive argument.
func (a NativeArg) Value() any { return DecodeSlot(a.kind, a.slot) }

// Long decodes a long argument.
func (a NativeArg) Long() int64 { return DecodeSlot(jtype.Long, a.slot).(int64) }

// Native is a host implementation of a managed native method returning a
// reference or void. An error return is thrown into the managed caller.
type Native struct {
	Fn        func(env *Env, this *LocalRef, args []NativeArg) (*LocalRef, error)
	Name      string
	Signature string
}

// RegisterNatives binds host implementations to native methods of class.
func (e *Env) RegisterNatives(class Object, methods []Native) error {
	e.checkThread()
	vm := e.vm
	raw := make([]NativeMethod, len(methods))
	for i, m := range methods {
		sig, err := jtype.ParseSignature(m.Signature)
		if err != nil {
			return errors.Wrap(errors.PhaseInvoke, errors.KindInvalidInput, err, "native "+m.Name)
		}
		fn := m.Fn
		raw[i] = NativeMethod{
			Name:      m.Name,
			Signature: m.Signature,
			Fn: func(nenv NativeEnv, this Ref, args []uint64) uint64 {
				env := vm.FromNative(nenv)
				defer env.Close()

				nargs := make([]NativeArg, len(sig.Params))
				for j, p := range sig.Params {
					nargs[j] = NativeArg{slot: args[j], kind: p.Kind()}
					if p.Kind().IsReference() {
						nargs[j].ref = env.borrow(SlotRef(args[j]))
					}
				}

				res, err := callNative(fn, env, env.borrow(this), nargs)
				if err != nil {
					env.ThrowHostError(err)
					return 0
				}
				return RefSlot(res.IntoReturn())
			},
		}
	}

	st := e.native.RegisterNatives(e.ref(class), raw)
	if err := e.check(); err != nil {
		return err
	}
	if st != StatusOK {
		return errors.Wrap(errors.PhaseInvoke, errors.KindInternalProtocol, nil, "register natives: "+st.String())
	}
	return nil
}

func callNative(fn func(*Env, *LocalRef, []NativeArg) (*LocalRef, error), env *Env, this *LocalRef, args []NativeArg) (res *LocalRef, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn(env, this, args)
}
