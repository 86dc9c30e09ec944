package jvm

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Object is a managed reference held through one of the wrapper types.
type Object interface {
	raw() Ref
	IsNull() bool
}

// LocalRef is a reference owned by the Env that created it.
// It is freed exactly once: by Delete, or by promotion or hand-back, after
// which the managed runtime owns the slot.
type LocalRef struct {
	env    *Env
	ref    Ref
	noFree bool
	freed  bool
}

func (l *LocalRef) raw() Ref {
	if l == nil {
		return 0
	}
	if l.freed {
		panic("jvm: use of deleted local reference")
	}
	return l.ref
}

// IsNull reports whether l refers to no object.
func (l *LocalRef) IsNull() bool {
	return l == nil || l.ref == 0
}

// Env returns the owning thread context.
func (l *LocalRef) Env() *Env {
	return l.env
}

// Delete frees the reference. Later calls are no-ops.
// Deleting from another thread aborts.
func (l *LocalRef) Delete() {
	if l == nil || l.ref == 0 || l.freed || l.noFree {
		return
	}
	l.env.checkThread()
	l.env.native.DeleteLocalRef(l.ref)
	l.freed = true
}

// Promote transfers the reference into a new GlobalRef and frees the local slot.
// A null reference promotes to nil.
func (l *LocalRef) Promote() (*GlobalRef, error) {
	if l.IsNull() {
		return nil, nil
	}
	g, err := l.env.NewGlobalRef(l)
	if err != nil {
		return nil, err
	}
	l.Delete()
	l.noFree = true
	return g, nil
}

// IntoReturn hands the reference back to the managed runtime as the return
// value of a native method. The wrapper no longer frees it.
func (l *LocalRef) IntoReturn() Ref {
	if l == nil {
		return 0
	}
	r := l.raw()
	l.noFree = true
	return r
}

// GlobalRef is a reference valid on every thread. Each GlobalRef value is one
// owner; Clone adds an owner and Release drops one. The slot is deleted when
// the last owner releases it.
type GlobalRef struct {
	slot atomic.Pointer[globalSlot]
}

type globalSlot struct {
	vm     *VM
	ref    Ref
	owners atomic.Int64
	freed  atomic.Bool
}

func newGlobalRef(vm *VM, ref Ref) *GlobalRef {
	s := &globalSlot{vm: vm, ref: ref}
	s.owners.Store(1)
	g := &GlobalRef{}
	g.slot.Store(s)
	return g
}

func (g *GlobalRef) raw() Ref {
	if g == nil {
		return 0
	}
	s := g.slot.Load()
	if s == nil {
		panic("jvm: use of released global reference")
	}
	return s.ref
}

// IsNull reports whether g refers to no object.
func (g *GlobalRef) IsNull() bool {
	if g == nil {
		return true
	}
	s := g.slot.Load()
	return s == nil || s.ref == 0
}

// Released reports whether this owner has already released its reference.
func (g *GlobalRef) Released() bool {
	return g == nil || g.slot.Load() == nil
}

// Clone adds an owner.
func (g *GlobalRef) Clone() *GlobalRef {
	if g == nil {
		return nil
	}
	s := g.slot.Load()
	if s == nil {
		return nil
	}
	s.owners.Add(1)
	c := &GlobalRef{}
	c.slot.Store(s)
	return c
}

// SameSlot reports whether both values share one global slot.
func (g *GlobalRef) SameSlot(o *GlobalRef) bool {
	if g == nil || o == nil {
		return false
	}
	return g.slot.Load() == o.slot.Load()
}

// Release drops this owner. The last owner deletes the slot, attaching the
// current thread if needed. Safe to call more than once.
func (g *GlobalRef) Release() {
	if g == nil {
		return
	}
	s := g.slot.Swap(nil)
	if s == nil {
		return
	}
	if s.owners.Add(-1) == 0 {
		s.free()
	}
}

// Local creates a local reference to the same object on env.
func (g *GlobalRef) Local(env *Env) (*LocalRef, error) {
	return env.NewLocalRef(g)
}

func (s *globalSlot) free() {
	if !s.freed.CompareAndSwap(false, true) {
		return
	}
	if s.vm.destroyed.Load() {
		Logger().Debug("global reference released after vm teardown")
		return
	}
	env, err := s.vm.Attach(false)
	if err != nil {
		Logger().Warn("release global reference", zap.Error(err))
		return
	}
	env.native.DeleteGlobalRef(s.ref)
	env.Close()
}
