package jvm

import (
	stderrors "errors"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/jbridge/errors"
)

// DefaultVersion requests the 21 interface version.
const DefaultVersion int32 = 0x00150000

// ErrAlreadyLoaded is returned by a second Load on the same Loader.
var ErrAlreadyLoaded = stderrors.New("managed runtime library already loaded")

// Options configure VM creation.
type Options struct {
	LibraryPath string
	Args        []string
	Version     int32
}

// Loader loads the managed runtime's shared library at most once.
type Loader struct {
	open   Opener
	loaded atomic.Bool
}

// NewLoader creates a loader that opens libraries with open.
func NewLoader(open Opener) *Loader {
	return &Loader{open: open}
}

// Load opens the library. Only the first successful call is allowed.
func (l *Loader) Load(path string) (Library, error) {
	if !l.loaded.CompareAndSwap(false, true) {
		return nil, errors.LibraryLoad(path, ErrAlreadyLoaded)
	}
	lib, err := l.open(path)
	if err != nil {
		l.loaded.Store(false)
		return nil, errors.LibraryLoad(path, err)
	}
	return lib, nil
}

// VM is the process-wide managed runtime instance.
// It owns the thread attachment table and the active class loader.
type VM struct {
	native    NativeVM
	threads   map[int64]*attachment
	loader    *GlobalRef
	mu        sync.Mutex
	loaderMu  sync.RWMutex
	closing   atomic.Bool
	destroyed atomic.Bool
}

type attachment struct {
	env      NativeEnv
	count    int
	borrowed bool
	daemon   bool
}

// Create loads the library through l, creates the VM and records the
// system class loader as the active loader.
func Create(l *Loader, opts Options) (*VM, error) {
	lib, err := l.Load(opts.LibraryPath)
	if err != nil {
		return nil, err
	}

	version := opts.Version
	if version == 0 {
		version = DefaultVersion
	}

	runtime.LockOSThread()
	nvm, nenv, st := lib.CreateVM(version, opts.Args)
	if st != StatusOK {
		runtime.UnlockOSThread()
		return nil, errors.VMCreate(int(st), st.String())
	}

	vm := &VM{
		native:  nvm,
		threads: make(map[int64]*attachment),
	}
	tid := threadID()
	vm.threads[tid] = &attachment{env: nenv, count: 1, borrowed: true}
	env := &Env{vm: vm, native: nenv, tid: tid, tracked: true}

	loader, err := env.systemClassLoader()
	env.Close()
	if err != nil {
		_ = vm.Destroy()
		return nil, err
	}
	vm.loader = loader

	Logger().Debug("vm created", zap.Int32("version", version), zap.Strings("args", opts.Args))
	return vm, nil
}

// Attach returns a thread context for the calling goroutine, pinning it to
// its OS thread until the context is closed. An attachment that already
// exists for the thread is reused and reference counted.
func (vm *VM) Attach(daemon bool) (*Env, error) {
	if vm.destroyed.Load() {
		return nil, errors.Attach(int(StatusDetached), "vm destroyed")
	}

	runtime.LockOSThread()
	tid := threadID()

	vm.mu.Lock()
	if a, ok := vm.threads[tid]; ok {
		a.count++
		vm.mu.Unlock()
		return &Env{vm: vm, native: a.env, tid: tid, tracked: true}, nil
	}
	vm.mu.Unlock()

	nenv, st := vm.native.AttachCurrentThread(daemon)
	if st != StatusOK {
		runtime.UnlockOSThread()
		return nil, errors.Attach(int(st), st.String())
	}

	vm.mu.Lock()
	vm.threads[tid] = &attachment{env: nenv, count: 1, daemon: daemon}
	vm.mu.Unlock()

	env := &Env{vm: vm, native: nenv, tid: tid, tracked: true}
	Logger().Debug("thread attached", zap.Int64("tid", tid), zap.Bool("daemon", daemon))

	if err := env.installContextLoader(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// FromNative wraps an env handed to a native method by the managed runtime.
// The thread belongs to the managed runtime and is never detached here.
func (vm *VM) FromNative(nenv NativeEnv) *Env {
	runtime.LockOSThread()
	tid := threadID()

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if a, ok := vm.threads[tid]; ok {
		if a.env != nenv {
			Logger().Debug("native env differs from recorded attachment", zap.Int64("tid", tid))
			return &Env{vm: vm, native: nenv, tid: tid}
		}
		a.count++
		return &Env{vm: vm, native: nenv, tid: tid, tracked: true}
	}
	vm.threads[tid] = &attachment{env: nenv, count: 1, borrowed: true}
	return &Env{vm: vm, native: nenv, tid: tid, tracked: true}
}

func (vm *VM) release(tid int64) {
	vm.mu.Lock()
	a, ok := vm.threads[tid]
	if !ok {
		vm.mu.Unlock()
		return
	}
	a.count--
	if a.count > 0 {
		vm.mu.Unlock()
		return
	}
	delete(vm.threads, tid)
	vm.mu.Unlock()

	if a.borrowed || vm.destroyed.Load() {
		return
	}
	if st := vm.native.DetachThread(a.env); st != StatusOK {
		Logger().Warn("detach thread", zap.Int64("tid", tid), zap.Stringer("status", st))
		return
	}
	Logger().Debug("thread detached", zap.Int64("tid", tid))
}

// Attached reports the number of threads currently attached through this VM.
func (vm *VM) Attached() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.threads)
}

// ClassLoader returns a new owner of the active class loader.
func (vm *VM) ClassLoader() *GlobalRef {
	vm.loaderMu.RLock()
	defer vm.loaderMu.RUnlock()
	return vm.loader.Clone()
}

// ReplaceClassLoader makes loader the active class loader. Threads attached
// afterwards install it as their context loader.
func (vm *VM) ReplaceClassLoader(loader *GlobalRef) {
	c := loader.Clone()
	vm.loaderMu.Lock()
	old := vm.loader
	vm.loader = c
	vm.loaderMu.Unlock()
	old.Release()
}

// Destroy releases the active loader and destroys the VM.
// Global references released afterwards are dropped without touching the VM.
func (vm *VM) Destroy() error {
	if !vm.closing.CompareAndSwap(false, true) {
		return nil
	}

	vm.loaderMu.Lock()
	l := vm.loader
	vm.loader = nil
	vm.loaderMu.Unlock()
	l.Release()

	vm.destroyed.Store(true)
	if st := vm.native.Destroy(); st != StatusOK {
		return errors.Wrap(errors.PhaseLoad, errors.KindVMCreate, nil, "destroy vm: "+st.String())
	}
	Logger().Debug("vm destroyed")
	return nil
}
