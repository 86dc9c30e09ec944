package jvm

import "github.com/wippyai/jbridge/errors"

func (e *Env) systemClassLoader() (*GlobalRef, error) {
	cls, err := e.FindClass("java/lang/ClassLoader")
	if err != nil {
		return nil, err
	}
	defer cls.Delete()

	loader, err := e.CallStaticObjectMethod(cls, "getSystemClassLoader", "()Ljava/lang/ClassLoader;")
	if err != nil {
		return nil, err
	}
	if loader.IsNull() {
		return nil, errors.NullContract("ClassLoader.getSystemClassLoader()")
	}
	return loader.Promote()
}

// installContextLoader makes the active loader the current thread's context
// class loader so reflective lookups see application classes.
func (e *Env) installContextLoader() error {
	loader := e.vm.ClassLoader()
	defer loader.Release()
	if loader.IsNull() {
		return nil
	}

	cls, err := e.FindClass("java/lang/Thread")
	if err != nil {
		return err
	}
	defer cls.Delete()

	thread, err := e.CallStaticObjectMethod(cls, "currentThread", "()Ljava/lang/Thread;")
	if err != nil {
		return err
	}
	if thread.IsNull() {
		return errors.NullContract("Thread.currentThread()")
	}
	defer thread.Delete()

	_, err = e.CallMethod(thread, "setContextClassLoader", "(Ljava/lang/ClassLoader;)V", RefValue(loader))
	return err
}
