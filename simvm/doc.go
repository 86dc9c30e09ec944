// Package simvm is an in-process managed runtime that implements the
// primitive set of package jvm.
//
// It models enough of a JVM for the bridge to run end to end without a
// native library: classes with Go-implemented methods, single inheritance
// with interfaces, reflection through java.lang.Class and
// java.lang.reflect, dynamic proxies, throwables with cause chains and stack
// traces, URL class loaders, native method registration and managed threads.
//
// Every local and global reference lives in a handle table, so Stats can
// report how many were created, freed, and freed more than once:
//
//	rt := simvm.New()
//	rt.Define(simvm.Demo()...)
//	vm, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{})
//	...
//	s := rt.Stats()
//	s.LocalDoubleFrees // 0
//
// Application classes are declared as Class values whose methods are Go
// functions receiving the calling Thread:
//
//	rt.Define(&simvm.Class{
//		Name: "demo.Counter",
//		Methods: []*simvm.Method{
//			simvm.Ctor("()V", nil),
//			simvm.Instance("next", "()I", func(t *simvm.Thread, this *simvm.Object, args []any) (any, error) {
//				...
//			}),
//		},
//	})
package simvm
