// Package bridge is the surface a host binding layer talks to.
//
// A Bridge owns one managed VM and everything resolved against it: the
// descriptor cache, the marshalling engine, the proxy registry and the host
// scheduler callbacks run on. Imported classes expose constructors, static
// members and fields; instances expose methods and fields. Arguments and
// results use the host value model of package host.
//
// Every operation attaches the calling goroutine for its duration, so a
// Bridge may be used from any goroutine.
//
//	b, err := bridge.New(jvm.NewLoader(open), bridge.Options{})
//	box, err := b.ImportClass("demo.Box")
//	inst, err := box.New(5)
//	v, err := inst.Call("get")
package bridge
