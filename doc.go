// Package jbridge bridges a dynamically typed host to a managed, JVM-like
// runtime: host code imports managed classes, constructs objects, calls
// overloaded methods and implements managed interfaces with host callbacks.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	jbridge/
//	├── jtype/       Managed type model and descriptor parsing
//	├── errors/      Structured error types for debugging
//	├── config/      Per-class configuration (TOML)
//	├── host/        Host value model and the callback scheduler
//	├── jvm/         VM handle, thread contexts, local/global references, exceptions
//	├── reflection/  Class and member resolution, descriptor cache
//	├── overload/    Overload selection from call-site arguments
//	├── marshal/     Conversion between host values and managed values
//	├── proxy/       Managed interface proxies dispatching to host callbacks
//	├── bridge/      High-level API: classes, instances, async calls, classpath
//	├── witgen/      WIT rendering of class descriptors
//	├── simvm/       In-process managed runtime used by tests, examples and the CLI
//	└── cmd/jbridge  CLI: inspect, call, wit, explore
//
// # Quick Start
//
//	b, err := bridge.New(jvm.NewLoader(open), bridge.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer b.Close()
//
//	box, err := b.ImportClass("demo.Box")
//	inst, err := box.New(5)
//	defer inst.Release()
//
//	v, err := inst.Call("get") // 5.0
//
// # Value Mapping
//
// Host values are nil, bool, float64, *big.Int (long), string, slices and
// bridged objects. Managed numbers other than long become float64; char
// becomes a one-character string. Primitive arrays map to typed slices,
// object arrays to []any. Objects with no plain host form come back as
// *bridge.Instance.
//
// # Thread Safety
//
// A jvm.Env belongs to the goroutine that attached it and pins that
// goroutine to its OS thread until Close. Bridge, Class and Instance are
// safe for concurrent use; every call attaches its own thread context.
//
// # Callbacks
//
// Proxy callbacks run on the host scheduler, one at a time. A managed thread
// that invokes a proxy blocks until the callback returns or fails. Blocking
// calls made from the goroutine that runs the scheduler must enable
// pump_host_while_proxy_active for the class, otherwise they deadlock.
package jbridge
