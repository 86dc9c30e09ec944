package simvm

import (
	"fmt"
	"slices"
	"strings"
)

// Managed-side helper classes the bridge relies on.
const (
	DispatcherClass    = "io.github.wippyai.jbridge.NativeDispatcher"
	HostExceptionClass = "io.github.wippyai.jbridge.HostException"
	UtilClass          = "io.github.wippyai.jbridge.Util"

	// CallHostDesc is the descriptor of the dispatcher's native entry point.
	CallHostDesc = "(JLjava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"
)

func bridgeClasses() []*Class {
	return []*Class{
		dispatcherClass(),
		throwableClass(HostExceptionClass, "java.lang.RuntimeException"),
		utilClass(),
	}
}

func dispatcherClass() *Class {
	state := func(o *Object) *dispatcherState { return o.Value().(*dispatcherState) }
	callHost := Native("callHost", CallHostDesc)
	callHost.Private = true

	return &Class{Name: DispatcherClass, Interfaces: []string{"java.lang.reflect.InvocationHandler"}, Methods: []*Method{
		Ctor("([Ljava/lang/String;J)V", func(_ *Thread, this *Object, args []any) (any, error) {
			st := &dispatcherState{id: args[1].(int64)}
			for _, n := range asObject(args[0]).Elements() {
				st.names = append(st.names, n.GoString())
			}
			st.valid.Store(true)
			this.SetValue(st)
			return nil, nil
		}),
		Instance("invoke", invokeDesc, func(t *Thread, this *Object, args []any) (any, error) {
			st := state(this)
			if !st.valid.Load() {
				return nil, t.Exception("java.lang.IllegalAccessException", "The proxy interface isn't valid anymore")
			}
			proxy, mobj, arr := asObject(args[0]), asObject(args[1]), asObject(args[2])
			m := mobj.Value().(*Method)
			if m.class.Name == "java.lang.Object" {
				switch m.Name {
				case "equals":
					var other *Object
					if els := arr.Elements(); len(els) > 0 {
						other = els[0]
					}
					return t.rt.Box(m.sig.Return.Kind(), other == proxy), nil
				case "hashCode":
					return t.rt.Box(m.sig.Return.Kind(), proxy.hash), nil
				case "toString":
					return t.rt.String(fmt.Sprintf("NativeDispatcher{methods=[%s], id=%d}", strings.Join(st.names, ", "), st.id)), nil
				}
			}
			if !slices.Contains(st.names, m.Name) {
				return nil, t.Exception("java.lang.NoSuchMethodException", "The requested method was not defined by the host process")
			}
			return t.InvokeByName(this, "callHost", CallHostDesc, st.id, mobj, arr)
		}),
		callHost,
		Instance("destruct", "()V", func(_ *Thread, this *Object, _ []any) (any, error) {
			state(this).valid.Store(false)
			return nil, nil
		}),
		Instance("isValid", "()Z", func(_ *Thread, this *Object, _ []any) (any, error) {
			return state(this).valid.Load(), nil
		}),
	}}
}

func utilClass() *Class {
	return &Class{Name: UtilClass, Methods: []*Method{
		Static("exceptionFromHostError", "(Ljava/lang/String;[Ljava/lang/String;)Ljava/lang/Throwable;",
			func(t *Thread, _ *Object, args []any) (any, error) {
				ex := t.newThrowable(t.rt.mustClass(HostExceptionClass), asObject(args[0]).GoString(), true, nil)
				th := ex.value.(*throwable)

				own := th.frames
				frames := make([]string, 0, len(own)+8)
				if len(own) > 0 {
					frames = append(frames, own[0])
					own = own[1:]
				}
				if arr := asObject(args[1]); arr != nil {
					for _, f := range arr.Elements() {
						frames = append(frames, hostFrame(f.GoString()))
					}
				}
				th.frames = append(frames, own...)
				return ex, nil
			}),
	}}
}

// hostFrame renders "function (file:line)" as a stack trace element of the
// external pseudo-class.
func hostFrame(s string) string {
	fn, loc, ok := strings.Cut(s, " (")
	if !ok {
		return "external." + s + "(Unknown Source)"
	}
	return "external." + fn + "(" + loc
}
