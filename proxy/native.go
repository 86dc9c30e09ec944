package proxy

import (
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

const callHostDesc = "(JLjava/lang/reflect/Method;[Ljava/lang/Object;)Ljava/lang/Object;"

var objectArray = jtype.ArrayOf(jtype.Of(jtype.LangObject))

// registerNatives binds the dispatcher's native entry point to r once.
func (r *Registry) registerNatives(env *jvm.Env) error {
	r.nativesMu.Lock()
	defer r.nativesMu.Unlock()
	if r.registered {
		return nil
	}
	cls, err := env.FindClass(DispatcherClass)
	if err != nil {
		return err
	}
	defer cls.Delete()
	err = env.RegisterNatives(cls, []jvm.Native{{
		Name:      "callHost",
		Signature: callHostDesc,
		Fn:        r.callHost,
	}})
	if err != nil {
		return err
	}
	r.registered = true
	return nil
}

// callHost is the native entry point: callHost(long id, Method method,
// Object[] args). It converts the invocation, dispatches it and converts
// the callback's result to the method's return type.
func (r *Registry) callHost(env *jvm.Env, _ *jvm.LocalRef, args []jvm.NativeArg) (*jvm.LocalRef, error) {
	id := args[0].Long()
	method := args[1].Ref()

	name, err := env.CallObjectMethod(method, "getName", "()Ljava/lang/String;")
	if err != nil {
		return nil, err
	}
	mname, err := env.GoString(name)
	name.Delete()
	if err != nil {
		return nil, err
	}

	ret, err := returnType(env, method)
	if err != nil {
		return nil, err
	}

	var hostArgs []any
	if arr := args[2].Ref(); !arr.IsNull() {
		g, err := env.NewGlobalRef(arr)
		if err != nil {
			return nil, err
		}
		v, err := r.engine.ToHost(env, jvm.ObjectResult(g, objectArray))
		if err != nil {
			return nil, err
		}
		hostArgs, _ = v.([]any)
	}

	v, err := r.OnInvoke(env, id, mname, hostArgs)
	if err != nil {
		return nil, err
	}
	if ret.IsVoid() {
		return nil, nil
	}

	res, err := r.engine.ToResult(env, v, ret.Boxed())
	if err != nil {
		return nil, err
	}
	if !res.IsObject() {
		return nil, nil
	}
	defer res.Release()
	return res.Ref.Local(env)
}

func returnType(env *jvm.Env, method *jvm.LocalRef) (jtype.Type, error) {
	cls, err := env.CallObjectMethod(method, "getReturnType", "()Ljava/lang/Class;")
	if err != nil {
		return jtype.Type{}, err
	}
	defer cls.Delete()
	name, err := env.ClassName(cls)
	if err != nil {
		return jtype.Type{}, err
	}
	return jtype.FromClassName(name)
}
