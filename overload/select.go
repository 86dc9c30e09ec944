package overload

import (
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/reflection"
)

// Method selects the overload of name to call with args.
func Method(env *jvm.Env, name string, candidates []*reflection.Method, args []any) (*reflection.Method, error) {
	if m, ok := first(env, candidates, methodParams, args); ok {
		return m, nil
	}
	return nil, errors.NoMatchingOverload("method", name, describe(candidates))
}

// Constructor selects the constructor of class to call with args.
func Constructor(env *jvm.Env, class string, candidates []*reflection.Constructor, args []any) (*reflection.Constructor, error) {
	if c, ok := first(env, candidates, ctorParams, args); ok {
		return c, nil
	}
	return nil, errors.NoMatchingOverload("constructor", class, describe(candidates))
}

func methodParams(m *reflection.Method) []jtype.Type    { return m.Params }
func ctorParams(c *reflection.Constructor) []jtype.Type { return c.Params }

func first[C any](env *jvm.Env, candidates []C, params func(C) []jtype.Type, args []any) (C, bool) {
	for _, fallback := range []bool{false, true} {
		for _, c := range candidates {
			if Matches(env, params(c), args, fallback) {
				return c, true
			}
		}
	}
	var zero C
	return zero, false
}

// Matches reports whether args fit params. With fallback, java.lang.Object
// parameters accept any value.
func Matches(env *jvm.Env, params []jtype.Type, args []any, fallback bool) bool {
	if len(params) != len(args) {
		return false
	}
	for i, p := range params {
		if !accepts(env, args[i], p, fallback) {
			return false
		}
	}
	return true
}

func describe[C interface{ String() string }](candidates []C) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.String()
	}
	return out
}
