package marshal

import (
	stderrors "errors"
	"strconv"

	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/reflection"
)

// MaxDepth bounds array nesting in both directions.
const MaxDepth = 64

// Engine converts values between the host and the managed runtime.
// It is safe for concurrent use; every call works on the caller's Env.
type Engine struct {
	factory ObjectFactory
}

// New creates an engine. A nil factory wraps objects with DescriptorFactory
// over cache.
func New(cache *reflection.Cache, factory ObjectFactory) *Engine {
	if factory == nil {
		factory = DescriptorFactory{Cache: cache}
	}
	return &Engine{factory: factory}
}

// Args converts call arguments for params. The caller releases the results
// once the call returned.
func (e *Engine) Args(env *jvm.Env, params []jtype.Type, args []any) ([]jvm.CallResult, error) {
	out := make([]jvm.CallResult, 0, len(params))
	for i, p := range params {
		var v any
		if i < len(args) {
			v = args[i]
		}
		r, err := e.ToResult(env, v, p)
		if err != nil {
			jvm.ReleaseAll(out)
			return nil, pathErr(err, argName(i))
		}
		out = append(out, r)
	}
	return out, nil
}

func argName(i int) string {
	return "arg" + strconv.Itoa(i)
}

// pathErr prefixes the member path of a structured error.
func pathErr(err error, elem string) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.Path = append([]string{elem}, e.Path...)
	}
	return err
}
