package simvm

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wippyai/jbridge/jtype"
)

// Demo returns a small set of application classes used by the examples,
// the CLI and the end-to-end tests.
func Demo() []*Class {
	return []*Class{
		boxDemo(),
		greeterDemo(),
		numbersDemo(),
		{Name: "demo.Transformer", Interface: true, Methods: []*Method{
			Abstract("transform", "(Ljava/lang/String;)Ljava/lang/String;"),
		}},
		workerDemo(),
		failingDemo(),
	}
}

func boxDemo() *Class {
	count := StaticField("created", "I", int32(0))
	bump := func(this *Object) {
		c := this.class
		for c.Name != "demo.Box" {
			c = c.super
		}
		c.mu.Lock()
		c.statics[count] = c.statics[count].(int32) + 1
		c.mu.Unlock()
	}
	return &Class{
		Name:   "demo.Box",
		Fields: []*Field{InstanceField("value", "I"), count},
		Methods: []*Method{
			Ctor("()V", func(_ *Thread, this *Object, _ []any) (any, error) {
				bump(this)
				return nil, nil
			}),
			Ctor("(I)V", func(_ *Thread, this *Object, args []any) (any, error) {
				this.Set("value", args[0])
				bump(this)
				return nil, nil
			}),
			Instance("get", "()I", func(_ *Thread, this *Object, _ []any) (any, error) {
				return this.Get("value"), nil
			}),
			Instance("set", "(I)V", func(_ *Thread, this *Object, args []any) (any, error) {
				this.Set("value", args[0])
				return nil, nil
			}),
			Instance("add", "(Ldemo/Box;)Ldemo/Box;", func(t *Thread, this *Object, args []any) (any, error) {
				other := asObject(args[0])
				if other == nil {
					return nil, t.Exception("java.lang.NullPointerException", "box is null")
				}
				return t.New("demo.Box", "(I)V", this.Get("value").(int32)+other.Get("value").(int32))
			}),
			Instance("peek", "()Ljava/lang/Object;", func(t *Thread, this *Object, _ []any) (any, error) {
				return t.rt.Box(jtype.Int, this.Get("value")), nil
			}),
			Instance("toString", "()Ljava/lang/String;", func(t *Thread, this *Object, _ []any) (any, error) {
				return t.rt.String(fmt.Sprintf("Box(%d)", this.Get("value"))), nil
			}),
			Static("of", "(I)Ldemo/Box;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.New("demo.Box", "(I)V", args[0])
			}),
		},
	}
}

func greeterDemo() *Class {
	return &Class{
		Name:   "demo.Greeter",
		Fields: []*Field{InstanceField("greeting", "Ljava/lang/String;")},
		Methods: []*Method{
			Ctor("()V", func(t *Thread, this *Object, _ []any) (any, error) {
				this.Set("greeting", t.rt.String("Hello"))
				return nil, nil
			}),
			Ctor("(Ljava/lang/String;)V", func(_ *Thread, this *Object, args []any) (any, error) {
				this.Set("greeting", asObject(args[0]))
				return nil, nil
			}),
			Instance("f", "(Ljava/lang/String;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.String("string:" + asObject(args[0]).GoString()), nil
			}),
			Instance("f", "(I)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.String(fmt.Sprintf("int:%d", args[0])), nil
			}),
			Instance("small", "(B)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.String(fmt.Sprintf("byte:%d", args[0])), nil
			}),
			Instance("small", "(J)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.String(fmt.Sprintf("long:%d", args[0])), nil
			}),
			Instance("greet", "(Ljava/lang/CharSequence;)Ljava/lang/String;", func(t *Thread, this *Object, args []any) (any, error) {
				return t.rt.String(asObject(this.Get("greeting")).GoString() + ", " + asObject(args[0]).GoString() + "!"), nil
			}),
			Instance("initial", "(C)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.String("char:" + formatPrimitive(args[0])), nil
			}),
			Instance("describe", "(Ljava/lang/Object;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				o := asObject(args[0])
				if o == nil {
					return t.rt.String("object:null"), nil
				}
				s, err := t.InvokeByName(o, "toString", "()Ljava/lang/String;")
				if err != nil {
					return nil, err
				}
				return t.rt.String("object:" + asObject(s).GoString()), nil
			}),
			Static("join", "([Ljava/lang/String;Ljava/lang/String;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				var parts []string
				for _, p := range asObject(args[0]).Elements() {
					parts = append(parts, p.GoString())
				}
				return t.rt.String(strings.Join(parts, asObject(args[1]).GoString())), nil
			}),
		},
	}
}

func numbersDemo() *Class {
	return &Class{
		Name: "demo.Numbers",
		Methods: []*Method{
			Static("reverse", "([I)[I", func(t *Thread, _ *Object, args []any) (any, error) {
				in := asObject(args[0]).Value().([]int32)
				out := make([]int32, len(in))
				for i, v := range in {
					out[len(in)-1-i] = v
				}
				return t.rt.PrimitiveArray(jtype.Int, out), nil
			}),
			Static("copy", "([I)[I", func(t *Thread, _ *Object, args []any) (any, error) {
				in := asObject(args[0]).Value().([]int32)
				return t.rt.PrimitiveArray(jtype.Int, append([]int32(nil), in...)), nil
			}),
			Static("sum", "([D)D", func(_ *Thread, _ *Object, args []any) (any, error) {
				var s float64
				for _, v := range asObject(args[0]).Value().([]float64) {
					s += v
				}
				return s, nil
			}),
			Static("echo", "([B)[B", func(t *Thread, _ *Object, args []any) (any, error) {
				in := asObject(args[0]).Value().([]int8)
				return t.rt.PrimitiveArray(jtype.Byte, append([]int8(nil), in...)), nil
			}),
			Static("range", "(J)[J", func(t *Thread, _ *Object, args []any) (any, error) {
				n := args[0].(int64)
				out := make([]int64, n)
				for i := range out {
					out[i] = int64(i)
				}
				return t.rt.PrimitiveArray(jtype.Long, out), nil
			}),
			Static("boxed", "(I)Ljava/lang/Object;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.rt.Box(jtype.Int, args[0]), nil
			}),
			Static("grid", "(I)Ljava/lang/Object;", func(t *Thread, _ *Object, args []any) (any, error) {
				n := int(args[0].(int32))
				rows := make([]*Object, n)
				for i := range rows {
					row := make([]int32, n)
					for j := range row {
						row[j] = int32(i*n + j)
					}
					rows[i] = t.rt.PrimitiveArray(jtype.Int, row)
				}
				return t.rt.ObjectArray("[I", rows), nil
			}),
			Static("mixed", "()[Ljava/lang/Object;", func(t *Thread, _ *Object, _ []any) (any, error) {
				return t.rt.ObjectArray("java.lang.Object", []*Object{
					t.rt.Box(jtype.Int, int32(1)),
					t.rt.String("two"),
					nil,
					t.rt.Box(jtype.Double, 3.5),
				}), nil
			}),
			Static("words", "()Ljava/lang/Object;", func(t *Thread, _ *Object, _ []any) (any, error) {
				return t.rt.ObjectArray("java.lang.String", []*Object{t.rt.String("a"), t.rt.String("b")}), nil
			}),
			Static("identity", "(Ljava/lang/Object;)Ljava/lang/Object;", func(_ *Thread, _ *Object, args []any) (any, error) {
				return args[0], nil
			}),
			Static("twice", "(J)J", func(_ *Thread, _ *Object, args []any) (any, error) {
				return args[0].(int64) * 2, nil
			}),
			Static("negate", "(Z)Z", func(_ *Thread, _ *Object, args []any) (any, error) {
				return !args[0].(bool), nil
			}),
			Static("half", "(F)F", func(_ *Thread, _ *Object, args []any) (any, error) {
				return args[0].(float32) / 2, nil
			}),
			Static("first", "(Ljava/lang/String;)C", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.InvokeByName(asObject(args[0]), "charAt", "(I)C", int32(0))
			}),
			Static("divide", "(II)I", func(t *Thread, _ *Object, args []any) (any, error) {
				if args[1].(int32) == 0 {
					return nil, t.Exception("java.lang.ArithmeticException", "/ by zero")
				}
				return args[0].(int32) / args[1].(int32), nil
			}),
		},
	}
}

func workerDemo() *Class {
	lastError := StaticField("lastError", "Ljava/lang/String;", nil)
	return &Class{
		Name:   "demo.Worker",
		Fields: []*Field{lastError},
		Methods: []*Method{
			Static("run", "(Ljava/lang/Runnable;)V", func(t *Thread, _ *Object, args []any) (any, error) {
				_, err := t.InvokeByName(asObject(args[0]), "run", "()V")
				return nil, err
			}),
			Static("apply", "(Ldemo/Transformer;Ljava/lang/String;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				return t.InvokeByName(asObject(args[0]), "transform", "(Ljava/lang/String;)Ljava/lang/String;", args[1])
			}),
			// runAll runs r.run() on n new threads and returns how many completed
			// without throwing. The last failure's description is kept in lastError.
			Static("runAll", "(Ljava/lang/Runnable;I)I", func(t *Thread, _ *Object, args []any) (any, error) {
				r := asObject(args[0])
				n := int(args[1].(int32))
				var ok atomic.Int32
				var mu sync.Mutex
				var failure string
				var wg sync.WaitGroup
				for i := 0; i < n; i++ {
					wg.Add(1)
					t.Spawn(func(th *Thread) {
						defer wg.Done()
						if _, err := th.InvokeByName(r, "run", "()V"); err != nil {
							mu.Lock()
							failure = err.Error()
							mu.Unlock()
							return
						}
						ok.Add(1)
					})
				}
				wg.Wait()
				if failure != "" {
					lastError.class.setStatic(lastError, t.rt.String(failure))
				}
				return ok.Load(), nil
			}),
		},
	}
}

func failingDemo() *Class {
	return &Class{
		Name: "demo.Failing",
		Methods: []*Method{
			// fail throws a chain of depth exceptions. The root cause is an
			// IllegalArgumentException; every outer level wraps the one below.
			Static("fail", "(I)V", func(t *Thread, _ *Object, args []any) (any, error) {
				depth := int(args[0].(int32))
				if depth < 1 {
					depth = 1
				}
				err := t.Exception("java.lang.IllegalArgumentException", "root cause")
				for i := depth - 1; i >= 1; i-- {
					err = t.ExceptionCause("java.lang.IllegalStateException", fmt.Sprintf("level %d", i), err.(*Thrown).Obj)
				}
				return nil, err
			}),
			Static("message", "(Ljava/lang/Throwable;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				ex := asObject(args[0])
				if ex == nil {
					return (*Object)(nil), nil
				}
				return t.InvokeByName(ex, "getMessage", "()Ljava/lang/String;")
			}),
			// catching runs r and returns the message of what it threw, or null.
			Static("catching", "(Ljava/lang/Runnable;)Ljava/lang/String;", func(t *Thread, _ *Object, args []any) (any, error) {
				_, err := t.InvokeByName(asObject(args[0]), "run", "()V")
				if err == nil {
					return (*Object)(nil), nil
				}
				th, ok := err.(*Thrown)
				if !ok {
					return nil, err
				}
				return t.InvokeByName(th.Obj, "getMessage", "()Ljava/lang/String;")
			}),
		},
	}
}
