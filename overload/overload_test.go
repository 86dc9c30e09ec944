package overload_test

import (
	"math/big"
	"strings"
	"testing"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/errors"
	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
	"github.com/wippyai/jbridge/overload"
	"github.com/wippyai/jbridge/reflection"
	"github.com/wippyai/jbridge/simvm"
)

func TestCompatible(t *testing.T) {
	var (
		intT    = jtype.Of(jtype.Int)
		byteT   = jtype.Of(jtype.Byte)
		charT   = jtype.Of(jtype.Char)
		strT    = jtype.Of(jtype.String)
		objT    = jtype.Of(jtype.LangObject)
		boolT   = jtype.Of(jtype.BoxedBoolean)
		longT   = jtype.Of(jtype.Long)
		intArr  = jtype.ArrayOf(intT)
		byteArr = jtype.ArrayOf(byteT)
		strArr  = jtype.ArrayOf(strT)
		intGrid = jtype.ArrayOf(intArr)
	)
	tests := []struct {
		name string
		v    any
		t    jtype.Type
		want bool
	}{
		{"number to int", 5.0, intT, true},
		{"go int to boxed int", 5, jtype.Of(jtype.BoxedInt), true},
		{"number to short", int16(3), jtype.Of(jtype.Short), true},
		{"small integer to byte", 127.0, byteT, true},
		{"negative byte bound", -128, byteT, true},
		{"large integer to byte", 128.0, byteT, false},
		{"fraction to byte", 1.5, byteT, false},
		{"number to string", 1.0, strT, false},
		{"number to char", 65, charT, false},
		{"string to string", "x", strT, true},
		{"string to char sequence", "x", jtype.Of(jtype.CharSequence), true},
		{"single char", "x", charT, true},
		{"single char boxed", "x", jtype.Of(jtype.BoxedChar), true},
		{"long string to char", "xy", charT, false},
		{"string to object strict", "x", objT, false},
		{"bool to boolean", true, boolT, true},
		{"bool to int", true, intT, false},
		{"bigint to long", big.NewInt(1), longT, true},
		{"bigint to int", big.NewInt(1), intT, false},
		{"null to string", nil, strT, true},
		{"undefined to array", host.Undefined{}, intArr, true},
		{"null to primitive", nil, intT, false},
		{"empty array", []any{}, strArr, true},
		{"number array", []any{1.0, 2.0}, intArr, true},
		{"typed array", []float64{1, 2}, intArr, true},
		{"string array to int array", []any{"a"}, intArr, false},
		{"nested array", []any{[]any{1}}, intGrid, true},
		{"array to scalar", []any{1}, intT, false},
		{"buffer to byte array", []byte{1}, byteArr, true},
		{"buffer to boxed byte array", []byte{1}, jtype.Parse("java.lang.Byte[]"), true},
		{"buffer to int array", []byte{1}, intArr, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := overload.Compatible(nil, tt.v, tt.t); got != tt.want {
				t.Fatalf("Compatible(%v, %s) = %v, want %v", tt.v, tt.t, got, tt.want)
			}
		})
	}
}

func TestMatches_Fallback(t *testing.T) {
	params := []jtype.Type{jtype.Of(jtype.LangObject), jtype.Of(jtype.Int)}
	args := []any{"s", 1.0}
	if overload.Matches(nil, params, args, false) {
		t.Fatal("strict pass must reject a string for Object")
	}
	if !overload.Matches(nil, params, args, true) {
		t.Fatal("fallback pass must accept a string for Object")
	}
	if overload.Matches(nil, params, args[:1], true) {
		t.Fatal("arity must match")
	}
}

type fixture struct {
	env   *jvm.Env
	cache *reflection.Cache
}

func setup(t *testing.T) *fixture {
	t.Helper()
	rt := simvm.New()
	if err := rt.Define(simvm.Demo()...); err != nil {
		t.Fatal(err)
	}
	vm, err := jvm.Create(jvm.NewLoader(rt.Opener()), jvm.Options{})
	if err != nil {
		t.Fatal(err)
	}
	env, err := vm.Attach(false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		env.Close()
		_ = vm.Destroy()
	})
	return &fixture{env: env, cache: reflection.NewCache(0)}
}

func (f *fixture) describe(t *testing.T, name string) *reflection.ClassDescriptor {
	t.Helper()
	d, err := f.cache.Get(f.env, name, config.Default())
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMethod_SelectsByArgumentShape(t *testing.T) {
	f := setup(t)
	d := f.describe(t, "demo.Greeter")

	tests := []struct {
		method string
		args   []any
		want   string
	}{
		{"f", []any{42.0}, "(I)Ljava/lang/String;"},
		{"f", []any{"s"}, "(Ljava/lang/String;)Ljava/lang/String;"},
		{"small", []any{3.0}, "(B)Ljava/lang/String;"},
		{"small", []any{300.0}, "(J)Ljava/lang/String;"},
		{"describe", []any{1.0}, "(Ljava/lang/Object;)Ljava/lang/String;"},
	}
	for _, tt := range tests {
		for i := 0; i < 3; i++ {
			m, err := overload.Method(f.env, tt.method, d.Methods[tt.method], tt.args)
			if err != nil {
				t.Fatalf("%s%v: %v", tt.method, tt.args, err)
			}
			if m.Descriptor() != tt.want {
				t.Fatalf("%s%v selected %s, want %s", tt.method, tt.args, m.Descriptor(), tt.want)
			}
		}
	}
}

func TestMethod_NoMatch(t *testing.T) {
	f := setup(t)
	d := f.describe(t, "demo.Greeter")

	_, err := overload.Method(f.env, "f", d.Methods["f"], []any{true})
	if !errors.HasKind(err, errors.KindOverloadResolution) {
		t.Fatalf("err = %v", err)
	}
	msg := err.Error()
	for _, want := range []string{
		"No method found with name 'f'",
		"public java.lang.String f(java.lang.String)",
		"public java.lang.String f(int)",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q lacks %q", msg, want)
		}
	}
}

func TestConstructor(t *testing.T) {
	f := setup(t)
	d := f.describe(t, "demo.Box")

	c, err := overload.Constructor(f.env, d.Name, d.Constructors, []any{5.0})
	if err != nil {
		t.Fatal(err)
	}
	if c.Descriptor() != "(I)V" {
		t.Fatalf("selected %s", c.Descriptor())
	}
	if _, err := overload.Constructor(f.env, d.Name, d.Constructors, []any{"x"}); err == nil {
		t.Fatal("expected no matching constructor")
	}
}

type bridged struct {
	ref  *jvm.GlobalRef
	name string
}

func (b bridged) ManagedRef() (*jvm.GlobalRef, error) { return b.ref, nil }
func (b bridged) ManagedClassName() string            { return b.name }

func TestCompatible_Bridged(t *testing.T) {
	f := setup(t)
	cls, err := f.env.LoadClass("demo.Box")
	if err != nil {
		t.Fatal(err)
	}
	defer cls.Release()
	obj, err := f.env.NewObjectBySig(cls, "(I)V", jvm.IntValue(1))
	if err != nil {
		t.Fatal(err)
	}
	g, err := obj.Promote()
	if err != nil {
		t.Fatal(err)
	}
	defer g.Release()
	b := bridged{ref: g, name: "demo.Box"}

	if !overload.Compatible(f.env, b, jtype.Parse("demo.Box")) {
		t.Fatal("box is a demo.Box")
	}
	if !overload.Compatible(f.env, b, jtype.Of(jtype.LangObject)) {
		t.Fatal("box is an Object")
	}
	if overload.Compatible(f.env, b, jtype.Of(jtype.String)) {
		t.Fatal("box is not a String")
	}
	if overload.Compatible(f.env, b, jtype.Of(jtype.Int)) {
		t.Fatal("objects never match primitives")
	}

	d := f.describe(t, "demo.Box")
	m, err := overload.Method(f.env, "add", d.Methods["add"], []any{b})
	if err != nil || m.Name != "add" {
		t.Fatalf("add(box) = %v, %v", m, err)
	}
}
