package jtype

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		name string
		desc string
	}{
		{"int", Int, "int", "I"},
		{"void", Void, "void", "V"},
		{"boolean", Boolean, "boolean", "Z"},
		{"java.lang.Integer", BoxedInt, "java.lang.Integer", "Ljava/lang/Integer;"},
		{"java.lang.String", String, "java.lang.String", "Ljava/lang/String;"},
		{"java.lang.CharSequence", CharSequence, "java.lang.CharSequence", "Ljava/lang/CharSequence;"},
		{"java.lang.Object", LangObject, "java.lang.Object", "Ljava/lang/Object;"},
		{"com.example.Box", Object, "com.example.Box", "Lcom/example/Box;"},
		{"com/example/Box", Object, "com.example.Box", "Lcom/example/Box;"},
		{"int[]", Array, "int[]", "[I"},
		{"java.lang.String[][]", Array, "java.lang.String[][]", "[[Ljava/lang/String;"},
		{"[J", Array, "long[]", "[J"},
		{"[Ljava.lang.Object;", Array, "java.lang.Object[]", "[Ljava/lang/Object;"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Parse(tt.in)
			if got.Kind() != tt.kind {
				t.Fatalf("kind = %v, want %v", got.Kind(), tt.kind)
			}
			if got.Name() != tt.name {
				t.Fatalf("name = %q, want %q", got.Name(), tt.name)
			}
			if got.Descriptor() != tt.desc {
				t.Fatalf("descriptor = %q, want %q", got.Descriptor(), tt.desc)
			}
		})
	}
}

func TestFromDescriptor(t *testing.T) {
	tests := []struct {
		desc    string
		name    string
		wantErr bool
	}{
		{"I", "int", false},
		{"[B", "byte[]", false},
		{"[[D", "double[][]", false},
		{"Ljava/util/List;", "java.util.List", false},
		{"Ljava/util/List", "", true},
		{"[V", "", true},
		{"Q", "", true},
		{"II", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := FromDescriptor(tt.desc)
		if tt.wantErr {
			if err == nil {
				t.Errorf("FromDescriptor(%q) expected error, got %v", tt.desc, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("FromDescriptor(%q): %v", tt.desc, err)
			continue
		}
		if got.Name() != tt.name {
			t.Errorf("FromDescriptor(%q) = %q, want %q", tt.desc, got.Name(), tt.name)
		}
	}
}

func TestArrayInner(t *testing.T) {
	arr := Parse("int[][]")
	inner, ok := arr.Inner()
	if !ok || inner.Name() != "int[]" {
		t.Fatalf("inner = %v, %v", inner, ok)
	}
	elem, ok := inner.Inner()
	if !ok || elem.Kind() != Int {
		t.Fatalf("elem = %v, %v", elem, ok)
	}
	if _, ok := elem.Inner(); ok {
		t.Fatal("primitive has no inner type")
	}
}

func TestEqualAndHash(t *testing.T) {
	a := Parse("java.lang.String[]")
	b, err := FromClassName("[Ljava.lang.String;")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Fatalf("%v and %v should be equal", a, b)
	}
	if a.Equal(Parse("java.lang.String")) {
		t.Fatal("array and element must differ")
	}
}

func TestKindPredicates(t *testing.T) {
	if !Parse("java.lang.Integer").IsInt() || !Parse("int").IsInt() {
		t.Fatal("IsInt must cover primitive and wrapper")
	}
	if !Parse("java.lang.Byte[]").IsByteArray() || !Parse("byte[]").IsByteArray() {
		t.Fatal("IsByteArray must cover byte[] and Byte[]")
	}
	if Parse("short[]").IsByteArray() {
		t.Fatal("short[] is not a byte array")
	}
	if Parse("int").Boxed().Kind() != BoxedInt {
		t.Fatal("boxed int")
	}
	if got := Parse("char").ClassName(); got != "java.lang.Character" {
		t.Fatalf("ClassName = %q", got)
	}
	if got := Parse("int[]").ClassName(); got != "[I" {
		t.Fatalf("ClassName = %q", got)
	}
	if got := Parse("java.lang.String[]").InternalName(); got != "[Ljava/lang/String;" {
		t.Fatalf("InternalName = %q", got)
	}
}

func TestSignature(t *testing.T) {
	sig, err := ParseSignature("(ILjava/lang/String;[J)Ljava/lang/Object;")
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.Params) != 3 {
		t.Fatalf("params = %v", sig.Params)
	}
	if got := sig.Format("f"); got != "java.lang.Object f(int, java.lang.String, long[])" {
		t.Fatalf("Format = %q", got)
	}
	if got := sig.Descriptor(); got != "(ILjava/lang/String;[J)Ljava/lang/Object;" {
		t.Fatalf("Descriptor = %q", got)
	}
	if !sig.Equal(NewSignature("java.lang.Object", "int", "java.lang.String", "long[]")) {
		t.Fatal("NewSignature mismatch")
	}

	for _, bad := range []string{"I)V", "(I", "(V)V", "()", "()VV"} {
		if _, err := ParseSignature(bad); err == nil {
			t.Errorf("ParseSignature(%q) expected error", bad)
		}
	}
}

func BenchmarkEqual(b *testing.B) {
	x := Parse("java.lang.String[][]")
	y := Parse("java.lang.String[][]")
	for i := 0; i < b.N; i++ {
		if !x.Equal(y) {
			b.Fatal("not equal")
		}
	}
}
