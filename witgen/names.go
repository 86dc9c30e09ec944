package witgen

import (
	"strconv"
	"strings"
	"unicode"
)

var keywords = map[string]bool{
	"as": true, "async": true, "bool": true, "borrow": true, "char": true,
	"constructor": true, "enum": true, "export": true, "f32": true, "f64": true,
	"flags": true, "from": true, "func": true, "future": true, "import": true,
	"include": true, "interface": true, "list": true, "option": true, "own": true,
	"package": true, "record": true, "resource": true, "result": true, "s16": true,
	"s32": true, "s64": true, "s8": true, "static": true, "stream": true,
	"string": true, "tuple": true, "type": true, "u16": true, "u32": true,
	"u64": true, "u8": true, "use": true, "variant": true, "with": true, "world": true,
}

// Name converts a Java identifier or dotted class name to a WIT identifier:
// "toString" becomes "to-string", "demo.URLLoader" becomes "demo-url-loader".
// Keywords are escaped with '%'.
func Name(s string) string {
	rs := []rune(s)
	var b strings.Builder
	dash := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			b.WriteByte('-')
		}
	}
	for i, r := range rs {
		switch {
		case unicode.IsUpper(r):
			prevLower := i > 0 && (unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1]))
			nextLower := i > 0 && unicode.IsUpper(rs[i-1]) && i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if prevLower || nextLower {
				dash()
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLower(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			// Segments must start with a letter.
			if b.Len() == 0 || strings.HasSuffix(b.String(), "-") {
				b.WriteByte('x')
			}
			b.WriteRune(r)
		default:
			dash()
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		out = "x"
	}
	if keywords[out] {
		return "%" + out
	}
	return out
}

// names hands out unique identifiers within one scope.
type names map[string]bool

func (n names) take(id string) string {
	if !n[id] {
		n[id] = true
		return id
	}
	for i := 2; ; i++ {
		c := strings.TrimPrefix(id, "%") + "-o" + strconv.Itoa(i)
		if !n[c] {
			n[c] = true
			return c
		}
	}
}
