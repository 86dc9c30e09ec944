package main

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/wippyai/jbridge/host"
	"github.com/wippyai/jbridge/jtype"
)

// maxExact is the largest integer a float64 holds exactly.
var maxExact = big.NewInt(1 << 53)

// parseArg reads a command-line argument as a host value: null, true,
// false, numbers, [a,b,...] lists and quoted or bare strings.
func parseArg(s string) any {
	switch s {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if inner == "" {
			return []any{}
		}
		parts := strings.Split(inner, ",")
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = parseArg(strings.TrimSpace(p))
		}
		return out
	}
	if q, err := strconv.Unquote(s); err == nil {
		return q
	}
	if n, ok := new(big.Int).SetString(s, 10); ok {
		if n.CmpAbs(maxExact) <= 0 {
			return float64(n.Int64())
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseTyped reads s for a parameter of type t. String and char parameters
// take the text as is.
func parseTyped(s string, t jtype.Type) any {
	if t.IsString() || t.Kind() == jtype.Char || t.Kind() == jtype.BoxedChar {
		return s
	}
	return parseArg(s)
}

// format renders a host value for display.
func format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case host.Undefined:
		return "(void)"
	case string:
		return strconv.Quote(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case *big.Int:
		return x.String() + "n"
	case []byte:
		return fmt.Sprintf("bytes%v", x)
	case fmt.Stringer:
		return x.String()
	}
	if arr, ok := host.AsArray(v); ok {
		parts := make([]string, len(arr))
		for i, el := range arr {
			parts[i] = format(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}
