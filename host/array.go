package host

import "reflect"

// AsArray returns the elements of an array-like value. []any is returned
// as is; other slices except []byte are copied element by element.
func AsArray(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []byte:
		return nil, false
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ArrayLen returns the length of an array-like value without copying it.
func ArrayLen(v any) (int, bool) {
	switch x := v.(type) {
	case []any:
		return len(x), true
	case []byte, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

// First returns the first element of a non-empty array-like value.
func First(v any) (any, bool) {
	if x, ok := v.([]any); ok {
		if len(x) == 0 {
			return nil, false
		}
		return x[0], true
	}
	n, ok := ArrayLen(v)
	if !ok || n == 0 {
		return nil, false
	}
	return reflect.ValueOf(v).Index(0).Interface(), true
}
