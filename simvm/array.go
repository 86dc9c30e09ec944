package simvm

import (
	"errors"
	"fmt"
)

var errRegionType = errors.New("array region type mismatch")

func arrayLen(v any) (int, bool) {
	switch a := v.(type) {
	case []bool:
		return len(a), true
	case []int8:
		return len(a), true
	case []uint16:
		return len(a), true
	case []int16:
		return len(a), true
	case []int32:
		return len(a), true
	case []int64:
		return len(a), true
	case []float32:
		return len(a), true
	case []float64:
		return len(a), true
	case []*Object:
		return len(a), true
	}
	return 0, false
}

// copyRegion copies between a buffer and an array of the same element type.
// With intoArray the array is dst and the region starts at start in dst;
// otherwise the array is src.
func copyRegion(dst, src any, start int, intoArray bool) error {
	arrLen, ok := arrayLen(src)
	bufLen, _ := arrayLen(dst)
	if intoArray {
		arrLen, ok = arrayLen(dst)
		bufLen, _ = arrayLen(src)
	}
	if !ok {
		return errRegionType
	}
	if start < 0 || start+bufLen > arrLen {
		return fmt.Errorf("region [%d, %d) out of bounds for length %d", start, start+bufLen, arrLen)
	}

	switch d := dst.(type) {
	case []bool:
		return region(d, src, start, intoArray)
	case []int8:
		return region(d, src, start, intoArray)
	case []uint16:
		return region(d, src, start, intoArray)
	case []int16:
		return region(d, src, start, intoArray)
	case []int32:
		return region(d, src, start, intoArray)
	case []int64:
		return region(d, src, start, intoArray)
	case []float32:
		return region(d, src, start, intoArray)
	case []float64:
		return region(d, src, start, intoArray)
	}
	return errRegionType
}

func region[T any](dst []T, src any, start int, intoArray bool) error {
	s, ok := src.([]T)
	if !ok {
		return errRegionType
	}
	if intoArray {
		copy(dst[start:], s)
	} else {
		copy(dst, s[start:])
	}
	return nil
}
