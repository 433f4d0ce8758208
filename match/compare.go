package match

import (
	"bytes"
	"reflect"
)

// number is the normalized form used for cross-width numeric comparison.
// Exactly one of the class flags is set.
type number struct {
	isInt   bool
	isUint  bool
	isFloat bool
	i       int64
	u       uint64
	f       float64
}

func toNumber(v interface{}) (number, bool) {
	switch n := v.(type) {
	case int:
		return number{isInt: true, i: int64(n)}, true
	case int8:
		return number{isInt: true, i: int64(n)}, true
	case int16:
		return number{isInt: true, i: int64(n)}, true
	case int32:
		return number{isInt: true, i: int64(n)}, true
	case int64:
		return number{isInt: true, i: n}, true
	case uint:
		return number{isUint: true, u: uint64(n)}, true
	case uint8:
		return number{isUint: true, u: uint64(n)}, true
	case uint16:
		return number{isUint: true, u: uint64(n)}, true
	case uint32:
		return number{isUint: true, u: uint64(n)}, true
	case uint64:
		return number{isUint: true, u: n}, true
	case uintptr:
		return number{isUint: true, u: uint64(n)}, true
	case float32:
		return number{isFloat: true, f: float64(n)}, true
	case float64:
		return number{isFloat: true, f: n}, true
	}
	return number{}, false
}

// compareNumbers returns -1, 0 or 1. Signed/unsigned pairs are compared
// without converting through float64 unless one side is floating point, so
// large 64-bit values keep full precision.
func compareNumbers(a, b number) int {
	switch {
	case a.isFloat || b.isFloat:
		af, bf := a.float(), b.float()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	case a.isInt && b.isInt:
		switch {
		case a.i < b.i:
			return -1
		case a.i > b.i:
			return 1
		default:
			return 0
		}
	case a.isUint && b.isUint:
		switch {
		case a.u < b.u:
			return -1
		case a.u > b.u:
			return 1
		default:
			return 0
		}
	case a.isInt && b.isUint:
		if a.i < 0 {
			return -1
		}
		return compareNumbers(number{isUint: true, u: uint64(a.i)}, b)
	default: // a.isUint && b.isInt
		return -compareNumbers(b, a)
	}
}

func (n number) float() float64 {
	switch {
	case n.isInt:
		return float64(n.i)
	case n.isUint:
		return float64(n.u)
	default:
		return n.f
	}
}

// equalValues compares two values for equality the way the matcher needs it:
// numbers compare across widths and signedness, byte slices by content,
// sequences element-wise, everything else by deep equality.
func equalValues(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return isNilValue(a) && isNilValue(b)
	}

	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return compareNumbers(an, bn) == 0
		}
		return false
	}

	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}

	if ab, ok := a.([]byte); ok {
		bb, ok := b.([]byte)
		return ok && bytes.Equal(ab, bb)
	}

	if abl, ok := a.(bool); ok {
		bbl, ok := b.(bool)
		return ok && abl == bbl
	}

	// A captured Subrange compares equal to any sequence with the same
	// elements, so rest bindings can be re-matched against plain slices.
	_, aIsRange := a.(Subrange)
	_, bIsRange := b.(Subrange)
	if aIsRange || bIsRange {
		as, aok := asSequence(a)
		bs, bok := asSequence(b)
		if !aok || !bok || as.Len() != bs.Len() {
			return false
		}
		for i := 0; i < as.Len(); i++ {
			if !equalValues(as.At(i), bs.At(i)) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

// orderValues returns (-1|0|1, true) when a and b are both numbers or both
// strings, and (0, false) for unordered operands.
func orderValues(a, b interface{}) (int, bool) {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return compareNumbers(an, bn), true
		}
		return 0, false
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1, true
			case as > bs:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	return 0, false
}

func isNilValue(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
