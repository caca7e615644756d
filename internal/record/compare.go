package record

import (
	"cmp"
	"strings"
	"time"
)

// Compare returns -1, 0, or +1 ordering a before, equal to, or after b.
//
// Values of the same kind use their natural ordering: numbers numerically
// (Int and Float mix freely), strings lexicographically by bytes, times
// chronologically, false before true. Values of different kinds order by
// Kind: Null < Bool < number < String < Time. A nil Value orders as Null.
func Compare(a, b Value) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}

	switch ka {
	case KindNull:
		return 0
	case KindBool:
		return compareBool(bool(a.(Bool)), bool(b.(Bool)))
	case KindNumber:
		return compareNumber(a, b)
	case KindString:
		return strings.Compare(string(a.(String)), string(b.(String)))
	case KindTime:
		return time.Time(a.(Time)).Compare(time.Time(b.(Time)))
	default:
		return 0
	}
}

// Equal reports whether a and b hold the same value.
// Int(1) and Float(1) are equal.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

func kindOf(v Value) Kind {
	if v == nil {
		return KindNull
	}
	return v.Kind()
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func compareNumber(a, b Value) int {
	ai, aInt := a.(Int)
	bi, bInt := b.(Int)
	if aInt && bInt {
		return cmp.Compare(ai, bi)
	}
	af, _ := Number(a)
	bf, _ := Number(b)
	return cmp.Compare(af, bf)
}
