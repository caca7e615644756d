package record

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the dynamic type of a Value.
// The declaration order is the cross-kind ordering used by Compare.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// Value is a sealed interface representing the scalar types a Record may hold.
// Only Null, String, Int, Float, Bool, and Time implement it.
type Value interface {
	// Kind reports the value's kind for ordering and dispatch.
	Kind() Kind

	// String returns the text form written to CSV files.
	String() string

	value() // Sealed
}

// Null represents an explicit null value.
// An explicit type keeps every Value non-nil.
type Null struct{}

func (Null) value()         {}
func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "" }

// String represents a text value.
type String string

func (String) value()           {}
func (String) Kind() Kind       { return KindString }
func (s String) String() string { return string(s) }

// Int represents an integer value. Always int64.
type Int int64

func (Int) value()           {}
func (Int) Kind() Kind       { return KindNumber }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Float represents a floating point value.
type Float float64

func (Float) value()           {}
func (Float) Kind() Kind       { return KindNumber }
func (f Float) String() string { return formatFloat(float64(f)) }

// Bool represents a boolean value.
type Bool bool

func (Bool) value()           {}
func (Bool) Kind() Kind       { return KindBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Time represents an instant. Construct with NewTime so the instant is
// normalized to UTC and stripped of its monotonic clock reading.
type Time time.Time

func (Time) value()     {}
func (Time) Kind() Kind { return KindTime }

func (t Time) String() string {
	return time.Time(t).Format(time.RFC3339Nano)
}

// Time returns the underlying time.Time.
func (t Time) Time() time.Time {
	return time.Time(t)
}

// NewTime creates a Time value normalized to UTC.
func NewTime(t time.Time) Time {
	return Time(t.UTC().Round(0))
}

// Number returns v as a float64 when v is an Int or a Float.
func Number(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Float:
		return float64(n), true
	default:
		return 0, false
	}
}

// Truthy reports whether v counts as true in boolean aggregation:
// false, zero, empty strings, and null are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(val)
	case Int:
		return val != 0
	case Float:
		return val != 0
	case String:
		return val != ""
	case Time:
		return !time.Time(val).IsZero()
	default:
		return false
	}
}

// formatFloat renders f so that it always reads back as a float:
// integral values keep a trailing ".0".
func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
