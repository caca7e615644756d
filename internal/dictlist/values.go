package dictlist

import (
	"math"
	"slices"

	"github.com/roach88/recordkit/internal/record"
)

// ValuesOption adjusts a Values projection.
type ValuesOption func(*valuesOptions)

type valuesOptions struct {
	unique bool
	sorted bool
}

// Unique drops repeated values, keeping the first occurrence.
func Unique() ValuesOption {
	return func(o *valuesOptions) { o.unique = true }
}

// Sorted orders the projected values by record.Compare, independent of
// list order.
func Sorted() ValuesOption {
	return func(o *valuesOptions) { o.sorted = true }
}

func projectValues(data []record.Record, key string, opts []ValuesOption) []record.Value {
	var o valuesOptions
	for _, opt := range opts {
		opt(&o)
	}

	values := make([]record.Value, 0, len(data))
	var seen map[record.Value]bool
	if o.unique {
		seen = make(map[record.Value]bool)
	}
	for _, r := range data {
		v, ok := r[key]
		if !ok {
			continue
		}
		if o.unique {
			k := dedupKey(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	if o.sorted {
		slices.SortStableFunc(values, record.Compare)
	}
	return values
}

// dedupKey maps numerically equal Int and Float values to one key. Whole
// floats in int64 range become Int; Int is never widened to Float, which
// would merge distinct integers above 2^53.
func dedupKey(v record.Value) record.Value {
	switch val := v.(type) {
	case nil:
		return record.Null{}
	case record.Float:
		f := float64(val)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return record.Int(int64(f))
		}
		return v
	default:
		return v
	}
}
