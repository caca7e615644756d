package handle

import (
	"fmt"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// AggregateMethod combines the truthiness of several values.
type AggregateMethod string

const (
	All AggregateMethod = "ALL"
	Any AggregateMethod = "ANY"
)

// Aggregate writes Bool(all) or Bool(any) of record.Truthy over keys.
// Every key must be present in the source.
func Aggregate(method AggregateMethod, keys []string, opts ...Option) (dictlist.Handler, error) {
	if method != All && method != Any {
		return nil, fmt.Errorf("aggregate: %w %q", ErrUnknownMethod, method)
	}

	c := newConfig(string(method), opts)
	return c.emit(func(src record.Record) (record.Value, error) {
		result := method == All
		for _, k := range keys {
			v, err := Key(k).resolve(src)
			if err != nil {
				return nil, err
			}
			if record.Truthy(v) != result {
				result = !result
				break
			}
		}
		return record.Bool(result), nil
	}), nil
}
