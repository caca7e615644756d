package handle

import (
	"fmt"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// CompareMethod is an ordering test.
type CompareMethod string

const (
	GT  CompareMethod = "GT"
	GTE CompareMethod = "GTE"
	LT  CompareMethod = "LT"
	LTE CompareMethod = "LTE"
)

func (m CompareMethod) test(c int) bool {
	switch m {
	case GT:
		return c > 0
	case GTE:
		return c >= 0
	case LT:
		return c < 0
	default:
		return c <= 0
	}
}

// Compare writes Bool(a <method> b) using record.Compare ordering.
func Compare(method CompareMethod, a, b Operand, opts ...Option) (dictlist.Handler, error) {
	switch method {
	case GT, GTE, LT, LTE:
	default:
		return nil, fmt.Errorf("compare: %w %q", ErrUnknownMethod, method)
	}

	c := newConfig(string(method), opts)
	return c.emit(func(src record.Record) (record.Value, error) {
		x, err := a.resolve(src)
		if err != nil {
			return nil, err
		}
		y, err := b.resolve(src)
		if err != nil {
			return nil, err
		}
		return record.Bool(method.test(record.Compare(x, y))), nil
	}), nil
}
