package handle

import (
	"fmt"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// CalcMethod is an arithmetic operation.
type CalcMethod string

const (
	Add CalcMethod = "ADD"
	Sub CalcMethod = "SUB"
	Mul CalcMethod = "MUL"
	Div CalcMethod = "DIV"
)

// Calculate computes a <method> b. Two Ints give an Int for ADD, SUB and
// MUL; DIV always gives a Float.
func Calculate(method CalcMethod, a, b Operand, opts ...Option) (dictlist.Handler, error) {
	switch method {
	case Add, Sub, Mul, Div:
	default:
		return nil, fmt.Errorf("calculate: %w %q", ErrUnknownMethod, method)
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
		return calculate(method, x, y)
	}), nil
}

func calculate(method CalcMethod, x, y record.Value) (record.Value, error) {
	xi, xInt := x.(record.Int)
	yi, yInt := y.(record.Int)
	if xInt && yInt && method != Div {
		switch method {
		case Add:
			return xi + yi, nil
		case Sub:
			return xi - yi, nil
		case Mul:
			return xi * yi, nil
		}
	}

	xf, err := number(x)
	if err != nil {
		return nil, err
	}
	yf, err := number(y)
	if err != nil {
		return nil, err
	}

	switch method {
	case Add:
		return record.Float(xf + yf), nil
	case Sub:
		return record.Float(xf - yf), nil
	case Mul:
		return record.Float(xf * yf), nil
	default:
		if yf == 0 {
			return nil, ErrDivideByZero
		}
		return record.Float(xf / yf), nil
	}
}
