package handle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

var (
	// ErrMissingKey is returned when a source record lacks an operand key.
	ErrMissingKey = errors.New("missing key")

	// ErrNotNumber is returned when arithmetic meets a non-numeric value.
	ErrNotNumber = errors.New("not a number")

	// ErrDivideByZero is returned by DIV with a zero divisor.
	ErrDivideByZero = errors.New("division by zero")

	// ErrUnknownMethod is returned by builders given an unknown method.
	ErrUnknownMethod = errors.New("unknown method")
)

// Operand is either a key looked up in the source record or a constant.
type Operand struct {
	key   string
	value record.Value
	isKey bool
}

// Key refers to the value stored under name in the source record.
func Key(name string) Operand {
	return Operand{key: name, isKey: true}
}

// Val is a constant operand.
func Val(v record.Value) Operand {
	return Operand{value: v}
}

func (o Operand) resolve(src record.Record) (record.Value, error) {
	if !o.isKey {
		return o.value, nil
	}
	v, ok := src[o.key]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrMissingKey, o.key)
	}
	return v, nil
}

func (o Operand) String() string {
	if o.isKey {
		return "key:" + o.key
	}
	return fmt.Sprintf("value:%v", o.value)
}

// Param selects the element or the pipe as a source or target.
type Param string

const (
	Element Param = "ELEMENT"
	Pipe    Param = "PIPE"
)

// ParseParam accepts "element" or "pipe" in any case. An empty string
// yields def.
func ParseParam(s string, def Param) (Param, error) {
	switch strings.ToUpper(s) {
	case "":
		return def, nil
	case string(Element):
		return Element, nil
	case string(Pipe):
		return Pipe, nil
	default:
		return "", fmt.Errorf("unknown param %q: want ELEMENT or PIPE", s)
	}
}

// Option configures a handler builder.
type Option func(*config)

type config struct {
	key    string
	source Param
	target Param
}

// WithKey sets the result key. Defaults to the method name.
func WithKey(key string) Option {
	return func(c *config) { c.key = key }
}

// WithSource selects where operands are read from. Defaults to Element.
func WithSource(p Param) Option {
	return func(c *config) { c.source = p }
}

// WithTarget selects where the result is written. Defaults to Pipe.
func WithTarget(p Param) Option {
	return func(c *config) { c.target = p }
}

func newConfig(defaultKey string, opts []Option) config {
	c := config{key: defaultKey, source: Element, target: Pipe}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) pick(p Param, rec, pipe record.Record) record.Record {
	if p == Pipe {
		return pipe
	}
	return rec
}

// emit wraps compute into a Handler that reads from the source and writes
// the result to the target.
func (c config) emit(compute func(src record.Record) (record.Value, error)) dictlist.Handler {
	return func(rec, pipe record.Record) (record.Record, error) {
		v, err := compute(c.pick(c.source, rec, pipe))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.key, err)
		}
		if c.target == Pipe {
			return record.Record{c.key: v}, nil
		}
		rec[c.key] = v
		return nil, nil
	}
}

func number(v record.Value) (float64, error) {
	n, ok := record.Number(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s %q", ErrNotNumber, kindName(v), v)
	}
	return n, nil
}

func kindName(v record.Value) string {
	if v == nil {
		return record.KindNull.String()
	}
	return v.Kind().String()
}
