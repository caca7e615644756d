package handle

import (
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/pipeline"
	"github.com/roach88/recordkit/internal/record"
)

// Build returns a fresh handler for spec. Stateful handlers built from the
// same spec do not share state.
func Build(spec pipeline.HandleSpec) (dictlist.Handler, error) {
	opts, err := options(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.Type, err)
	}

	switch strings.ToLower(spec.Type) {
	case pipeline.TypeCalculate, pipeline.TypeCompare, pipeline.TypeCross:
		a, b, err := operands(spec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", spec.Type, err)
		}
		switch strings.ToLower(spec.Type) {
		case pipeline.TypeCalculate:
			return Calculate(CalcMethod(strings.ToUpper(spec.Method)), a, b, opts...)
		case pipeline.TypeCompare:
			return Compare(CompareMethod(strings.ToUpper(spec.Method)), a, b, opts...)
		default:
			return Cross(crossMethod(spec.Method), a, b, opts...)
		}

	case pipeline.TypeAggregate:
		return Aggregate(AggregateMethod(strings.ToUpper(spec.Method)), spec.Keys, opts...)

	case pipeline.TypeMA:
		period, kind, err := indicatorParams(spec, DefaultMAPeriod, DefaultMAAverage)
		if err != nil {
			return nil, fmt.Errorf("ma: %w", err)
		}
		return MA(period, spec.SourceKey, kind, opts...)

	case pipeline.TypeRSI:
		period, kind, err := indicatorParams(spec, DefaultRSIPeriod, DefaultRSIAverage)
		if err != nil {
			return nil, fmt.Errorf("rsi: %w", err)
		}
		return RSI(period, spec.SourceKey, kind, opts...)

	default:
		return nil, fmt.Errorf("unknown handle type %q", spec.Type)
	}
}

// BuildAll builds every spec in order.
func BuildAll(specs []pipeline.HandleSpec) ([]dictlist.Handler, error) {
	handlers := make([]dictlist.Handler, 0, len(specs))
	for i, spec := range specs {
		h, err := Build(spec)
		if err != nil {
			return nil, fmt.Errorf("handle %d: %w", i, err)
		}
		handlers = append(handlers, h)
	}
	return handlers, nil
}

func options(spec pipeline.HandleSpec) ([]Option, error) {
	source, err := ParseParam(spec.Source, Element)
	if err != nil {
		return nil, err
	}
	target, err := ParseParam(spec.Target, Pipe)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithSource(source), WithTarget(target)}
	if spec.Key != "" {
		opts = append(opts, WithKey(spec.Key))
	}
	return opts, nil
}

func operands(spec pipeline.HandleSpec) (Operand, Operand, error) {
	a, err := operand("left", spec.Left)
	if err != nil {
		return Operand{}, Operand{}, err
	}
	b, err := operand("right", spec.Right)
	if err != nil {
		return Operand{}, Operand{}, err
	}
	return a, b, nil
}

func operand(side string, spec *pipeline.OperandSpec) (Operand, error) {
	if spec == nil {
		return Operand{}, fmt.Errorf("%s operand is required", side)
	}
	if spec.Key != "" {
		if spec.Value != nil {
			return Operand{}, fmt.Errorf("%s operand sets both key and value", side)
		}
		return Key(spec.Key), nil
	}
	if spec.Value == nil {
		return Operand{}, fmt.Errorf("%s operand needs a key or a value", side)
	}
	v, err := record.FromAny(spec.Value)
	if err != nil {
		return Operand{}, fmt.Errorf("%s operand: %w", side, err)
	}
	return Val(v), nil
}

func indicatorParams(spec pipeline.HandleSpec, defPeriod int, defAverage Average) (int, Average, error) {
	if spec.SourceKey == "" {
		return 0, "", fmt.Errorf("source_key is required")
	}
	period := spec.Period
	if period == 0 {
		period = defPeriod
	}
	kind, err := ParseAverage(spec.Average, defAverage)
	if err != nil {
		return 0, "", err
	}
	return period, kind, nil
}

// crossMethod accepts "golden" and "dead" in any case.
func crossMethod(s string) CrossMethod {
	switch {
	case strings.EqualFold(s, string(Golden)):
		return Golden
	case strings.EqualFold(s, string(Dead)):
		return Dead
	default:
		return CrossMethod(s)
	}
}

// Methods lists the methods accepted for a handle type, or nil when the
// type takes no method. The second result is false for unknown types.
func Methods(typ string) ([]string, bool) {
	switch strings.ToLower(typ) {
	case pipeline.TypeCalculate:
		return []string{string(Add), string(Sub), string(Mul), string(Div)}, true
	case pipeline.TypeCompare:
		return []string{string(GT), string(GTE), string(LT), string(LTE)}, true
	case pipeline.TypeCross:
		return []string{string(Golden), string(Dead)}, true
	case pipeline.TypeAggregate:
		return []string{string(All), string(Any)}, true
	case pipeline.TypeMA, pipeline.TypeRSI:
		return nil, true
	default:
		return nil, false
	}
}
