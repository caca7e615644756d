package handle

import (
	"fmt"
	"strings"
)

// Average selects how a moving average continues once warmed up.
type Average string

const (
	Simple      Average = "SIMPLE"
	Exponential Average = "EXPONENTIAL"
	Smoothed    Average = "SMOOTHED"
)

// ParseAverage accepts an Average name in any case. An empty string
// yields def.
func ParseAverage(s string, def Average) (Average, error) {
	switch a := Average(strings.ToUpper(s)); a {
	case "":
		return def, nil
	case Simple, Exponential, Smoothed:
		return a, nil
	default:
		return "", fmt.Errorf("%w %q: want SIMPLE, EXPONENTIAL or SMOOTHED", ErrUnknownMethod, s)
	}
}

// MovingAverage is an incremental moving average over a fixed period.
//
// Until period values have been seen it returns the running mean of all
// values so far. After that SIMPLE slides a window of the last period
// values, EXPONENTIAL applies weight 2/(period+1) to each new value, and
// SMOOTHED computes (prev*(period-1) + v) / period. EXPONENTIAL and
// SMOOTHED are seeded with the mean of the first period values.
type MovingAverage struct {
	period int
	kind   Average
	window []float64
	warm   bool
	prev   float64
	coef   float64
}

// NewMovingAverage returns an empty average. period must be positive.
func NewMovingAverage(period int, kind Average) (*MovingAverage, error) {
	if period < 1 {
		return nil, fmt.Errorf("moving average: period must be positive, got %d", period)
	}
	parsed, err := ParseAverage(string(kind), "")
	if err != nil || parsed == "" {
		return nil, fmt.Errorf("moving average: %w %q", ErrUnknownMethod, kind)
	}
	return &MovingAverage{
		period: period,
		kind:   parsed,
		window: make([]float64, 0, period),
		coef:   2 / float64(period+1),
	}, nil
}

// Next feeds v and returns the current average.
func (m *MovingAverage) Next(v float64) float64 {
	if !m.warm {
		m.window = append(m.window, v)
		mean := sum(m.window) / float64(len(m.window))
		if len(m.window) == m.period {
			m.warm = true
			m.prev = mean
		}
		return mean
	}

	switch m.kind {
	case Simple:
		copy(m.window, m.window[1:])
		m.window[len(m.window)-1] = v
		return sum(m.window) / float64(len(m.window))
	case Exponential:
		m.prev = m.coef*v + (1-m.coef)*m.prev
		return m.prev
	default:
		m.prev = (m.prev*float64(m.period-1) + v) / float64(m.period)
		return m.prev
	}
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
