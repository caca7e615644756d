package handle

import (
	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// Defaults used when a period or average is not given.
const (
	DefaultMAPeriod   = 20
	DefaultMAAverage  = Exponential
	DefaultRSIPeriod  = 15
	DefaultRSIAverage = Smoothed
)

// MA writes the moving average of sourceKey under "MA".
func MA(period int, sourceKey string, kind Average, opts ...Option) (dictlist.Handler, error) {
	avg, err := NewMovingAverage(period, kind)
	if err != nil {
		return nil, err
	}

	c := newConfig("MA", opts)
	return c.emit(func(src record.Record) (record.Value, error) {
		v, err := Key(sourceKey).resolve(src)
		if err != nil {
			return nil, err
		}
		n, err := number(v)
		if err != nil {
			return nil, err
		}
		return record.Float(avg.Next(n)), nil
	}), nil
}

// RelativeStrength tracks the relative strength index of a series.
type RelativeStrength struct {
	up, down *MovingAverage
	prev     float64
	started  bool
}

// NewRelativeStrength returns an RSI whose gains and losses are averaged
// with period and kind.
func NewRelativeStrength(period int, kind Average) (*RelativeStrength, error) {
	up, err := NewMovingAverage(period, kind)
	if err != nil {
		return nil, err
	}
	down, err := NewMovingAverage(period, kind)
	if err != nil {
		return nil, err
	}
	return &RelativeStrength{up: up, down: down}, nil
}

// Next feeds v and returns the index in [0, 100]. It is 50 while there
// has been no movement and 100 while there have been no losses.
func (r *RelativeStrength) Next(v float64) float64 {
	if !r.started {
		r.prev = v
		r.started = true
	}

	var u, d float64
	if r.prev <= v {
		u = r.up.Next(v - r.prev)
		d = r.down.Next(0)
	} else {
		u = r.up.Next(0)
		d = r.down.Next(r.prev - v)
	}
	r.prev = v

	switch {
	case u == 0 && d == 0:
		return 50
	case d == 0:
		return 100
	default:
		return 100 * (1 - d/(u+d))
	}
}

// RSI writes the relative strength index of sourceKey under "RSI".
func RSI(period int, sourceKey string, kind Average, opts ...Option) (dictlist.Handler, error) {
	rs, err := NewRelativeStrength(period, kind)
	if err != nil {
		return nil, err
	}

	c := newConfig("RSI", opts)
	return c.emit(func(src record.Record) (record.Value, error) {
		v, err := Key(sourceKey).resolve(src)
		if err != nil {
			return nil, err
		}
		n, err := number(v)
		if err != nil {
			return nil, err
		}
		return record.Float(rs.Next(n)), nil
	}), nil
}
