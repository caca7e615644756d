package handle

import (
	"fmt"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// CrossMethod is the crossing direction.
type CrossMethod string

const (
	// Golden fires when a rises above b.
	Golden CrossMethod = "Golden"

	// Dead fires when a falls below b.
	Dead CrossMethod = "Dead"
)

// Cross writes Bool(true) on the record where a crosses b in the method's
// direction, and false elsewhere.
//
// The handler starts in the crossed state, so a series that begins above
// (for Golden) does not fire until it has dropped below and risen again.
// Equal values neither cross nor release.
func Cross(method CrossMethod, a, b Operand, opts ...Option) (dictlist.Handler, error) {
	var crossDir, releaseDir int
	switch method {
	case Golden:
		crossDir, releaseDir = 1, -1
	case Dead:
		crossDir, releaseDir = -1, 1
	default:
		return nil, fmt.Errorf("cross: %w %q", ErrUnknownMethod, method)
	}

	crossed := true
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

		cmp := record.Compare(x, y)
		cross := cmp == crossDir
		release := cmp == releaseDir

		fired := !crossed && cross
		if !crossed {
			crossed = cross
		} else if release {
			crossed = false
		}
		return record.Bool(fired), nil
	}), nil
}
