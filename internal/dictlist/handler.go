package dictlist

import (
	"fmt"

	"github.com/roach88/recordkit/internal/record"
)

// Handler derives fields for one record. It may modify rec in place and may
// return a partial record that is merged into pipe. A nil result leaves the
// pipe unchanged. The pipe is scratch state for one pass over a handler
// list; it is never stored on the record unless a handler copies it there.
type Handler func(rec, pipe record.Record) (record.Record, error)

// fold runs handlers over rec in order, merging each result into pipe.
func fold(handlers []Handler, rec, pipe record.Record) error {
	for i, h := range handlers {
		out, err := h(rec, pipe)
		if err != nil {
			return fmt.Errorf("handler %d: %w", i, err)
		}
		if out != nil {
			pipe.Merge(out)
		}
	}
	return nil
}
