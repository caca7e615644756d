package dictlist

import (
	"fmt"

	"github.com/roach88/recordkit/internal/record"
)

// Handled is an append-only List that runs a handler pipeline over each
// record exactly once.
//
// Records before the cursor have had every handler applied in order. New
// records are processed by the call that appends them. Each record gets a
// fresh pipe. When a handler fails the cursor stops on the failing record;
// the next append retries it.
type Handled struct {
	*List
	handlers []Handler
	handled  int
}

// NewHandled wraps list and processes its records. A nil list starts
// empty. The returned store is usable even when an error is returned; its
// cursor stops at the failing record.
func NewHandled(handlers []Handler, list *List) (*Handled, error) {
	if list == nil {
		list = New(nil)
	}
	h := &Handled{List: list, handlers: handlers}
	return h, h.handle()
}

func (h *Handled) handle() error {
	for h.handled < len(h.data) {
		if err := fold(h.handlers, h.data[h.handled], record.Record{}); err != nil {
			return fmt.Errorf("Handled: record %d: %w", h.handled, err)
		}
		h.handled++
	}
	return nil
}

// Handlers returns the pipeline.
func (h *Handled) Handlers() []Handler { return h.handlers }

// Processed returns the number of records the pipeline has run over.
func (h *Handled) Processed() int { return h.handled }

// Append adds r and runs the pipeline over pending records.
func (h *Handled) Append(r record.Record) error {
	h.List.Append(r)
	return h.handle()
}

// Extend adds records and runs the pipeline over pending records.
func (h *Handled) Extend(records []record.Record) error {
	h.List.Extend(records)
	return h.handle()
}

// Read appends the records stored at path and runs the pipeline over them.
func (h *Handled) Read(path string, f Format) error {
	if err := h.List.Read(path, f); err != nil {
		return err
	}
	return h.handle()
}

func (h *Handled) forbid(op string) error {
	err := unsupportedOperation(op, "Handled")
	h.trace.Critical(err.Error())
	return err
}

// Insert always fails: it would move records past the cursor.
func (h *Handled) Insert(int, record.Record) error { return h.forbid("Handled.Insert") }

// Remove always fails: it would move records past the cursor.
func (h *Handled) Remove(record.Record) error { return h.forbid("Handled.Remove") }

// Pop always fails: it would move records past the cursor.
func (h *Handled) Pop(int) (record.Record, error) { return nil, h.forbid("Handled.Pop") }

// Clear always fails: it would invalidate the cursor.
func (h *Handled) Clear() error { return h.forbid("Handled.Clear") }

func (h *Handled) String() string {
	return describe("Handled",
		field{"handles", len(h.handlers)},
		field{"len", h.Len()},
		field{"name", h.name},
	)
}

// Print logs the records at info level.
func (h *Handled) Print(shorten bool) {
	printRecords(h.trace, h.String(), h.data, shorten)
}
