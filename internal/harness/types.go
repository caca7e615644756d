package harness

import (
	"fmt"

	"github.com/roach88/recordkit/internal/record"
)

// TraceEvent is one record passing through a node's handlers.
type TraceEvent struct {
	Seq   int          `json:"seq"`
	Node  string       `json:"node"`
	Index int          `json:"index"`
	Key   record.Value `json:"key"`

	// Record and Pipe are the state after the node's handlers (and, on the
	// last node, the trailing handlers) ran.
	Record record.Record `json:"record"`
	Pipe   record.Record `json:"pipe"`

	// Error is set when a handler failed on this record.
	Error string `json:"error,omitempty"`

	done bool
}

// Label is "<node>[<key value>]".
func (e TraceEvent) Label() string {
	return fmt.Sprintf("%s[%s]", e.Node, e.Key)
}

// Line renders the event for golden files. Record and pipe use canonical
// JSON so the line is stable.
func (e TraceEvent) Line() (string, error) {
	head := fmt.Sprintf("%03d %s#%d", e.Seq, e.Label(), e.Index)
	if e.Error != "" {
		return head + " error: " + e.Error, nil
	}
	rec, err := record.MarshalCanonical(e.Record)
	if err != nil {
		return "", fmt.Errorf("event %d record: %w", e.Seq, err)
	}
	pipe, err := record.MarshalCanonical(e.Pipe)
	if err != nil {
		return "", fmt.Errorf("event %d pipe: %w", e.Seq, err)
	}
	return fmt.Sprintf("%s rec=%s pipe=%s", head, rec, pipe), nil
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Processed is the total number of records merged across steps.
	Processed int `json:"processed"`

	// Trace lists processed records in merge order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Pass = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
