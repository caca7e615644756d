package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/recordkit/internal/record"
)

// Counter stamps records with a shared, increasing sequence number, so
// tests can assert the global order in which handlers ran.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Counter struct {
	mu    sync.Mutex
	next  int64
	field string
}

// NewCounter returns a Counter writing to field, starting at 0.
func NewCounter(field string) *Counter {
	return &Counter{field: field}
}

// Handler returns a handler that writes the next sequence number into the
// record. Its type is assignable to dictlist.Handler.
func (c *Counter) Handler() func(rec, pipe record.Record) (record.Record, error) {
	return func(rec, _ record.Record) (record.Record, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		rec[c.field] = record.Int(c.next)
		c.next++
		return nil, nil
	}
}

// Calls returns how many times the handler ran.
func (c *Counter) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Recorder logs one line per handled record, "<label>[<key value>]",
// in the order the handlers ran.
type Recorder struct {
	mu    sync.Mutex
	key   string
	lines []string
}

// NewRecorder returns a Recorder reading key from each record.
func NewRecorder(key string) *Recorder {
	return &Recorder{key: key}
}

// Handler returns a handler labelled label.
func (r *Recorder) Handler(label string) func(rec, pipe record.Record) (record.Record, error) {
	return func(rec, _ record.Record) (record.Record, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.lines = append(r.lines, fmt.Sprintf("%s[%s]", label, rec[r.key]))
		return nil, nil
	}
}

// Lines returns the recorded lines.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Reset forgets recorded lines.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}
