package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/pipeline"
	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/runner"
	"github.com/roach88/recordkit/internal/store"
	"github.com/roach88/recordkit/internal/testutil"
	"github.com/roach88/recordkit/internal/trace"
)

// tracer brackets every node's handlers to record each processed record.
type tracer struct {
	spec   *pipeline.Spec
	linked *dictlist.Linked
	events []TraceEvent
}

func (t *tracer) wrap(i int, handlers []dictlist.Handler) []dictlist.Handler {
	first := t.reopen
	if i < len(t.spec.Nodes) {
		first = t.open(i)
	}
	out := make([]dictlist.Handler, 0, len(handlers)+2)
	out = append(out, first)
	out = append(out, handlers...)
	return append(out, t.close)
}

func (t *tracer) open(i int) dictlist.Handler {
	return func(rec, _ record.Record) (record.Record, error) {
		key, ok := rec.Get(t.spec.Key)
		if !ok {
			key = record.Null{}
		}
		t.events = append(t.events, TraceEvent{
			Seq:   len(t.events) + 1,
			Node:  t.spec.Nodes[i].Name,
			Index: t.linked.Node(i).Handled(),
			Key:   key,
		})
		return nil, nil
	}
}

// reopen runs ahead of the trailing handlers, which extend the last node's
// event.
func (t *tracer) reopen(_, _ record.Record) (record.Record, error) {
	if n := len(t.events); n > 0 {
		t.events[n-1].done = false
	}
	return nil, nil
}

func (t *tracer) close(rec, pipe record.Record) (record.Record, error) {
	if n := len(t.events); n > 0 {
		e := &t.events[n-1]
		e.Record = rec.Clone()
		e.Pipe = pipe.Clone()
		e.done = true
	}
	return nil, nil
}

// fail marks the event left open by a handler error.
func (t *tracer) fail(err error) {
	if n := len(t.events); n > 0 && !t.events[n-1].done {
		t.events[n-1].Error = err.Error()
	}
}

// Option configures a scenario run.
type Option func(*options)

type options struct {
	trace *trace.Trace
}

// WithTrace logs the run's containers to t. Runs are silent by default.
func WithTrace(t *trace.Trace) Option {
	return func(o *options) {
		if t != nil {
			o.trace = t
		}
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Open an in-memory snapshot store with sequential IDs
//  2. Build the pipeline through the runner, tracing every node
//  3. Execute steps in order, stopping at the first unexpected failure
//  4. Evaluate assertions against the final state
//
// Run returns an error only when the scenario cannot be set up; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{trace: trace.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:", store.WithIDGenerator(testutil.NewSequentialIDGenerator("snap")))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	spec := scenario.Pipeline
	tr := &tracer{spec: &spec}

	r, err := runner.New(spec,
		runner.WithBaseDir(scenario.Dir),
		runner.WithStore(st),
		runner.WithWrap(tr.wrap),
		runner.WithTrace(o.trace.Named("harness")),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}
	tr.linked = r.Linked()

	result := NewResult()

	for i, step := range scenario.Steps {
		if step.Append != "" {
			records, err := toRecords(step.Records)
			if err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			if err := r.Extend(step.Append, records); err != nil {
				return nil, fmt.Errorf("steps[%d]: %w", i, err)
			}
			continue
		}

		res, err := r.Run(ctx)
		result.Processed += res.Processed
		if err != nil {
			tr.fail(err)
			if step.Error == "" {
				result.AddError("steps[%d]: handle failed: %v", i, err)
				break
			}
			if !strings.Contains(err.Error(), step.Error) {
				result.AddError("steps[%d]: error %q does not contain %q", i, err, step.Error)
			}
		} else if step.Error != "" {
			result.AddError("steps[%d]: expected error containing %q, handle succeeded", i, step.Error)
		}
		if step.Expect != nil && res.Processed != *step.Expect {
			result.AddError("steps[%d]: processed %d records, expected %d", i, res.Processed, *step.Expect)
		}
	}

	result.Trace = append(result.Trace, tr.events...)
	view := &state{spec: &spec, linked: r.Linked(), store: st, trace: tr.events}
	for i, a := range scenario.Assertions {
		if err := view.check(ctx, a); err != nil {
			result.AddError("assertions[%d] (%s): %v", i, a.Type, err)
		}
	}

	return result, nil
}

func toRecords(raw []map[string]any) ([]record.Record, error) {
	records := make([]record.Record, len(raw))
	for i, m := range raw {
		r, err := record.From(m)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		records[i] = r
	}
	return records, nil
}
