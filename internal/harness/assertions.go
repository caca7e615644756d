package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/pipeline"
	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\n\nFull trace:")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "\n  [%d] %s", event.Seq, event.Label())
		}
	}
	return buf.String()
}

// state is what assertions look at once the steps have run.
type state struct {
	spec   *pipeline.Spec
	linked *dictlist.Linked
	store  *store.Store
	trace  []TraceEvent
}

func (s *state) node(name string) (*dictlist.Node, error) {
	for i, n := range s.spec.Nodes {
		if n.Name == name {
			return s.linked.Node(i), nil
		}
	}
	return nil, fmt.Errorf("unknown node %q", name)
}

func (s *state) check(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertValues:
		return s.assertValues(a)
	case AssertRecord:
		return s.assertRecord(a)
	case AssertPipe:
		return s.assertPipe(a)
	case AssertHandled:
		return s.assertHandled(a)
	case AssertTraceOrder:
		return assertTraceOrder(s.trace, a)
	case AssertSnapshot:
		return s.assertSnapshot(ctx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertValues compares the key projection of every record on the node.
// A record without the key contributes null.
func (s *state) assertValues(a Assertion) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}

	want := make([]record.Value, len(a.Values))
	for i, v := range a.Values {
		if want[i], err = record.FromAny(v); err != nil {
			return fmt.Errorf("values[%d]: %w", i, err)
		}
	}

	src := n.Source()
	got := make([]record.Value, src.Len())
	for i := range got {
		v, ok := src.At(i).Get(a.Key)
		if !ok {
			v = record.Null{}
		}
		got[i] = v
	}

	if !valuesEqual(got, want) {
		return &AssertionError{
			Type:     AssertValues,
			Expected: fmt.Sprintf("%s.%s = %s", a.Node, a.Key, formatValues(want)),
			Actual:   formatValues(got),
		}
	}
	return nil
}

func (s *state) assertRecord(a Assertion) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}
	src := n.Source()
	if *a.Index < 0 || *a.Index >= src.Len() {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record %d on %s", *a.Index, a.Node),
			Actual:   fmt.Sprintf("node has %d records", src.Len()),
		}
	}
	return matchSubset(AssertRecord, fmt.Sprintf("%s[%d]", a.Node, *a.Index), src.At(*a.Index), a.Expect)
}

func (s *state) assertPipe(a Assertion) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}
	return matchSubset(AssertPipe, a.Node+" pipe", n.Pipe(), a.Expect)
}

func (s *state) assertHandled(a Assertion) error {
	n, err := s.node(a.Node)
	if err != nil {
		return err
	}
	if n.Handled() != *a.Count {
		return &AssertionError{
			Type:     AssertHandled,
			Expected: fmt.Sprintf("%s handled %d", a.Node, *a.Count),
			Actual:   fmt.Sprintf("handled %d", n.Handled()),
		}
	}
	return nil
}

func (s *state) assertSnapshot(ctx context.Context, a Assertion) error {
	snap, err := s.store.Latest(ctx, a.Snapshot)
	if err != nil {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("snapshot %q", a.Snapshot),
			Actual:   err.Error(),
		}
	}
	if snap.Count != *a.Count {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("snapshot %q with %d records", a.Snapshot, *a.Count),
			Actual:   fmt.Sprintf("%d records", snap.Count),
		}
	}
	if a.Seq != nil && snap.Seq != *a.Seq {
		return &AssertionError{
			Type:     AssertSnapshot,
			Expected: fmt.Sprintf("snapshot %q at seq %d", a.Snapshot, *a.Seq),
			Actual:   fmt.Sprintf("seq %d", snap.Seq),
		}
	}
	return nil
}

// assertTraceOrder checks that labels appear in the given order.
// Labels don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for _, label := range a.Labels {
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1].Label() == label {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("labels in order: %v", a.Labels),
				Actual:   fmt.Sprintf("%s missing or out of order", label),
				Trace:    trace,
			}
		}
	}
	return nil
}

// matchSubset checks that actual holds every expected field.
// Extra fields in actual are ignored.
func matchSubset(typ, what string, actual record.Record, expected map[string]any) error {
	want, err := record.From(expected)
	if err != nil {
		return fmt.Errorf("expect: %w", err)
	}
	for _, k := range want.SortedKeys() {
		got, ok := actual.Get(k)
		if !ok {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("%s.%s = %s", what, k, want[k]),
				Actual:   fmt.Sprintf("field %q not present in %s", k, actual),
			}
		}
		if !record.Equal(got, want[k]) {
			return &AssertionError{
				Type:     typ,
				Expected: fmt.Sprintf("%s.%s = %s", what, k, want[k]),
				Actual:   got.String(),
			}
		}
	}
	return nil
}

func valuesEqual(a, b []record.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !record.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func formatValues(vs []record.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		if _, ok := v.(record.Null); ok {
			parts[i] = "null"
			continue
		}
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
