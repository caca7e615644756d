package dictlist

import (
	"fmt"

	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/trace"
)

// Source is the read surface a Node needs. List, Ordered and Handled all
// satisfy it.
//
// Records must be in non-decreasing key order, and records added later must
// not sort below the ones already processed. Linked.Handle checks both and
// fails with an OUT_OF_ORDER error. Wrap an unsorted List in Ordered to
// sort it.
type Source interface {
	Len() int
	At(i int) record.Record
}

// Node is one stream of a Linked merge: a source, the handlers to run for
// its records, a cursor and the pipe left by its last processed record.
type Node struct {
	source   Source
	handlers []Handler
	handled  int
	pipe     record.Record
	last     record.Value // key of the last processed record
}

// NewNode returns a Node reading from src.
func NewNode(src Source, handlers ...Handler) *Node {
	return &Node{source: src, handlers: handlers, pipe: record.Record{}}
}

// Source returns the underlying records.
func (n *Node) Source() Source { return n.source }

// Handlers returns the node's handler list.
func (n *Node) Handlers() []Handler { return n.handlers }

// Handled returns the number of records processed so far.
func (n *Node) Handled() int { return n.handled }

// Pipe returns the pipe produced by the most recently processed record.
// It is the input pipe for the next node.
func (n *Node) Pipe() record.Record { return n.pipe }

func (n *Node) String() string {
	return describe("Node",
		field{"len", n.source.Len()},
		field{"handles", len(n.handlers)},
		field{"handled", n.handled},
	)
}

// Linked merges several Nodes sharing one key and processes their new
// records in global key order.
//
// The last node paces the merge: only records whose key does not exceed
// the key of the last node's newest record are processed. Later records
// wait for a future call. Ties on the key go to the node registered first.
//
// The pipe given to a node's handlers is a copy of the pipe left by the
// previous node's most recently processed record; the first node starts
// from an empty pipe. Trailing handlers run on records of the last node,
// with that node's pipe.
type Linked struct {
	key      string
	nodes    []*Node
	handlers []Handler
	name     string
	trace    *trace.Trace
}

// NewLinked returns a merger over nodes keyed by key. Trailing handlers are
// given with WithHandlers.
func NewLinked(key string, nodes []*Node, opts ...Option) *Linked {
	o := buildOptions(opts)
	return &Linked{
		key:      key,
		nodes:    nodes,
		handlers: o.handlers,
		name:     o.name,
		trace:    o.trace,
	}
}

// Key returns the merge key.
func (l *Linked) Key() string { return l.key }

// Len returns the number of nodes.
func (l *Linked) Len() int { return len(l.nodes) }

// Node returns node i.
func (l *Linked) Node(i int) *Node { return l.nodes[i] }

// Nodes returns the node slice.
func (l *Linked) Nodes() []*Node { return l.nodes }

type candidate struct {
	index int
	key   record.Value
}

// Handle processes every pending record that does not exceed the ceiling
// and returns how many were processed. Calling it again without new
// records processes nothing.
//
// A pending record without the merge key fails the call before any
// record is processed, as does a node whose pending records decrease or
// whose processed prefix has shifted. A node handler error stops the merge
// on the failing record, leaving that node's cursor in place. A trailing handler error
// also stops the merge, but the record stays counted as processed.
func (l *Linked) Handle() (int, error) {
	if len(l.nodes) == 0 {
		return 0, nil
	}
	last := len(l.nodes) - 1
	anchor := l.nodes[last].source
	if anchor.Len() == 0 {
		return 0, nil
	}
	ceiling, ok := anchor.At(anchor.Len() - 1)[l.key]
	if !ok {
		return 0, missingKey("Linked.Handle", l.key, anchor.Len()-1)
	}

	runs := make([][]candidate, len(l.nodes))
	for n, node := range l.nodes {
		run, err := l.pending(n, node, ceiling)
		if err != nil {
			return 0, err
		}
		runs[n] = run
	}

	processed := 0
	heads := make([]int, len(l.nodes))
	for {
		n := l.next(runs, heads)
		if n < 0 {
			break
		}
		c := runs[n][heads[n]]
		heads[n]++

		before := l.nodes[n].handled
		err := l.process(n, c)
		if l.nodes[n].handled > before {
			processed++
		}
		if err != nil {
			return processed, err
		}
	}

	if processed > 0 {
		l.trace.Debug("merged", processed, "records on", l.key, "up to", ceiling)
	}
	return processed, nil
}

// pending returns the node's unprocessed records up to ceiling. Every
// pending record is checked, including those above the ceiling, so an
// unsorted node fails before anything is merged.
func (l *Linked) pending(n int, node *Node, ceiling record.Value) ([]candidate, error) {
	prev := node.last
	if node.handled > 0 {
		v := node.source.At(node.handled - 1)[l.key]
		if record.Compare(v, prev) != 0 {
			return nil, outOfOrder("Linked.Handle", l.key,
				fmt.Sprintf("node %d: a record was added below the %d already processed", n, node.handled))
		}
	}

	var run []candidate
	for i := node.handled; i < node.source.Len(); i++ {
		v, ok := node.source.At(i)[l.key]
		if !ok {
			return nil, missingKey("Linked.Handle", l.key, i)
		}
		if i > 0 && record.Compare(v, prev) < 0 {
			return nil, outOfOrder("Linked.Handle", l.key,
				fmt.Sprintf("node %d: record %d sorts below record %d", n, i, i-1))
		}
		prev = v
		if record.Compare(v, ceiling) <= 0 {
			run = append(run, candidate{index: i, key: v})
		}
	}
	return run, nil
}

// next picks the node whose head candidate has the smallest key, the
// lowest node index winning ties. It returns -1 when all runs are drained.
func (l *Linked) next(runs [][]candidate, heads []int) int {
	best := -1
	for n, run := range runs {
		if heads[n] >= len(run) {
			continue
		}
		if best < 0 || record.Compare(run[heads[n]].key, runs[best][heads[best]].key) < 0 {
			best = n
		}
	}
	return best
}

func (l *Linked) process(n int, c candidate) error {
	node := l.nodes[n]
	i := c.index
	rec := node.source.At(i)

	pipe := record.Record{}
	if n > 0 {
		pipe = l.nodes[n-1].pipe.Clone()
	}
	if err := fold(node.handlers, rec, pipe); err != nil {
		return fmt.Errorf("Linked.Handle: node %d record %d: %w", n, i, err)
	}
	node.pipe = pipe
	node.handled++
	node.last = c.key

	if n == len(l.nodes)-1 && len(l.handlers) > 0 {
		if err := fold(l.handlers, rec, node.pipe); err != nil {
			return fmt.Errorf("Linked.Handle: trailing handlers on record %d: %w", i, err)
		}
	}
	return nil
}

func (l *Linked) String() string {
	fields := []field{{"key", l.key}, {"nodes", len(l.nodes)}}
	if len(l.handlers) > 0 {
		fields = append(fields, field{"handles", len(l.handlers)})
	}
	fields = append(fields, field{"name", l.name})
	return describe("Linked", fields...)
}

// Print logs String and one line per node at info level.
func (l *Linked) Print() {
	l.trace.Info(l.String())
	for _, node := range l.nodes {
		l.trace.Info("    " + node.String())
	}
}
