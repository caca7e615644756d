// Package runner executes a declarative pipeline: it loads each node's
// input file, builds the node and trailing handlers, merges the nodes with
// dictlist.Linked, writes the configured outputs, and optionally saves the
// last node as a store snapshot.
//
// A Runner keeps its containers between calls, so records appended with
// Extend after a Run are merged by the next Run.
package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/handle"
	"github.com/roach88/recordkit/internal/pipeline"
	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/store"
	"github.com/roach88/recordkit/internal/trace"
)

// Snapshotter saves the records of a finished run. Implemented by
// *store.Store.
type Snapshotter interface {
	Save(ctx context.Context, name string, records []record.Record) (store.Snapshot, bool, error)
}

// container is the part of List and Ordered the runner needs.
type container interface {
	dictlist.Source
	Records() []record.Record
	Extend(records []record.Record)
	Write(path string, f dictlist.Format) error
}

// Runner owns the containers of one pipeline.
type Runner struct {
	spec    pipeline.Spec
	baseDir string
	store   Snapshotter
	trace   *trace.Trace
	wrap    Wrapper

	containers []container
	linked     *dictlist.Linked
}

// Option configures a Runner.
type Option func(*Runner)

// WithBaseDir resolves relative input and output paths against dir.
func WithBaseDir(dir string) Option {
	return func(r *Runner) { r.baseDir = dir }
}

// WithStore enables snapshots for specs that name one.
func WithStore(s Snapshotter) Option {
	return func(r *Runner) { r.store = s }
}

// Wrapper adjusts the handlers built for node i. The trailing handlers are
// passed with i equal to the number of nodes.
type Wrapper func(i int, handlers []dictlist.Handler) []dictlist.Handler

// WithWrap installs w around every built handler list.
func WithWrap(w Wrapper) Option {
	return func(r *Runner) { r.wrap = w }
}

// WithTrace sets the logging handle passed to every container.
func WithTrace(t *trace.Trace) Option {
	return func(r *Runner) {
		if t != nil {
			r.trace = t
		}
	}
}

// New loads every node of spec and builds its handlers. Nothing is merged
// until Run.
func New(spec pipeline.Spec, opts ...Option) (*Runner, error) {
	r := &Runner{spec: spec, trace: trace.Nop()}
	for _, opt := range opts {
		opt(r)
	}

	if len(spec.Nodes) == 0 {
		return nil, fmt.Errorf("pipeline %q: no nodes", spec.Name)
	}

	nodes := make([]*dictlist.Node, 0, len(spec.Nodes))
	for i, ns := range spec.Nodes {
		c, err := r.load(ns)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: node %d (%s): %w", spec.Name, i, ns.Name, err)
		}
		handlers, err := handle.BuildAll(ns.Handles)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: node %d (%s): %w", spec.Name, i, ns.Name, err)
		}
		r.containers = append(r.containers, c)
		nodes = append(nodes, dictlist.NewNode(c, r.wrapped(i, handlers)...))
	}

	trailing, err := handle.BuildAll(spec.Handles)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: trailing %w", spec.Name, err)
	}

	r.linked = dictlist.NewLinked(spec.Key, nodes,
		dictlist.WithName(spec.Name),
		dictlist.WithTrace(r.trace),
		dictlist.WithHandlers(r.wrapped(len(nodes), trailing)...),
	)
	return r, nil
}

func (r *Runner) wrapped(i int, handlers []dictlist.Handler) []dictlist.Handler {
	if r.wrap == nil {
		return handlers
	}
	return r.wrap(i, handlers)
}

func (r *Runner) load(ns pipeline.NodeSpec) (container, error) {
	opts := []dictlist.Option{dictlist.WithName(ns.Name), dictlist.WithTrace(r.trace.Named(ns.Name))}

	list := dictlist.New(nil, opts...)
	if ns.Input != "" {
		f, err := parseFormat(ns.Format)
		if err != nil {
			return nil, err
		}
		if list, err = dictlist.Open(r.path(ns.Input), append(opts, dictlist.WithFormat(f))...); err != nil {
			return nil, err
		}
	}

	if ns.Ordered {
		return dictlist.NewOrdered(r.spec.Key, list), nil
	}
	return list, nil
}

func (r *Runner) path(p string) string {
	if r.baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(r.baseDir, p)
}

// parseFormat maps an empty name to the empty Format, which means infer
// from the extension.
func parseFormat(name string) (dictlist.Format, error) {
	if name == "" {
		return "", nil
	}
	return dictlist.ParseFormat(name)
}

// Linked returns the merger, for inspection.
func (r *Runner) Linked() *dictlist.Linked { return r.linked }

// Extend appends records to the named node. They are merged on the next Run.
func (r *Runner) Extend(node string, records []record.Record) error {
	for i, ns := range r.spec.Nodes {
		if ns.Name == node {
			r.containers[i].Extend(records)
			return nil
		}
	}
	return fmt.Errorf("pipeline %q: unknown node %q", r.spec.Name, node)
}

// Run merges pending records, writes outputs and saves the snapshot.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	processed, err := r.linked.Handle()
	if err != nil {
		return Result{Processed: processed}, fmt.Errorf("pipeline %q: %w", r.spec.Name, err)
	}
	r.trace.Info("pipeline", r.spec.Name, "processed", processed, "records")

	for i, ns := range r.spec.Nodes {
		if ns.Output == "" {
			continue
		}
		f, err := parseFormat(ns.OutputFormat)
		if err != nil {
			return Result{Processed: processed}, fmt.Errorf("pipeline %q: node %s: %w", r.spec.Name, ns.Name, err)
		}
		if err := r.containers[i].Write(r.path(ns.Output), f); err != nil {
			return Result{Processed: processed}, fmt.Errorf("pipeline %q: node %s: %w", r.spec.Name, ns.Name, err)
		}
	}

	result := r.result(processed)

	if r.spec.Snapshot != "" && r.store != nil {
		last := r.containers[len(r.containers)-1]
		snap, inserted, err := r.store.Save(ctx, r.spec.Snapshot, last.Records())
		if err != nil {
			return result, fmt.Errorf("pipeline %q: %w", r.spec.Name, err)
		}
		if inserted {
			r.trace.Info("saved snapshot", snap.Name, "seq", snap.Seq)
		} else {
			r.trace.Debug("snapshot", snap.Name, "unchanged")
		}
		result.Snapshot = &snap
	}

	return result, nil
}

func (r *Runner) result(processed int) Result {
	res := Result{Pipeline: r.spec.Name, Processed: processed}
	for i, n := range r.linked.Nodes() {
		res.Nodes = append(res.Nodes, NodeResult{
			Name:    r.spec.Nodes[i].Name,
			Len:     n.Source().Len(),
			Handled: n.Handled(),
			Pipe:    n.Pipe().Clone(),
		})
	}
	return res
}

// Result summarizes one Run.
type Result struct {
	Pipeline  string          `json:"pipeline"`
	Processed int             `json:"processed"`
	Nodes     []NodeResult    `json:"nodes"`
	Snapshot  *store.Snapshot `json:"snapshot,omitempty"`
}

// NodeResult is the state of one node after a Run.
type NodeResult struct {
	Name    string        `json:"name"`
	Len     int           `json:"len"`
	Handled int           `json:"handled"`
	Pipe    record.Record `json:"pipe"`
}
