package dictlist

import "github.com/roach88/recordkit/internal/trace"

// Option configures a container at construction.
type Option func(*options)

type options struct {
	name     string
	trace    *trace.Trace
	format   Format
	handlers []Handler
}

func buildOptions(opts []Option) options {
	o := options{trace: trace.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithName sets a display name used by String and Print.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithTrace injects the logging handle. Containers default to trace.Nop.
func WithTrace(t *trace.Trace) Option {
	return func(o *options) {
		if t != nil {
			o.trace = t
		}
	}
}

// WithFormat overrides format inference from the file extension in Open.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithHandlers sets the trailing handlers of a Linked merger. They run on
// records of the last node after that node's own handlers.
func WithHandlers(handlers ...Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, handlers...)
	}
}
