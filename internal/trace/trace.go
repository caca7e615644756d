package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/roach88/recordkit/internal/osutil"
)

// Config selects the outputs of a Trace.
type Config struct {
	// Stream is the threshold for the stream output. NotSet disables it.
	Stream Level

	// Writer receives stream output. Defaults to os.Stderr.
	Writer io.Writer

	// File is the threshold for the file output. NotSet disables it.
	File Level

	// Path is the trace file. Parent directories are created.
	// Required when File is set.
	Path string

	// Separator joins the messages of one call. Defaults to a single space.
	Separator string
}

// Trace is a named logging handle.
type Trace struct {
	name   string
	sep    string
	base   slog.Handler
	logger *slog.Logger
	closer io.Closer
}

// New builds a Trace writing to the outputs selected by cfg. The caller
// must Close it when a file output is configured.
func New(name string, cfg Config) (*Trace, error) {
	var handlers []slog.Handler
	var closer io.Closer

	if cfg.Stream != NotSet {
		w := cfg.Writer
		if w == nil {
			w = os.Stderr
		}
		handlers = append(handlers, slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       cfg.Stream.Slog(),
			ReplaceAttr: replaceLevel,
		}))
	}

	if cfg.File != NotSet {
		if cfg.Path == "" {
			return nil, fmt.Errorf("trace %s: file level %s set without a path", name, cfg.File)
		}
		if err := osutil.EnsureParent(cfg.Path); err != nil {
			return nil, fmt.Errorf("trace %s: %w", name, err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("trace %s: open file: %w", name, err)
		}
		closer = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{
			Level:       cfg.File.Slog(),
			ReplaceAttr: replaceLevel,
		}))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = discard{}
	case 1:
		h = handlers[0]
	default:
		h = newFanout(handlers...)
	}

	t := FromHandler(name, h)
	if cfg.Separator != "" {
		t.sep = cfg.Separator
	}
	t.closer = closer
	return t, nil
}

// FromHandler wraps an existing slog handler.
func FromHandler(name string, h slog.Handler) *Trace {
	return &Trace{
		name:   name,
		sep:    " ",
		base:   h,
		logger: slog.New(h).With("trace", name),
	}
}

// Nop returns a Trace that discards everything.
func Nop() *Trace {
	return FromHandler("", discard{})
}

// Name returns the trace name.
func (t *Trace) Name() string { return t.name }

// Logger exposes the underlying structured logger.
func (t *Trace) Logger() *slog.Logger { return t.logger }

// Named returns a Trace sharing the outputs of t under another name.
func (t *Trace) Named(name string) *Trace {
	return &Trace{
		name:   name,
		sep:    t.sep,
		base:   t.base,
		logger: slog.New(t.base).With("trace", name),
	}
}

// Close releases the file output, if any.
func (t *Trace) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

// Enabled reports whether any output accepts level.
func (t *Trace) Enabled(level Level) bool {
	if level == NotSet {
		return false
	}
	return t.logger.Enabled(context.Background(), level.Slog())
}

func (t *Trace) Critical(msgs ...any) { t.log(SlogLevelCritical, msgs) }
func (t *Trace) Error(msgs ...any)    { t.log(slog.LevelError, msgs) }
func (t *Trace) Warning(msgs ...any)  { t.log(slog.LevelWarn, msgs) }
func (t *Trace) Info(msgs ...any)     { t.log(slog.LevelInfo, msgs) }
func (t *Trace) Debug(msgs ...any)    { t.log(slog.LevelDebug, msgs) }

func (t *Trace) log(level slog.Level, msgs []any) {
	ctx := context.Background()
	if !t.logger.Enabled(ctx, level) {
		return
	}
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = fmt.Sprint(m)
	}
	t.logger.Log(ctx, level, strings.Join(parts, t.sep))
}

var defaultTrace atomic.Pointer[Trace]

// Default returns the process-wide trace, Nop until SetDefault is called.
func Default() *Trace {
	if t := defaultTrace.Load(); t != nil {
		return t
	}
	return Nop()
}

// SetDefault replaces the process-wide trace.
func SetDefault(t *Trace) {
	defaultTrace.Store(t)
}
