package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/compiler"
	"github.com/roach88/recordkit/internal/runner"
	"github.com/roach88/recordkit/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Pipeline string
	Database string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <pipelines-dir>",
		Short: "Merge a pipeline's node files",
		Long: `Load a pipeline definition, read each node's input file, merge the
nodes on the pipeline key and write the node outputs.

Relative input and output paths resolve against the pipelines directory.
With --db, the last node's records are saved as the pipeline's snapshot.

Example:
  recordkit run ./pipelines
  recordkit run ./pipelines --pipeline trade --db ./snapshots.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Pipeline, "pipeline", "p", "", "pipeline name (optional when only one is defined)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite snapshot database")

	return cmd
}

func runPipeline(opts *RunOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	tr := opts.Trace()

	spec, err := loadOne(dir, opts.Pipeline)
	if err != nil {
		return f.Fail(ExitCommandError, loadErrorCode(err), err.Error(), nil)
	}
	if errs := compiler.Validate(&spec); len(errs) > 0 {
		return f.Fail(ExitFailure, errs[0].Code, errs[0].Error(), errs)
	}
	for _, w := range compiler.Lint(&spec) {
		tr.Warning("pipeline", spec.Name, w.String())
	}

	runOpts := []runner.Option{runner.WithBaseDir(dir), runner.WithTrace(tr.Named(spec.Name))}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("open database: %v", err), nil)
		}
		defer st.Close()
		runOpts = append(runOpts, runner.WithStore(st))
	}

	r, err := runner.New(spec, runOpts...)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := r.Run(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeRunFailed, err.Error(), nil)
	}

	return f.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: processed %d record(s)\n", result.Pipeline, result.Processed)
		for _, n := range result.Nodes {
			fmt.Fprintf(w, "  %s: %d/%d handled, pipe %s\n", n.Name, n.Handled, n.Len, n.Pipe)
		}
		if s := result.Snapshot; s != nil {
			fmt.Fprintf(w, "  snapshot %s seq %d (%d records)\n", s.Name, s.Seq, s.Count)
		}
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
