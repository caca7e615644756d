package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/trace"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
	LogFile  string

	trace *trace.Trace
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Trace returns the trace configured from the logging flags, or a Nop trace
// before the flags are applied.
func (o *RootOptions) Trace() *trace.Trace {
	if o.trace == nil {
		return trace.Nop()
	}
	return o.trace
}

// NewRootCommand creates the root command for the recordkit CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "recordkit",
		Short: "recordkit - keyed record lists and merge pipelines",
		Long: `Work with lists of flat records: convert them between file formats,
inspect them, merge several keyed lists through handler pipelines, and keep
snapshots of the results.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.setupTrace(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.trace == nil {
				return nil
			}
			return opts.trace.Close()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "WARNING", "stderr log level (CRITICAL|ERROR|WARNING|INFO|DEBUG|NOTSET)")
	cmd.PersistentFlags().StringVar(&opts.LogFile, "log-file", "", "also log at DEBUG to this file")

	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewSnapshotCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setupTrace builds the process trace from the logging flags. --verbose
// lowers the stream level to DEBUG.
func (o *RootOptions) setupTrace(cmd *cobra.Command) error {
	level, err := trace.ParseLevel(o.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if o.Verbose {
		level = trace.Debug
	}

	cfg := trace.Config{Stream: level, Writer: cmd.ErrOrStderr()}
	if o.LogFile != "" {
		cfg.File = trace.Debug
		cfg.Path = o.LogFile
	}

	t, err := trace.New("recordkit", cfg)
	if err != nil {
		return err
	}
	o.trace = t
	trace.SetDefault(t)
	return nil
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
