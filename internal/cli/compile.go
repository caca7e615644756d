package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/osutil"
	"github.com/roach88/recordkit/internal/pipeline"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompilationResult holds the compiled pipelines.
type CompilationResult struct {
	Pipelines []pipeline.Spec `json:"pipelines"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <pipelines-dir>",
		Short: "Compile CUE pipeline definitions to JSON",
		Long: `Compile the CUE pipeline definitions in a directory to their JSON form.

Every field of the top-level pipeline struct is compiled. All compile errors
are reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	loaded, errs := LoadPipelines(dir, LoadModeCollectAll)
	if loaded == nil {
		return f.Fail(ExitCommandError, loadErrorCode(errs[0]), errs[0].Error(), nil)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	if len(errs) > 0 {
		return outputCompileErrors(f, errs)
	}

	result := CompilationResult{Pipelines: loaded.Pipelines}
	if opts.Output != "" {
		if err := writeJSONFile(opts.Output, result); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return f.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Compiled %d pipeline(s)\n\n", len(result.Pipelines))
		for _, p := range result.Pipelines {
			handles := len(p.Handles)
			for _, n := range p.Nodes {
				handles += len(n.Handles)
			}
			fmt.Fprintf(w, "  %s: key %s, %d node(s), %d handle(s)\n", p.Name, p.Key, len(p.Nodes), handles)
		}
		if opts.Output != "" {
			fmt.Fprintf(w, "\nWrote %s\n", opts.Output)
		}
	})
}

func outputCompileErrors(f *OutputFormatter, errs []error) error {
	cliErrors := make([]CLIError, len(errs))
	for i, err := range errs {
		cliErrors[i] = CLIError{Code: loadErrorCode(err), Message: err.Error()}
	}

	if f.Format == "json" {
		if err := f.Error(cliErrors[0].Code, cliErrors[0].Message, cliErrors); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(f.Writer, "✗ Compilation failed")
		fmt.Fprintln(f.Writer)
		for _, e := range cliErrors {
			fmt.Fprintf(f.Writer, "  %s\n", e.Message)
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeJSONFile writes v as indented JSON, creating parent directories.
func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling: %w", err)
	}
	if err := osutil.EnsureParent(path); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
