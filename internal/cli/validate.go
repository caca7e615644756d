package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/compiler"
)

// PipelineReport holds the validation outcome of one pipeline.
type PipelineReport struct {
	Name     string                     `json:"name"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.Warning         `json:"warnings,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool             `json:"valid"`
	Pipelines []PipelineReport `json:"pipelines"`
	Errors    []CLIError       `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <pipelines-dir>",
		Short: "Validate pipeline definitions",
		Long: `Compile and validate every pipeline in a directory.

Errors (unknown handle types, bad methods, missing operands, ...) fail the
command. Warnings (results overwritten by later handles, pipe reads before
anything writes the pipe) are reported but do not.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	loaded, loadErrs := LoadPipelines(dir, LoadModeCollectAll)
	if loaded == nil {
		return f.Fail(ExitCommandError, loadErrorCode(loadErrs[0]), loadErrs[0].Error(), nil)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := ValidationResult{Valid: len(loadErrs) == 0, Pipelines: []PipelineReport{}}
	for _, err := range loadErrs {
		result.Errors = append(result.Errors, CLIError{Code: loadErrorCode(err), Message: err.Error()})
	}

	for i := range loaded.Pipelines {
		spec := &loaded.Pipelines[i]
		f.VerboseLog("Validating pipeline: %s", spec.Name)
		report := PipelineReport{
			Name:     spec.Name,
			Errors:   compiler.Validate(spec),
			Warnings: compiler.Lint(spec),
		}
		if len(report.Errors) > 0 {
			result.Valid = false
		}
		result.Pipelines = append(result.Pipelines, report)
	}

	if f.Format == "json" {
		if result.Valid {
			return f.Emit(result, nil)
		}
		if err := f.Error(ErrCodeCompile, "validation failed", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	writeValidationText(f.Writer, result)
	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func writeValidationText(w io.Writer, result ValidationResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s\n", e.Message)
	}
	for _, p := range result.Pipelines {
		mark := "✓"
		if len(p.Errors) > 0 {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, p.Name)
		for _, e := range p.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
		for _, warn := range p.Warnings {
			fmt.Fprintf(w, "  warning: %s\n", warn.String())
		}
	}
	if result.Valid {
		fmt.Fprintln(w, "All pipelines valid")
	}
}
