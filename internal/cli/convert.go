package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/osutil"
)

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	From string
	To   string
}

// ConvertResult reports a conversion.
type ConvertResult struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	From    string `json:"from"`
	To      string `json:"to"`
	Records int    `json:"records"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConvertOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Convert a record file between formats",
		Long: `Read a record list and write it in another format.

Formats are inferred from the file extensions (.DictList, .csv, .json)
unless --from or --to is given. Without an output path, --to is required
and the output is the input path with the new extension. CSV loses value
types: every value reads back as a string.

Example:
  recordkit convert prices.csv prices.DictList
  recordkit convert prices.csv --to json
  recordkit convert dump.txt dump.json --from csv`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			return runConvert(opts, args[0], out, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "input format (DictList|csv|json)")
	cmd.Flags().StringVar(&opts.To, "to", "", "output format (DictList|csv|json)")

	return cmd
}

func runConvert(opts *ConvertOptions, in, out string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	from, err := formatFor(in, opts.From)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	if out == "" {
		if opts.To == "" {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "an output path or --to is required", nil)
		}
		target, err := dictlist.ParseFormat(opts.To)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
		}
		out = osutil.WithExt(in, string(target))
	}
	to, err := formatFor(out, opts.To)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	list, err := openExisting(in, from, opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	f.VerboseLog("Read %d record(s) from %s as %s", list.Len(), in, from)

	if err := list.Write(out, to); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	result := ConvertResult{Input: in, Output: out, From: string(from), To: string(to), Records: list.Len()}
	return f.Emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s (%s) -> %s (%s): %d record(s)\n", in, from, out, to, list.Len())
	})
}

// formatFor resolves an explicit format name, or infers one from path.
func formatFor(path, name string) (dictlist.Format, error) {
	if name != "" {
		return dictlist.ParseFormat(name)
	}
	return dictlist.FormatOf(path)
}

// openExisting is dictlist.Open, except that a missing file is an error.
func openExisting(path string, format dictlist.Format, opts *RootOptions) (*dictlist.List, error) {
	ok, err := osutil.Exists(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return dictlist.Open(path,
		dictlist.WithName(osutil.Stem(path)),
		dictlist.WithFormat(format),
		dictlist.WithTrace(opts.Trace().Named("list")),
	)
}
