package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	From    string
	Where   []string
	SortKey string
	Values  string
	Unique  bool
	Sorted  bool
	Short   bool
}

// ShowResult is the JSON form of show: records, or values with --values.
type ShowResult struct {
	Len     int             `json:"len"`
	Records []record.Record `json:"records,omitempty"`
	Values  []any           `json:"values,omitempty"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the records of a file",
		Long: `Print a record list, optionally filtered, sorted or projected.

--where takes key=value and may repeat; every condition must hold. The value
is read as a JSON scalar (1, 2.5, true, null, "text") and falls back to a
plain string.

Example:
  recordkit show people.json --where age=30
  recordkit show prices.DictList --sort date --short
  recordkit show trades.csv --values symbol --unique`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "input format (DictList|csv|json)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter by key=value (repeatable)")
	cmd.Flags().StringVar(&opts.SortKey, "sort", "", "sort by this key")
	cmd.Flags().StringVar(&opts.Values, "values", "", "print only this key's values")
	cmd.Flags().BoolVar(&opts.Unique, "unique", false, "with --values, drop repeats")
	cmd.Flags().BoolVar(&opts.Sorted, "sorted", false, "with --values, sort the output")
	cmd.Flags().BoolVar(&opts.Short, "short", false, "show only the first and last three records")

	return cmd
}

func runShow(opts *ShowOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	query, err := parseWhere(opts.Where)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
	}

	format, err := formatFor(path, opts.From)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}
	list, err := openExisting(path, format, opts.RootOptions)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
	}

	list = list.Filter(query)
	records := list.Records()
	if opts.SortKey != "" {
		records = dictlist.NewOrdered(opts.SortKey, list).Records()
	}

	if opts.Values != "" {
		var vopts []dictlist.ValuesOption
		if opts.Unique {
			vopts = append(vopts, dictlist.Unique())
		}
		if opts.Sorted {
			vopts = append(vopts, dictlist.Sorted())
		}
		values := dictlist.New(records).Values(opts.Values, vopts...)
		plain := make([]any, len(values))
		for i, v := range values {
			plain[i] = record.ToAny(v)
		}
		return f.Emit(ShowResult{Len: len(values), Values: plain}, func(w io.Writer) {
			for _, v := range values {
				fmt.Fprintln(w, v)
			}
		})
	}

	return f.Emit(ShowResult{Len: len(records), Records: records}, func(w io.Writer) {
		fmt.Fprintf(w, "%s (%d records)\n", path, len(records))
		writeRecords(w, records, opts.Short)
	})
}

// writeRecords prints one record per line, eliding the middle of long lists
// when shorten is set.
func writeRecords(w io.Writer, records []record.Record, shorten bool) {
	n := len(records)
	for i, r := range records {
		if shorten && n > 6 && i >= 3 && i < n-3 {
			if i == 3 {
				fmt.Fprintln(w, "  ...")
			}
			continue
		}
		fmt.Fprintf(w, "  %d: %s\n", i, r)
	}
}

// parseWhere turns key=value pairs into a match query.
func parseWhere(pairs []string) (record.Record, error) {
	query := record.Record{}
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --where %q: want key=value", p)
		}
		var v record.Value = record.String(raw)
		if json.Valid([]byte(raw)) {
			if parsed, err := record.UnmarshalValue([]byte(raw)); err == nil {
				v = parsed
			}
		}
		query[key] = v
	}
	return query, nil
}
