package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/store"
)

// SnapshotOptions holds flags shared by the snapshot subcommands.
type SnapshotOptions struct {
	*RootOptions
	Database string
}

// SnapshotResult is the JSON form of a single snapshot operation.
type SnapshotResult struct {
	Snapshot store.Snapshot  `json:"snapshot"`
	Inserted bool            `json:"inserted,omitempty"`
	Records  []record.Record `json:"records,omitempty"`
	Output   string          `json:"output,omitempty"`
}

// NewSnapshotCommand creates the snapshot command group.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and load record lists in a snapshot database",
		Long: `Snapshots are numbered versions of a named record list kept in a SQLite
database. Saving a list identical to the newest version is a no-op.`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "recordkit.db", "snapshot database path")

	cmd.AddCommand(
		newSnapshotSaveCommand(opts),
		newSnapshotLoadCommand(opts),
		newSnapshotListCommand(opts),
		newSnapshotHistoryCommand(opts),
		newSnapshotDeleteCommand(opts),
		newSnapshotFindCommand(opts),
	)
	return cmd
}

// withStore opens the database, runs fn and closes the store.
func (o *SnapshotOptions) withStore(cmd *cobra.Command, fn func(*store.Store, *OutputFormatter) error) error {
	f := o.formatter(cmd)
	st, err := store.Open(o.Database)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStoreFailed, fmt.Sprintf("opening %s: %v", o.Database, err), nil)
	}
	defer st.Close()
	return fn(st, f)
}

// storeFail maps store errors onto CLI error codes.
func storeFail(f *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return f.Fail(ExitFailure, ErrCodeNotFound, err.Error(), nil)
	}
	return f.Fail(ExitCommandError, ErrCodeStoreFailed, err.Error(), nil)
}

func newSnapshotSaveCommand(opts *SnapshotOptions) *cobra.Command {
	var from string
	cmd := &cobra.Command{
		Use:           "save <name> <file>",
		Short:         "Save a record file as the next version of name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				format, err := formatFor(args[1], from)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
				}
				list, err := openExisting(args[1], format, opts.RootOptions)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeReadFailed, err.Error(), nil)
				}
				snap, inserted, err := st.Save(commandContext(cmd), args[0], list.Records())
				if err != nil {
					return storeFail(f, err)
				}
				return f.Emit(SnapshotResult{Snapshot: snap, Inserted: inserted}, func(w io.Writer) {
					if inserted {
						fmt.Fprintf(w, "✓ Saved %s seq %d (%d records)\n", snap.Name, snap.Seq, snap.Count)
						return
					}
					fmt.Fprintf(w, "%s seq %d unchanged\n", snap.Name, snap.Seq)
				})
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "input format (DictList|csv|json)")
	return cmd
}

func newSnapshotLoadCommand(opts *SnapshotOptions) *cobra.Command {
	var (
		seq int64
		out string
		to  string
		cut bool
	)
	cmd := &cobra.Command{
		Use:           "load <name>",
		Short:         "Print or export a saved version",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				ctx := commandContext(cmd)
				var (
					records []record.Record
					snap    store.Snapshot
					err     error
				)
				if seq > 0 {
					records, snap, err = st.LoadSeq(ctx, args[0], seq)
				} else {
					records, snap, err = st.Load(ctx, args[0])
				}
				if err != nil {
					return storeFail(f, err)
				}

				if out != "" {
					format, err := formatFor(out, to)
					if err != nil {
						return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
					}
					if err := dictlist.New(records).Write(out, format); err != nil {
						return f.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
					}
					return f.Emit(SnapshotResult{Snapshot: snap, Output: out}, func(w io.Writer) {
						fmt.Fprintf(w, "✓ Wrote %s seq %d to %s\n", snap.Name, snap.Seq, out)
					})
				}

				return f.Emit(SnapshotResult{Snapshot: snap, Records: records}, func(w io.Writer) {
					fmt.Fprintf(w, "%s seq %d (%d records)\n", snap.Name, snap.Seq, snap.Count)
					writeRecords(w, records, cut)
				})
			})
		},
	}
	cmd.Flags().Int64Var(&seq, "seq", 0, "version to load (default newest)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the records to this file")
	cmd.Flags().StringVar(&to, "to", "", "output format (DictList|csv|json)")
	cmd.Flags().BoolVar(&cut, "short", false, "show only the first and last three records")
	return cmd
}

func newSnapshotListCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the newest version of every name",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				snaps, err := st.List(commandContext(cmd))
				if err != nil {
					return storeFail(f, err)
				}
				return f.Emit(snaps, func(w io.Writer) { writeSnapshots(w, snaps) })
			})
		},
	}
}

func newSnapshotHistoryCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "history <name>",
		Short:         "List every version of name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				snaps, err := st.History(commandContext(cmd), args[0])
				if err != nil {
					return storeFail(f, err)
				}
				if len(snaps) == 0 {
					return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("%v: %q", store.ErrNotFound, args[0]), nil)
				}
				return f.Emit(snaps, func(w io.Writer) { writeSnapshots(w, snaps) })
			})
		},
	}
}

func newSnapshotDeleteCommand(opts *SnapshotOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete every version of name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				n, err := st.Delete(commandContext(cmd), args[0])
				if err != nil {
					return storeFail(f, err)
				}
				if n == 0 {
					return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("%v: %q", store.ErrNotFound, args[0]), nil)
				}
				return f.Emit(map[string]any{"name": args[0], "deleted": n}, func(w io.Writer) {
					fmt.Fprintf(w, "✓ Deleted %d version(s) of %s\n", n, args[0])
				})
			})
		},
	}
}

func newSnapshotFindCommand(opts *SnapshotOptions) *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:           "find <name>",
		Short:         "Query the newest version of name",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(st *store.Store, f *OutputFormatter) error {
				query, err := parseWhere(where)
				if err != nil {
					return f.Fail(ExitCommandError, ErrCodeInvalidQuery, err.Error(), nil)
				}
				records, err := st.Find(commandContext(cmd), args[0], query)
				if err != nil {
					return storeFail(f, err)
				}
				return f.Emit(ShowResult{Len: len(records), Records: records}, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%d records)\n", args[0], len(records))
					writeRecords(w, records, false)
				})
			})
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "filter by key=value (repeatable)")
	return cmd
}

func writeSnapshots(w io.Writer, snaps []store.Snapshot) {
	for _, s := range snaps {
		fmt.Fprintf(w, "%-20s seq %-4d %6d records  %s\n", s.Name, s.Seq, s.Count, s.Hash)
	}
}
