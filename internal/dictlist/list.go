package dictlist

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/trace"
)

// List is an ordered sequence of records. Insertion order is preserved and
// duplicates are allowed.
type List struct {
	name   string
	trace  *trace.Trace
	format Format
	data   []record.Record
}

// New returns a List holding records. The slice is copied; the records are
// shared with the caller.
func New(records []record.Record, opts ...Option) *List {
	o := buildOptions(opts)
	return &List{
		name:   o.name,
		trace:  o.trace,
		format: o.format,
		data:   slices.Clone(records),
	}
}

// Open returns a List loaded from path. A missing file yields an empty list.
// The format comes from WithFormat or else the file extension.
func Open(path string, opts ...Option) (*List, error) {
	l := New(nil, opts...)
	if err := l.Read(path, l.format); err != nil {
		return nil, err
	}
	return l, nil
}

// derive builds a new List that inherits l's trace but not its name.
func (l *List) derive(records []record.Record) *List {
	return &List{trace: l.trace, format: l.format, data: records}
}

// Name returns the display name.
func (l *List) Name() string { return l.name }

// Len returns the number of records.
func (l *List) Len() int { return len(l.data) }

// At returns the record at index i. It panics when i is out of range.
func (l *List) At(i int) record.Record { return l.data[i] }

// All iterates over index and record pairs in list order.
func (l *List) All() iter.Seq2[int, record.Record] {
	return func(yield func(int, record.Record) bool) {
		for i, r := range l.data {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Records returns a copy of the record slice.
func (l *List) Records() []record.Record {
	return slices.Clone(l.data)
}

// Slice returns a new List with the records in [i, j).
func (l *List) Slice(i, j int) *List {
	return l.derive(slices.Clone(l.data[i:j]))
}

// Get returns the first record whose key equals v.
func (l *List) Get(key string, v record.Value) (record.Record, bool) {
	return l.Find(record.Record{key: v})
}

// Find returns the first record matching every pair of query.
func (l *List) Find(query record.Record) (record.Record, bool) {
	for _, r := range l.data {
		if r.Matches(query) {
			return r, true
		}
	}
	return nil, false
}

// Items returns every record whose key equals v, as a new List.
func (l *List) Items(key string, v record.Value) *List {
	return l.Filter(record.Record{key: v})
}

// Filter returns every record matching query, as a new List. An empty
// query copies the list.
func (l *List) Filter(query record.Record) *List {
	var out []record.Record
	for _, r := range l.data {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return l.derive(out)
}

// Include returns the records whose key holds one of values. Records
// without the key are left out.
func (l *List) Include(key string, values ...record.Value) *List {
	return l.derive(partition(l.data, key, values, true))
}

// Exclude returns the records whose key holds none of values. Records
// without the key are kept.
func (l *List) Exclude(key string, values ...record.Value) *List {
	return l.derive(partition(l.data, key, values, false))
}

func partition(data []record.Record, key string, values []record.Value, member bool) []record.Record {
	var out []record.Record
	for _, r := range data {
		v, ok := r[key]
		in := ok && slices.ContainsFunc(values, func(want record.Value) bool {
			return record.Equal(v, want)
		})
		if in == member {
			out = append(out, r)
		}
	}
	return out
}

// Values projects key across the records that have it, in list order.
func (l *List) Values(key string, opts ...ValuesOption) []record.Value {
	return projectValues(l.data, key, opts)
}

// Append adds r at the end.
func (l *List) Append(r record.Record) {
	l.data = append(l.data, r)
}

// Extend adds records at the end, in order.
func (l *List) Extend(records []record.Record) {
	l.data = append(l.data, records...)
}

// Insert places r at index i, shifting later records. i may equal Len.
func (l *List) Insert(i int, r record.Record) error {
	if i < 0 || i > len(l.data) {
		return indexOutOfRange("List.Insert", i, len(l.data))
	}
	l.data = slices.Insert(l.data, i, r)
	return nil
}

// Remove deletes the first record equal to r.
func (l *List) Remove(r record.Record) error {
	i := slices.IndexFunc(l.data, func(e record.Record) bool { return e.Equal(r) })
	if i < 0 {
		return &Error{Code: ErrCodeNotFound, Op: "List.Remove", Message: "record not in list"}
	}
	l.data = slices.Delete(l.data, i, i+1)
	return nil
}

// Pop removes and returns the record at index i. Negative indexes count
// from the end.
func (l *List) Pop(i int) (record.Record, error) {
	n := len(l.data)
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return nil, indexOutOfRange("List.Pop", i, n)
	}
	r := l.data[j]
	l.data = slices.Delete(l.data, j, j+1)
	return r, nil
}

// Clear removes every record.
func (l *List) Clear() error {
	clear(l.data)
	l.data = l.data[:0]
	return nil
}

// Read appends the records stored at path. An empty format is inferred
// from the extension. A missing file is not an error.
func (l *List) Read(path string, f Format) error {
	records, err := readRecords("List.Read", path, f)
	if err != nil {
		return err
	}
	l.data = append(l.data, records...)
	l.trace.Debug("read", len(records), "records from", path)
	return nil
}

// Write stores the records at path. An empty format is inferred from the
// extension. An empty list writes nothing.
func (l *List) Write(path string, f Format) error {
	if err := writeRecords("List.Write", path, f, l.data); err != nil {
		return err
	}
	if len(l.data) > 0 {
		l.trace.Debug("wrote", len(l.data), "records to", path)
	}
	return nil
}

func (l *List) String() string {
	return describe("List", field{"len", len(l.data)}, field{"name", l.name})
}

// Print logs String and then the records at info level. With shorten set,
// lists longer than six show the first and last three.
func (l *List) Print(shorten bool) {
	printRecords(l.trace, l.String(), l.data, shorten)
}

func printRecords(t *trace.Trace, header string, data []record.Record, shorten bool) {
	t.Info(header)
	n := len(data)
	if n <= 6 || !shorten {
		for i, r := range data {
			t.Info(fmt.Sprintf("  %d: %s", i, r))
		}
		return
	}
	for i := 0; i < 3; i++ {
		t.Info(fmt.Sprintf("  %d: %s", i, data[i]))
	}
	t.Info("  ...")
	for i := n - 3; i < n; i++ {
		t.Info(fmt.Sprintf("  %d: %s", i, data[i]))
	}
}

type field struct {
	key   string
	value any
}

// describe renders "Kind(k:v, ...)", skipping empty string values.
func describe(kind string, fields ...field) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if s, ok := f.value.(string); ok && s == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", f.key, f.value))
	}
	return kind + "(" + strings.Join(parts, ", ") + ")"
}
