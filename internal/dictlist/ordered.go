package dictlist

import (
	"iter"
	"slices"

	"github.com/roach88/recordkit/internal/record"
)

// Ordered is a view of a List kept sorted by one key.
//
// Appends mark the view dirty; the next read that depends on order sorts
// the backing List with a stable sort. Records without the key sort as
// null, before every other value.
//
// Get uses binary search and returns an arbitrary record among those with
// equal keys. GetBy and Find scan linearly and return the first match.
type Ordered struct {
	key    string
	list   *List
	sorted bool
}

// NewOrdered wraps list, sorting it by key on first read. A nil list
// starts empty.
func NewOrdered(key string, list *List) *Ordered {
	if list == nil {
		list = New(nil)
	}
	return &Ordered{key: key, list: list}
}

func (o *Ordered) sort() {
	if o.sorted {
		return
	}
	slices.SortStableFunc(o.list.data, func(a, b record.Record) int {
		return record.Compare(a[o.key], b[o.key])
	})
	o.sorted = true
}

func (o *Ordered) derive(records []record.Record) *Ordered {
	return &Ordered{key: o.key, list: o.list.derive(records)}
}

// Key returns the designated sort key.
func (o *Ordered) Key() string { return o.key }

// Name returns the display name of the backing list.
func (o *Ordered) Name() string { return o.list.name }

// List returns the backing list in sorted order.
func (o *Ordered) List() *List {
	o.sort()
	return o.list
}

func (o *Ordered) Len() int { return o.list.Len() }

// At returns the record at index i in sorted order.
func (o *Ordered) At(i int) record.Record {
	o.sort()
	return o.list.At(i)
}

// All iterates in sorted order.
func (o *Ordered) All() iter.Seq2[int, record.Record] {
	o.sort()
	return o.list.All()
}

// Records returns a sorted copy of the record slice.
func (o *Ordered) Records() []record.Record {
	o.sort()
	return o.list.Records()
}

// Slice returns a new Ordered view over records [i, j) in sorted order.
func (o *Ordered) Slice(i, j int) *Ordered {
	o.sort()
	return &Ordered{key: o.key, list: o.list.Slice(i, j), sorted: true}
}

// Get binary-searches for a record whose key equals v.
func (o *Ordered) Get(v record.Value) (record.Record, bool) {
	o.sort()
	lo, hi := 0, len(o.list.data)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		r := o.list.data[mid]
		switch c := record.Compare(r[o.key], v); {
		case c > 0:
			hi = mid - 1
		case c < 0:
			lo = mid + 1
		default:
			return r, true
		}
	}
	return nil, false
}

// GetBy returns the first record in sorted order whose key equals v.
func (o *Ordered) GetBy(key string, v record.Value) (record.Record, bool) {
	o.sort()
	return o.list.Get(key, v)
}

// Find returns the first record in sorted order matching query.
func (o *Ordered) Find(query record.Record) (record.Record, bool) {
	o.sort()
	return o.list.Find(query)
}

// Items returns the records whose designated key equals v.
func (o *Ordered) Items(v record.Value) *Ordered {
	return o.Filter(record.Record{o.key: v})
}

// Filter returns the records matching query as a new Ordered view.
func (o *Ordered) Filter(query record.Record) *Ordered {
	o.sort()
	return o.derive(o.list.Filter(query).data)
}

// Include keeps records whose designated key holds one of values.
func (o *Ordered) Include(values ...record.Value) *Ordered {
	return o.IncludeBy(o.key, values...)
}

// Exclude drops records whose designated key holds one of values.
func (o *Ordered) Exclude(values ...record.Value) *Ordered {
	return o.ExcludeBy(o.key, values...)
}

// IncludeBy keeps records whose key holds one of values.
func (o *Ordered) IncludeBy(key string, values ...record.Value) *Ordered {
	o.sort()
	return o.derive(partition(o.list.data, key, values, true))
}

// ExcludeBy drops records whose key holds one of values.
func (o *Ordered) ExcludeBy(key string, values ...record.Value) *Ordered {
	o.sort()
	return o.derive(partition(o.list.data, key, values, false))
}

// Values projects the designated key in sorted order.
func (o *Ordered) Values(opts ...ValuesOption) []record.Value {
	return o.ValuesOf(o.key, opts...)
}

// ValuesOf projects key in sorted order.
func (o *Ordered) ValuesOf(key string, opts ...ValuesOption) []record.Value {
	o.sort()
	return projectValues(o.list.data, key, opts)
}

func (o *Ordered) Append(r record.Record) {
	o.list.Append(r)
	o.sorted = false
}

func (o *Ordered) Extend(records []record.Record) {
	o.list.Extend(records)
	o.sorted = false
}

// Insert always fails: a positional insert cannot keep the view sorted.
func (o *Ordered) Insert(int, record.Record) error {
	err := unsupportedOperation("Ordered.Insert", "Ordered")
	o.list.trace.Critical(err.Error())
	return err
}

// Remove deletes the first record equal to r.
func (o *Ordered) Remove(r record.Record) error {
	return o.list.Remove(r)
}

// Pop removes the record at index i in sorted order.
func (o *Ordered) Pop(i int) (record.Record, error) {
	o.sort()
	return o.list.Pop(i)
}

func (o *Ordered) Clear() error {
	return o.list.Clear()
}

// Read appends the records stored at path and marks the view dirty.
func (o *Ordered) Read(path string, f Format) error {
	if err := o.list.Read(path, f); err != nil {
		return err
	}
	o.sorted = false
	return nil
}

// Write stores the records at path in sorted order.
func (o *Ordered) Write(path string, f Format) error {
	o.sort()
	return o.list.Write(path, f)
}

func (o *Ordered) String() string {
	return describe("Ordered", field{"name", o.list.name}, field{"key", o.key}, field{"len", o.list.Len()})
}

// Print logs the records in sorted order.
func (o *Ordered) Print(shorten bool) {
	o.sort()
	printRecords(o.list.trace, o.String(), o.list.data, shorten)
}
