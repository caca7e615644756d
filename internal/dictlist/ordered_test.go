package dictlist

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/record"
	"github.com/roach88/recordkit/internal/testutil"
)

func assertSortedBy(t *testing.T, key string, records []record.Record) {
	t.Helper()
	for i := 1; i < len(records); i++ {
		assert.LessOrEqual(t, record.Compare(records[i-1][key], records[i][key]), 0,
			"records %d and %d out of order", i-1, i)
	}
}

func TestOrderedSortInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	o := NewOrdered("t", nil)

	for batch := 0; batch < 20; batch++ {
		n := rng.Intn(10) + 1
		for i := 0; i < n; i++ {
			o.Append(record.Record{"t": record.Int(rng.Int63n(50))})
		}
		assertSortedBy(t, "t", o.Records())
	}
}

func TestOrderedIsLazy(t *testing.T) {
	l := New(testutil.Series("t", 3, 1, 2))
	o := NewOrdered("t", l)

	// the backing list is untouched until a read
	assert.Equal(t, record.Int(3), l.At(0)["t"])
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, record.Int(3), l.At(0)["t"])

	assert.Equal(t, record.Int(1), o.At(0)["t"])
	assert.Equal(t, record.Int(1), l.At(0)["t"])

	o.Append(record.Record{"t": record.Int(0)})
	assert.Equal(t, record.Int(0), l.At(3)["t"])
	assert.Equal(t, record.Int(0), o.At(0)["t"])
}

func TestOrderedSortIsStable(t *testing.T) {
	o := NewOrdered("t", New([]record.Record{
		{"t": record.Int(2), "id": record.String("a")},
		{"t": record.Int(1), "id": record.String("b")},
		{"t": record.Int(2), "id": record.String("c")},
		{"t": record.Int(1), "id": record.String("d")},
	}))

	assert.Equal(t,
		[]record.Value{record.String("b"), record.String("d"), record.String("a"), record.String("c")},
		o.ValuesOf("id"))
}

func TestOrderedMissingKeySortsFirst(t *testing.T) {
	o := NewOrdered("t", New([]record.Record{
		{"t": record.Int(1)},
		{"other": record.Int(0)},
	}))
	assert.Equal(t, record.Int(0), o.At(0)["other"])
}

func TestOrderedGet(t *testing.T) {
	o := NewOrdered("age", New(testutil.People()))

	r, ok := o.Get(record.Int(25))
	require.True(t, ok)
	assert.Equal(t, record.String("Jane"), r["name"])

	r, ok = o.Get(record.Float(22))
	require.True(t, ok)
	assert.Equal(t, record.String("Doe"), r["name"])

	_, ok = o.Get(record.Int(26))
	assert.False(t, ok)

	_, ok = NewOrdered("age", nil).Get(record.Int(1))
	assert.False(t, ok)
}

func TestOrderedGetAmongDuplicates(t *testing.T) {
	o := NewOrdered("t", New([]record.Record{
		{"t": record.Int(1), "id": record.String("a")},
		{"t": record.Int(1), "id": record.String("b")},
		{"t": record.Int(1), "id": record.String("c")},
		{"t": record.Int(2), "id": record.String("d")},
	}))

	r, ok := o.Get(record.Int(1))
	require.True(t, ok)
	assert.Equal(t, record.Int(1), r["t"])

	// GetBy scans linearly and returns the first of the ties
	r, ok = o.GetBy("t", record.Int(1))
	require.True(t, ok)
	assert.Equal(t, record.String("a"), r["id"])
}

func TestOrderedItemsAndFilters(t *testing.T) {
	o := NewOrdered("age", New(testutil.People(), WithName("people")))
	o.Append(record.Record{"name": record.String("Twin"), "age": record.Int(25)})

	items := o.Items(record.Int(25))
	assert.Equal(t, 2, items.Len())
	assert.Equal(t, "age", items.Key())

	in := o.Include(record.Int(22), record.Int(30))
	assert.Equal(t, []record.Value{record.Int(22), record.Int(30)}, in.Values())

	out := o.Exclude(record.Int(25))
	assert.Equal(t, []record.Value{record.String("Doe"), record.String("John")}, out.ValuesOf("name"))

	byName := o.IncludeBy("name", record.String("John"), record.String("Twin"))
	assert.Equal(t, []record.Value{record.Int(25), record.Int(30)}, byName.Values())

	notJohn := o.ExcludeBy("name", record.String("John"))
	assert.Equal(t, 3, notJohn.Len())

	found, ok := o.Find(record.Record{"age": record.Int(25)})
	require.True(t, ok)
	assert.Equal(t, record.String("Jane"), found["name"])
}

func TestOrderedValues(t *testing.T) {
	o := NewOrdered("t", New(testutil.Series("t", 3, 1, 3, 2)))
	assert.Equal(t, []record.Value{record.Int(1), record.Int(2), record.Int(3), record.Int(3)}, o.Values())
	assert.Equal(t, []record.Value{record.Int(1), record.Int(2), record.Int(3)}, o.Values(Unique()))
}

func TestOrderedSlice(t *testing.T) {
	o := NewOrdered("t", New(testutil.Series("t", 5, 4, 3, 2, 1)))
	s := o.Slice(0, 2)
	assert.Equal(t, []record.Value{record.Int(1), record.Int(2)}, s.Values())
}

func TestOrderedInsertFails(t *testing.T) {
	o := NewOrdered("t", nil)
	err := o.Insert(0, record.Record{"t": record.Int(1)})
	require.Error(t, err)
	assert.True(t, IsUnsupportedOperation(err))
	assert.Equal(t, 0, o.Len())
}

func TestOrderedPopSortsFirst(t *testing.T) {
	o := NewOrdered("t", New(testutil.Series("t", 3, 1, 2)))

	r, err := o.Pop(0)
	require.NoError(t, err)
	assert.Equal(t, record.Int(1), r["t"])

	o.Append(record.Record{"t": record.Int(0)})
	r, err = o.Pop(-1)
	require.NoError(t, err)
	assert.Equal(t, record.Int(3), r["t"])
}

func TestOrderedRemoveAndClear(t *testing.T) {
	o := NewOrdered("t", New(testutil.Series("t", 2, 1)))
	require.NoError(t, o.Remove(record.Record{"t": record.Int(2)}))
	assert.Equal(t, 1, o.Len())
	require.NoError(t, o.Clear())
	assert.Equal(t, 0, o.Len())
}

func TestOrderedWriteSortsAndReadMarksDirty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ordered.json")
	o := NewOrdered("t", New(testutil.Series("t", 3, 1, 2)))
	require.NoError(t, o.Write(path, ""))

	plain, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []record.Value{record.Int(1), record.Int(2), record.Int(3)}, plain.Values("t"))

	o2 := NewOrdered("t", New(testutil.Series("t", 0, 10)))
	_ = o2.Values()
	require.NoError(t, o2.Read(path, ""))
	assert.Equal(t,
		[]record.Value{record.Int(0), record.Int(1), record.Int(2), record.Int(3), record.Int(10)},
		o2.Values())
}

func TestOrderedString(t *testing.T) {
	o := NewOrdered("t", New(testutil.Series("t", 1), WithName("prices")))
	assert.Equal(t, "Ordered(name:prices, key:t, len:1)", o.String())
	assert.Equal(t, "Ordered(key:t, len:0)", NewOrdered("t", nil).String())
}
