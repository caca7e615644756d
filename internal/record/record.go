package record

import (
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Record maps string keys to Values. Key order is irrelevant.
// Use SortedKeys for deterministic iteration.
type Record map[string]Value

// Get returns the value stored under key.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r[key]
	return v, ok
}

// Has reports whether key is present.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Clone returns a shallow copy. Values are immutable so a shallow copy is
// independent of the original.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Merge copies every entry of other into r, overwriting existing keys.
func (r Record) Merge(other Record) {
	maps.Copy(r, other)
}

// Matches reports whether r contains every key of query with an equal value.
// An empty query matches every record.
func (r Record) Matches(query Record) bool {
	for k, want := range query {
		got, ok := r[k]
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Equal reports whether r and other hold the same keys with equal values.
func (r Record) Equal(other Record) bool {
	if len(r) != len(other) {
		return false
	}
	return r.Matches(other)
}

// SortedKeys returns the keys in byte-wise lexical order.
func (r Record) SortedKeys() []string {
	keys := slices.Collect(maps.Keys(r))
	sort.Strings(keys)
	return keys
}

// String renders the record as compact JSON with sorted keys.
func (r Record) String() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Record(%d keys, %v)", len(r), err)
	}
	return string(data)
}

// From converts a plain Go map into a Record.
func From(m map[string]any) (Record, error) {
	r := make(Record, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("record key %q: %w", k, err)
		}
		r[k] = v
	}
	return r, nil
}

// MustFrom is like From but panics on error. Intended for literals in tests
// and fixtures.
func MustFrom(m map[string]any) Record {
	r, err := From(m)
	if err != nil {
		panic(err)
	}
	return r
}

// ToMap converts r into a plain Go map using ToAny for each value.
func (r Record) ToMap() map[string]any {
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = ToAny(v)
	}
	return m
}

// Equals reports whether two record slices hold equal records in the same order.
func Equals(a, b []Record) bool {
	return slices.EqualFunc(a, b, func(x, y Record) bool { return x.Equal(y) })
}
