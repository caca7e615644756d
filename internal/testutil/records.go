// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"time"

	"github.com/roach88/recordkit/internal/record"
)

// People returns three fresh person records: John 30, Jane 25, Doe 22.
func People() []record.Record {
	return []record.Record{
		{"name": record.String("John"), "age": record.Int(30)},
		{"name": record.String("Jane"), "age": record.Int(25)},
		{"name": record.String("Doe"), "age": record.Int(22)},
	}
}

// Series returns one record per value, each holding value under key.
func Series(key string, values ...any) []record.Record {
	out := make([]record.Record, len(values))
	for i, v := range values {
		out[i] = record.MustFrom(map[string]any{key: v})
	}
	return out
}

// Day returns midnight UTC of the given date as a record Time.
func Day(year int, month time.Month, day int) record.Time {
	return record.NewTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// At returns a record holding only key = v.
func At(key string, v record.Value) record.Record {
	return record.Record{key: v}
}
