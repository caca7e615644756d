package record

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = Bool(true)
	var _ Value = NewTime(time.Now())
}

func TestValueString(t *testing.T) {
	ts := time.Date(2021, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{"null", Null{}, ""},
		{"string", String("John"), "John"},
		{"int", Int(-30), "-30"},
		{"float", Float(25.5), "25.5"},
		{"integral float", Float(2), "2.0"},
		{"exponent float", Float(1e21), "1e+21"},
		{"bool", Bool(true), "true"},
		{"time", NewTime(ts), "2021-03-01T09:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.value.String())
		})
	}
}

func TestNewTimeNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	local := time.Date(2021, 1, 1, 9, 0, 0, 0, loc)
	utc := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, NewTime(utc), NewTime(local))
	assert.Equal(t, time.UTC, NewTime(local).Time().Location())
}

func TestCompare(t *testing.T) {
	t1 := NewTime(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	t2 := NewTime(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"int less", Int(1), Int(2), -1},
		{"int equal", Int(2), Int(2), 0},
		{"int vs float", Int(2), Float(2.5), -1},
		{"float vs int equal", Float(3), Int(3), 0},
		{"string", String("Doe"), String("Jane"), -1},
		{"time", t2, t1, 1},
		{"bool", Bool(false), Bool(true), -1},
		{"null first", Null{}, Int(0), -1},
		{"nil as null", nil, Null{}, 0},
		{"bool before number", Bool(true), Int(0), -1},
		{"number before string", Int(99), String("1"), -1},
		{"string before time", String("z"), t1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestEqualNumeric(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Int(1), String("1")))
	assert.Negative(t, Compare(Int(1), Int(2)))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(Null{}))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(Bool(false)))
	assert.False(t, Truthy(Int(0)))
	assert.False(t, Truthy(String("")))
	assert.True(t, Truthy(Bool(true)))
	assert.True(t, Truthy(Float(0.1)))
	assert.True(t, Truthy(String("x")))
}

func TestFromAny(t *testing.T) {
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input any
		want  Value
	}{
		{"nil", nil, Null{}},
		{"string", "a", String("a")},
		{"int", 3, Int(3)},
		{"int8", int8(-3), Int(-3)},
		{"uint32", uint32(7), Int(7)},
		{"float32", float32(0.5), Float(0.5)},
		{"float64", 2.25, Float(2.25)},
		{"bool", true, Bool(true)},
		{"time", ts, NewTime(ts)},
		{"json int", json.Number("12"), Int(12)},
		{"json float", json.Number("1.5"), Float(1.5)},
		{"value passthrough", Int(9), Int(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAny(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromAnyRejects(t *testing.T) {
	_, err := FromAny([]int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")

	_, err = FromAny(uint64(math.MaxUint64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of int64 range")
}

func TestToAny(t *testing.T) {
	assert.Nil(t, ToAny(Null{}))
	assert.Equal(t, "x", ToAny(String("x")))
	assert.Equal(t, int64(4), ToAny(Int(4)))
	assert.Equal(t, 0.5, ToAny(Float(0.5)))
	assert.Equal(t, true, ToAny(Bool(true)))
}
