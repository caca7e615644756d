package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/dictlist"
	"github.com/roach88/recordkit/internal/record"
)

// series is the sample used across the indicator tests.
func series() []record.Record {
	rows := [][2]int64{
		{30, 10}, {31, 20}, {32, 35}, {33, 56}, {34, 42}, {35, 21},
		{34, 1}, {33, 0}, {32, 0}, {31, 10}, {30, 7},
	}
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		out[i] = record.Record{"value1": record.Int(r[0]), "value2": record.Int(r[1])}
	}
	return out
}

func crossSeries() []record.Record {
	rows := [][2]int64{
		{30, 30}, {44, 32}, {46, 46}, {48, 48}, {52, 48},
		{48, 49}, {47, 47}, {48, 47}, {46, 46},
	}
	out := make([]record.Record, len(rows))
	for i, r := range rows {
		out[i] = record.Record{"value1": record.Int(r[0]), "value2": record.Int(r[1])}
	}
	return out
}

func run(t *testing.T, records []record.Record, handlers ...dictlist.Handler) *dictlist.Handled {
	t.Helper()
	h, err := dictlist.NewHandled(handlers, dictlist.New(records))
	require.NoError(t, err)
	return h
}

func floats(t *testing.T, values []record.Value) []float64 {
	t.Helper()
	out := make([]float64, len(values))
	for i, v := range values {
		f, ok := record.Number(v)
		require.True(t, ok, "value %d is %v", i, v)
		out[i] = f
	}
	return out
}

func firedAt(values []record.Value) []int {
	var idx []int
	for i, v := range values {
		if v == record.Bool(true) {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name   string
		method CalcMethod
		a, b   Operand
		want   record.Value
	}{
		{"add ints", Add, Key("x"), Key("y"), record.Int(9)},
		{"sub value", Sub, Key("x"), Val(record.Int(1)), record.Int(5)},
		{"mul float", Mul, Val(record.Float(0.5)), Key("y"), record.Float(1.5)},
		{"div always float", Div, Key("x"), Key("y"), record.Float(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Calculate(tt.method, tt.a, tt.b)
			require.NoError(t, err)

			out, err := h(record.Record{"x": record.Int(6), "y": record.Int(3)}, record.Record{})
			require.NoError(t, err)
			assert.Equal(t, record.Record{string(tt.method): tt.want}, out)
		})
	}
}

func TestCalculateErrors(t *testing.T) {
	h, err := Calculate(Div, Key("x"), Val(record.Int(0)))
	require.NoError(t, err)
	_, err = h(record.Record{"x": record.Int(1)}, record.Record{})
	assert.ErrorIs(t, err, ErrDivideByZero)

	h, err = Calculate(Add, Key("x"), Key("missing"))
	require.NoError(t, err)
	_, err = h(record.Record{"x": record.Int(1)}, record.Record{})
	assert.ErrorIs(t, err, ErrMissingKey)

	h, err = Calculate(Add, Key("x"), Val(record.String("a")))
	require.NoError(t, err)
	_, err = h(record.Record{"x": record.Int(1)}, record.Record{})
	assert.ErrorIs(t, err, ErrNotNumber)

	_, err = Calculate("POW", Key("x"), Key("y"))
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestSourceAndTarget(t *testing.T) {
	h, err := Calculate(Add, Key("a"), Key("b"), WithSource(Pipe), WithTarget(Element), WithKey("sum"))
	require.NoError(t, err)

	rec := record.Record{}
	out, err := h(rec, record.Record{"a": record.Int(1), "b": record.Int(2)})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, record.Int(3), rec["sum"])
}

func TestCompare(t *testing.T) {
	rec := record.Record{"x": record.Int(2), "y": record.Float(2)}
	tests := []struct {
		method CompareMethod
		want   bool
	}{
		{GT, false}, {GTE, true}, {LT, false}, {LTE, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			h, err := Compare(tt.method, Key("x"), Key("y"), WithTarget(Element))
			require.NoError(t, err)
			_, err = h(rec, record.Record{})
			require.NoError(t, err)
			assert.Equal(t, record.Bool(tt.want), rec[string(tt.method)])
		})
	}

	_, err := Compare("EQ", Key("x"), Key("y"))
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestCross(t *testing.T) {
	tests := []struct {
		name   string
		method CrossMethod
		a, b   Operand
		want   []int
	}{
		{"golden key key", Golden, Key("value1"), Key("value2"), []int{7}},
		{"golden key value", Golden, Key("value1"), Val(record.Int(48)), []int{4}},
		{"golden value key", Golden, Val(record.Int(48)), Key("value2"), []int{6}},
		{"dead key key", Dead, Key("value1"), Key("value2"), []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Cross(tt.method, tt.a, tt.b, WithTarget(Element), WithKey("x"))
			require.NoError(t, err)

			h := run(t, crossSeries(), c)
			values := h.Values("x")
			require.Len(t, values, 9)
			assert.Equal(t, tt.want, firedAt(values))
		})
	}
}

func TestCrossDefaultKeyIsMethod(t *testing.T) {
	c, err := Cross(Golden, Key("a"), Key("b"))
	require.NoError(t, err)
	out, err := c(record.Record{"a": record.Int(1), "b": record.Int(2)}, record.Record{})
	require.NoError(t, err)
	assert.Equal(t, record.Record{"Golden": record.Bool(false)}, out)
}

func TestAggregate(t *testing.T) {
	rec := record.Record{"t": record.Bool(true), "f": record.Bool(false), "one": record.Int(1)}

	all, err := Aggregate(All, []string{"t", "one"})
	require.NoError(t, err)
	out, err := all(rec, record.Record{})
	require.NoError(t, err)
	assert.Equal(t, record.Record{"ALL": record.Bool(true)}, out)

	all, err = Aggregate(All, []string{"t", "f"})
	require.NoError(t, err)
	out, err = all(rec, record.Record{})
	require.NoError(t, err)
	assert.Equal(t, record.Record{"ALL": record.Bool(false)}, out)

	anyOf, err := Aggregate(Any, []string{"f", "one"})
	require.NoError(t, err)
	out, err = anyOf(rec, record.Record{})
	require.NoError(t, err)
	assert.Equal(t, record.Record{"ANY": record.Bool(true)}, out)

	anyOf, err = Aggregate(Any, []string{"f", "missing"})
	require.NoError(t, err)
	_, err = anyOf(rec, record.Record{})
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = Aggregate("NONE", nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMASimple(t *testing.T) {
	ma1, err := MA(5, "value1", Simple, WithKey("MA1"), WithTarget(Element))
	require.NoError(t, err)
	ma2, err := MA(8, "value2", Simple, WithKey("MA2"), WithTarget(Element))
	require.NoError(t, err)

	h := run(t, series(), ma1, ma2)

	assert.InDeltaSlice(t, []float64{
		30,
		(30 + 31) / 2.0,
		(30 + 31 + 32) / 3.0,
		(30 + 31 + 32 + 33) / 4.0,
		(30 + 31 + 32 + 33 + 34) / 5.0,
		(31 + 32 + 33 + 34 + 35) / 5.0,
		(32 + 33 + 34 + 35 + 34) / 5.0,
		(33 + 34 + 35 + 34 + 33) / 5.0,
		(34 + 35 + 34 + 33 + 32) / 5.0,
		(35 + 34 + 33 + 32 + 31) / 5.0,
		(34 + 33 + 32 + 31 + 30) / 5.0,
	}, floats(t, h.Values("MA1")), 1e-9)

	assert.InDeltaSlice(t, []float64{
		10,
		(10 + 20) / 2.0,
		(10 + 20 + 35) / 3.0,
		(10 + 20 + 35 + 56) / 4.0,
		(10 + 20 + 35 + 56 + 42) / 5.0,
		(10 + 20 + 35 + 56 + 42 + 21) / 6.0,
		(10 + 20 + 35 + 56 + 42 + 21 + 1) / 7.0,
		(10 + 20 + 35 + 56 + 42 + 21 + 1 + 0) / 8.0,
		(20 + 35 + 56 + 42 + 21 + 1 + 0 + 0) / 8.0,
		(35 + 56 + 42 + 21 + 1 + 0 + 0 + 10) / 8.0,
		(56 + 42 + 21 + 1 + 0 + 0 + 10 + 7) / 8.0,
	}, floats(t, h.Values("MA2")), 1e-9)
}

func TestMAExponentialAndSmoothed(t *testing.T) {
	for _, kind := range []Average{Exponential, Smoothed} {
		t.Run(string(kind), func(t *testing.T) {
			ma, err := MA(5, "value1", kind, WithTarget(Element))
			require.NoError(t, err)

			v := floats(t, run(t, series(), ma).Values("MA"))
			assert.InDeltaSlice(t, []float64{30, 30.5, 31, 31.5, 32}, v[:5], 1e-9)
			assert.Less(t, v[4], v[5])
			assert.Less(t, v[5], v[6])
			assert.Greater(t, v[7], v[8])
			assert.Greater(t, v[8], v[9])
			assert.Greater(t, v[9], v[10])
		})
	}
}

func TestMovingAverageExponentialStep(t *testing.T) {
	m, err := NewMovingAverage(3, Exponential)
	require.NoError(t, err)

	m.Next(1)
	m.Next(2)
	assert.InDelta(t, 2.0, m.Next(3), 1e-12)
	// coefficient 2/(3+1) = 0.5
	assert.InDelta(t, 0.5*6+0.5*2, m.Next(6), 1e-12)
}

func TestMovingAverageSmoothedStep(t *testing.T) {
	m, err := NewMovingAverage(2, "smoothed")
	require.NoError(t, err)

	m.Next(2)
	assert.InDelta(t, 3.0, m.Next(4), 1e-12)
	assert.InDelta(t, (3.0*1+7)/2, m.Next(7), 1e-12)
}

func TestMovingAverageRejects(t *testing.T) {
	_, err := NewMovingAverage(0, Simple)
	assert.Error(t, err)
	_, err = NewMovingAverage(3, "WEIGHTED")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestRSISimple(t *testing.T) {
	rsi, err := RSI(5, "value1", Simple, WithTarget(Element))
	require.NoError(t, err)

	h := run(t, series(), rsi)
	assert.InDeltaSlice(t,
		[]float64{50, 100, 100, 100, 100, 100, 80, 60, 40, 20, 0},
		floats(t, h.Values("RSI")), 1e-9)
}

func TestRSIRequiresNumbers(t *testing.T) {
	rsi, err := RSI(5, "close", Simple)
	require.NoError(t, err)
	_, err = rsi(record.Record{"close": record.String("x")}, record.Record{})
	assert.ErrorIs(t, err, ErrNotNumber)
}

func TestParseParam(t *testing.T) {
	p, err := ParseParam("element", Pipe)
	require.NoError(t, err)
	assert.Equal(t, Element, p)

	p, err = ParseParam("", Pipe)
	require.NoError(t, err)
	assert.Equal(t, Pipe, p)

	_, err = ParseParam("record", Pipe)
	assert.Error(t, err)
}
