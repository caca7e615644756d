package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/pipeline"
	"github.com/roach88/recordkit/internal/record"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		spec pipeline.HandleSpec
		rec  record.Record
		want record.Record
	}{
		{
			name: "calculate with constant",
			spec: pipeline.HandleSpec{
				Type: "calculate", Method: "mul",
				Left:  &pipeline.OperandSpec{Key: "price"},
				Right: &pipeline.OperandSpec{Value: 2},
				Key:   "double",
			},
			rec:  record.Record{"price": record.Int(21)},
			want: record.Record{"double": record.Int(42)},
		},
		{
			name: "compare",
			spec: pipeline.HandleSpec{
				Type: "COMPARE", Method: "gt",
				Left:  &pipeline.OperandSpec{Key: "a"},
				Right: &pipeline.OperandSpec{Value: 1.5},
			},
			rec:  record.Record{"a": record.Int(2)},
			want: record.Record{"GT": record.Bool(true)},
		},
		{
			name: "cross lowercase method",
			spec: pipeline.HandleSpec{
				Type: "cross", Method: "golden",
				Left:  &pipeline.OperandSpec{Key: "a"},
				Right: &pipeline.OperandSpec{Key: "b"},
			},
			rec:  record.Record{"a": record.Int(1), "b": record.Int(1)},
			want: record.Record{"Golden": record.Bool(false)},
		},
		{
			name: "aggregate",
			spec: pipeline.HandleSpec{Type: "aggregate", Method: "any", Keys: []string{"x", "y"}},
			rec:  record.Record{"x": record.Bool(false), "y": record.Int(3)},
			want: record.Record{"ANY": record.Bool(true)},
		},
		{
			name: "ma defaults",
			spec: pipeline.HandleSpec{Type: "ma", SourceKey: "close"},
			rec:  record.Record{"close": record.Int(10)},
			want: record.Record{"MA": record.Float(10)},
		},
		{
			name: "rsi first value",
			spec: pipeline.HandleSpec{Type: "rsi", SourceKey: "close", Period: 3, Average: "simple", Key: "strength"},
			rec:  record.Record{"close": record.Int(10)},
			want: record.Record{"strength": record.Float(50)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Build(tt.spec)
			require.NoError(t, err)

			out, err := h(tt.rec, record.Record{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestBuildTargetElement(t *testing.T) {
	h, err := Build(pipeline.HandleSpec{
		Type: "calculate", Method: "add",
		Left:   &pipeline.OperandSpec{Key: "a"},
		Right:  &pipeline.OperandSpec{Key: "b"},
		Source: "pipe", Target: "element",
	})
	require.NoError(t, err)

	rec := record.Record{}
	out, err := h(rec, record.Record{"a": record.Int(1), "b": record.Int(1)})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, record.Record{"ADD": record.Int(2)}, rec)
}

func TestBuildErrors(t *testing.T) {
	key := &pipeline.OperandSpec{Key: "a"}
	tests := []struct {
		name string
		spec pipeline.HandleSpec
		msg  string
	}{
		{"unknown type", pipeline.HandleSpec{Type: "median"}, `unknown handle type "median"`},
		{"unknown method", pipeline.HandleSpec{Type: "calculate", Method: "pow", Left: key, Right: key}, "unknown method"},
		{"unknown cross", pipeline.HandleSpec{Type: "cross", Method: "silver", Left: key, Right: key}, "unknown method"},
		{"missing operand", pipeline.HandleSpec{Type: "compare", Method: "gt", Left: key}, "right operand is required"},
		{"empty operand", pipeline.HandleSpec{Type: "compare", Method: "gt", Left: key, Right: &pipeline.OperandSpec{}}, "right operand needs a key or a value"},
		{"key and value", pipeline.HandleSpec{Type: "compare", Method: "gt", Left: &pipeline.OperandSpec{Key: "a", Value: 1}, Right: key}, "sets both"},
		{"no source key", pipeline.HandleSpec{Type: "rsi"}, "source_key is required"},
		{"bad average", pipeline.HandleSpec{Type: "ma", SourceKey: "c", Average: "weighted"}, "unknown method"},
		{"bad period", pipeline.HandleSpec{Type: "ma", SourceKey: "c", Period: -1}, "period must be positive"},
		{"bad target", pipeline.HandleSpec{Type: "ma", SourceKey: "c", Target: "file"}, "unknown param"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBuildAllGivesIndependentState(t *testing.T) {
	spec := pipeline.HandleSpec{Type: "ma", SourceKey: "v", Period: 2, Average: "simple"}
	handlers, err := BuildAll([]pipeline.HandleSpec{spec, spec})
	require.NoError(t, err)
	require.Len(t, handlers, 2)

	_, err = handlers[0](record.Record{"v": record.Int(4)}, record.Record{})
	require.NoError(t, err)

	out, err := handlers[1](record.Record{"v": record.Int(8)}, record.Record{})
	require.NoError(t, err)
	assert.Equal(t, record.Record{"MA": record.Float(8)}, out)
}

func TestBuildAllReportsIndex(t *testing.T) {
	_, err := BuildAll([]pipeline.HandleSpec{
		{Type: "ma", SourceKey: "v"},
		{Type: "nope"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handle 1")
}

func TestMethods(t *testing.T) {
	methods, ok := Methods("CROSS")
	require.True(t, ok)
	assert.Equal(t, []string{"Golden", "Dead"}, methods)

	methods, ok = Methods("rsi")
	assert.True(t, ok)
	assert.Nil(t, methods)

	_, ok = Methods("median")
	assert.False(t, ok)
}
