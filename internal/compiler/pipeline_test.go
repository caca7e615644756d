package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/pipeline"
)

func compileString(t *testing.T, src, path string) (*pipeline.Spec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompilePipeline(v.LookupPath(cue.ParsePath(path)))
}

func TestCompilePipelineFromFile(t *testing.T) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: "testdata"})
	require.Len(t, instances, 1)
	require.NoError(t, instances[0].Err)

	v := cuecontext.New().BuildInstance(instances[0])
	require.NoError(t, v.Err())

	spec, err := CompilePipeline(v.LookupPath(cue.ParsePath("pipeline.trade")))
	require.NoError(t, err)

	assert.Equal(t, "trade", spec.Name)
	assert.Equal(t, "datetime", spec.Key)
	assert.Equal(t, "trade-latest", spec.Snapshot)
	require.Len(t, spec.Nodes, 2)

	monthly := spec.Nodes[0]
	assert.Equal(t, "monthly", monthly.Name)
	assert.Equal(t, "data/monthly.json", monthly.Input)
	assert.True(t, monthly.Ordered)
	assert.Equal(t, []pipeline.HandleSpec{{
		Type: "ma", SourceKey: "close", Period: 3, Average: "simple", Key: "monthly_ma",
	}}, monthly.Handles)

	daily := spec.Nodes[1]
	assert.False(t, daily.Ordered)
	assert.Equal(t, "out/daily.json", daily.Output)
	assert.Equal(t, "json", daily.OutputFormat)
	require.Len(t, daily.Handles, 1)
	assert.Equal(t, &pipeline.OperandSpec{Key: "close"}, daily.Handles[0].Left)
	assert.Equal(t, &pipeline.OperandSpec{Value: 1.5}, daily.Handles[0].Right)
	assert.Equal(t, "element", daily.Handles[0].Target)

	require.Len(t, spec.Handles, 1)
	assert.Equal(t, "cross", spec.Handles[0].Type)
	assert.Equal(t, "pipe", spec.Handles[0].Source)

	assert.Empty(t, Validate(spec))
}

func TestCompilePipelineScalars(t *testing.T) {
	spec, err := compileString(t, `
		pipeline: p: {
			key: "t"
			nodes: [{
				name: "a"
				handles: [
					{type: "compare", method: "gt", left: value: 3, right: value: "x"},
					{type: "compare", method: "lt", left: value: true, right: key: "k"},
					{type: "aggregate", method: "all", keys: ["x", "y"]},
				]
			}]
		}
	`, "pipeline.p")
	require.NoError(t, err)

	hs := spec.Nodes[0].Handles
	require.Len(t, hs, 3)
	assert.Equal(t, int64(3), hs[0].Left.Value)
	assert.Equal(t, "x", hs[0].Right.Value)
	assert.Equal(t, true, hs[1].Left.Value)
	assert.Equal(t, []string{"x", "y"}, hs[2].Keys)
	assert.Nil(t, spec.Handles)
}

func TestCompilePipelineQuotedName(t *testing.T) {
	spec, err := compileString(t, `
		pipeline: "two-streams": {
			key: "t"
			nodes: [{name: "a"}]
		}
	`, `pipeline."two-streams"`)
	require.NoError(t, err)
	assert.Equal(t, "two-streams", spec.Name)
}

func TestCompilePipelineErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing key",
			src:   `pipeline: p: { nodes: [{name: "a"}] }`,
			field: "key",
			msg:   "key is required",
		},
		{
			name:  "missing nodes",
			src:   `pipeline: p: { key: "t" }`,
			field: "nodes",
			msg:   "nodes are required",
		},
		{
			name:  "empty nodes",
			src:   `pipeline: p: { key: "t", nodes: [] }`,
			field: "nodes",
			msg:   "at least one node",
		},
		{
			name:  "node without name",
			src:   `pipeline: p: { key: "t", nodes: [{input: "x.json"}] }`,
			field: "nodes[0].name",
			msg:   "name is required",
		},
		{
			name:  "handle without type",
			src:   `pipeline: p: { key: "t", nodes: [{name: "a", handles: [{method: "add"}]}] }`,
			field: "nodes[0].handles[0].type",
			msg:   "type is required",
		},
		{
			name:  "struct operand value",
			src:   `pipeline: p: { key: "t", nodes: [{name: "a"}], handles: [{type: "compare", left: value: {a: 1}}] }`,
			field: "handles[0].left.value",
			msg:   "concrete string, number or bool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src, "pipeline.p")
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
		})
	}
}

func TestCompilePipelineWrongType(t *testing.T) {
	_, err := compileString(t, `pipeline: p: { key: 5, nodes: [{name: "a"}] }`, "pipeline.p")
	require.Error(t, err)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "nodes", Message: "at least one node is required"}
	assert.Equal(t, "nodes: at least one node is required", err.Error())
}
