package harness

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/trace"
)

func TestScenariosMatchGolden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRunWithTrace(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/merge_order.yaml")
	require.NoError(t, err)

	var buf bytes.Buffer
	tr, err := trace.New("scenarios", trace.Config{Stream: trace.Info, Writer: &buf})
	require.NoError(t, err)
	defer tr.Close()

	result, err := Run(s, WithTrace(tr))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Contains(t, buf.String(), `msg="pipeline merge_order processed 1 records"`)
	assert.Contains(t, buf.String(), "trace=harness")
}

func TestRunTradeResult(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/trade.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 6, result.Processed)
	require.Len(t, result.Trace, 6)
	assert.Equal(t, "monthly[1]", result.Trace[0].Label())
	assert.Equal(t, "daily[4]", result.Trace[5].Label())
	assert.Equal(t, 3, result.Trace[5].Index)
}

func TestRunReportsFailedExpectations(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: wrong
description: every expectation here is off by one
pipeline:
  key: t
  nodes:
    - name: a
    - name: b
steps:
  - append: a
    records: [{ t: 1 }, { t: 2 }]
  - append: b
    records: [{ t: 1 }]
  - handle: true
    expect: 3
assertions:
  - type: handled
    node: a
    count: 2
  - type: trace_order
    labels: ["b[1]", "a[1]"]
  - type: values
    node: a
    key: t
    values: [1]
  - type: record
    node: b
    index: 4
    expect: { t: 1 }
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	assert.Equal(t, 2, result.Processed)
	require.Len(t, result.Errors, 5)
	assert.Contains(t, result.Errors[0], "processed 2 records, expected 3")
	assert.Contains(t, result.Errors[1], "a handled 2")
	assert.Contains(t, result.Errors[2], "a[1] missing or out of order")
	assert.Contains(t, result.Errors[3], "[1 2]")
	assert.Contains(t, result.Errors[4], "node has 1 records")
}

func TestRunStopsOnUnexpectedError(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: missing_key
description: a record without the merge key fails the merge
pipeline:
  key: t
  nodes:
    - name: a
steps:
  - append: a
    records: [{ v: 1 }]
  - handle: true
  - handle: true
assertions:
  - type: handled
    node: a
    count: 0
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "steps[1]: handle failed")
	assert.Contains(t, result.Errors[0], "MISSING_KEY")
	assert.Empty(t, result.Trace)
}

func TestRunExpectedErrorThatNeverCame(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: no_error
description: handle succeeds although an error was expected
pipeline:
  key: t
  nodes:
    - name: a
steps:
  - append: a
    records: [{ t: 1 }]
  - handle: true
    error: boom
assertions:
  - type: pipe
    node: a
    expect: {}
`))
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error containing "boom"`)
}

func TestRunSetupFailure(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: bad_input
description: input file does not parse
pipeline:
  key: t
  nodes:
    - name: a
      input: bad.json
steps:
  - handle: true
assertions:
  - type: handled
    node: a
    count: 0
`))
	require.NoError(t, err)
	s.Dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir, "bad.json"), []byte("not json"), 0o644))

	_, err = Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario "bad_input"`)
}
