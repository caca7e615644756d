package trace

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitAll(t *Trace, tag string) {
	t.Critical("critical", tag)
	t.Error("error", tag)
	t.Warning("warning", tag)
	t.Info("info", tag)
	t.Debug("debug", tag)
}

func TestStreamThreshold(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New("stream", Config{Stream: Warning, Writer: &buf})
	require.NoError(t, err)
	defer tr.Close()

	emitAll(tr, "x")
	out := buf.String()

	assert.Contains(t, out, `msg="critical x"`)
	assert.Contains(t, out, "level=CRITICAL")
	assert.Contains(t, out, `msg="error x"`)
	assert.Contains(t, out, `msg="warning x"`)
	assert.Contains(t, out, "level=WARNING")
	assert.NotContains(t, out, "info x")
	assert.NotContains(t, out, "debug x")
	assert.Contains(t, out, "trace=stream")
}

func TestStreamAndFileFanOut(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "traces", "run.trace")

	tr, err := New("both", Config{Stream: Error, Writer: &buf, File: Debug, Path: path})
	require.NoError(t, err)

	emitAll(tr, "y")
	require.NoError(t, tr.Close())

	stream := buf.String()
	assert.Contains(t, stream, "error y")
	assert.NotContains(t, stream, "warning y")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	file := string(data)
	for _, msg := range []string{"critical y", "error y", "warning y", "info y", "debug y"} {
		assert.Contains(t, file, msg)
	}
}

func TestNotSetDisablesOutput(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New("quiet", Config{Stream: NotSet, Writer: &buf})
	require.NoError(t, err)

	emitAll(tr, "z")
	assert.Empty(t, buf.String())
	assert.False(t, tr.Enabled(Critical))
}

func TestFileLevelRequiresPath(t *testing.T) {
	_, err := New("nofile", Config{File: Info})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without a path")
}

func TestSeparator(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New("sep", Config{Stream: Info, Writer: &buf, Separator: ","})
	require.NoError(t, err)

	tr.Info("a", 1, true)
	assert.Contains(t, buf.String(), "msg=a,1,true")
}

func TestNamedSharesOutputs(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New("parent", Config{Stream: Info, Writer: &buf})
	require.NoError(t, err)

	tr.Named("child").Info("hello")
	assert.Contains(t, buf.String(), "trace=child")
	assert.NotContains(t, buf.String(), "trace=parent")
	assert.Equal(t, "child", tr.Named("child").Name())
}

func TestNopAndDefault(t *testing.T) {
	nop := Nop()
	nop.Critical("ignored")
	assert.False(t, nop.Enabled(Debug))

	assert.NotNil(t, Default())

	var buf bytes.Buffer
	tr, err := New("default", Config{Stream: Debug, Writer: &buf})
	require.NoError(t, err)

	SetDefault(tr)
	t.Cleanup(func() { SetDefault(nil) })

	Default().Debug("through default")
	assert.Contains(t, buf.String(), "through default")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"critical", Critical},
		{"ERROR", Error},
		{"warn", Warning},
		{"Warning", Warning},
		{"info", Info},
		{"debug", Debug},
		{"NOTSET", NotSet},
		{"", NotSet},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, "CRITICAL", Critical.String())
}
