package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "recordkit", cmd.Use)
	assert.Contains(t, cmd.Long, "record")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"convert", "show", "compile", "validate", "run", "snapshot", "test"}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err, "command %s should exist", name)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestSnapshotSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"save", "load", "list", "history", "delete", "find"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{"snapshot", name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	level := cmd.PersistentFlags().Lookup("log-level")
	require.NotNil(t, level)
	assert.Equal(t, "WARNING", level.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("log-file"))
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		path  []string
		flag  string
		short string
	}{
		{[]string{"compile"}, "output", "o"},
		{[]string{"run"}, "pipeline", "p"},
		{[]string{"run"}, "db", ""},
		{[]string{"convert"}, "from", ""},
		{[]string{"convert"}, "to", ""},
		{[]string{"show"}, "where", ""},
		{[]string{"show"}, "sort", ""},
		{[]string{"show"}, "values", ""},
		{[]string{"test"}, "update", ""},
		{[]string{"test"}, "filter", ""},
		{[]string{"snapshot", "load"}, "seq", ""},
		{[]string{"snapshot", "load"}, "out", "o"},
	}

	root := NewRootCommand()
	for _, tt := range tests {
		sub, _, err := root.Find(tt.path)
		require.NoError(t, err)
		flag := sub.Flags().Lookup(tt.flag)
		require.NotNil(t, flag, "%v --%s", tt.path, tt.flag)
		assert.Equal(t, tt.short, flag.Shorthand)
	}
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, "--format", "xml", "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestInvalidLogLevelRejected(t *testing.T) {
	_, err := execute(t, "--log-level", "LOUD", "validate", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLogFileReceivesDebug(t *testing.T) {
	dir := tradeDir(t)
	logPath := filepath.Join(dir, "logs", "run.log")

	_, err := execute(t, "--log-file", logPath, "run", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline trade processed 5 records")
}
