package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const tradeCUE = `package pipelines

pipeline: trade: {
	key:      "t"
	snapshot: "daily"
	nodes: [{
		name:    "monthly"
		input:   "monthly.json"
		ordered: true
		handles: [{type: "ma", source_key: "close", period: 2, average: "simple", key: "m"}]
	}, {
		name:   "daily"
		input:  "daily.json"
		output: "out/daily.csv"
		handles: [{
			type:   "calculate"
			method: "add"
			left: {key: "v"}
			right: {value: 10}
			key:    "w"
			target: "element"
		}]
	}]
	handles: [{
		type:   "compare"
		method: "gt"
		left: {key: "m"}
		right: {value: 15}
		key:    "big"
		source: "pipe"
		target: "element"
	}]
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// tradeDir lays out a pipelines directory with tradeCUE and its inputs.
func tradeDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "trade.cue", tradeCUE)
	writeFile(t, dir, "monthly.json", `[{"t": 3, "close": 30}, {"t": 1, "close": 10}]`)
	writeFile(t, dir, "daily.json", `[{"t": 1, "v": 1}, {"t": 2, "v": 2}, {"t": 3, "v": 3}]`)
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp
}

// decodeData re-decodes the data field of a JSON response into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
