package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordkit/internal/record"
)

func TestShowAll(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(3 records)")
	assert.Contains(t, out, `  0: {"age":30,"name":"ann","score":1.5}`)
}

func TestShowWhere(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(t, "--format", "json", "show", path, "--where", "age=30")
	require.NoError(t, err)

	var result ShowResult
	decodeData(t, out, &result)
	assert.Equal(t, 2, result.Len)
	require.Len(t, result.Records, 2)
	assert.Equal(t, record.String("cy"), result.Records[1]["name"])

	out, err = execute(t, "--format", "json", "show", path, "--where", "age=30", "--where", "name=ann")
	require.NoError(t, err)
	decodeData(t, out, &result)
	assert.Equal(t, 1, result.Len)
}

func TestShowSort(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(t, "show", path, "--sort", "age")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `"bob"`), strings.Index(out, `"ann"`))
	assert.Less(t, strings.Index(out, `"ann"`), strings.Index(out, `"cy"`))
}

func TestShowValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(t, "--format", "json", "show", path, "--values", "age", "--unique", "--sorted")
	require.NoError(t, err)

	var result ShowResult
	decodeData(t, out, &result)
	assert.Equal(t, []any{float64(25), float64(30)}, result.Values)

	out, err = execute(t, "show", path, "--values", "name")
	require.NoError(t, err)
	assert.Equal(t, "ann\nbob\ncy\n", out)
}

func TestShowShort(t *testing.T) {
	var rows []string
	for i := range 8 {
		rows = append(rows, fmt.Sprintf(`{"t": %d}`, i))
	}
	path := writeFile(t, t.TempDir(), "series.json", "["+strings.Join(rows, ",")+"]")

	out, err := execute(t, "show", path, "--short")
	require.NoError(t, err)
	assert.Contains(t, out, `  2: {"t":2}`)
	assert.Contains(t, out, "  ...\n")
	assert.NotContains(t, out, `{"t":4}`)
	assert.Contains(t, out, `  5: {"t":5}`)
}

func TestShowBadWhere(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.json", peopleJSON)

	out, err := execute(t, "show", path, "--where", "age")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E012]")
}

func TestParseWhere(t *testing.T) {
	q, err := parseWhere([]string{"a=1", "b=2.5", "c=true", "d=null", `e="x"`, "f=plain", "g="})
	require.NoError(t, err)
	assert.Equal(t, record.Record{
		"a": record.Int(1),
		"b": record.Float(2.5),
		"c": record.Bool(true),
		"d": record.Null{},
		"e": record.String("x"),
		"f": record.String("plain"),
		"g": record.String(""),
	}, q)

	_, err = parseWhere([]string{"=1"})
	assert.Error(t, err)
}
