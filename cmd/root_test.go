package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/internal/graph"
	"github.com/agentic-research/arbor/internal/ingest"
)

const canonicalJSON = `[
	{"id": 1, "parent": "root"},
	{"id": 2, "parent": 1},
	{"id": 3, "parent": 1},
	{"id": 4, "parent": 2},
	{"id": 5, "parent": 2},
	{"id": 6, "parent": 2},
	{"id": 7, "parent": 4},
	{"id": 8, "parent": 4}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func ids(t *testing.T, out string) []any {
	t.Helper()
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	res := make([]any, 0, len(items))
	for _, it := range items {
		res = append(res, it["id"])
	}
	return res
}

func TestQueryCommands(t *testing.T) {
	data := writeFile(t, "records.json", canonicalJSON)

	tests := []struct {
		args []string
		want []any
	}{
		{[]string{"children", "4"}, []any{7.0, 8.0}},
		{[]string{"children", "5"}, []any{}},
		{[]string{"children", "root"}, []any{1.0}},
		{[]string{"descendants", "2"}, []any{4.0, 5.0, 6.0, 7.0, 8.0}},
		{[]string{"ancestors", "7"}, []any{4.0, 2.0, 1.0}},
		{[]string{"ancestors", "1"}, []any{}},
		{[]string{"all"}, []any{1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0}},
	}
	for _, tt := range tests {
		t.Run(tt.args[0], func(t *testing.T) {
			out, err := run(append([]string{"--data", data}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(t, out))
		})
	}
}

func TestGetCommand(t *testing.T) {
	data := writeFile(t, "records.json", canonicalJSON)

	out, err := run("--data", data, "get", "4")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 4, "parent": 2}`, out)

	out, err = run("--data", data, "get", "10")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestStringIDs(t *testing.T) {
	data := writeFile(t, "records.json", `[
		{"id": "7", "parent": "root"},
		{"id": 7, "parent": "7"}
	]`)

	out, err := run("--data", data, "children", "7")
	require.NoError(t, err)
	assert.Equal(t, []any{}, ids(t, out))

	out, err = run("--data", data, "--string-ids", "children", "7")
	require.NoError(t, err)
	assert.Equal(t, []any{7.0}, ids(t, out))
}

func TestDuplicateIDs(t *testing.T) {
	data := writeFile(t, "records.json", `[
		{"id": 1, "parent": "root"},
		{"id": 1, "parent": "root", "name": "second"}
	]`)

	_, err := run("--data", data, "all")
	require.ErrorIs(t, err, graph.ErrDuplicateIDs)

	out, err := run("--data", data, "--ignore-duplicates", "get", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 1, "parent": "root", "name": "second"}`, out)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "records.json")
	require.NoError(t, os.WriteFile(data, []byte(`{"items": [
		{"id": 1},
		{"id": 1, "parent": 1}
	]}`), 0o644))
	cfg := filepath.Join(dir, "arbor.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`
ignore_duplicates = true

source {
  path     = "`+data+`"
  selector = "$.items[*]"
}
`), 0o644))

	out, err := run("--config", cfg, "all")
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 1.0}, ids(t, out))

	// Flags override the file.
	_, err = run("--config", cfg, "--ignore-duplicates=false", "all")
	require.ErrorIs(t, err, graph.ErrDuplicateIDs)
}

func TestYAMLSource(t *testing.T) {
	data := writeFile(t, "records.txt", `
- id: a
  parent: root
- id: b
  parent: a
  label: leaf
`)
	out, err := run("--data", data, "--kind", "yaml", "descendants", "a")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id": "b", "parent": "a", "label": "leaf"}]`, out)
}

func TestMissingSource(t *testing.T) {
	_, err := run("all")
	require.Error(t, err)

	_, err = run("--kind", "dynamodb", "all")
	require.Error(t, err)
}

func TestBuildCommand(t *testing.T) {
	data := writeFile(t, "records.json", canonicalJSON)
	db := filepath.Join(t.TempDir(), "out.db")

	_, err := run("build", data, db)
	require.NoError(t, err)
	// Rebuilding into the same file replaces its records.
	_, err = run("build", data, db)
	require.NoError(t, err)

	out, err := run("--data", db, "descendants", "2")
	require.NoError(t, err)
	assert.Equal(t, []any{4.0, 5.0, 6.0, 7.0, 8.0}, ids(t, out))
}

func TestBuildRejectsInvalidCollection(t *testing.T) {
	data := writeFile(t, "records.json", `[{"id": "root"}]`)
	db := filepath.Join(t.TempDir(), "out.db")

	_, err := run("build", data, db)
	require.ErrorIs(t, err, graph.ErrReservedRoot)
	assert.NoFileExists(t, db)
}

func TestServeNeedsMountpoint(t *testing.T) {
	data := writeFile(t, "records.json", canonicalJSON)
	_, err := run("--data", data, "serve")
	require.Error(t, err)
}

func TestReload(t *testing.T) {
	data := writeFile(t, "records.json", canonicalJSON)
	opts := &options{dataPath: data, logger: slog.New(slog.DiscardHandler)}

	store, _, err := opts.loadTree(context.Background())
	require.NoError(t, err)
	tree := graph.NewHotSwapTree(store)
	require.Equal(t, 8, tree.Len())

	require.NoError(t, os.WriteFile(data, []byte(`[{"id": 1}, {"id": 2, "parent": 1}]`), 0o644))

	var swapped *ingest.Snapshot
	require.NoError(t, opts.reload(context.Background(), tree, func(s *ingest.Snapshot) { swapped = s }))
	require.NotNil(t, swapped)
	assert.Equal(t, 2, swapped.Info().Records)
	assert.Equal(t, 2, tree.Len())

	children, err := tree.Children(1)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.EqualValues(t, 2, children[0].ID)

	// A broken source keeps the current tree.
	require.NoError(t, os.WriteFile(data, []byte(`[{"id": 1}, {"id": 1}]`), 0o644))
	require.Error(t, opts.reload(context.Background(), tree, nil))
	assert.Equal(t, 2, tree.Len())
}
