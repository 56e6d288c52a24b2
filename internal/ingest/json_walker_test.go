package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/graph"
)

func TestParseJSON(t *testing.T) {
	input := `
{
  "meta": {"version": "1.0"},
  "nodes": [
    {"id": "a", "parent": "root", "label": "Alpha"},
    {"id": "b", "parent": "a", "tags": ["x", "y"]}
  ]
}
`

	t.Run("select nested array", func(t *testing.T) {
		items, err := ParseJSON([]byte(input), "$.nodes[*]")
		require.NoError(t, err)
		require.Len(t, items, 2)

		assert.Equal(t, "a", items[0].ID)
		assert.Equal(t, "Alpha", items[0].Fields["label"])
		assert.Equal(t, []any{"x", "y"}, items[1].Fields["tags"])
	})

	t.Run("select nothing", func(t *testing.T) {
		items, err := ParseJSON([]byte(input), "$.missing[*]")
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("non-object match", func(t *testing.T) {
		_, err := ParseJSON([]byte(input), "$.meta.version")
		assert.Error(t, err)
	})

	t.Run("invalid selector", func(t *testing.T) {
		_, err := ParseJSON([]byte(input), "$[")
		assert.Error(t, err)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseJSON([]byte(`[{"id": 1,]`), DefaultSelector)
		assert.Error(t, err)
	})
}

func TestParseJSON_NumbersKeepIntegerType(t *testing.T) {
	items, err := ParseJSON([]byte(`[{"id": 7, "parent": 4, "weight": 0.5}]`), DefaultSelector)
	require.NoError(t, err)
	require.Len(t, items, 1)

	assert.Equal(t, int64(7), items[0].ID)
	assert.Equal(t, int64(4), items[0].Parent)
	assert.Equal(t, 0.5, items[0].Fields["weight"])
}

func TestParseYAML(t *testing.T) {
	items, err := ParseYAML([]byte("- id: x\n- id: y\n  parent: x\n"), DefaultSelector)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Parent)
	assert.Equal(t, "x", items[1].Parent)

	_, err = ParseYAML([]byte("- id: [unclosed\n"), DefaultSelector)
	assert.Error(t, err)
}

func TestNullParentIsRejected(t *testing.T) {
	jsonItems, err := ParseJSON([]byte(`[{"id": 1, "parent": null}]`), DefaultSelector)
	require.NoError(t, err)
	yamlItems, err := ParseYAML([]byte("- id: 1\n  parent: ~\n"), DefaultSelector)
	require.NoError(t, err)

	for name, items := range map[string][]api.Item{"json": jsonItems, "yaml": yamlItems} {
		t.Run(name, func(t *testing.T) {
			require.Len(t, items, 1)
			assert.Equal(t, api.Null, items[0].Parent)

			out, err := json.Marshal(items[0])
			require.NoError(t, err)
			assert.JSONEq(t, `{"id": 1, "parent": null}`, string(out))

			_, err = graph.New(items, graph.Config{})
			require.ErrorIs(t, err, graph.ErrInvalidIDType)
			assert.Contains(t, err.Error(), "record 0: parent")
		})
	}
}
