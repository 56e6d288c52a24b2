package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemJSONKeepsExtraFields(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"id": 2, "parent": 1, "type": "test", "tags": ["a"]}`), &it))

	assert.Equal(t, float64(2), it.ID)
	assert.Equal(t, float64(1), it.Parent)
	assert.Equal(t, "test", it.Fields["type"])
	assert.Equal(t, []any{"a"}, it.Fields["tags"])

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 2, "parent": 1, "type": "test", "tags": ["a"]}`, string(out))
}

func TestItemWithoutParentOmitsKey(t *testing.T) {
	it := ItemFromMap(map[string]any{"id": "a"})
	assert.Nil(t, it.Parent)
	assert.Nil(t, it.Fields)
	assert.Equal(t, RootID, it.ParentRef())

	_, has := it.Map()[FieldParent]
	assert.False(t, has)
}

func TestItemCloneDetachesFields(t *testing.T) {
	orig := Item{ID: 1, Parent: RootID, Fields: map[string]any{"type": nil}}
	cp := orig.Clone()
	cp.Fields["type"] = "changed"

	assert.Nil(t, orig.Fields["type"])
}

func TestItemsFromMaps(t *testing.T) {
	items, err := ItemsFromMaps([]any{
		map[string]any{"id": 1, "parent": RootID},
		map[string]any{"id": 2, "parent": 1, "type": "test"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "test", items[1].Fields["type"])

	_, err = ItemsFromMaps([]any{1})
	assert.Error(t, err)
}

func TestItemNullParentIsKept(t *testing.T) {
	var it Item
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "parent": null}`), &it))
	assert.Equal(t, Null, it.Parent)

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 1, "parent": null}`, string(out))
}

func TestItemCloneCopiesNestedValues(t *testing.T) {
	orig := Item{ID: 1, Fields: map[string]any{
		"meta": map[string]any{"v": "orig"},
		"tags": []any{"a", map[string]any{"k": 1}},
	}}
	cp := orig.Clone()
	cp.Fields["meta"].(map[string]any)["v"] = "mutated"
	cp.Fields["tags"].([]any)[0] = "b"
	cp.Fields["tags"].([]any)[1].(map[string]any)["k"] = 2

	assert.Equal(t, map[string]any{"v": "orig"}, orig.Fields["meta"])
	assert.Equal(t, []any{"a", map[string]any{"k": 1}}, orig.Fields["tags"])
}
