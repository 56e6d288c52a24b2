// Package api holds the public record types shared by every arbor package.
package api

import (
	"encoding/json"
	"fmt"
)

// Reserved field names inside an encoded record.
const (
	FieldID     = "id"
	FieldParent = "parent"
)

// Item is a single record of the source collection.
// Only ID and Parent are interpreted; Fields carries everything else
// through untouched.
type Item struct {
	// ID identifies the record. Normally an integer or a string.
	ID any
	// Parent is the owning record's id, RootID for a top-level record,
	// or nil when the field is absent (which also means top-level).
	// A parent field present with a null value is Null.
	Parent any
	// Fields holds the remaining caller-defined fields.
	Fields map[string]any
}

// Null stands in for a field that is present with a null value, so it
// survives a round trip and is not confused with an absent field.
var Null = null{}

type null struct{}

func (null) MarshalJSON() ([]byte, error) { return []byte("null"), nil }
func (null) String() string               { return "null" }

// ItemFromMap splits a decoded object into an Item.
func ItemFromMap(m map[string]any) Item {
	it := Item{ID: m[FieldID], Parent: m[FieldParent]}
	if v, ok := m[FieldParent]; ok && v == nil {
		it.Parent = Null
	}
	for k, v := range m {
		if k == FieldID || k == FieldParent {
			continue
		}
		if it.Fields == nil {
			it.Fields = make(map[string]any, len(m))
		}
		it.Fields[k] = v
	}
	return it
}

// Map flattens the item back into a single object. The parent key is
// omitted when Parent is nil.
func (it Item) Map() map[string]any {
	m := make(map[string]any, len(it.Fields)+2)
	for k, v := range it.Fields {
		m[k] = v
	}
	m[FieldID] = it.ID
	if it.Parent != nil {
		m[FieldParent] = it.Parent
	}
	return m
}

// Clone returns a copy whose Fields can be modified independently.
// Nested objects and arrays are copied as well.
func (it Item) Clone() Item {
	if it.Fields != nil {
		it.Fields = cloneMap(it.Fields)
	}
	it.ID = cloneValue(it.ID)
	it.Parent = cloneValue(it.Parent)
	return it
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if x == nil {
			return x
		}
		return cloneMap(x)
	case []any:
		if x == nil {
			return x
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ParentRef returns the parent as given, substituting RootID for an
// absent parent.
func (it Item) ParentRef() any {
	if it.Parent == nil {
		return RootID
	}
	return it.Parent
}

func (it Item) String() string {
	return fmt.Sprintf("{%v,%v}", it.ID, it.ParentRef())
}

func (it Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Map())
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*it = ItemFromMap(m)
	return nil
}

// ItemsFromMaps converts a decoded array into items. Elements that are not
// objects are rejected.
func ItemsFromMaps(values []any) ([]Item, error) {
	items := make([]Item, 0, len(values))
	for i, v := range values {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d: expected object, got %T", i, v)
		}
		items = append(items, ItemFromMap(m))
	}
	return items, nil
}
