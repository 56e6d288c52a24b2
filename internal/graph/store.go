// Package graph indexes a flat record collection into a read-only tree.
//
// A TreeStore is built once from a slice of records. Construction validates
// id types, duplicate ids and use of the reserved root id, then builds two
// indexes: id → record and parent → children. All queries after that are
// map lookups or traversals over those indexes.
//
// Records must form a forest. Traversals stop instead of looping when the
// parent links contain a cycle, but the results for cyclic input are only
// defined as "every reachable record, once".
package graph

import (
	"fmt"
	"math"

	"github.com/agentic-research/arbor/api"
)

// Tree is the read interface shared by TreeStore and HotSwapTree.
type Tree interface {
	All() []api.Item
	Item(id any) (api.Item, bool, error)
	Children(id any) ([]api.Item, error)
	AllChildren(id any) ([]api.Item, error)
	AllParents(id any) ([]api.Item, error)
	Len() int
}

// TreeStore holds the source collection and its derived indexes.
// It is immutable after New returns and safe for concurrent readers.
type TreeStore struct {
	items   []api.Item
	ids     []api.ID // resolved id per position
	parents []api.ID // resolved parent per position

	byID     map[api.ID]uint32   // id → position, last write wins
	children map[api.ID][]uint32 // parent → positions in source order

	config Config
}

// New validates items and builds the indexes. It either returns a fully
// indexed store or an error; items is never modified.
func New(items []api.Item, config Config) (*TreeStore, error) {
	config.validate()
	if uint64(len(items)) > math.MaxUint32 {
		return nil, fmt.Errorf("arbor: %d records exceed index capacity", len(items))
	}

	s := &TreeStore{
		items:    make([]api.Item, len(items)),
		ids:      make([]api.ID, len(items)),
		parents:  make([]api.ID, len(items)),
		byID:     make(map[api.ID]uint32, len(items)),
		children: make(map[api.ID][]uint32),
		config:   config,
	}

	for i, it := range items {
		id, err := s.resolveID(it.ID)
		if err != nil {
			return nil, fmt.Errorf("record %d: id: %w", i, err)
		}
		parent, err := s.resolveParent(it.Parent)
		if err != nil {
			return nil, fmt.Errorf("record %d: parent: %w", i, err)
		}

		pos := uint32(i)
		s.items[i] = it.Clone()
		s.ids[i] = id
		s.parents[i] = parent
		s.byID[id] = pos
		s.children[parent] = append(s.children[parent], pos)
	}

	if err := s.checkDuplicates(); err != nil {
		return nil, err
	}
	if err := s.checkRoot(); err != nil {
		return nil, err
	}

	config.Logger.Debug("indexed tree",
		"records", len(s.items),
		"ids", len(s.byID),
		"parents", len(s.children),
	)
	return s, nil
}

// Len returns the number of distinct indexed ids.
func (s *TreeStore) Len() int {
	return len(s.byID)
}

// resolveID validates a record id or query argument.
func (s *TreeStore) resolveID(v any) (api.ID, error) {
	if s.config.IgnoreIDType {
		return api.AnyID(v), nil
	}
	id, ok := api.ParseID(v)
	if !ok {
		return api.ID{}, fmt.Errorf("%w: %v (%T)", ErrInvalidIDType, v, v)
	}
	return id, nil
}

// resolveParent maps an absent parent to the root sentinel. A parent
// present with a null value is validated like any other value.
func (s *TreeStore) resolveParent(v any) (api.ID, error) {
	if v == nil {
		return api.Root, nil
	}
	return s.resolveID(v)
}

// checkDuplicates compares index and source cardinality.
func (s *TreeStore) checkDuplicates() error {
	if len(s.byID) == len(s.items) {
		return nil
	}

	counts := make(map[api.ID]int, len(s.byID))
	var dups []string
	for _, id := range s.ids {
		counts[id]++
		if counts[id] == 2 {
			dups = append(dups, id.String())
		}
	}

	if !s.config.IgnoreDuplicates {
		return fmt.Errorf("%w: %v", ErrDuplicateIDs, dups)
	}
	s.config.Logger.Warn("duplicate ids, keeping the last record for each", "ids", dups)
	return nil
}

// checkRoot rejects a record that uses the root sentinel as its id.
func (s *TreeStore) checkRoot() error {
	if _, ok := s.byID[api.Root]; !ok {
		return nil
	}
	if !s.config.IgnoreRoot {
		return fmt.Errorf("%w: %q", ErrReservedRoot, api.RootID)
	}
	s.config.Logger.Warn("record uses the reserved root id", "id", api.RootID)
	return nil
}

// Compile-time interface check.
var _ Tree = (*TreeStore)(nil)
