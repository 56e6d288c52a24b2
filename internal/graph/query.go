package graph

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/arbor/api"
)

// All returns the source collection in its original order.
func (s *TreeStore) All() []api.Item {
	out := make([]api.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}

// Item returns the record indexed under id. The boolean is false when no
// record has that id; only a malformed id is an error.
func (s *TreeStore) Item(id any) (api.Item, bool, error) {
	key, err := s.resolveID(id)
	if err != nil {
		return api.Item{}, false, err
	}
	pos, ok := s.byID[key]
	if !ok {
		return api.Item{}, false, nil
	}
	return s.items[pos].Clone(), true, nil
}

// Children returns the direct children of id in source order.
// Children(api.RootID) lists the top-level records.
func (s *TreeStore) Children(id any) ([]api.Item, error) {
	key, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}
	return s.collect(s.children[key]), nil
}

// AllChildren returns every descendant of id in breadth-first order:
// direct children first, then grandchildren, and so on, siblings in
// source order. Each record is returned at most once.
func (s *TreeStore) AllChildren(id any) ([]api.Item, error) {
	key, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}

	queue := append([]uint32(nil), s.children[key]...)
	visited := roaring.New()
	out := make([]api.Item, 0, len(queue))
	for head := 0; head < len(queue); head++ {
		pos := queue[head]
		if !visited.CheckedAdd(pos) {
			continue
		}
		out = append(out, s.items[pos].Clone())
		queue = append(queue, s.children[s.ids[pos]]...)
	}
	return out, nil
}

// AllParents returns the ancestors of id, nearest first, excluding the
// implicit root. A parent reference that matches no record ends the chain.
func (s *TreeStore) AllParents(id any) ([]api.Item, error) {
	key, err := s.resolveID(id)
	if err != nil {
		return nil, err
	}
	pos, ok := s.byID[key]
	if !ok {
		return []api.Item{}, nil
	}

	visited := roaring.New()
	visited.Add(pos)
	out := []api.Item{}
	for ref := s.parents[pos]; !ref.IsRoot(); ref = s.parents[pos] {
		if pos, ok = s.byID[ref]; !ok {
			break
		}
		if !visited.CheckedAdd(pos) {
			s.config.Logger.Warn("parent chain loops back on itself", "id", key.String(), "at", ref.String())
			break
		}
		out = append(out, s.items[pos].Clone())
	}
	return out, nil
}

// collect copies the records at the given positions.
func (s *TreeStore) collect(positions []uint32) []api.Item {
	out := make([]api.Item, len(positions))
	for i, pos := range positions {
		out[i] = s.items[pos].Clone()
	}
	return out
}
