package graph

import (
	"sync"

	"github.com/agentic-research/arbor/api"
)

// HotSwapTree is a thread-safe wrapper that allows swapping the underlying
// tree, e.g. after reloading the record source.
type HotSwapTree struct {
	mu      sync.RWMutex
	current Tree
}

func NewHotSwapTree(initial Tree) *HotSwapTree {
	return &HotSwapTree{current: initial}
}

// Swap atomically replaces the current tree. Calls already in flight finish
// against the old tree.
func (h *HotSwapTree) Swap(next Tree) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = next
}

func (h *HotSwapTree) load() Tree {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// All delegates to current tree.
func (h *HotSwapTree) All() []api.Item {
	return h.load().All()
}

// Item delegates to current tree.
func (h *HotSwapTree) Item(id any) (api.Item, bool, error) {
	return h.load().Item(id)
}

// Children delegates to current tree.
func (h *HotSwapTree) Children(id any) ([]api.Item, error) {
	return h.load().Children(id)
}

// AllChildren delegates to current tree.
func (h *HotSwapTree) AllChildren(id any) ([]api.Item, error) {
	return h.load().AllChildren(id)
}

// AllParents delegates to current tree.
func (h *HotSwapTree) AllParents(id any) ([]api.Item, error) {
	return h.load().AllParents(id)
}

// Len delegates to current tree.
func (h *HotSwapTree) Len() int {
	return h.load().Len()
}

var _ Tree = (*HotSwapTree)(nil)
