package tree

import "slices"

// PathIndex maps canonical paths to node IDs. Lookups are exact string
// matches; there is no prefix or fuzzy matching.
type PathIndex struct {
	ids   map[string]NodeID
	paths []string // by NodeID
}

func newPathIndex(capacity int) *PathIndex {
	return &PathIndex{
		ids:   make(map[string]NodeID, capacity),
		paths: make([]string, 0, capacity),
	}
}

// Lookup returns the node registered under path.
func (ix *PathIndex) Lookup(path string) (NodeID, bool) {
	if ix == nil {
		return NoNode, false
	}
	id, ok := ix.ids[path]
	return id, ok
}

// Len returns the number of indexed paths, always equal to the node count.
func (ix *PathIndex) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.ids)
}

// Paths returns all indexed paths in node order.
func (ix *PathIndex) Paths() []string {
	if ix == nil {
		return nil
	}
	return slices.Clone(ix.paths)
}

// Map returns a copy of the index as a plain map keyed by path with string
// node IDs, the shape used on the wire.
func (ix *PathIndex) Map() map[string]string {
	out := make(map[string]string, ix.Len())
	if ix == nil {
		return out
	}
	for p, id := range ix.ids {
		out[p] = id.String()
	}
	return out
}
