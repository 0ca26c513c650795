package server

import (
	"sync"

	"github.com/matzehuels/treescope/pkg/tree"
)

// entry is one laid-out graph held by the server.
type entry struct {
	graph *tree.Graph
	hash  string // pipeline GraphHash, keys the artifact cache
}

// registry holds recently built graphs by build id. When full, the oldest
// graph is dropped.
type registry struct {
	mu    sync.RWMutex
	max   int
	byID  map[string]entry
	order []string
}

func newRegistry(max int) *registry {
	if max <= 0 {
		max = 1
	}
	return &registry{max: max, byID: make(map[string]entry, max)}
}

func (r *registry) put(g *tree.Graph, hash string) string {
	id := g.BuildID()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		r.order = append(r.order, id)
	}
	r.byID[id] = entry{graph: g, hash: hash}

	for len(r.order) > r.max {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.byID, oldest)
	}
	return id
}

func (r *registry) get(id string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
