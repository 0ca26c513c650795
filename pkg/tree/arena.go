package tree

import "fmt"

// Arena accumulates nodes and edges while a graph is being built. Each
// appended node gets its arena index as ID. Finish validates the result and
// freezes it into a Graph; the arena must not be used afterwards.
//
// Positions may be adjusted through [Arena.Move] before Finish, which is how
// the layout applies its final horizontal shift.
type Arena struct {
	nodes []Node
	edges []Edge
}

// NewArena returns an arena with room for capacity nodes.
func NewArena(capacity int) *Arena {
	return &Arena{
		nodes: make([]Node, 0, capacity),
		edges: make([]Edge, 0, capacity),
	}
}

// Append stores n and returns its ID. Any ID already set on n is replaced.
func (a *Arena) Append(n Node) NodeID {
	n.ID = NodeID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return n.ID
}

// Link records an edge from parent to child.
func (a *Arena) Link(parent, child NodeID) {
	a.edges = append(a.edges, Edge{Source: parent, Target: child})
}

// Len returns the number of nodes appended so far.
func (a *Arena) Len() int { return len(a.nodes) }

// Move applies fn to every node position.
func (a *Arena) Move(fn func(Point) Point) {
	for i := range a.nodes {
		a.nodes[i].Position = fn(a.nodes[i].Position)
	}
}

// Finish validates the arena contents and returns the immutable Graph.
//
// The checks mirror the tree invariants: node 0 is the root "$", paths are
// unique, every edge joins existing nodes at consecutive depths, and every
// non-root node has exactly one parent.
func (a *Arena) Finish(buildID string) (*Graph, error) {
	if len(a.nodes) == 0 {
		return nil, ErrEmptyGraph
	}
	if a.nodes[0].Path != "$" || a.nodes[0].Depth != 0 {
		return nil, ErrMissingRoot
	}

	index := newPathIndex(len(a.nodes))
	for _, n := range a.nodes {
		if prev, dup := index.ids[n.Path]; dup {
			return nil, fmt.Errorf("%w: %s (%s and %s)", ErrDuplicatePath, n.Path, prev, n.ID)
		}
		index.ids[n.Path] = n.ID
		index.paths = append(index.paths, n.Path)
	}

	children := make([][]NodeID, len(a.nodes))
	parent := make([]NodeID, len(a.nodes))
	for i := range parent {
		parent[i] = NoNode
	}
	for _, e := range a.edges {
		if !a.valid(e.Source) || !a.valid(e.Target) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEdgeEndpoint, e.ID())
		}
		if a.nodes[e.Target].Depth != a.nodes[e.Source].Depth+1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidEdgeDepth, e.ID())
		}
		if e.Target == 0 || parent[e.Target] != NoNode {
			return nil, fmt.Errorf("%w: %s", ErrMultipleParents, e.Target)
		}
		parent[e.Target] = e.Source
		children[e.Source] = append(children[e.Source], e.Target)
	}
	for i := 1; i < len(parent); i++ {
		if parent[i] == NoNode {
			return nil, fmt.Errorf("%w: %s is unreachable", ErrMultipleParents, NodeID(i))
		}
	}

	g := &Graph{
		buildID:  buildID,
		nodes:    a.nodes,
		edges:    a.edges,
		index:    index,
		children: children,
		parent:   parent,
	}
	a.nodes, a.edges = nil, nil
	return g, nil
}

func (a *Arena) valid(id NodeID) bool { return id >= 0 && int(id) < len(a.nodes) }
