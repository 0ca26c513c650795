package tree

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/treescope/pkg/value"
)

var (
	// ErrEmptyGraph is returned by [Arena.Finish] when no node was appended.
	ErrEmptyGraph = errors.New("graph has no nodes")

	// ErrMissingRoot is returned by [Arena.Finish] when the first node is not
	// the root "$". Every graph has exactly one root, stored at index 0.
	ErrMissingRoot = errors.New("first node must be the root $")

	// ErrDuplicatePath is returned by [Arena.Finish] when two nodes share a
	// canonical path. Paths identify nodes for search, so they must be unique.
	ErrDuplicatePath = errors.New("duplicate canonical path")

	// ErrInvalidEdgeEndpoint is returned by [Arena.Finish] when an edge
	// references a node outside the arena.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrInvalidEdgeDepth is returned by [Arena.Finish] when an edge does not
	// connect a node to a node exactly one level below it.
	ErrInvalidEdgeDepth = errors.New("edge must connect consecutive depths")

	// ErrMultipleParents is returned by [Arena.Finish] when a node is the
	// target of more than one edge, or the root is the target of any.
	ErrMultipleParents = errors.New("node must have exactly one parent")

	// ErrInvalidNodeID is returned by [ParseNodeID] for malformed identifiers.
	ErrInvalidNodeID = errors.New("invalid node ID")
)

// NodeID identifies a node within one graph build. It is the node's index in
// the arena, so it is only meaningful together with the graph that issued it.
type NodeID int

// NoNode is the zero-match identifier.
const NoNode NodeID = -1

// String returns the serialized form "n_<index>".
func (id NodeID) String() string { return "n_" + strconv.Itoa(int(id)) }

// ParseNodeID parses the "n_<index>" form produced by NodeID.String.
func ParseNodeID(s string) (NodeID, error) {
	digits, ok := strings.CutPrefix(s, "n_")
	if !ok {
		return NoNode, fmt.Errorf("%w: %q", ErrInvalidNodeID, s)
	}
	i, err := strconv.Atoi(digits)
	if err != nil || i < 0 {
		return NoNode, fmt.Errorf("%w: %q", ErrInvalidNodeID, s)
	}
	return NodeID(i), nil
}

// Point is a position in layout space. Y grows downward.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	Min, Max Point
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Node is one positioned vertex of a tree graph.
type Node struct {
	ID       NodeID
	Kind     Kind
	Label    string      // Display text: "{ key }", "[ key ]" or "key: value"
	Path     string      // Canonical path, "$" for the root
	Depth    int         // 0 for the root
	Position Point       // Center of the node in layout space
	Value    value.Value // Snapshot of the subtree rooted here
}

// Edge links a container node to one of its direct children.
type Edge struct {
	Source NodeID
	Target NodeID
}

// ID returns the edge identifier "<source>-<target>".
func (e Edge) ID() string { return e.Source.String() + "-" + e.Target.String() }

// Graph is an immutable, positioned tree built from one value. Node IDs are
// arena indices and the root is always node 0. A Graph is safe for concurrent
// reads.
type Graph struct {
	buildID  string
	nodes    []Node
	edges    []Edge
	index    *PathIndex
	children [][]NodeID
	parent   []NodeID
}

// BuildID returns the identifier minted for this build. Node IDs from
// different builds must not be mixed; the build ID tells them apart.
func (g *Graph) BuildID() string { return g.buildID }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Nodes returns a copy of all nodes in placement (pre-order) order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Edges returns a copy of all edges in placement order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[id], true
}

// Root returns the root node.
func (g *Graph) Root() Node { return g.nodes[0] }

// Index returns the canonical path index.
func (g *Graph) Index() *PathIndex { return g.index }

// Lookup resolves an exact canonical path.
func (g *Graph) Lookup(path string) (NodeID, bool) { return g.index.Lookup(path) }

// Children returns the direct children of id in document order.
func (g *Graph) Children(id NodeID) []NodeID {
	if id < 0 || int(id) >= len(g.children) {
		return nil
	}
	return append([]NodeID(nil), g.children[id]...)
}

// Parent returns the parent of id, or NoNode for the root.
func (g *Graph) Parent(id NodeID) NodeID {
	if id < 0 || int(id) >= len(g.parent) {
		return NoNode
	}
	return g.parent[id]
}

// Bounds returns the box spanned by all node centers.
func (g *Graph) Bounds() Rect {
	r := Rect{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	for _, n := range g.nodes {
		r.Min.X = math.Min(r.Min.X, n.Position.X)
		r.Min.Y = math.Min(r.Min.Y, n.Position.Y)
		r.Max.X = math.Max(r.Max.X, n.Position.X)
		r.Max.Y = math.Max(r.Max.Y, n.Position.Y)
	}
	return r
}

// MaxDepth returns the depth of the deepest node.
func (g *Graph) MaxDepth() int {
	max := 0
	for _, n := range g.nodes {
		if n.Depth > max {
			max = n.Depth
		}
	}
	return max
}
