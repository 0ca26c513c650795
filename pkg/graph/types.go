package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/treepath"
	"github.com/matzehuels/treescope/pkg/value"
)

// =============================================================================
// Document - Tree Graph Serialization
// =============================================================================

// Document is the canonical serialization format for laid-out tree graphs.
// Used for API responses, file output, and the graph cache.
//
// Nodes are listed in pre-order. The root carries the full input value and
// primitives carry their scalar; container snapshots are rebuilt from the
// root on decode, which keeps the document linear in the input size.
type Document struct {
	BuildID string            `json:"build_id" bson:"build_id"`
	Nodes   []Node            `json:"nodes" bson:"nodes"`
	Edges   []Edge            `json:"edges" bson:"edges"`
	Index   map[string]string `json:"index,omitempty" bson:"index,omitempty"` // canonical path → node id
}

// =============================================================================
// Node / Edge
// =============================================================================

// Node is the serialized form of a positioned tree node.
type Node struct {
	ID    string       `json:"id" bson:"id"` // "n_<index>"
	Kind  string       `json:"kind" bson:"kind"`
	Label string       `json:"label" bson:"label"`
	Path  string       `json:"path" bson:"path"`
	Depth int          `json:"depth" bson:"depth"`
	X     float64      `json:"x" bson:"x"`
	Y     float64      `json:"y" bson:"y"`
	Value *value.Value `json:"value,omitempty" bson:"-"`
}

// Edge is the serialized form of a parent → child link.
type Edge struct {
	ID     string `json:"id" bson:"id"` // "<source>-<target>"
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
}

// =============================================================================
// Tree ↔ Document Conversion
// =============================================================================

// FromTree converts a tree graph to its serialization format.
func FromTree(g *tree.Graph) Document {
	nodes := g.Nodes()
	edges := g.Edges()

	doc := Document{
		BuildID: g.BuildID(),
		Nodes:   make([]Node, len(nodes)),
		Edges:   make([]Edge, len(edges)),
		Index:   g.Index().Map(),
	}
	for i, n := range nodes {
		out := Node{
			ID:    n.ID.String(),
			Kind:  n.Kind.String(),
			Label: n.Label,
			Path:  n.Path,
			Depth: n.Depth,
			X:     n.Position.X,
			Y:     n.Position.Y,
		}
		if n.ID == 0 || n.Kind == tree.KindPrimitive {
			v := n.Value
			out.Value = &v
		}
		doc.Nodes[i] = out
	}
	for i, e := range edges {
		doc.Edges[i] = Edge{ID: e.ID(), Source: e.Source.String(), Target: e.Target.String()}
	}
	return doc
}

// ToTree rebuilds a tree graph from a document, validating every invariant
// the layout guarantees. Node IDs are reassigned in document order. An empty
// BuildID gets a fresh one.
func ToTree(doc Document) (*tree.Graph, error) {
	if len(doc.Nodes) == 0 {
		return nil, invalid(tree.ErrEmptyGraph, "document has no nodes")
	}
	root := doc.Nodes[0]
	if root.Path != treepath.Root {
		return nil, invalid(tree.ErrMissingRoot, "first node must be the root")
	}
	// A JSON null decodes to a nil pointer, so a bare primitive root is null.
	rootValue := value.Null()
	if root.Value != nil {
		rootValue = *root.Value
	} else if root.Kind != tree.KindPrimitive.String() {
		return nil, invalid(tree.ErrMissingRoot, "root %s carries no value", root.Kind)
	}

	snapshots := subtrees(rootValue)
	if len(snapshots) != len(doc.Nodes) {
		return nil, invalid(nil, "root value has %d nodes, document lists %d", len(snapshots), len(doc.Nodes))
	}

	arena := tree.NewArena(len(doc.Nodes))
	ids := make(map[string]tree.NodeID, len(doc.Nodes))
	for _, n := range doc.Nodes {
		kind, err := tree.ParseKind(n.Kind)
		if err != nil {
			return nil, invalid(err, "node %s", n.ID)
		}
		snap, ok := snapshots[n.Path]
		if !ok {
			return nil, invalid(nil, "node %s: path %s not in root value", n.ID, n.Path)
		}
		if tree.KindOf(snap) != kind {
			return nil, invalid(nil, "node %s: kind %s does not match value", n.ID, n.Kind)
		}
		if _, dup := ids[n.ID]; dup {
			return nil, invalid(nil, "duplicate node id %s", n.ID)
		}
		ids[n.ID] = arena.Append(tree.Node{
			Kind:     kind,
			Label:    n.Label,
			Path:     n.Path,
			Depth:    n.Depth,
			Position: tree.Point{X: n.X, Y: n.Y},
			Value:    snap,
		})
	}

	for _, e := range doc.Edges {
		src, ok := ids[e.Source]
		if !ok {
			return nil, invalid(tree.ErrInvalidEdgeEndpoint, "edge %s: unknown source %s", e.ID, e.Source)
		}
		dst, ok := ids[e.Target]
		if !ok {
			return nil, invalid(tree.ErrInvalidEdgeEndpoint, "edge %s: unknown target %s", e.ID, e.Target)
		}
		arena.Link(src, dst)
	}

	buildID := doc.BuildID
	if buildID == "" {
		buildID = uuid.NewString()
	}
	g, err := arena.Finish(buildID)
	if err != nil {
		return nil, invalid(err, "document")
	}

	for path, id := range doc.Index {
		got, ok := g.Lookup(path)
		if !ok || ids[id] != got {
			return nil, invalid(nil, "index entry %s → %s does not match nodes", path, id)
		}
	}
	return g, nil
}

// UnmarshalDocument deserializes JSON bytes to a Document.
func UnmarshalDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// subtrees maps every canonical path under v to its subtree.
func subtrees(v value.Value) map[string]value.Value {
	type entry struct {
		path string
		v    value.Value
	}
	out := make(map[string]value.Value)
	stack := []entry{{treepath.Root, v}}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out[e.path] = e.v
		for _, m := range e.v.Members() {
			stack = append(stack, entry{treepath.Member(e.path, m.Key), m.Value})
		}
		for i, it := range e.v.Items() {
			stack = append(stack, entry{treepath.Element(e.path, i), it})
		}
	}
	return out
}

func invalid(cause error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if cause == nil {
		return errors.New(errors.ErrCodeInvalidGraph, "%s", msg)
	}
	return errors.Wrap(errors.ErrCodeInvalidGraph, cause, "%s", msg)
}
