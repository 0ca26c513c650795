package layout

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/treepath"
	"github.com/matzehuels/treescope/pkg/value"
)

// Measure returns the number of leaf columns v occupies. Scalars and empty
// containers are one column wide; a non-empty container is as wide as its
// children combined, so the width equals the number of leaves below v.
func Measure(v value.Value) int {
	leaves := 0
	stack := []value.Value{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.Len() == 0 {
			leaves++
			continue
		}
		for _, m := range cur.Members() {
			stack = append(stack, m.Value)
		}
		stack = append(stack, cur.Items()...)
	}
	return leaves
}

// slot is one node in pre-order, before positions are known.
type slot struct {
	v      value.Value
	key    string
	hasKey bool
	path   string
	depth  int
	parent tree.NodeID
}

// Build lays out v as a tree graph.
//
// Nodes are placed in pre-order, so the root is node 0 and each subtree
// occupies a contiguous ID range. A node sits horizontally centered over the
// leaf columns of its subtree and vertically at depth*VGap. After placement
// every x is shifted so the leftmost node sits at Margin.
//
// Nesting deeper than Config.MaxDepth fails with code STRUCTURE_TOO_DEEP.
// Traversal uses explicit stacks, so deep input never grows the call stack.
func Build(v value.Value, opts ...Option) (*tree.Graph, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "layout config")
	}

	slots, err := flatten(v, cfg.MaxDepth)
	if err != nil {
		return nil, err
	}

	// Measure: children follow their parent in pre-order, so a reverse sweep
	// sees every child before its parent.
	widths := make([]int, len(slots))
	for i := len(slots) - 1; i >= 0; i-- {
		if widths[i] == 0 {
			widths[i] = 1
		}
		if p := slots[i].parent; p != tree.NoNode {
			widths[p] += widths[i]
		}
	}

	// Place: each container hands out consecutive column ranges to its
	// children in document order.
	arena := tree.NewArena(len(slots))
	cursor := make([]float64, len(slots))
	minX := math.Inf(1)
	for i, s := range slots {
		var xStart float64
		if s.parent != tree.NoNode {
			xStart = cursor[s.parent]
			cursor[s.parent] += float64(widths[i]) * cfg.HGap
		}
		cursor[i] = xStart

		x := xStart + float64(widths[i])*cfg.HGap/2
		minX = math.Min(minX, x)

		id := arena.Append(tree.Node{
			Kind:     tree.KindOf(s.v),
			Label:    label(s),
			Path:     s.path,
			Depth:    s.depth,
			Position: tree.Point{X: x, Y: float64(s.depth) * cfg.VGap},
			Value:    s.v,
		})
		if s.parent != tree.NoNode {
			arena.Link(s.parent, id)
		}
	}

	shift := cfg.Margin - minX
	arena.Move(func(p tree.Point) tree.Point {
		p.X += shift
		return p
	})

	g, err := arena.Finish(uuid.NewString())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "layout produced an invalid tree")
	}
	return g, nil
}

// flatten lists the nodes of v in pre-order with their paths and parents.
func flatten(v value.Value, maxDepth int) ([]slot, error) {
	var slots []slot
	stack := []slot{{v: v, path: treepath.Root, parent: tree.NoNode}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if maxDepth > 0 && s.depth > maxDepth {
			return nil, errors.New(errors.ErrCodeTooDeep, "structure nesting exceeds maximum depth %d", maxDepth)
		}

		self := tree.NodeID(len(slots))
		slots = append(slots, s)

		// Push children in reverse so they pop in document order.
		members := s.v.Members()
		for i := len(members) - 1; i >= 0; i-- {
			stack = append(stack, slot{
				v:      members[i].Value,
				key:    members[i].Key,
				hasKey: true,
				path:   treepath.Member(s.path, members[i].Key),
				depth:  s.depth + 1,
				parent: self,
			})
		}
		items := s.v.Items()
		for i := len(items) - 1; i >= 0; i-- {
			stack = append(stack, slot{
				v:      items[i],
				key:    strconv.Itoa(i),
				hasKey: true,
				path:   treepath.Element(s.path, i),
				depth:  s.depth + 1,
				parent: self,
			})
		}
	}
	return slots, nil
}

func label(s slot) string {
	switch s.v.Kind() {
	case value.KindObject:
		if !s.hasKey || s.key == "" {
			return "{ root }"
		}
		return "{ " + s.key + " }"
	case value.KindArray:
		if !s.hasKey || s.key == "" {
			return "[ root ]"
		}
		return "[ " + s.key + " ]"
	}
	if !s.hasKey {
		return s.v.String()
	}
	return s.key + ": " + s.v.String()
}
