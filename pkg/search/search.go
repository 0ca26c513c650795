// Package search resolves user path queries against a laid-out tree.
//
// A query is normalized with treepath.Normalize and then looked up by exact
// string equality in the graph's path index. A miss is an ordinary result,
// not an error, and malformed queries such as "$.b[0" simply miss.
package search

import (
	"github.com/matzehuels/treescope/pkg/observability"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/treepath"
)

// Result is the outcome of one resolution.
type Result struct {
	Matched   bool        `json:"matched"`
	NodeID    tree.NodeID `json:"-"`
	Canonical string      `json:"canonical"` // Normalized query, "" when the query was blank
}

// Node returns the matched node ID in its serialized form, or "".
func (r Result) Node() string {
	if !r.Matched {
		return ""
	}
	return r.NodeID.String()
}

// Resolve normalizes raw and looks it up in g. A blank query or a nil graph
// never consults the index and reports no match.
func Resolve(raw string, g *tree.Graph) Result {
	canonical := treepath.Normalize(raw)
	res := Result{NodeID: tree.NoNode, Canonical: canonical}
	if canonical != "" && g != nil {
		if id, ok := g.Lookup(canonical); ok {
			res.Matched, res.NodeID = true, id
		}
	}
	observability.Search().OnResolve(canonical, res.Matched)
	return res
}
