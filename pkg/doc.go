// Package pkg provides the core libraries for Treescope document trees.
//
// # Overview
//
// Treescope turns a JSON, YAML or TOML document into a positioned node-link
// tree: every object, array and primitive becomes a node with a label, a
// canonical path such as $.user.address.city and a center point, and every
// container is linked to its children. The tree is indexed by canonical path
// so user queries written in dot or bracket notation resolve to a node.
//
// # Architecture
//
// The typical data flow:
//
//	JSON / YAML / TOML text
//	         ↓
//	    [value] package (parse into one ordered value model)
//	         ↓
//	    [layout] package (measure leaves, place nodes, build the index)
//	         ↓
//	    [tree] package (immutable graph + path index)
//	         ↓
//	    [search] package (normalize a query, look it up)
//	         ↓
//	    [render/nodelink] or [graph] (PNG/SVG/DOT image or JSON document)
//
// # Quick Start
//
//	v, _ := value.Parse(value.FormatJSON, []byte(`{"a":{"b":[1,2]}}`))
//	g, _ := layout.Build(v)
//
//	res := search.Resolve("a.b[1]", g)
//	if res.Matched {
//	    n, _ := g.Node(res.NodeID)
//	    fmt.Println(n.Label, n.Position) // 1: 2 {240 330}
//	}
//
// # Main Packages
//
// ## Tree Model
//
// [value] - Ordered value model with JSON, YAML and TOML parsers. Object keys
// keep document order; parse errors carry the parser's message verbatim.
//
// [treepath] - Canonical path construction and query normalization.
//
// [layout] - The leaf-column layout: parents are centered over their
// children, depth maps to rows.
//
// [tree] - The built graph: arena-indexed nodes, pre-order edges and the
// path index.
//
// [search] - Query resolution against a graph.
//
// ## Serving and Exploring
//
// [pipeline] - parse → layout → render with caching, shared by the CLI, the
// HTTP server and the explorer.
//
// [explorer] - A stateful session driving a [viewport]: load, search,
// fit, zoom, export and file watching.
//
// [server] - The HTTP API over the pipeline.
//
// ## Infrastructure
//
// [cache] - File, Redis, MongoDB and null caches behind one interface.
//
// [config] - Defaults, treescope.yaml, TREESCOPE_ env vars and flags.
//
// [errors] - Structured errors with codes and HTTP status mapping.
//
// [observability] - Hooks for parse, layout, render, search, cache and HTTP
// events, with a Prometheus implementation.
//
// [graph] - The JSON graph document format.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/layout/...   # Specific package
//	go test -run Example       # Examples only
//
// [value]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/value
// [treepath]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/treepath
// [layout]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/layout
// [tree]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/tree
// [search]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/search
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/render/nodelink
// [graph]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/pipeline
// [explorer]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/explorer
// [viewport]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/viewport
// [server]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/treescope/pkg/observability
package pkg
