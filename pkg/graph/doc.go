// Package graph provides the wire format for laid-out tree graphs.
//
// This package defines the canonical serialization for treescope's graphs,
// used for JSON output files, API responses and cached layouts.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - [Document], [Node], [Edge]: serialization types (this package)
//   - pkg/tree.Graph: the immutable in-memory graph built by pkg/layout
//
// Use [FromTree]/[ToTree] to convert between them. ToTree re-validates the
// tree invariants, so a document from a cache or a file can never produce a
// graph the layout would not have built.
//
// # Format
//
//	{
//	  "build_id": "5b1c…",
//	  "nodes": [
//	    {"id": "n_0", "kind": "object", "label": "{ root }", "path": "$",
//	     "depth": 0, "x": 40, "y": 0, "value": {"a": 1}},
//	    {"id": "n_1", "kind": "primitive", "label": "a: 1", "path": "$.a",
//	     "depth": 1, "x": 40, "y": 110, "value": 1}
//	  ],
//	  "edges": [{"id": "n_0-n_1", "source": "n_0", "target": "n_1"}],
//	  "index": {"$": "n_0", "$.a": "n_1"}
//	}
//
// Only the root and primitive nodes carry a value. Container snapshots are
// recovered from the root value when decoding.
package graph
