// Package tree provides the positioned node/edge graph produced by the layout.
//
// # Overview
//
// A [Graph] is built once from a structured value and never modified. Nodes
// live in an arena: a node's [NodeID] is its index, the root is node 0, and
// nodes are stored in pre-order. Every node carries its canonical path (see
// package treepath), and the [PathIndex] maps each path back to exactly one
// node.
//
// # Building
//
// Builders append nodes to an [Arena], link parents to children, and call
// [Arena.Finish], which checks the tree invariants before freezing the graph:
//
//	a := tree.NewArena(2)
//	root := a.Append(tree.Node{Kind: tree.KindObject, Label: "{ root }", Path: "$"})
//	leaf := a.Append(tree.Node{Kind: tree.KindPrimitive, Label: "a: 1", Path: "$.a", Depth: 1})
//	a.Link(root, leaf)
//	g, err := a.Finish(uuid.NewString())
//
// # Identity
//
// Node IDs are only unique within one build. Each build carries a fresh
// [Graph.BuildID]; callers holding IDs across rebuilds must compare build IDs
// first.
package tree
