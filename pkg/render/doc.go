// Package render groups the image exporters for laid-out trees.
//
// The [nodelink] subpackage produces DOT, SVG and PNG through Graphviz with
// the computed positions pinned.
package render
