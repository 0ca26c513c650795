// Package layout turns a structured value into a positioned tree graph.
//
// # Algorithm
//
// The layout is a classic leaf-column tree drawing:
//
//  1. Measure: every scalar or empty container is one column wide; a
//     non-empty container is as wide as the sum of its children.
//  2. Place: the root starts at column 0. Each container hands its children
//     consecutive column ranges in document order. A node is centered over
//     its range (x = start + width*HGap/2) at y = depth*VGap.
//  3. Normalize: all x coordinates shift so the leftmost node sits at Margin.
//
// For {"a":1,"b":[2,3]} with default spacing the root is 3 columns wide:
//
//	$        (240,   0)
//	$.a      ( 40, 110)
//	$.b      (340, 110)
//	$.b[0]   (240, 220)
//	$.b[1]   (440, 220)
//
// Build is deterministic: the same value always yields the same paths, kinds,
// labels and positions. Only the build ID differs between calls.
//
// # Configuration
//
// Spacing comes from [Config], defaulting to [DefaultConfig] and overridden
// per call with options such as [WithHGap] or [WithConfig].
package layout
