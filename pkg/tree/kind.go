package tree

import (
	"fmt"

	"github.com/matzehuels/treescope/pkg/value"
)

// Kind classifies a node for styling. Null, bool, number and string values
// are all primitives.
type Kind uint8

const (
	KindPrimitive Kind = iota
	KindObject
	KindArray
)

// Category colors used by every renderer.
const (
	ColorObject    = "#3b82f6"
	ColorArray     = "#10b981"
	ColorPrimitive = "#f59e0b"
)

// KindOf classifies v.
func KindOf(v value.Value) Kind {
	switch v.Kind() {
	case value.KindObject:
		return KindObject
	case value.KindArray:
		return KindArray
	}
	return KindPrimitive
}

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	}
	return "primitive"
}

// Color returns the fill color for nodes of this kind.
func (k Kind) Color() string {
	switch k {
	case KindObject:
		return ColorObject
	case KindArray:
		return ColorArray
	}
	return ColorPrimitive
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "object":
		return KindObject, nil
	case "array":
		return KindArray, nil
	case "primitive":
		return KindPrimitive, nil
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}
