// Package treepath builds and normalizes canonical node paths.
//
// A canonical path starts at the root marker "$". Object members append
// ".key" and array elements append "[index]", so the path of the second item
// in the "b" array of the root object is "$.b[1]".
//
// User queries go through [Normalize] before lookup. Normalization is
// deliberately shallow: it adds the root marker, collapses dot runs and drops
// one trailing dot. Bracket syntax is passed through untouched and there is no
// wildcard or recursive-descent support, so "$..name" means "$.name".
package treepath

import (
	"strconv"
	"strings"
)

// Root is the canonical path of the root node.
const Root = "$"

// Normalize canonicalizes a free-form query. Blank input yields "", meaning no
// query. Input without the root marker gets "$." prepended, or just "$" when
// it already starts with "." or "[".
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, Root) {
		if s[0] == '.' || s[0] == '[' {
			s = Root + s
		} else {
			s = Root + "." + s
		}
	}
	s = collapseDots(s)
	return strings.TrimSuffix(s, ".")
}

// collapseDots folds runs of "." into one, leaving quoted bracket keys intact.
func collapseDots(s string) string {
	if !strings.Contains(s, "..") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prevDot, quoted, escaped := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				quoted = false
			}
		case c == '"':
			quoted = true
		case c == '.' && prevDot:
			continue
		}
		prevDot = c == '.' && !quoted
		b.WriteByte(c)
	}
	return b.String()
}

// Member returns the path of the object member key under parent.
//
// Keys that would be ambiguous in dotted form (empty, containing ".", "[" or
// "]", or with surrounding whitespace) are written in bracket form with a
// quoted string, e.g. $["a.b"], so every member gets a distinct path.
func Member(parent, key string) string {
	if parent == "" {
		parent = Root
	}
	if needsQuoting(key) {
		return parent + "[" + strconv.Quote(key) + "]"
	}
	return parent + "." + key
}

// Element returns the path of array element i under parent.
func Element(parent string, i int) string {
	if parent == "" {
		parent = Root
	}
	return parent + "[" + strconv.Itoa(i) + "]"
}

func needsQuoting(key string) bool {
	if key == "" || strings.TrimSpace(key) != key {
		return true
	}
	return strings.ContainsAny(key, ".[]")
}
