package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

var kindNames = [...]string{"null", "bool", "number", "string", "object", "array"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is an immutable structured value: null, bool, number, string, an
// ordered object or an array. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	num     float64
	text    string
	members []Member
	items   []Value
}

// Member is one key/value pair of an object, in document order.
type Member struct {
	Key   string
	Value Value
}

// =============================================================================
// Constructors
// =============================================================================

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, text: formatNumber(f)}
}

// Int returns a numeric value for an integer.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), text: formatNumber(float64(i))}
}

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Field is shorthand for constructing an object member.
func Field(key string, v Value) Member { return Member{Key: key, Value: v} }

// Object returns an object holding members in the given order. When a key
// repeats, the last value wins and keeps the position of the first occurrence.
func Object(members ...Member) Value {
	out := make([]Member, 0, len(members))
	seen := make(map[string]int, len(members))
	for _, m := range members {
		if i, ok := seen[m.Key]; ok {
			out[i].Value = m.Value
			continue
		}
		seen[m.Key] = len(out)
		out = append(out, m)
	}
	return Value{kind: KindObject, members: out}
}

// Array returns an array holding items in order.
func Array(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindArray, items: out}
}

// =============================================================================
// Accessors
// =============================================================================

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsContainer reports whether v is an object or an array.
func (v Value) IsContainer() bool { return v.kind == KindObject || v.kind == KindArray }

// Bool returns the boolean payload; false for other kinds.
func (v Value) Bool() bool { return v.b }

// Float returns the numeric payload; 0 for other kinds.
func (v Value) Float() float64 { return v.num }

// Text returns the string payload; empty for other kinds.
func (v Value) Text() string {
	if v.kind == KindString {
		return v.text
	}
	return ""
}

// Len returns the number of members or items, or 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.members)
	case KindArray:
		return len(v.items)
	}
	return 0
}

// Members returns the object members in document order. The slice must not be modified.
func (v Value) Members() []Member { return v.members }

// Items returns the array items in order. The slice must not be modified.
func (v Value) Items() []Value { return v.items }

// Get returns the member value stored under key.
func (v Value) Get(key string) (Value, bool) {
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Index returns the i-th array item.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindArray || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// String renders a scalar the way it is displayed in node labels: null, true,
// false, the shortest number form, or the raw text. Containers render as
// compact JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return v.text
	case KindString:
		return v.text
	}
	data, err := v.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

// Depth returns the nesting depth of v: 0 for scalars and empty containers,
// one more than the deepest child otherwise.
func (v Value) Depth() int {
	type frame struct {
		v     Value
		depth int
	}
	max := 0
	stack := []frame{{v, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > max {
			max = f.depth
		}
		for _, m := range f.v.members {
			stack = append(stack, frame{m.Value, f.depth + 1})
		}
		for _, it := range f.v.items {
			stack = append(stack, frame{it, f.depth + 1})
		}
	}
	return max
}

// Finite reports whether every number in v is finite. JSON has no form for
// NaN or infinities, so only finite values survive an encode and decode.
func (v Value) Finite() bool {
	stack := []Value{v}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.kind == KindNumber && (math.IsNaN(cur.num) || math.IsInf(cur.num, 0)) {
			return false
		}
		for _, m := range cur.members {
			stack = append(stack, m.Value)
		}
		stack = append(stack, cur.items...)
	}
	return true
}

// Equal reports whether a and b hold the same structure, including member order.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num || (math.IsNaN(a.num) && math.IsNaN(b.num))
	case KindString:
		return a.text == b.text
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// formatNumber produces the shortest decimal form that round-trips, switching
// to exponent notation outside [1e-6, 1e21) the way JavaScript does.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs < 1e21 && abs >= 1e-6 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	// Go pads the exponent to two digits (1e-07); trim to 1e-7.
	if i := strings.IndexByte(s, 'e'); i >= 0 && len(s) > i+3 && s[i+2] == '0' {
		s = s[:i+2] + s[i+3:]
	}
	return s
}
