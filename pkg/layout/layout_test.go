package layout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/value"
)

func mustParse(t *testing.T, s string) value.Value {
	t.Helper()
	v, err := value.ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON(%s): %v", s, err)
	}
	return v
}

func TestBuildScenarioA(t *testing.T) {
	g, err := Build(mustParse(t, `{"a":1,"b":[2,3]}`))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.Len() != 5 {
		t.Fatalf("nodes = %d, want 5", g.Len())
	}
	if n := len(g.Edges()); n != 4 {
		t.Errorf("edges = %d, want 4", n)
	}
	if w := Measure(g.Root().Value); w != 3 {
		t.Errorf("root width = %d, want 3", w)
	}

	want := []struct {
		path  string
		kind  tree.Kind
		label string
		x, y  float64
	}{
		{"$", tree.KindObject, "{ root }", 240, 0},
		{"$.a", tree.KindPrimitive, "a: 1", 40, 110},
		{"$.b", tree.KindArray, "[ b ]", 340, 110},
		{"$.b[0]", tree.KindPrimitive, "0: 2", 240, 220},
		{"$.b[1]", tree.KindPrimitive, "1: 3", 440, 220},
	}
	for i, w := range want {
		n, _ := g.Node(tree.NodeID(i))
		if n.Path != w.path || n.Kind != w.kind || n.Label != w.label {
			t.Errorf("node %d = {%s %v %q}, want {%s %v %q}", i, n.Path, n.Kind, n.Label, w.path, w.kind, w.label)
		}
		if n.Position.X != w.x || n.Position.Y != w.y {
			t.Errorf("%s at (%v,%v), want (%v,%v)", w.path, n.Position.X, n.Position.Y, w.x, w.y)
		}
	}

	edges := []string{"n_0-n_1", "n_0-n_2", "n_2-n_3", "n_2-n_4"}
	for i, e := range g.Edges() {
		if e.ID() != edges[i] {
			t.Errorf("edge %d = %s, want %s", i, e.ID(), edges[i])
		}
	}
}

func TestBuildScenarioD(t *testing.T) {
	g, err := Build(mustParse(t, `{}`))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 1 || len(g.Edges()) != 0 {
		t.Fatalf("got %d nodes, %d edges; want 1, 0", g.Len(), len(g.Edges()))
	}
	root := g.Root()
	if root.Kind != tree.KindObject || root.Path != "$" || Measure(root.Value) != 1 {
		t.Errorf("root = %+v", root)
	}
	if root.Position.X != DefaultMargin {
		t.Errorf("root x = %v, want %v", root.Position.X, DefaultMargin)
	}
}

func TestBuildScenarioE(t *testing.T) {
	g, err := Build(mustParse(t, `[null, true, "x"]`))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != 4 {
		t.Fatalf("nodes = %d, want 4", g.Len())
	}
	root := g.Root()
	if root.Kind != tree.KindArray || root.Label != "[ root ]" || Measure(root.Value) != 3 {
		t.Errorf("root = %+v", root)
	}

	labels := map[string]string{"$[0]": "0: null", "$[1]": "1: true", "$[2]": "2: x"}
	for path, want := range labels {
		id, ok := g.Lookup(path)
		if !ok {
			t.Errorf("missing %s", path)
			continue
		}
		n, _ := g.Node(id)
		if n.Kind != tree.KindPrimitive || n.Label != want {
			t.Errorf("%s = %v %q, want primitive %q", path, n.Kind, n.Label, want)
		}
	}
}

func TestBuildPrimitiveRoot(t *testing.T) {
	tests := []struct {
		in    string
		label string
	}{
		{`42`, "42"},
		{`"hello"`, "hello"},
		{`null`, "null"},
		{`false`, "false"},
	}
	for _, tt := range tests {
		g, err := Build(mustParse(t, tt.in))
		if err != nil {
			t.Fatalf("Build(%s): %v", tt.in, err)
		}
		if g.Root().Label != tt.label || g.Root().Path != "$" {
			t.Errorf("Build(%s) root = %q at %s, want %q at $", tt.in, g.Root().Label, g.Root().Path, tt.label)
		}
	}
}

func TestBuildAmbiguousKeyPaths(t *testing.T) {
	g, err := Build(mustParse(t, `{"a.b":1,"a":{"b":2},"":3," x":4,"[0]":5}`))
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		`$["a.b"]`: "a.b: 1",
		`$.a`:      "{ a }",
		`$.a.b`:    "b: 2",
		`$[""]`:    ": 3",
		`$[" x"]`:  " x: 4",
		`$["[0]"]`: "[0]: 5",
	}
	if g.Len() != len(want)+1 {
		t.Errorf("Len() = %d, want %d", g.Len(), len(want)+1)
	}
	for path, label := range want {
		id, ok := g.Lookup(path)
		if !ok {
			t.Errorf("Lookup(%s) missed", path)
			continue
		}
		n, _ := g.Node(id)
		if n.Path != path || n.Label != label {
			t.Errorf("Lookup(%s) = %q %q, want label %q", path, n.Path, n.Label, label)
		}
	}
}

func TestMeasure(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{`1`, 1},
		{`null`, 1},
		{`{}`, 1},
		{`[]`, 1},
		{`[1,2,3]`, 3},
		{`{"a":[],"b":{}}`, 2},
		{`{"a":1,"b":[2,3]}`, 3},
		{`[[1,2],[3,[4,5,6]]]`, 6},
	}
	for _, tt := range tests {
		v := mustParse(t, tt.in)
		got := Measure(v)
		if got != tt.want {
			t.Errorf("Measure(%s) = %d, want %d", tt.in, got, tt.want)
		}
		if got < 1 {
			t.Errorf("Measure(%s) < 1", tt.in)
		}
		if v.Len() > 0 {
			sum := 0
			for _, m := range v.Members() {
				sum += Measure(m.Value)
			}
			for _, it := range v.Items() {
				sum += Measure(it)
			}
			if sum != got {
				t.Errorf("Measure(%s) = %d, children sum to %d", tt.in, got, sum)
			}
		}
	}
}

func TestBuildIndexInvariants(t *testing.T) {
	g, err := Build(value.Sample())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Index().Len() != g.Len() {
		t.Fatalf("index size %d != nodes %d", g.Index().Len(), g.Len())
	}
	seen := map[string]bool{}
	for _, n := range g.Nodes() {
		if seen[n.Path] {
			t.Errorf("duplicate path %s", n.Path)
		}
		seen[n.Path] = true
		if id, ok := g.Lookup(n.Path); !ok || id != n.ID {
			t.Errorf("Lookup(%s) = %v, want %v", n.Path, id, n.ID)
		}
	}
	if id, _ := g.Lookup("$.user.address.city"); id == tree.NoNode {
		t.Error("missing $.user.address.city")
	}
	for _, e := range g.Edges() {
		src, _ := g.Node(e.Source)
		dst, _ := g.Node(e.Target)
		if !strings.HasPrefix(dst.Path, src.Path) || dst.Depth != src.Depth+1 {
			t.Errorf("edge %s joins %s and %s", e.ID(), src.Path, dst.Path)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	v := value.Sample()
	g1, err := Build(v)
	if err != nil {
		t.Fatal(err)
	}
	g2, err := Build(v)
	if err != nil {
		t.Fatal(err)
	}
	if g1.BuildID() == g2.BuildID() {
		t.Error("each build should get a fresh build ID")
	}

	type shape struct {
		kind  tree.Kind
		label string
		pos   tree.Point
	}
	byPath := func(g *tree.Graph) map[string]shape {
		out := map[string]shape{}
		for _, n := range g.Nodes() {
			out[n.Path] = shape{n.Kind, n.Label, n.Position}
		}
		return out
	}
	a, b := byPath(g1), byPath(g2)
	if len(a) != len(b) {
		t.Fatalf("node counts differ: %d vs %d", len(a), len(b))
	}
	for p, s := range a {
		if b[p] != s {
			t.Errorf("%s differs: %+v vs %+v", p, s, b[p])
		}
	}
}

func TestBuildConfig(t *testing.T) {
	v := mustParse(t, `{"a":1,"b":2}`)
	g, err := Build(v, WithHGap(100), WithVGap(50), WithMargin(0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	a, _ := g.Node(1)
	b, _ := g.Node(2)
	if a.Position != (tree.Point{X: 0, Y: 50}) || b.Position != (tree.Point{X: 100, Y: 50}) {
		t.Errorf("positions = %+v, %+v", a.Position, b.Position)
	}

	if _, err := Build(v, WithHGap(0)); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("zero HGap: error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestBuildTooDeep(t *testing.T) {
	deep := strings.Repeat("[", 20) + strings.Repeat("]", 20)
	v, err := value.ParseJSON([]byte(deep))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Build(v, WithMaxDepth(10)); !errors.Is(err, errors.ErrCodeTooDeep) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeTooDeep)
	}
	g, err := Build(v, WithMaxDepth(19))
	if err != nil {
		t.Fatalf("depth 19: %v", err)
	}
	if g.MaxDepth() != 19 {
		t.Errorf("MaxDepth() = %d, want 19", g.MaxDepth())
	}
}

func TestBuildVeryDeep(t *testing.T) {
	const depth = 5000
	v := value.Null()
	for i := 0; i < depth; i++ {
		v = value.Array(v)
	}
	g, err := Build(v, WithMaxDepth(0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Len() != depth+1 {
		t.Errorf("nodes = %d, want %d", g.Len(), depth+1)
	}
}

func ExampleBuild() {
	v, _ := value.ParseJSON([]byte(`{"a":1,"b":[2,3]}`))
	g, _ := Build(v)
	for _, n := range g.Nodes() {
		fmt.Printf("%-7s %-9s (%v,%v)\n", n.Path, n.Label, n.Position.X, n.Position.Y)
	}
	// Output:
	// $       { root }  (240,0)
	// $.a     a: 1      (40,110)
	// $.b     [ b ]     (340,110)
	// $.b[0]  0: 2      (240,220)
	// $.b[1]  1: 3      (440,220)
}
