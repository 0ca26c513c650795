package treepath

import (
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"$", "$"},
		{"user.name", "$.user.name"},
		{"  user.name  ", "$.user.name"},
		{"$.user..name", "$.user.name"},
		{"$.user...name", "$.user.name"},
		{"$a.b.", "$a.b"},
		{"$.b[0]", "$.b[0]"},
		{"[2]", "$[2]"},
		{".a", "$.a"},
		{"..a", "$.a"},
		{"$..", "$"},
		{"nonexistent.path", "$.nonexistent.path"},
		{"$.b[0", "$.b[0"},
		{`$["a..b"]..c`, `$["a..b"].c`},
		{`$["q\"..x"]`, `$["q\"..x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"a..b.", "$[0].x", " items[1].name ", "$"} {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestMember(t *testing.T) {
	tests := []struct {
		parent, key, want string
	}{
		{Root, "user", "$.user"},
		{"", "user", "$.user"},
		{"$.user", "name", "$.user.name"},
		{Root, "a.b", `$["a.b"]`},
		{Root, "", `$[""]`},
		{Root, " pad", `$[" pad"]`},
		{Root, "x[0]", `$["x[0]"]`},
		{Root, "héllo", "$.héllo"},
	}
	for _, tt := range tests {
		if got := Member(tt.parent, tt.key); got != tt.want {
			t.Errorf("Member(%q, %q) = %q, want %q", tt.parent, tt.key, got, tt.want)
		}
	}
}

func TestElement(t *testing.T) {
	if got := Element("$.b", 1); got != "$.b[1]" {
		t.Errorf("Element() = %q, want $.b[1]", got)
	}
	if got := Element("", 0); got != "$[0]" {
		t.Errorf("Element() = %q, want $[0]", got)
	}
}

func ExampleNormalize() {
	fmt.Println(Normalize("user.name"))
	fmt.Println(Normalize("$.items..price."))
	fmt.Println(Normalize("[0]"))
	// Output:
	// $.user.name
	// $.items.price
	// $[0]
}
