package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "png", []string{"png"}},
		{"multiple formats", "svg,png,dot", []string{"svg", "png", "dot"}},
		{"spaces and case", " SVG, png ,", []string{"svg", "png"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestExportFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats string
		output  string
		want    []string
	}{
		{"default png", "", "", []string{"png"}},
		{"from extension", "", "out/tree.svg", []string{"svg"}},
		{"dot extension", "", "tree.dot", []string{"dot"}},
		{"unknown extension", "", "tree.bmp", []string{"png"}},
		{"explicit wins", "dot", "tree.svg", []string{"dot"}},
		{"explicit list", "svg,json", "", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportFormats(tt.formats, tt.output); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("exportFormats(%q, %q) = %v, want %v", tt.formats, tt.output, got, tt.want)
			}
		})
	}
}

func TestExportPaths(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 123e6, time.UTC)

	tests := []struct {
		name    string
		output  string
		source  string
		formats []string
		want    map[string]string
	}{
		{
			name:    "default png name",
			formats: []string{"png"},
			want:    map[string]string{"png": "json-tree-2024-03-09T14-05-07-123Z.png"},
		},
		{
			name:    "default svg name",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "json-tree-2024-03-09T14-05-07-123Z.svg"},
		},
		{
			name:    "single explicit",
			output:  "out/tree.svg",
			formats: []string{"svg"},
			want:    map[string]string{"svg": "out/tree.svg"},
		},
		{
			name:    "multiple from base",
			output:  "out/tree.svg",
			formats: []string{"svg", "png"},
			want:    map[string]string{"svg": "out/tree.svg", "png": "out/tree.png"},
		},
		{
			name:    "multiple from input",
			source:  "data/config.yaml",
			formats: []string{"dot", "json"},
			want:    map[string]string{"dot": "data/config.dot", "json": "data/config.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := exportPaths(tt.output, tt.source, tt.formats, now)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("exportPaths() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, source, want string
	}{
		{"", "config.yaml", "config"},
		{"", "dir/data.json", "dir/data"},
		{"", "sample", appName},
		{"", "-", appName},
		{"", "", appName},
		{"out.svg", "config.yaml", "out"},
		{"out.tree", "config.yaml", "out.tree"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.source); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.source, got, tt.want)
		}
	}
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "doc.yml")
	if err := os.WriteFile(yamlPath, []byte("a: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	odd := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(odd, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatal(err)
	}

	in, err := readInput(yamlPath, "", false)
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if in.format != "yaml" || in.source != yamlPath || string(in.data) != "a: 1\n" {
		t.Errorf("readInput() = %+v", in)
	}

	in, err = readInput(odd, "", false)
	if err != nil {
		t.Fatalf("readInput() error = %v", err)
	}
	if in.format != "" {
		t.Errorf("readInput() format = %q, want empty for unknown extension", in.format)
	}

	in, err = readInput(odd, "toml", false)
	if err != nil || in.format != "toml" {
		t.Errorf("readInput() with override = %q, %v", in.format, err)
	}

	in, err = readInput("", "", true)
	if err != nil || in.source != "sample" || in.format != "json" {
		t.Errorf("readInput(sample) = %+v, %v", in, err)
	}

	if _, err := readInput("", "", false); err == nil {
		t.Error("readInput() with no input should fail")
	}
	if _, err := readInput(filepath.Join(dir, "missing.json"), "", false); err == nil {
		t.Error("readInput() of a missing file should fail")
	}
}

func TestWriteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.dot")
	if err := writeArtifact(path, []byte("digraph {}")); err != nil {
		t.Fatalf("writeArtifact() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "digraph {}" {
		t.Errorf("file = %q, %v", data, err)
	}
}
