package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/treescope/pkg/tree"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// MarshalDocument converts a tree graph to JSON bytes.
func MarshalDocument(g *tree.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteDocumentFile writes a tree graph to a JSON file.
// The file is created with 0644 permissions.
func WriteDocumentFile(g *tree.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeDocumentTo(g, f)
}

// WriteDocument writes a tree graph as JSON to an io.Writer.
// Use MarshalDocument for in-memory serialization or WriteDocumentFile for files.
func WriteDocument(g *tree.Graph, w io.Writer) error {
	return writeDocumentTo(g, w)
}

// ReadDocumentFile reads a JSON file and returns the decoded tree graph.
// Returns validation errors for documents that break the tree invariants.
func ReadDocumentFile(path string) (*tree.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readDocumentFrom(f)
}

// ReadDocument decodes a JSON document from an io.Reader into a tree graph.
func ReadDocument(r io.Reader) (*tree.Graph, error) {
	return readDocumentFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeDocumentTo(g *tree.Graph, w io.Writer) error {
	out := FromTree(g)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readDocumentFrom(r io.Reader) (*tree.Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToTree(doc)
}
