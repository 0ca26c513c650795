package value

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matzehuels/treescope/pkg/errors"
)

// DefaultMaxDepth bounds the nesting depth accepted by the parsers.
const DefaultMaxDepth = 512

// Format names a supported document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// Formats lists the supported input formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML}

// ParseFormat resolves a format name, accepting "yml" as an alias.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format: %s (use json, yaml or toml)", name)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// ParseError reports malformed input. Its message is the underlying parser
// message, unchanged, so it can be shown to the user verbatim.
type ParseError struct {
	Format Format
	Err    error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// Without WithMaxNodes a document may produce at most nodesPerByte values
// per input byte, plus minNodeBudget. Plain documents need at least two bytes
// per value, so only alias expansion can reach the cap.
const (
	minNodeBudget = 10_000
	nodesPerByte  = 4
)

type parseConfig struct {
	maxDepth int
	maxNodes int
	nodes    *int
}

// Option configures parsing.
type Option func(*parseConfig)

// WithMaxDepth sets the deepest nesting accepted. Values below 1 disable the limit.
func WithMaxDepth(n int) Option {
	return func(c *parseConfig) { c.maxDepth = n }
}

// WithMaxNodes caps the number of values a document may produce, counting
// every copy a YAML alias expands to. Zero derives the cap from the input
// size; a negative value disables it.
func WithMaxNodes(n int) Option {
	return func(c *parseConfig) { c.maxNodes = n }
}

func newParseConfig(opts []Option) parseConfig {
	cfg := parseConfig{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func (c parseConfig) checkDepth(depth int) error {
	if c.maxDepth > 0 && depth > c.maxDepth {
		return tooDeep(c.maxDepth)
	}
	return nil
}

// limitNodes starts counting values against the budget for an input of size bytes.
func (c *parseConfig) limitNodes(size int) {
	if c.maxNodes == 0 {
		c.maxNodes = minNodeBudget + nodesPerByte*size
	}
	c.nodes = new(int)
}

func (c parseConfig) countNode() error {
	if c.nodes == nil || c.maxNodes < 0 {
		return nil
	}
	*c.nodes++
	if *c.nodes > c.maxNodes {
		return errors.New(errors.ErrCodeTooLarge, "document expands to more than %d values", c.maxNodes)
	}
	return nil
}

func tooDeep(max int) error {
	return errors.New(errors.ErrCodeTooDeep, "document nesting exceeds maximum depth %d", max)
}

// Parse decodes data in the given format.
func Parse(format Format, data []byte, opts ...Option) (Value, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(data, opts...)
	case FormatYAML:
		return ParseYAML(data, opts...)
	case FormatTOML:
		return ParseTOML(data, opts...)
	}
	return Value{}, fmt.Errorf("parse: %w", errors.New(errors.ErrCodeInvalidFormat, "unknown format: %s", format))
}
