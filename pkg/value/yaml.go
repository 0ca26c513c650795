package value

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes the first YAML document in data. Mapping order is taken
// from the node tree, anchors and merge keys are resolved, and an empty
// document yields null. Every alias expands to a full copy of its anchor,
// counted against the WithMaxNodes budget.
func ParseYAML(data []byte, opts ...Option) (Value, error) {
	cfg := newParseConfig(opts)
	cfg.limitNodes(len(data))

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Value{}, &ParseError{Format: FormatYAML, Err: err}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Null(), nil
	}
	return fromYAML(doc.Content[0], 0, cfg)
}

func fromYAML(n *yaml.Node, depth int, cfg parseConfig) (Value, error) {
	if err := cfg.checkDepth(depth); err != nil {
		return Value{}, err
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0], depth, cfg)

	case yaml.AliasNode:
		return fromYAML(n.Alias, depth, cfg)
	}
	if err := cfg.countNode(); err != nil {
		return Value{}, err
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return yamlScalar(n)

	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromYAML(c, depth+1, cfg)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, items: items}, nil

	case yaml.MappingNode:
		var merged, explicit []Member
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				m, err := yamlMerge(val, depth, cfg)
				if err != nil {
					return Value{}, err
				}
				merged = append(merged, m...)
				continue
			}
			key := k
			if key.Kind == yaml.AliasNode {
				key = key.Alias
			}
			v, err := fromYAML(val, depth+1, cfg)
			if err != nil {
				return Value{}, err
			}
			explicit = append(explicit, Member{Key: key.Value, Value: v})
		}
		return Object(append(merged, explicit...)...), nil
	}

	return Value{}, &ParseError{Format: FormatYAML, Err: fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)}
}

// yamlMerge expands a "<<" value, which is either a mapping or a sequence of mappings.
func yamlMerge(n *yaml.Node, depth int, cfg parseConfig) ([]Member, error) {
	v, err := fromYAML(n, depth, cfg)
	if err != nil {
		return nil, err
	}
	switch v.kind {
	case KindObject:
		return v.members, nil
	case KindArray:
		var out []Member
		for _, it := range v.items {
			if it.kind != KindObject {
				return nil, &ParseError{Format: FormatYAML, Err: fmt.Errorf("line %d: map merge requires map or sequence of maps", n.Line)}
			}
			out = append(out, it.members...)
		}
		return out, nil
	}
	return nil, &ParseError{Format: FormatYAML, Err: fmt.Errorf("line %d: map merge requires map or sequence of maps", n.Line)}
}

func yamlScalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, &ParseError{Format: FormatYAML, Err: err}
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, &ParseError{Format: FormatYAML, Err: err}
		}
		return Number(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			if p, perr := strconv.ParseFloat(n.Value, 64); perr == nil {
				return Number(p), nil
			}
			return Value{}, &ParseError{Format: FormatYAML, Err: err}
		}
		return Number(f), nil
	}
	return String(n.Value), nil
}
