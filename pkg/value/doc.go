// Package value holds the structured values that treescope lays out.
//
// A [Value] is an immutable tagged union: null, bool, number, string, object
// or array. Objects keep their members in document order because the layout
// places siblings left to right in that order.
//
// # Parsing
//
// Three input syntaxes are supported, each keeping key order:
//
//   - [ParseJSON] walks the encoding/json token stream
//   - [ParseYAML] converts the gopkg.in/yaml.v3 node tree
//   - [ParseTOML] reorders BurntSushi/toml tables by their metadata keys
//
// Malformed input returns a [*ParseError] whose message is the parser's own,
// suitable for showing verbatim. Input nested deeper than [WithMaxDepth]
// (default [DefaultMaxDepth]) fails with code STRUCTURE_TOO_DEEP.
//
//	v, err := value.Parse(value.FormatYAML, data)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(v.Kind(), v.Len())
package value
