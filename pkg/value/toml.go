package value

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ParseTOML decodes a TOML document. Table keys keep their definition order,
// recovered from the decoder metadata.
func ParseTOML(data []byte, opts ...Option) (Value, error) {
	cfg := newParseConfig(opts)

	var raw map[string]any
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return Value{}, &ParseError{Format: FormatTOML, Err: err}
	}

	t := tomlConverter{cfg: cfg, order: make(map[string]map[string]int)}
	for _, k := range md.Keys() {
		if len(k) == 0 {
			continue
		}
		parent := strings.Join(k[:len(k)-1], "\x00")
		children := t.order[parent]
		if children == nil {
			children = make(map[string]int)
			t.order[parent] = children
		}
		if _, ok := children[k[len(k)-1]]; !ok {
			children[k[len(k)-1]] = len(children)
		}
	}
	return t.table(raw, nil, 0)
}

type tomlConverter struct {
	cfg   parseConfig
	order map[string]map[string]int
}

func (t *tomlConverter) table(m map[string]any, path []string, depth int) (Value, error) {
	if err := t.cfg.checkDepth(depth); err != nil {
		return Value{}, err
	}

	rank := t.order[strings.Join(path, "\x00")]
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := rank[keys[i]]
		rj, jok := rank[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return keys[i] < keys[j]
	})

	members := make([]Member, 0, len(keys))
	for _, k := range keys {
		child := append(append([]string(nil), path...), k)
		v, err := t.convert(m[k], child, depth+1)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: k, Value: v})
	}
	return Value{kind: KindObject, members: members}, nil
}

func (t *tomlConverter) convert(raw any, path []string, depth int) (Value, error) {
	if err := t.cfg.checkDepth(depth); err != nil {
		return Value{}, err
	}

	switch x := raw.(type) {
	case map[string]any:
		return t.table(x, path, depth)
	case []map[string]any:
		items := make([]Value, 0, len(x))
		for _, m := range x {
			v, err := t.table(m, path, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, items: items}, nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, it := range x {
			v, err := t.convert(it, path, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindArray, items: items}, nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	case int64:
		return Int(x), nil
	case float64:
		return Number(x), nil
	case time.Time:
		return String(formatTime(x)), nil
	case nil:
		return Null(), nil
	}
	return Value{}, &ParseError{Format: FormatTOML, Err: fmt.Errorf("unsupported value %T at %s", raw, strings.Join(path, "."))}
}

// Zone names the decoder gives local date-times, which carry no offset.
const (
	tomlLocalDatetime = "datetime-local"
	tomlLocalDate     = "date-local"
	tomlLocalTime     = "time-local"
)

// formatTime renders date-times with the precision they were written in.
func formatTime(tm time.Time) string {
	switch tm.Location().String() {
	case tomlLocalDate:
		return tm.Format("2006-01-02")
	case tomlLocalTime:
		return tm.Format("15:04:05.999999999")
	case tomlLocalDatetime:
		return tm.Format("2006-01-02T15:04:05.999999999")
	}
	return tm.Format(time.RFC3339Nano)
}
