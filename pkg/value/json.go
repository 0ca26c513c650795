package value

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
)

// ParseJSON decodes a single JSON document, keeping object member order.
// The token stream is consumed with an explicit stack, so nesting depth is
// bounded only by WithMaxDepth.
func ParseJSON(data []byte, opts ...Option) (Value, error) {
	cfg := newParseConfig(opts)

	type frame struct {
		object    bool
		expectKey bool
		key       string
		members   []Member
		items     []Value
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		stack []*frame
		root  Value
		done  bool
	)

	// emit attaches a finished value to the enclosing container or makes it the root.
	emit := func(v Value) {
		if len(stack) == 0 {
			root, done = v, true
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.members = append(top.members, Member{Key: top.key, Value: v})
			top.expectKey = true
		} else {
			top.items = append(top.items, v)
		}
	}

	for !done {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, jsonError(err)
		}

		if len(stack) > 0 {
			if top := stack[len(stack)-1]; top.object && top.expectKey {
				if key, ok := tok.(string); ok {
					top.key = key
					top.expectKey = false
					continue
				}
			}
		}

		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{', '[':
				if err := cfg.checkDepth(len(stack)); err != nil {
					return Value{}, err
				}
				stack = append(stack, &frame{object: t == '{', expectKey: t == '{'})
			case '}', ']':
				f := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if f.object {
					emit(Object(f.members...))
				} else {
					emit(Value{kind: KindArray, items: f.items})
				}
			}
			continue
		}

		if err := cfg.checkDepth(len(stack)); err != nil {
			return Value{}, err
		}
		switch t := tok.(type) {
		case nil:
			emit(Null())
		case bool:
			emit(Bool(t))
		case string:
			emit(String(t))
		case json.Number:
			f, err := strconv.ParseFloat(string(t), 64)
			if err != nil {
				return Value{}, &ParseError{Format: FormatJSON, Err: fmt.Errorf("invalid number %s", t)}
			}
			emit(Number(f))
		}
	}

	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = stderrors.New("invalid character after top-level value")
		}
		return Value{}, jsonError(err)
	}
	return root, nil
}

func jsonError(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err == io.ErrUnexpectedEOF {
		err = stderrors.New("unexpected end of JSON input")
	}
	return &ParseError{Format: FormatJSON, Err: err}
}
