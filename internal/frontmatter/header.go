package frontmatter

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Value is a header value: either a scalar string or an ordered list of strings.
type Value struct {
	scalar string
	items  []string
	list   bool
}

// Scalar creates a scalar value.
func Scalar(s string) Value {
	return Value{scalar: s}
}

// List creates a list value. A list with no items is still a list.
func List(items ...string) Value {
	out := make([]string, len(items))
	copy(out, items)
	return Value{items: out, list: true}
}

// IsList reports whether the value was declared as a list.
func (v Value) IsList() bool {
	return v.list
}

// String returns the scalar, or the list items joined with ", ".
func (v Value) String() string {
	if v.list {
		return strings.Join(v.items, ", ")
	}
	return v.scalar
}

// List returns the value with list semantics. A scalar is wrapped as a
// single-element list; the returned slice is a copy.
func (v Value) List() []string {
	if !v.list {
		return []string{v.scalar}
	}
	out := make([]string, len(v.items))
	copy(out, v.items)
	return out
}

// MarshalJSON renders scalars as strings and lists as arrays.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.list {
		return json.Marshal(v.List())
	}
	return json.Marshal(v.scalar)
}

// MarshalYAML renders scalars as strings and lists as sequences.
func (v Value) MarshalYAML() (interface{}, error) {
	if v.list {
		return v.List(), nil
	}
	return v.scalar, nil
}

// Header is an ordered mapping from key to Value. Keys are case-sensitive and
// keep the position of their first occurrence.
type Header struct {
	keys   []string
	values map[string]Value
}

// NewHeader creates an empty header.
func NewHeader() *Header {
	return &Header{values: make(map[string]Value)}
}

// Set stores a value under key, replacing any earlier value in place.
func (h *Header) Set(key string, v Value) {
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = v
}

// Get returns the value stored under key.
func (h *Header) Get(key string) (Value, bool) {
	if h == nil {
		return Value{}, false
	}
	v, ok := h.values[key]
	return v, ok
}

// Has reports whether key is present.
func (h *Header) Has(key string) bool {
	_, ok := h.Get(key)
	return ok
}

// Keys returns the keys in declaration order.
func (h *Header) Keys() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Len returns the number of keys.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.keys)
}

// MarshalJSON writes the header as a JSON object in declaration order.
func (h *Header) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range h.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(h.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML writes the header as a YAML mapping in declaration order.
func (h *Header) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if h == nil {
		return node, nil
	}

	for _, k := range h.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		v := h.values[k]
		if v.list {
			if err := valNode.Encode(v.List()); err != nil {
				return nil, err
			}
		} else {
			valNode.Kind = yaml.ScalarNode
			valNode.Tag = "!!str"
			valNode.Value = v.scalar
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}
