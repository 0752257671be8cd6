package frontmatter

import (
	"gopkg.in/yaml.v3"
)

// Header is an ordered, comment-preserving view of a frontmatter mapping.
type Header struct {
	node *yaml.Node
}

// NewHeader returns an empty header.
func NewHeader() *Header {
	return &Header{node: emptyMapping()}
}

// Len returns the number of keys.
func (h *Header) Len() int {
	return len(h.node.Content) / 2
}

// String returns the value under key when it is a scalar string.
func (h *Header) String(key string) (string, bool) {
	v := h.value(key)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return "", false
	}
	return v.Value, true
}

// Set stores a string value under key, replacing any existing value in place
// or appending the key at the end. Values are written double-quoted so that
// wikilinks survive as strings.
func (h *Header) Set(key, value string) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Value: value,
		Style: yaml.DoubleQuotedStyle,
	}
	for i := 0; i+1 < len(h.node.Content); i += 2 {
		if h.node.Content[i].Value == key {
			old := h.node.Content[i+1]
			node.LineComment = old.LineComment
			h.node.Content[i+1] = node
			return
		}
	}
	h.node.Content = append(h.node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		node,
	)
}

func (h *Header) value(key string) *yaml.Node {
	for i := 0; i+1 < len(h.node.Content); i += 2 {
		if h.node.Content[i].Value == key {
			return h.node.Content[i+1]
		}
	}
	return nil
}
