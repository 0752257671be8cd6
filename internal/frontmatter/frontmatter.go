// Package frontmatter reads and edits the YAML frontmatter block of a Markdown
// file while leaving the body byte-for-byte intact.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/foldernote/internal/apperr"
)

const delim = "---"

var bom = []byte("\ufeff")

// Document is a Markdown file split into its frontmatter header and body.
type Document struct {
	Header *Header

	body     []byte
	hasBlock bool
	bom      bool
}

// Parse splits data into a header and body. Files without a frontmatter block
// (or with an unterminated one) get an empty header and the whole content as
// body. A terminated block that is not a YAML mapping is an error. A leading
// UTF-8 byte order mark is kept aside and written back by Bytes.
func Parse(data []byte) (*Document, error) {
	rest, hasBOM := bytes.CutPrefix(data, bom)
	block, body, found := splitFrontmatter(rest)
	if !found {
		return &Document{Header: NewHeader(), body: rest, bom: hasBOM}, nil
	}

	node, err := parseMapping(block)
	if err != nil {
		return nil, err
	}
	return &Document{Header: &Header{node: node}, body: body, hasBlock: true, bom: hasBOM}, nil
}

// Bytes renders the document: the header as a frontmatter block followed by
// the untouched body. An empty header on a file that never had a block
// renders the body alone.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if d.bom {
		buf.Write(bom)
	}
	if d.Header.Len() == 0 && !d.hasBlock {
		buf.Write(d.body)
		return buf.Bytes(), nil
	}

	buf.WriteString(delim + "\n")
	if d.Header.Len() > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.Header.node); err != nil {
			return nil, fmt.Errorf("frontmatter: encode: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("frontmatter: encode: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	buf.Write(d.body)
	return buf.Bytes(), nil
}

// splitFrontmatter separates the YAML block between a leading "---" line and
// the next "---" line from the body that follows it.
func splitFrontmatter(data []byte) (block, body []byte, found bool) {
	open, rest, ok := bytes.Cut(data, []byte("\n"))
	if !ok || string(bytes.TrimRight(open, "\r")) != delim {
		return nil, data, false
	}

	pos := 0
	for {
		line := rest[pos:]
		next := len(rest)
		end := bytes.IndexByte(line, '\n')
		if end >= 0 {
			line = line[:end]
			next = pos + end + 1
		}
		if string(bytes.TrimRight(line, "\r")) == delim {
			return rest[:pos], rest[next:], true
		}
		if end < 0 {
			// No closing delimiter: treat everything as body.
			return nil, data, false
		}
		pos = next
	}
}

func parseMapping(block []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedFrontmatter, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return emptyMapping(), nil
	}
	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
		return root, nil
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return emptyMapping(), nil
	}
	return nil, fmt.Errorf("%w: top level is not a mapping", apperr.ErrMalformedFrontmatter)
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}
