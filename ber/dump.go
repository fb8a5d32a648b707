package ber

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Node is a decoded element tree suitable for rendering.
type Node struct {
	Tag      string  `json:"tag" yaml:"tag"`
	Length   int     `json:"length" yaml:"length"`
	Value    string  `json:"value,omitempty" yaml:"value,omitempty"`
	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// Tree decodes e recursively. Constructed elements whose content does not
// parse as children are shown as raw hex rather than failing.
func Tree(e Element) *Node {
	node := &Node{Tag: fmt.Sprintf("0x%02x", e.tag), Length: len(e.content)}
	if e.IsConstructed() {
		children, err := e.Children().All()
		if err == nil {
			for _, child := range children {
				node.Children = append(node.Children, Tree(child))
			}
			return node
		}
	}
	node.Value = describe(e)
	return node
}

// Dump renders e as an indented tree, one element per line.
func Dump(e Element) string {
	var b strings.Builder
	dumpNode(&b, Tree(e), 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n *Node, depth int) {
	fmt.Fprintf(b, "%s[%s] len=%d", strings.Repeat("  ", depth), n.Tag, n.Length)
	if n.Value != "" {
		fmt.Fprintf(b, " %s", n.Value)
	}
	b.WriteByte('\n')
	for _, child := range n.Children {
		dumpNode(b, child, depth+1)
	}
}

func describe(e Element) string {
	switch e.tag {
	case TagBoolean:
		if v, err := e.Bool(); err == nil {
			return fmt.Sprintf("BOOLEAN %t", v)
		}
	case TagInteger, TagEnumerated:
		if v, err := e.Int64(); err == nil {
			return fmt.Sprintf("INTEGER %d", v)
		}
	case TagNull:
		if len(e.content) == 0 {
			return "NULL"
		}
	}
	if len(e.content) == 0 {
		return ""
	}
	if utf8.Valid(e.content) && printable(e.content) {
		return fmt.Sprintf("%q", e.content)
	}
	return fmt.Sprintf("% x", e.content)
}

func printable(b []byte) bool {
	for _, r := range string(b) {
		if r < 0x20 || r == 0x7F {
			return false
		}
	}
	return true
}
