// Package wml models a WordprocessingML markup tree: the word/document.xml
// part of a .docx container, parsed into a generic single-owner node tree that
// the conversion stages rewrite in place.
package wml

import (
	"encoding/xml"
	"strings"
)

// Namespace URIs that matter for conversion.
const (
	NS    = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NSRel = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Node is one element or text leaf in the raw markup tree. Children are owned
// exclusively by their parent; stages build transient lookup maps but never
// store back-references.
type Node struct {
	Name     xml.Name
	Attr     []xml.Attr
	Children []*Node
	Text     string
	IsText   bool
}

// Is reports whether the node is a WML element with the given local name.
func (n *Node) Is(local string) bool {
	if n == nil || n.IsText {
		return false
	}
	if n.Name.Local != local {
		return false
	}
	return n.Name.Space == "" || n.Name.Space == NS
}

// Attribute returns the value of the named attribute, matching the WML
// namespace or no namespace. The second return reports presence.
func (n *Node) Attribute(local string) (string, bool) {
	if n == nil || n.IsText {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && (a.Name.Space == "" || a.Name.Space == NS || a.Name.Space == NSRel) {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttribute sets or replaces an attribute with no namespace. Used by the
// normalizer to stamp synthetic positional metadata onto table cells.
func (n *Node) SetAttribute(local, value string) {
	for i, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: xml.Name{Local: local}, Value: value})
}

// Child returns the first element child with the given local name, or nil.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(local) {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns all element children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	var out []*Node
	if n == nil {
		return out
	}
	for _, c := range n.Children {
		if c.Is(local) {
			out = append(out, c)
		}
	}
	return out
}

// PlainText concatenates all w:t (and w:delText) descendants.
func (n *Node) PlainText() string {
	var b strings.Builder
	n.Walk(func(d *Node) bool {
		if d.Is("t") || d.Is("delText") {
			for _, c := range d.Children {
				if c.IsText {
					b.WriteString(c.Text)
				}
			}
		}
		return true
	})
	return b.String()
}

// Walk visits the node and its descendants depth-first. Returning false from
// visit prunes the subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Clone deep-copies the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Name: n.Name, Text: n.Text, IsText: n.IsText}
	if len(n.Attr) > 0 {
		out.Attr = append([]xml.Attr(nil), n.Attr...)
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

// Element builds a WML element node, for tests and synthetic markup.
func Element(local string, children ...*Node) *Node {
	return &Node{Name: xml.Name{Space: NS, Local: local}, Children: children}
}

// TextNode builds a text leaf.
func TextNode(s string) *Node {
	return &Node{IsText: true, Text: s}
}
