// Package book holds the semantic document tree the conversion stages build:
// the intermediate markup emitted by the structural transformer and the final
// publication tree emitted by the semantic structurer, plus its XML
// serialization.
package book

import "strings"

// Attr is one ordered attribute on an element. Order is preserved so output
// is byte-stable across runs.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of the semantic tree. A text leaf has an empty Tag and
// its content in Text. The tree is single-owner: children belong to exactly
// one parent.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// New builds an element with the given tag.
func New(tag string, children ...*Element) *Element {
	return &Element{Tag: tag, Children: children}
}

// NewText builds a text leaf.
func NewText(s string) *Element {
	return &Element{Text: s}
}

// IsText reports whether the element is a text leaf.
func (e *Element) IsText() bool {
	return e != nil && e.Tag == ""
}

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	if e == nil {
		return "", false
	}
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or a fallback.
func (e *Element) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// SetAttr sets or replaces an attribute, preserving first-set order.
func (e *Element) SetAttr(name, value string) *Element {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// RemoveAttr drops an attribute if present.
func (e *Element) RemoveAttr(name string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// Append adds children and returns the element for chaining.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// AppendText adds a text leaf unless s is empty.
func (e *Element) AppendText(s string) *Element {
	if s != "" {
		e.Children = append(e.Children, NewText(s))
	}
	return e
}

// PlainText concatenates all descendant text leaves.
func (e *Element) PlainText() string {
	var b strings.Builder
	e.walkText(&b)
	return b.String()
}

func (e *Element) walkText(b *strings.Builder) {
	if e == nil {
		return
	}
	if e.IsText() {
		b.WriteString(e.Text)
		return
	}
	for _, c := range e.Children {
		c.walkText(b)
	}
}

// Walk visits the element and its descendants depth-first. Returning false
// prunes the subtree.
func (e *Element) Walk(visit func(*Element) bool) {
	if e == nil {
		return
	}
	if !visit(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(visit)
	}
}

// Clone deep-copies the element.
func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	out := &Element{Tag: e.Tag, Text: e.Text}
	if len(e.Attrs) > 0 {
		out.Attrs = append([]Attr(nil), e.Attrs...)
	}
	for _, c := range e.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

// Find returns the first descendant (including e) with the given tag, or nil.
func (e *Element) Find(tag string) *Element {
	var match *Element
	e.Walk(func(d *Element) bool {
		if match != nil {
			return false
		}
		if d.Tag == tag {
			match = d
			return false
		}
		return true
	})
	return match
}

// FindAll returns all descendants (including e) with the given tag.
func (e *Element) FindAll(tag string) []*Element {
	var out []*Element
	e.Walk(func(d *Element) bool {
		if d.Tag == tag {
			out = append(out, d)
		}
		return true
	})
	return out
}
