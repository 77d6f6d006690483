// Package structure is the third pipeline stage: it turns the flat
// intermediate markup into the final publication tree. Section nesting is
// rebuilt from flat heading levels, list nesting from level-tagged items,
// bibliography entries are extracted and classified, in-text citations and
// figure/table references are resolved by fuzzy matching, and floats are
// relocated to their first point of citation.
package structure

import (
	"regexp"
	"strconv"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/config"
)

// Structurer processes one document. All sequence counters live on the
// instance so concurrent documents never share numbering state.
type Structurer struct {
	styles    *config.StyleMap
	anomalies []book.Anomaly

	secSeq int
	refSeq int
	figSeq int
	tblSeq int

	entries []*Entry
	floats  []*floatBlock
	figPat  *regexp.Regexp
}

// New returns a structurer using the given label and connector vocabulary.
func New(styles *config.StyleMap) *Structurer {
	if styles == nil {
		styles = config.DefaultStyleMap()
	}
	return &Structurer{styles: styles}
}

// Document runs the five responsibilities in their required order: floats
// are assembled and sections rebuilt first because list numbering and
// citation scanning work relative to the enclosing section, then lists,
// bibliography, citation resolution, and float placement.
func (s *Structurer) Document(doc *book.Element) (*book.Element, []book.Anomaly) {
	s.assembleFloats(doc)
	s.rebuildSections(doc)
	s.nestLists(doc)
	s.extractBibliography(doc)
	s.resolveCitations(doc)
	s.placeFloats(doc)
	return doc, s.anomalies
}

// Entries exposes the extracted bibliography, for reporting.
func (s *Structurer) Entries() []*Entry { return s.entries }

// rebuildSections reconstructs section nesting from the flat heading stream.
// A heading of level N closes every open section of level >= N before opening
// its own; all sections still open at end of document close implicitly.
func (s *Structurer) rebuildSections(doc *book.Element) {
	type openSec struct {
		el    *book.Element
		level int
	}
	root := book.New(doc.Tag)
	root.Attrs = doc.Attrs
	stack := []openSec{{el: root, level: 0}}

	for _, c := range doc.Children {
		if c.Tag != "title" {
			stack[len(stack)-1].el.Append(c)
			continue
		}
		level, err := strconv.Atoi(c.AttrOr("level", "1"))
		if err != nil || level < 1 {
			level = 1
		}
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		s.secSeq++
		sec := book.New("sec").
			SetAttr("id", "sec-"+strconv.Itoa(s.secSeq)).
			SetAttr("level", strconv.Itoa(level))
		title := book.New("title")
		title.Children = c.Children
		sec.Append(title)
		stack[len(stack)-1].el.Append(sec)
		stack = append(stack, openSec{el: sec, level: level})
	}

	doc.Children = root.Children
}

func (s *Structurer) anomaly(kind book.AnomalyKind, detail string) {
	s.anomalies = append(s.anomalies, book.Anomaly{Kind: kind, Detail: detail})
}

// buildParentMap is a transient lookup from child to parent; it is rebuilt
// whenever a pass needs to splice, never stored on the tree.
func buildParentMap(root *book.Element) map[*book.Element]*book.Element {
	parents := make(map[*book.Element]*book.Element)
	root.Walk(func(e *book.Element) bool {
		for _, c := range e.Children {
			parents[c] = e
		}
		return true
	})
	return parents
}

// insertAfter places el immediately after anchor among parent's children.
func insertAfter(parent, anchor, el *book.Element) {
	for i, c := range parent.Children {
		if c == anchor {
			children := make([]*book.Element, 0, len(parent.Children)+1)
			children = append(children, parent.Children[:i+1]...)
			children = append(children, el)
			children = append(children, parent.Children[i+1:]...)
			parent.Children = children
			return
		}
	}
	parent.Children = append(parent.Children, el)
}

// remove detaches el from parent.
func remove(parent, el *book.Element) {
	for i, c := range parent.Children {
		if c == el {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}
