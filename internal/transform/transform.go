// Package transform is the second pipeline stage: it maps the normalized
// markup tree into intermediate semantic markup. Paragraphs become block
// elements chosen by a data-driven style dispatch table, runs become nested
// inline tags resolved by a fixed precedence order, and tables are rewritten
// with every cell carrying resolved row and column spans.
package transform

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/config"
	"github.com/dgallion1/wordpub/internal/wml"
)

// Transformer converts one normalized document. It is single-use and
// single-document: all counters live on the instance, never in package state,
// so concurrent documents cannot corrupt each other.
type Transformer struct {
	styles    *config.StyleMap
	anomalies []book.Anomaly
	tableSeq  int
}

// New returns a transformer using the given dispatch tables.
func New(styles *config.StyleMap) *Transformer {
	if styles == nil {
		styles = config.DefaultStyleMap()
	}
	return &Transformer{styles: styles}
}

// Document maps a normalized w:document tree to the intermediate markup tree
// rooted at <doc>. Anomalies are collected, never fatal.
func (t *Transformer) Document(doc *wml.Node) (*book.Element, []book.Anomaly) {
	out := book.New("doc")
	body := wml.Body(doc)
	if body == nil {
		t.anomaly("document has no body element")
		return out, t.anomalies
	}
	t.blocks(body, out)
	return out, t.anomalies
}

// blocks maps the block-level children of a container (body or table cell).
func (t *Transformer) blocks(container *wml.Node, out *book.Element) {
	for _, c := range container.Children {
		switch {
		case c.Is("p"):
			if el := t.paragraph(c); el != nil {
				out.Append(el)
			}
		case c.Is("tbl"):
			out.Append(t.table(c))
		case c.Is("sectPr"):
			// Section properties carry page geometry only.
		case c.Is("tcPr"):
			// Cell properties are consumed by the table reconstructor.
		case c.Is("bookmarkStart"), c.Is("bookmarkEnd"):
			// Block-level bookmarks carry no content.
		case c.IsText:
			// Inter-element whitespace.
		default:
			// Structural anomaly: unexpected element where a block was
			// expected. Pass its text content through unmodified.
			t.anomaly(fmt.Sprintf("unexpected block element %s", c.Name.Local))
			unknown := book.New("unknown").SetAttr("element", c.Name.Local)
			unknown.AppendText(c.PlainText())
			out.Append(unknown)
		}
	}
}

// paragraph maps one w:p by the priority-ordered rule set: explicit style
// class first, then list-level attribute, then the empty table-marker pass
// through, then the plain-paragraph default.
func (t *Transformer) paragraph(p *wml.Node) *book.Element {
	styleID := paragraphStyle(p)
	rule, mapped := t.styles.Rule(styleID)
	level, flagged := listLevel(p)

	var el *book.Element
	switch {
	case mapped && rule.Tag == "item":
		el = book.New("item").
			SetAttr("type", listTypeOr(rule.List)).
			SetAttr("level", strconv.Itoa(listLevelOr(rule.ListLvl, level)))
	case mapped && rule.Tag == "title":
		el = book.New("title").SetAttr("level", strconv.Itoa(clampLevel(rule.Level)))
	case mapped:
		el = book.New(rule.Tag)
	case flagged:
		el = book.New("item").
			SetAttr("type", "plain").
			SetAttr("level", strconv.Itoa(clampLevel(level)))
	default:
		el = book.New("p")
	}

	t.inlineContent(p, el)

	// Empty paragraphs vanish unless they are table-marker placeholders,
	// which pass through by contract.
	if len(el.Children) == 0 && el.Tag != "table-head" {
		return nil
	}
	return el
}

// inlineContent maps the inline children of a paragraph (or hyperlink) into
// el, threading the complex-field state machine across runs.
func (t *Transformer) inlineContent(p *wml.Node, el *book.Element) {
	fs := &fieldState{}
	for _, c := range p.Children {
		switch {
		case c.Is("pPr"):
			// Paragraph properties were consumed by the dispatch.
		case c.Is("r"):
			t.run(c, el, fs)
		case c.Is("hyperlink"):
			el.Append(t.hyperlink(c))
		case c.Is("commentRangeStart"):
			if id, ok := c.Attribute("id"); ok {
				el.Append(book.New("comment-start").SetAttr("id", "c"+id))
			}
		case c.Is("commentRangeEnd"):
			if id, ok := c.Attribute("id"); ok {
				el.Append(book.New("comment-end").SetAttr("id", "c"+id))
			}
		case c.Is("bookmarkStart"):
			if name, ok := c.Attribute("name"); ok && name != "_GoBack" {
				el.Append(book.New("target").SetAttr("id", name))
			}
		case c.Is("bookmarkEnd"):
			// Only the start carries the name.
		case c.Is("fldSimple"):
			t.simpleField(c, el)
		case c.IsText:
			// Whitespace between inline elements.
		default:
			t.anomaly(fmt.Sprintf("unexpected inline element %s", c.Name.Local))
			el.AppendText(c.PlainText())
		}
	}
	fs.flush(el)
}

// hyperlink maps w:hyperlink: an internal bookmark target becomes a generic
// cross-reference, anything else a plain external link.
func (t *Transformer) hyperlink(h *wml.Node) *book.Element {
	var el *book.Element
	if anchor, ok := h.Attribute("anchor"); ok && anchor != "" {
		el = book.New("xref").SetAttr("rid", anchor)
	} else {
		el = book.New("ext-link")
		if rid, ok := h.Attribute("id"); ok {
			el.SetAttr("rid", rid)
		}
	}
	t.inlineContent(h, el)
	return el
}

func (t *Transformer) anomaly(detail string) {
	t.anomalies = append(t.anomalies, book.Anomaly{Kind: book.AnomalyStructural, Detail: detail})
}

// paragraphStyle returns the paragraph's style id, or "".
func paragraphStyle(p *wml.Node) string {
	pr := p.Child("pPr")
	if pr == nil {
		return ""
	}
	st := pr.Child("pStyle")
	if st == nil {
		return ""
	}
	v, _ := st.Attribute("val")
	return v
}

// listLevel reads the numbering level attribute carried directly on the
// paragraph. WML levels are zero-based; ours are 1-6.
func listLevel(p *wml.Node) (int, bool) {
	pr := p.Child("pPr")
	if pr == nil {
		return 0, false
	}
	numPr := pr.Child("numPr")
	if numPr == nil {
		return 0, false
	}
	lvl := 1
	if ilvl := numPr.Child("ilvl"); ilvl != nil {
		if v, ok := ilvl.Attribute("val"); ok {
			if n, err := strconv.Atoi(v); err == nil {
				lvl = n + 1
			}
		}
	}
	return clampLevel(lvl), true
}

func clampLevel(n int) int {
	if n < 1 {
		return 1
	}
	if n > 6 {
		return 6
	}
	return n
}

func listTypeOr(s string) string {
	if s == "" {
		return "plain"
	}
	return s
}

func listLevelOr(ruleLevel, paraLevel int) int {
	if ruleLevel > 0 {
		return clampLevel(ruleLevel)
	}
	if paraLevel > 0 {
		return clampLevel(paraLevel)
	}
	return 1
}

// alignFromJc maps a paragraph justification value to an output alignment.
func alignFromJc(p *wml.Node) string {
	pr := p.Child("pPr")
	if pr == nil {
		return ""
	}
	jc := pr.Child("jc")
	if jc == nil {
		return ""
	}
	switch v, _ := jc.Attribute("val"); v {
	case "center":
		return "center"
	case "right", "end":
		return "right"
	case "left", "start":
		return "left"
	}
	return ""
}
