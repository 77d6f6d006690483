package structure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/wordpub/internal/book"
)

// floatBlock tracks one figure or table float through the placement state
// machine: pending, then placed-inline or appended. A float is placed at
// most once.
type floatBlock struct {
	el *book.Element
	id string
}

var numToken = regexp.MustCompile(`\d+[a-z]?`)

// captionLabel parses the leading "Figure 3" / "Table 2" part of a caption.
var captionLabel = regexp.MustCompile(`^\s*(\p{L}+)\s+(\d+[a-z]?)`)

// assembleFloats groups each graphic or table with its adjacent caption into
// a float block carrying an id derived from the caption label. Uncaptioned
// graphics and tables stay inline: with no label they cannot be cited, so
// floating them would only displace content.
func (s *Structurer) assembleFloats(doc *book.Element) {
	var out []*book.Element
	i := 0
	for i < len(doc.Children) {
		c := doc.Children[i]
		var next *book.Element
		if i+1 < len(doc.Children) {
			next = doc.Children[i+1]
		}
		switch {
		case isGraphicBlock(c) && isCaption(next):
			out = append(out, s.newFloat("fig", c, next))
			i += 2
		case isCaption(c) && isGraphicBlock(next):
			out = append(out, s.newFloat("fig", next, c))
			i += 2
		case c.Tag == "table" && isCaption(next):
			out = append(out, s.newFloat("table", c, next))
			i += 2
		case isCaption(c) && next != nil && next.Tag == "table":
			out = append(out, s.newFloat("table", next, c))
			i += 2
		default:
			out = append(out, c)
			i++
		}
	}
	doc.Children = out
}

// newFloat wraps body and caption into a pending float block.
func (s *Structurer) newFloat(kind string, body, caption *book.Element) *book.Element {
	var tag, prefix string
	if kind == "table" {
		tag, prefix = "table-wrap", "tbl"
		s.tblSeq++
	} else {
		tag, prefix = "fig", "fig"
		s.figSeq++
	}

	label := strings.TrimSpace(caption.PlainText())
	id := ""
	if m := captionLabel.FindStringSubmatch(label); m != nil {
		id = prefix + "-" + strings.ToLower(m[2])
		label = strings.TrimSpace(m[0])
	} else {
		label = ""
	}
	if id == "" || s.floatByID(id) != nil {
		seq := s.figSeq
		if kind == "table" {
			seq = s.tblSeq
		}
		id = prefix + "-x" + strconv.Itoa(seq)
	}

	float := book.New(tag).
		SetAttr("id", id).
		SetAttr("placement", "pending")
	if label != "" {
		float.SetAttr("label", label)
	}
	if kind == "table" {
		float.Append(caption, body)
	} else {
		float.Append(body, caption)
	}
	s.floats = append(s.floats, &floatBlock{el: float, id: id})
	return float
}

func (s *Structurer) floatByID(id string) *floatBlock {
	for _, f := range s.floats {
		if f.id == id {
			return f
		}
	}
	return nil
}

// isGraphicBlock reports whether the paragraph holds only graphics and
// incidental whitespace.
func isGraphicBlock(e *book.Element) bool {
	if e == nil || e.Tag != "p" {
		return false
	}
	hasGraphic := false
	for _, c := range e.Children {
		switch {
		case c.Tag == "graphic":
			hasGraphic = true
		case c.IsText() && strings.TrimSpace(c.Text) == "":
		default:
			return false
		}
	}
	return hasGraphic
}

func isCaption(e *book.Element) bool {
	return e != nil && e.Tag == "caption"
}

// figurePattern matches figure/table references including compound forms
// ("Figures 3 and 5", "Tables 1–3"). Built per document from the label and
// connector vocabulary.
func (s *Structurer) figurePattern() *regexp.Regexp {
	if s.figPat != nil {
		return s.figPat
	}
	labels := []string{
		s.styles.Labels["figure"], s.styles.Labels["figures"],
		s.styles.Labels["table"], s.styles.Labels["tables"],
	}
	var alts []string
	for _, l := range labels {
		if l != "" {
			alts = append(alts, regexp.QuoteMeta(l))
		}
	}
	if len(alts) == 0 {
		alts = []string{"Figure", "Table"}
	}
	connectors := `,|and|&|–|—|-|to`
	for _, c := range s.styles.Connectors {
		connectors += "|" + regexp.QuoteMeta(c)
	}
	s.figPat = regexp.MustCompile(
		`(?i)\b(` + strings.Join(alts, "|") + `)\s+(\d+[a-z]?)((?:\s*(?:` + connectors + `)\s*\d+[a-z]?)*)`)
	return s.figPat
}

// labelKind maps a matched label token to the float id prefix and xref type.
func (s *Structurer) labelKind(token string) (prefix, refType string) {
	folded := keyFolder.String(token)
	if folded == keyFolder.String(s.styles.Labels["table"]) ||
		folded == keyFolder.String(s.styles.Labels["tables"]) {
		return "tbl", "table"
	}
	return "fig", "fig"
}

// splitFigureRefs rewrites figure/table references in a text leaf. Compound
// references are split on connector tokens and matched independently; parts
// with a bare number inherit the label stem of the part before them.
func (s *Structurer) splitFigureRefs(text string) []*book.Element {
	locs := s.figurePattern().FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return []*book.Element{book.NewText(text)}
	}
	var out []*book.Element
	last := 0
	for _, loc := range locs {
		if last < loc[0] {
			out = append(out, book.NewText(text[last:loc[0]]))
		}
		prefix, refType := s.labelKind(text[loc[2]:loc[3]])
		span := text[loc[0]:loc[1]]
		out = append(out, s.renderFloatRefs(span, prefix, refType)...)
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, book.NewText(text[last:]))
	}
	return out
}

// renderFloatRefs emits one xref per referenced number inside a matched
// span. The first xref carries the label stem text; later ones carry just
// their number, the connector text between them staying plain.
func (s *Structurer) renderFloatRefs(span, prefix, refType string) []*book.Element {
	nums := numToken.FindAllStringIndex(span, -1)
	if len(nums) == 0 {
		return []*book.Element{book.NewText(span)}
	}
	var out []*book.Element
	last := 0
	for i, n := range nums {
		start := n[0]
		if i == 0 {
			start = 0 // the label stem rides with the first number
		}
		if last < start {
			out = append(out, book.NewText(span[last:start]))
		}
		out = append(out, s.floatRef(prefix, refType, span[start:n[1]], span[n[0]:n[1]]))
		last = n[1]
	}
	if last < len(span) {
		out = append(out, book.NewText(span[last:]))
	}
	return out
}

// floatRef resolves one float reference or tags it unresolved.
func (s *Structurer) floatRef(prefix, refType, display, num string) *book.Element {
	id := prefix + "-" + strings.ToLower(num)
	if s.floatByID(id) == nil {
		s.anomaly(book.AnomalyUnresolvedRef, refType+" reference "+strings.TrimSpace(display)+": no-match")
		return book.New("unresolved-cite").
			SetAttr("ref-type", refType).
			SetAttr("reason", "no-match").
			AppendText(display)
	}
	return book.New("xref").
		SetAttr("ref-type", refType).
		SetAttr("rid", id).
		AppendText(display)
}

// placeFloats runs the placement state machine: each pending float moves to
// immediately follow the paragraph containing its first resolved reference;
// floats never cited are appended after the reference list in their original
// relative order.
func (s *Structurer) placeFloats(doc *book.Element) {
	var appended []*floatBlock
	for _, f := range s.floats {
		target := findCitingParagraph(doc, f.id)
		if target == nil {
			appended = append(appended, f)
			continue
		}
		parents := buildParentMap(doc)
		remove(parents[f.el], f.el)
		// Rebuild after removal: the target's parent is unaffected, but the
		// map entry for the float is stale now.
		insertAfter(parents[target], target, f.el)
		f.el.SetAttr("placement", "inline")
	}

	if len(appended) == 0 {
		return
	}
	parents := buildParentMap(doc)
	anchorParent, anchor := refListAnchor(doc, parents)
	for _, f := range appended {
		remove(parents[f.el], f.el)
		if anchor != nil {
			insertAfter(anchorParent, anchor, f.el)
		} else {
			anchorParent.Append(f.el)
		}
		f.el.SetAttr("placement", "appended")
		anchor = f.el
	}
}

// findCitingParagraph returns the first paragraph, in document order and
// outside any float, containing a resolved reference to id.
func findCitingParagraph(doc *book.Element, id string) *book.Element {
	var match *book.Element
	doc.Walk(func(e *book.Element) bool {
		if match != nil {
			return false
		}
		switch e.Tag {
		case "fig", "table-wrap", "ref-list":
			return false
		}
		if e.Tag != "p" && e.Tag != "item" {
			return true
		}
		for _, x := range e.FindAll("xref") {
			if rid, _ := x.Attr("rid"); rid == id {
				match = e
				return false
			}
		}
		return true
	})
	return match
}

// refListAnchor finds the element appended floats are inserted after: the
// last reference list, or failing that the end of the document body.
func refListAnchor(doc *book.Element, parents map[*book.Element]*book.Element) (*book.Element, *book.Element) {
	var last *book.Element
	doc.Walk(func(e *book.Element) bool {
		if e.Tag == "ref-list" {
			last = e
			return false
		}
		return true
	})
	if last == nil {
		return doc, nil
	}
	return parents[last], last
}
