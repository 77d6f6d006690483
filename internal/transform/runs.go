package transform

import (
	"strings"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/wml"
)

// runFlags is the resolved formatting state of one run.
type runFlags struct {
	style     string // named character style, "" when none
	smallCaps bool
	vertAlign string // "superscript", "subscript", ""
	bold      bool
	italic    bool
	underline bool
	strike    bool
}

// inlineWrapper is one tier of the fixed inline precedence order. Wrappers
// are applied outermost first; downstream stylesheets depend on this exact
// ordering, so it is data, not conditionals.
type inlineWrapper struct {
	applies func(runFlags) bool
	open    func(runFlags) *book.Element
}

// inlinePrecedence: style-name wrapper outermost, then small caps, then
// vertical position, then weight, then slant, then underline, then strike.
var inlinePrecedence = []inlineWrapper{
	{func(f runFlags) bool { return f.style != "" }, func(f runFlags) *book.Element {
		return book.New("styled-content").SetAttr("style", f.style)
	}},
	{func(f runFlags) bool { return f.smallCaps }, func(runFlags) *book.Element { return book.New("sc") }},
	{func(f runFlags) bool { return f.vertAlign == "superscript" }, func(runFlags) *book.Element { return book.New("sup") }},
	{func(f runFlags) bool { return f.vertAlign == "subscript" }, func(runFlags) *book.Element { return book.New("sub") }},
	{func(f runFlags) bool { return f.bold }, func(runFlags) *book.Element { return book.New("bold") }},
	{func(f runFlags) bool { return f.italic }, func(runFlags) *book.Element { return book.New("italic") }},
	{func(f runFlags) bool { return f.underline }, func(runFlags) *book.Element { return book.New("underline") }},
	{func(f runFlags) bool { return f.strike }, func(runFlags) *book.Element { return book.New("strike") }},
}

// run maps one w:r into el, or feeds the field state machine when the run is
// part of a complex field.
func (t *Transformer) run(r *wml.Node, el *book.Element, fs *fieldState) {
	// Field character runs switch the state machine and emit nothing
	// themselves.
	if fc := r.Child("fldChar"); fc != nil {
		typ, _ := fc.Attribute("fldCharType")
		fs.fldChar(typ, el)
		return
	}
	if it := r.Child("instrText"); it != nil && fs.active() {
		fs.instr(rawText(it))
		return
	}

	content := t.runContent(r)
	if len(content) == 0 {
		return
	}
	flags := t.resolveRunFlags(r)
	wrapped := applyPrecedence(flags, content)

	if fs.collecting() {
		fs.result = append(fs.result, wrapped...)
		return
	}
	el.Append(wrapped...)
}

// applyPrecedence nests content inside the inline wrappers that apply,
// innermost content first, honoring the fixed tier order.
func applyPrecedence(flags runFlags, content []*book.Element) []*book.Element {
	for i := len(inlinePrecedence) - 1; i >= 0; i-- {
		tier := inlinePrecedence[i]
		if !tier.applies(flags) {
			continue
		}
		wrapper := tier.open(flags)
		wrapper.Children = content
		content = []*book.Element{wrapper}
	}
	return content
}

// runContent maps the content children of a run: text, breaks, tabs,
// graphics, comment references.
func (t *Transformer) runContent(r *wml.Node) []*book.Element {
	var out []*book.Element
	for _, c := range r.Children {
		switch {
		case c.Is("t"), c.Is("delText"):
			if s := rawText(c); s != "" {
				out = append(out, book.NewText(s))
			}
		case c.Is("br"):
			out = append(out, book.New("break"))
		case c.Is("tab"):
			out = append(out, book.NewText("\t"))
		case c.Is("drawing"), c.Is("pict"), c.Is("object"):
			out = append(out, book.New("graphic"))
		case c.Is("commentReference"):
			// The range markers carry the id; the reference glyph is noise.
		case c.Is("rPr"), c.Is("lastRenderedPageBreak"), c.Is("softHyphen"):
			// Formatting and layout hints, consumed elsewhere or dropped.
		case c.IsText:
			// Whitespace between run children.
		case c.Is("sym"):
			if ch, ok := c.Attribute("char"); ok {
				out = append(out, book.NewText(ch))
			}
		default:
			if s := c.PlainText(); s != "" {
				out = append(out, book.NewText(s))
			}
		}
	}
	return out
}

// resolveRunFlags reads w:rPr into the flag set the precedence table
// evaluates. A toggle element present with val "false"/"0"/"none" is off.
func (t *Transformer) resolveRunFlags(r *wml.Node) runFlags {
	var f runFlags
	pr := r.Child("rPr")
	if pr == nil {
		return f
	}
	if st := pr.Child("rStyle"); st != nil {
		if v, ok := st.Attribute("val"); ok {
			// Semantic inline styles are renamed by the dispatch table; an
			// unmapped style keeps its source id.
			if name, ok := t.styles.InlineName(v); ok {
				f.style = name
			} else {
				f.style = v
			}
		}
	}
	f.bold = toggleOn(pr.Child("b"))
	f.italic = toggleOn(pr.Child("i"))
	f.strike = toggleOn(pr.Child("strike"))
	f.smallCaps = toggleOn(pr.Child("smallCaps"))
	if u := pr.Child("u"); u != nil {
		v, ok := u.Attribute("val")
		f.underline = !ok || (v != "none" && v != "false" && v != "0")
	}
	if va := pr.Child("vertAlign"); va != nil {
		if v, ok := va.Attribute("val"); ok && v != "baseline" {
			f.vertAlign = v
		}
	}
	return f
}

func toggleOn(n *wml.Node) bool {
	if n == nil {
		return false
	}
	v, ok := n.Attribute("val")
	if !ok {
		return true
	}
	return v != "false" && v != "0" && v != "none"
}

// rawText concatenates the direct text children of a node without trimming:
// w:t content is significant whitespace.
func rawText(n *wml.Node) string {
	var b strings.Builder
	for _, c := range n.Children {
		if c.IsText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
