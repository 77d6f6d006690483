// Package normalize is the first pipeline stage. It strips editor-only
// artifacts from the raw markup tree, disambiguates style identifiers, and
// stamps tables with the positional metadata the table reconstructor needs.
// It is best-effort by contract: shapes it does not recognize pass through
// unchanged, and it never fails.
package normalize

import (
	"strconv"
	"strings"

	"github.com/dgallion1/wordpub/internal/wml"
)

// Synthetic attributes stamped onto table elements for the reconstructor.
// They live outside the WML namespace so they can never collide with source
// markup.
const (
	AttrGridCols  = "wp-cols"   // on w:tbl: declared grid column count
	AttrColWidths = "wp-widths" // on w:tbl: comma-joined column widths
	AttrCellCol   = "wp-col"    // on w:tc: resolved grid column origin
)

// StylePrefix is prepended to style identifiers that begin with a digit run,
// which would otherwise collide with the synthetic numeric names later stages
// generate.
const StylePrefix = "s"

// Document normalizes the tree in place and returns it.
func Document(doc *wml.Node) *wml.Node {
	if doc == nil {
		return nil
	}
	resolveTrackedChanges(doc)
	unwrapAnnotations(doc)
	disambiguateStyles(doc)
	doc.Walk(func(n *wml.Node) bool {
		if n.Is("tbl") {
			prepareTable(n)
		}
		return true
	})
	return doc
}

// resolveTrackedChanges removes tracked-deletion wrappers together with their
// deleted content and unwraps tracked insertions, leaving accepted plain text
// with no revision residue.
func resolveTrackedChanges(n *wml.Node) {
	if n == nil || n.IsText {
		return
	}
	out := make([]*wml.Node, 0, len(n.Children))
	for _, c := range n.Children {
		switch {
		case c.Is("del") || c.Is("moveFrom"):
			// Deleted content is dropped entirely.
			continue
		case c.Is("ins") || c.Is("moveTo"):
			// Insertions are accepted: children are promoted in place.
			for _, gc := range c.Children {
				resolveTrackedChanges(gc)
				out = append(out, gc)
			}
			continue
		}
		resolveTrackedChanges(c)
		out = append(out, c)
	}
	n.Children = out
}

// unwrapAnnotations promotes the children of annotation-only wrappers (smart
// tags, structured document tags) and drops pure editor noise such as
// proofing marks.
func unwrapAnnotations(n *wml.Node) {
	if n == nil || n.IsText {
		return
	}
	out := make([]*wml.Node, 0, len(n.Children))
	for _, c := range n.Children {
		switch {
		case c.Is("proofErr") || c.Is("noProof"):
			continue
		case c.Is("smartTag") || c.Is("smartTagPr"):
			for _, gc := range c.Children {
				if gc.Is("smartTagPr") {
					continue
				}
				unwrapAnnotations(gc)
				out = append(out, gc)
			}
			continue
		case c.Is("sdt"):
			// Promote the content part of a structured document tag; the
			// properties part is annotation only.
			if content := c.Child("sdtContent"); content != nil {
				for _, gc := range content.Children {
					unwrapAnnotations(gc)
					out = append(out, gc)
				}
			}
			continue
		}
		unwrapAnnotations(c)
		out = append(out, c)
	}
	n.Children = out
}

// disambiguateStyles rewrites every style id that starts with a digit run by
// prefixing it deterministically. Later stages synthesize numeric-only names
// for generated structures; a source style like "1" or "2Heading" must never
// collide with them.
func disambiguateStyles(doc *wml.Node) {
	doc.Walk(func(n *wml.Node) bool {
		if n.Is("pStyle") || n.Is("rStyle") || n.Is("tblStyle") {
			if v, ok := n.Attribute("val"); ok && startsWithDigit(v) {
				n.SetAttribute("val", StylePrefix+v)
			}
		}
		return true
	})
}

func startsWithDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

// prepareTable extracts the declared column widths from w:tblGrid and stamps
// every cell with its resolved grid column origin, accounting for the
// grid span of every preceding cell in the row. The reconstructor reads these
// instead of re-deriving column position.
func prepareTable(tbl *wml.Node) {
	var widths []string
	if grid := tbl.Child("tblGrid"); grid != nil {
		for _, col := range grid.ChildrenNamed("gridCol") {
			if w, ok := col.Attribute("w"); ok {
				widths = append(widths, w)
			} else {
				widths = append(widths, "0")
			}
		}
	}
	cols := len(widths)
	for _, row := range tbl.ChildrenNamed("tr") {
		col := 0
		for _, cell := range row.ChildrenNamed("tc") {
			cell.SetAttribute(AttrCellCol, strconv.Itoa(col))
			col += cellGridSpan(cell)
		}
		if col > cols {
			cols = col
		}
	}
	tbl.SetAttribute(AttrGridCols, strconv.Itoa(cols))
	if len(widths) > 0 {
		tbl.SetAttribute(AttrColWidths, strings.Join(widths, ","))
	}
}

// cellGridSpan reads the explicit horizontal span of a cell, defaulting to 1.
func cellGridSpan(cell *wml.Node) int {
	pr := cell.Child("tcPr")
	if pr == nil {
		return 1
	}
	span := pr.Child("gridSpan")
	if span == nil {
		return 1
	}
	v, ok := span.Attribute("val")
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	if n < 1 {
		return 1
	}
	return n
}

