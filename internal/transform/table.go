package transform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/normalize"
	"github.com/dgallion1/wordpub/internal/wml"
)

// shadeAlign maps cell shading fill values to alignment semantics. The
// template uses shading, not a dedicated attribute, to mark decimal-aligned
// numeric columns.
var shadeAlign = map[string]string{
	"D9E2F3": "char",
	"DEEAF6": "char",
}

// gridCell is one source cell placed on the reconstructed grid.
type gridCell struct {
	node    *wml.Node
	row     int
	col     int
	colSpan int
	rowSpan int
	vCont   bool // vertical continuation of the cell above
}

// table rebuilds a w:tbl as an explicit grid with resolved spans. When any
// row's occupied columns do not sum to the declared grid width, the merge
// attributes for the whole table are discarded and every cell reverts to an
// unmerged 1x1 cell.
func (t *Transformer) table(tbl *wml.Node) *book.Element {
	t.tableSeq++
	cols := declaredCols(tbl)
	grid := buildGrid(tbl)
	resolveRowSpans(grid)

	if !spansConsistent(grid, cols) {
		t.anomalies = append(t.anomalies, book.Anomaly{
			Kind:   book.AnomalyTableFallback,
			Detail: fmt.Sprintf("table %d: resolved spans do not sum to %d columns, merges discarded", t.tableSeq, cols),
		})
		flattenGrid(grid)
	}

	out := book.New("table").SetAttr("cols", strconv.Itoa(cols))
	for _, w := range colWidths(tbl) {
		out.Append(book.New("colspec").SetAttr("width", w))
	}
	for _, row := range grid {
		tr := book.New("tr")
		for _, cell := range row {
			if cell.vCont {
				// Continuations were folded into their origin's row span and
				// contribute no emitted content.
				continue
			}
			tr.Append(t.cell(cell))
		}
		out.Append(tr)
	}
	return out
}

// cell emits one resolved cell with its span, separator, and alignment
// attributes, then maps the cell's block content.
func (t *Transformer) cell(c gridCell) *book.Element {
	td := book.New("td")
	if c.colSpan > 1 {
		td.SetAttr("colspan", strconv.Itoa(c.colSpan))
	}
	if c.rowSpan > 1 {
		td.SetAttr("rowspan", strconv.Itoa(c.rowSpan))
	}
	applyCellStyle(c.node, td)
	t.blocks(c.node, td)
	return td
}

// applyCellStyle translates border and shading attributes to separator flags
// and alignment via a fixed lookup: a missing bottom or right border
// suppresses that separator, known shading fills mark decimal alignment.
func applyCellStyle(cell *wml.Node, td *book.Element) {
	pr := cell.Child("tcPr")
	if pr == nil {
		return
	}
	if borders := pr.Child("tcBorders"); borders != nil {
		if borderOff(borders.Child("bottom")) {
			td.SetAttr("row-sep", "0")
		}
		if borderOff(borders.Child("right")) {
			td.SetAttr("col-sep", "0")
		}
	}
	if shd := pr.Child("shd"); shd != nil {
		if fill, ok := shd.Attribute("fill"); ok {
			if align, ok := shadeAlign[strings.ToUpper(fill)]; ok {
				td.SetAttr("align", align)
				td.SetAttr("char", ".")
			}
		}
	}
	if _, has := td.Attr("align"); !has {
		if p := cell.Child("p"); p != nil {
			if a := alignFromJc(p); a != "" {
				td.SetAttr("align", a)
			}
		}
	}
}

func borderOff(edge *wml.Node) bool {
	if edge == nil {
		return false
	}
	v, ok := edge.Attribute("val")
	return ok && (v == "nil" || v == "none")
}

// declaredCols reads the grid width the normalizer stamped on the table.
func declaredCols(tbl *wml.Node) int {
	if v, ok := tbl.Attribute(normalize.AttrGridCols); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	// Normalizer did not see this table; fall back to the widest raw row.
	cols := 0
	for _, row := range tbl.ChildrenNamed("tr") {
		n := 0
		for _, cell := range row.ChildrenNamed("tc") {
			n += cellSpan(cell)
		}
		if n > cols {
			cols = n
		}
	}
	return cols
}

func colWidths(tbl *wml.Node) []string {
	v, ok := tbl.Attribute(normalize.AttrColWidths)
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// buildGrid places every source cell at its stamped column origin. Column
// accounting includes the span of every preceding cell in the row, which the
// normalizer already folded into the stamped position.
func buildGrid(tbl *wml.Node) [][]gridCell {
	var grid [][]gridCell
	for r, row := range tbl.ChildrenNamed("tr") {
		var cells []gridCell
		col := 0
		for _, cell := range row.ChildrenNamed("tc") {
			if v, ok := cell.Attribute(normalize.AttrCellCol); ok {
				if n, err := strconv.Atoi(v); err == nil {
					col = n
				}
			}
			span := cellSpan(cell)
			cells = append(cells, gridCell{
				node:    cell,
				row:     r,
				col:     col,
				colSpan: span,
				rowSpan: 1,
				vCont:   verticalContinuation(cell),
			})
			col += span
		}
		grid = append(grid, cells)
	}
	return grid
}

// resolveRowSpans walks forward from every merge origin, counting contiguous
// continuation cells at the same column position until a non-continuation
// cell or the end of the table.
func resolveRowSpans(grid [][]gridCell) {
	for r := range grid {
		for i := range grid[r] {
			origin := &grid[r][i]
			if origin.vCont {
				continue
			}
			for rr := r + 1; rr < len(grid); rr++ {
				cont := cellAtColumn(grid[rr], origin.col)
				if cont == nil || !cont.vCont {
					break
				}
				origin.rowSpan++
			}
		}
	}
}

func cellAtColumn(row []gridCell, col int) *gridCell {
	for i := range row {
		if row[i].col == col {
			return &row[i]
		}
	}
	return nil
}

// spansConsistent checks the grid invariant: for every row, the spans of
// cells originating there plus spans inherited from vertical merges above
// must sum to the declared column count.
func spansConsistent(grid [][]gridCell, cols int) bool {
	occupied := make([]int, len(grid))
	for r := range grid {
		for _, cell := range grid[r] {
			if cell.vCont {
				continue
			}
			for rr := r; rr < r+cell.rowSpan && rr < len(grid); rr++ {
				occupied[rr] += cell.colSpan
			}
		}
	}
	for _, n := range occupied {
		if n != cols {
			return false
		}
	}
	return true
}

// flattenGrid is the documented lossy fallback: every cell reverts to 1x1
// and continuation cells are emitted as ordinary cells again.
func flattenGrid(grid [][]gridCell) {
	for r := range grid {
		for i := range grid[r] {
			grid[r][i].colSpan = 1
			grid[r][i].rowSpan = 1
			grid[r][i].vCont = false
		}
	}
}

// cellSpan reads a cell's explicit horizontal span, defaulting to 1.
func cellSpan(cell *wml.Node) int {
	pr := cell.Child("tcPr")
	if pr == nil {
		return 1
	}
	span := pr.Child("gridSpan")
	if span == nil {
		return 1
	}
	if v, ok := span.Attribute("val"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// verticalContinuation reports whether the cell is flagged as a continuation
// of the cell above: a vMerge element with no val, or val "continue".
func verticalContinuation(cell *wml.Node) bool {
	pr := cell.Child("tcPr")
	if pr == nil {
		return false
	}
	vm := pr.Child("vMerge")
	if vm == nil {
		return false
	}
	v, ok := vm.Attribute("val")
	return !ok || v == "continue"
}
