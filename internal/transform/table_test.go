package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wordpub/internal/book"
)

func cellText(t *testing.T, s string) string {
	t.Helper()
	return `<w:tc><w:p><w:r><w:t>` + s + `</w:t></w:r></w:p></w:tc>`
}

func TestColumnSpanRoundTrip(t *testing.T) {
	out, anomalies := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="2000"/><w:gridCol w:w="2000"/></w:tblGrid>
			<w:tr>
				<w:tc>
					<w:tcPr><w:gridSpan w:val="2"/></w:tcPr>
					<w:p><w:r><w:t>header</w:t></w:r></w:p>
				</w:tc>
			</w:tr>
			<w:tr>`+cellText(t, "a")+cellText(t, "b")+`</w:tr>
		</w:tbl>`)
	require.Empty(t, anomalies)

	table := out.Find("table")
	require.NotNil(t, table)
	assert.Equal(t, "2", table.AttrOr("cols", ""))
	assert.Len(t, table.FindAll("colspec"), 2)

	rows := table.FindAll("tr")
	require.Len(t, rows, 2)
	require.Len(t, rows[0].Children, 1)
	assert.Equal(t, "2", rows[0].Children[0].AttrOr("colspan", ""))
	require.Len(t, rows[1].Children, 2)
	_, has := rows[1].Children[0].Attr("colspan")
	assert.False(t, has, "unmerged cells carry no span attribute")
}

func TestVerticalMergeBecomesRowSpan(t *testing.T) {
	mergeStart := `<w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr><w:p><w:r><w:t>tall</w:t></w:r></w:p></w:tc>`
	mergeCont := `<w:tc><w:tcPr><w:vMerge/></w:tcPr><w:p/></w:tc>`

	out, anomalies := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="1000"/><w:gridCol w:w="1000"/></w:tblGrid>
			<w:tr>`+mergeStart+cellText(t, "r1")+`</w:tr>
			<w:tr>`+mergeCont+cellText(t, "r2")+`</w:tr>
			<w:tr>`+mergeCont+cellText(t, "r3")+`</w:tr>
		</w:tbl>`)
	require.Empty(t, anomalies)

	rows := out.Find("table").FindAll("tr")
	require.Len(t, rows, 3)

	require.Len(t, rows[0].Children, 2)
	assert.Equal(t, "3", rows[0].Children[0].AttrOr("rowspan", ""))
	assert.Equal(t, "tall", rows[0].Children[0].PlainText())

	// Continuation cells are folded into the origin and not re-emitted.
	assert.Len(t, rows[1].Children, 1)
	assert.Len(t, rows[2].Children, 1)
	assert.Equal(t, "r2", rows[1].Children[0].PlainText())
}

func TestInconsistentSpansFallBackToUnmerged(t *testing.T) {
	// Declared grid is 3 columns but the merged row only accounts for 2:
	// the whole table must revert to unmerged 1x1 cells.
	out, anomalies := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="1"/><w:gridCol w:w="1"/><w:gridCol w:w="1"/></w:tblGrid>
			<w:tr>
				<w:tc><w:tcPr><w:gridSpan w:val="2"/></w:tcPr><w:p><w:r><w:t>bad</w:t></w:r></w:p></w:tc>
			</w:tr>
			<w:tr>`+cellText(t, "a")+cellText(t, "b")+cellText(t, "c")+`</w:tr>
		</w:tbl>`)

	require.Len(t, anomalies, 1)
	assert.Equal(t, book.AnomalyTableFallback, anomalies[0].Kind)

	rows := out.Find("table").FindAll("tr")
	for _, row := range rows {
		for _, td := range row.Children {
			_, hasCol := td.Attr("colspan")
			_, hasRow := td.Attr("rowspan")
			assert.False(t, hasCol)
			assert.False(t, hasRow)
		}
	}
}

func TestFallbackReEmitsContinuationCells(t *testing.T) {
	mergeStart := `<w:tc><w:tcPr><w:vMerge w:val="restart"/></w:tcPr><w:p><w:r><w:t>x</w:t></w:r></w:p></w:tc>`
	mergeCont := `<w:tc><w:tcPr><w:vMerge/></w:tcPr><w:p/></w:tc>`

	// Second row is short by one column, breaking the grid invariant.
	out, anomalies := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="1"/><w:gridCol w:w="1"/></w:tblGrid>
			<w:tr>`+mergeStart+cellText(t, "a")+`</w:tr>
			<w:tr>`+mergeCont+`</w:tr>
		</w:tbl>`)
	require.NotEmpty(t, anomalies)

	rows := out.Find("table").FindAll("tr")
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].Children, 2)
	assert.Len(t, rows[1].Children, 1, "continuation cell is emitted as an ordinary cell")
}

func TestCellBordersAndShading(t *testing.T) {
	out, _ := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="1"/><w:gridCol w:w="1"/></w:tblGrid>
			<w:tr>
				<w:tc>
					<w:tcPr>
						<w:tcBorders><w:bottom w:val="nil"/><w:right w:val="none"/></w:tcBorders>
					</w:tcPr>
					<w:p><w:r><w:t>open</w:t></w:r></w:p>
				</w:tc>
				<w:tc>
					<w:tcPr><w:shd w:fill="d9e2f3"/></w:tcPr>
					<w:p><w:r><w:t>1.25</w:t></w:r></w:p>
				</w:tc>
			</w:tr>
		</w:tbl>`)

	tds := out.Find("table").FindAll("td")
	require.Len(t, tds, 2)
	assert.Equal(t, "0", tds[0].AttrOr("row-sep", ""))
	assert.Equal(t, "0", tds[0].AttrOr("col-sep", ""))
	assert.Equal(t, "char", tds[1].AttrOr("align", ""))
	assert.Equal(t, ".", tds[1].AttrOr("char", ""))
}

func TestCellAlignmentFromJustification(t *testing.T) {
	out, _ := convert(t, `
		<w:tbl>
			<w:tblGrid><w:gridCol w:w="1"/></w:tblGrid>
			<w:tr>
				<w:tc>
					<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:t>mid</w:t></w:r></w:p>
				</w:tc>
			</w:tr>
		</w:tbl>`)
	td := out.Find("td")
	require.NotNil(t, td)
	assert.Equal(t, "center", td.AttrOr("align", ""))
}
