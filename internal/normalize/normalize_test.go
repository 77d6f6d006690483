package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wordpub/internal/wml"
)

const wNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func parse(t *testing.T, s string) *wml.Node {
	t.Helper()
	n, err := wml.Parse(strings.NewReader(s))
	require.NoError(t, err)
	return n
}

func TestTrackedDeletionsDropped(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:p>
			<w:r><w:t>kept </w:t></w:r>
			<w:del><w:r><w:delText>removed</w:delText></w:r></w:del>
		</w:p>
	</w:body>`)

	Document(doc)

	p := doc.Child("p")
	assert.Equal(t, "kept ", p.PlainText())
	assert.Nil(t, p.Child("del"))
}

func TestTrackedInsertionsAccepted(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:p>
			<w:ins><w:r><w:t>new text</w:t></w:r></w:ins>
		</w:p>
	</w:body>`)

	Document(doc)

	p := doc.Child("p")
	assert.Nil(t, p.Child("ins"))
	require.Len(t, p.ChildrenNamed("r"), 1)
	assert.Equal(t, "new text", p.PlainText())
}

func TestAdjacentInsertionsAllPromoted(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:p>
			<w:ins><w:r><w:t>a</w:t></w:r><w:r><w:t>b</w:t></w:r></w:ins>
			<w:r><w:t>c</w:t></w:r>
			<w:ins><w:r><w:t>d</w:t></w:r></w:ins>
		</w:p>
	</w:body>`)

	Document(doc)

	p := doc.Child("p")
	assert.Len(t, p.ChildrenNamed("r"), 4)
	assert.Equal(t, "abcd", p.PlainText())
}

func TestAnnotationWrappersUnwrapped(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:p>
			<w:proofErr w:type="spellStart"/>
			<w:smartTag w:element="place">
				<w:smartTagPr/>
				<w:r><w:t>London</w:t></w:r>
			</w:smartTag>
			<w:proofErr w:type="spellEnd"/>
			<w:sdt>
				<w:sdtPr/>
				<w:sdtContent><w:r><w:t>, 2020</w:t></w:r></w:sdtContent>
			</w:sdt>
		</w:p>
	</w:body>`)

	Document(doc)

	p := doc.Child("p")
	assert.Nil(t, p.Child("proofErr"))
	assert.Nil(t, p.Child("smartTag"))
	assert.Nil(t, p.Child("sdt"))
	assert.Equal(t, "London, 2020", p.PlainText())
}

func TestDigitLeadingStylesPrefixed(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:p>
			<w:pPr><w:pStyle w:val="1Heading"/></w:pPr>
			<w:r>
				<w:rPr><w:rStyle w:val="42"/></w:rPr>
				<w:t>x</w:t>
			</w:r>
		</w:p>
		<w:p>
			<w:pPr><w:pStyle w:val="Heading1"/></w:pPr>
		</w:p>
	</w:body>`)

	Document(doc)

	paras := doc.ChildrenNamed("p")
	require.Len(t, paras, 2)

	pStyle := paras[0].Child("pPr").Child("pStyle")
	v, _ := pStyle.Attribute("val")
	assert.Equal(t, "s1Heading", v)

	rStyle := paras[0].Child("r").Child("rPr").Child("rStyle")
	v, _ = rStyle.Attribute("val")
	assert.Equal(t, "s42", v)

	// Non-digit-leading ids stay untouched.
	v, _ = paras[1].Child("pPr").Child("pStyle").Attribute("val")
	assert.Equal(t, "Heading1", v)
}

func TestTableStamping(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:tbl>
			<w:tblGrid>
				<w:gridCol w:w="2000"/>
				<w:gridCol w:w="3000"/>
				<w:gridCol w:w="1500"/>
			</w:tblGrid>
			<w:tr>
				<w:tc>
					<w:tcPr><w:gridSpan w:val="2"/></w:tcPr>
					<w:p><w:r><w:t>span</w:t></w:r></w:p>
				</w:tc>
				<w:tc><w:p><w:r><w:t>c</w:t></w:r></w:p></w:tc>
			</w:tr>
			<w:tr>
				<w:tc><w:p/></w:tc>
				<w:tc><w:p/></w:tc>
				<w:tc><w:p/></w:tc>
			</w:tr>
		</w:tbl>
	</w:body>`)

	Document(doc)

	tbl := doc.Child("tbl")
	cols, _ := tbl.Attribute(AttrGridCols)
	assert.Equal(t, "3", cols)
	widths, _ := tbl.Attribute(AttrColWidths)
	assert.Equal(t, "2000,3000,1500", widths)

	rows := tbl.ChildrenNamed("tr")
	cells := rows[0].ChildrenNamed("tc")
	c0, _ := cells[0].Attribute(AttrCellCol)
	c1, _ := cells[1].Attribute(AttrCellCol)
	assert.Equal(t, "0", c0)
	assert.Equal(t, "2", c1)

	cells = rows[1].ChildrenNamed("tc")
	for i, want := range []string{"0", "1", "2"} {
		got, _ := cells[i].Attribute(AttrCellCol)
		assert.Equal(t, want, got)
	}
}

func TestTableColumnCountFromWidestRow(t *testing.T) {
	// No tblGrid: the declared count falls back to the widest raw row.
	doc := parse(t, `<w:body `+wNS+`>
		<w:tbl>
			<w:tr><w:tc><w:p/></w:tc><w:tc><w:p/></w:tc></w:tr>
			<w:tr><w:tc><w:p/></w:tc><w:tc><w:p/></w:tc><w:tc><w:p/></w:tc></w:tr>
		</w:tbl>
	</w:body>`)

	Document(doc)

	cols, _ := doc.Child("tbl").Attribute(AttrGridCols)
	assert.Equal(t, "3", cols)
}

func TestNormalizeNeverFailsOnUnknownShapes(t *testing.T) {
	doc := parse(t, `<w:body `+wNS+`>
		<w:customBlock><w:weird/></w:customBlock>
		<w:p><w:r><w:t>ok</w:t></w:r></w:p>
	</w:body>`)

	out := Document(doc)
	require.NotNil(t, out)
	assert.NotNil(t, out.Child("customBlock"))
}
