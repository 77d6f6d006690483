package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wordpub/internal/book"
)

func title(level, text string) *book.Element {
	return book.New("title").SetAttr("level", level).AppendText(text)
}

func para(text string) *book.Element {
	return book.New("p").AppendText(text)
}

func TestSectionNesting(t *testing.T) {
	doc := book.New("doc",
		para("preamble"),
		title("1", "Intro"),
		para("a"),
		title("2", "Background"),
		para("b"),
		title("1", "Methods"),
		para("c"),
	)

	s := New(nil)
	s.rebuildSections(doc)

	require.Len(t, doc.Children, 3)
	assert.True(t, doc.Children[0].IsText() || doc.Children[0].Tag == "p")

	intro := doc.Children[1]
	require.Equal(t, "sec", intro.Tag)
	assert.Equal(t, "sec-1", intro.AttrOr("id", ""))
	assert.Equal(t, "Intro", intro.Find("title").PlainText())

	// Background nests inside Intro.
	require.Len(t, intro.Children, 3)
	background := intro.Children[2]
	assert.Equal(t, "sec", background.Tag)
	assert.Equal(t, "2", background.AttrOr("level", ""))

	// A same-level heading closes the previous section.
	methods := doc.Children[2]
	assert.Equal(t, "sec", methods.Tag)
	assert.Equal(t, "Methods", methods.Find("title").PlainText())
}

func TestLevelJumpStillNests(t *testing.T) {
	// Level 3 directly under level 1 nests under the open section rather
	// than fabricating an intermediate level.
	doc := book.New("doc",
		title("1", "Top"),
		title("3", "Deep"),
		para("x"),
	)

	s := New(nil)
	s.rebuildSections(doc)

	require.Len(t, doc.Children, 1)
	top := doc.Children[0]
	deep := top.Children[1]
	assert.Equal(t, "sec", deep.Tag)
	assert.Equal(t, "3", deep.AttrOr("level", ""))
	assert.Equal(t, "x", deep.Children[1].PlainText())
}

func TestSectionIDsArePerDocument(t *testing.T) {
	build := func() *book.Element {
		return book.New("doc", title("1", "A"), title("1", "B"))
	}

	d1 := build()
	New(nil).rebuildSections(d1)
	d2 := build()
	New(nil).rebuildSections(d2)

	// Fresh structurers start numbering from one: no shared counters.
	assert.Equal(t, "sec-1", d1.Children[0].AttrOr("id", ""))
	assert.Equal(t, "sec-1", d2.Children[0].AttrOr("id", ""))
	assert.Equal(t, "sec-2", d2.Children[1].AttrOr("id", ""))
}
