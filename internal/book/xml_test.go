package book

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteXML(t *testing.T) {
	doc := New("doc",
		New("sec").SetAttr("id", "sec-1").SetAttr("level", "1").Append(
			New("title").AppendText("A & B"),
			New("p").AppendText("text <with> specials"),
		),
	)

	var buf bytes.Buffer
	require.NoError(t, WriteXML(&buf, doc))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<sec id="sec-1" level="1">`)
	assert.Contains(t, out, "A &amp; B")
	assert.Contains(t, out, "text &lt;with&gt; specials")
	assert.True(t, strings.HasSuffix(out, "</doc>"))
}

func TestWriteXMLIsDeterministic(t *testing.T) {
	doc := New("doc")
	doc.SetAttr("b", "2")
	doc.SetAttr("a", "1")

	var first, second bytes.Buffer
	require.NoError(t, WriteXML(&first, doc))
	require.NoError(t, WriteXML(&second, doc))
	assert.Equal(t, first.String(), second.String())
	// First-set attribute order is preserved, not sorted.
	assert.Contains(t, first.String(), `<doc b="2" a="1">`)
}

func TestElementHelpers(t *testing.T) {
	e := New("p").SetAttr("k", "v").AppendText("hello")
	assert.Equal(t, "v", e.AttrOr("k", ""))
	assert.Equal(t, "x", e.AttrOr("missing", "x"))
	assert.Equal(t, "hello", e.PlainText())

	e.SetAttr("k", "w")
	v, ok := e.Attr("k")
	assert.True(t, ok)
	assert.Equal(t, "w", v)
	assert.Len(t, e.Attrs, 1)

	e.RemoveAttr("k")
	_, ok = e.Attr("k")
	assert.False(t, ok)

	clone := e.Clone()
	clone.AppendText(" world")
	assert.Equal(t, "hello", e.PlainText())
	assert.Equal(t, "hello world", clone.PlainText())
}

func TestFindAndWalk(t *testing.T) {
	doc := New("doc",
		New("sec", New("p").AppendText("one")),
		New("sec", New("p").AppendText("two")),
	)

	assert.Equal(t, "one", doc.Find("p").PlainText())
	assert.Len(t, doc.FindAll("p"), 2)

	// Pruning stops descent.
	var visited []string
	doc.Walk(func(e *Element) bool {
		if e.Tag != "" {
			visited = append(visited, e.Tag)
		}
		return e.Tag != "sec"
	})
	assert.Equal(t, []string{"doc", "sec", "sec"}, visited)
}
