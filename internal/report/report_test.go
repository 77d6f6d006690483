package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/pipeline"
	"github.com/dgallion1/wordpub/internal/structure"
)

func sampleResult() *pipeline.Result {
	doc := book.New("doc",
		book.New("sec"),
		book.New("fig").SetAttr("id", "fig-x1").SetAttr("placement", "appended"),
	)
	return &pipeline.Result{
		Doc: doc,
		XML: []byte("<doc/>"),
		Anomalies: []book.Anomaly{
			{Kind: book.AnomalyTableFallback, Detail: "table 2: merges discarded"},
			{Kind: book.AnomalyUnresolvedRef, Detail: "citation (Unknown, 1999): no-match"},
		},
		Entries: []*structure.Entry{
			{ID: "ref-1", Year: "2020", ArticleTitle: "On things", Raw: "Smith, J. (2020). On things."},
		},
		Stats: pipeline.Stats{
			Sections:   1,
			Figures:    1,
			References: 1,
			Unresolved: 1,
		},
		Elapsed: 42 * time.Millisecond,
	}
}

func TestMarkdownReport(t *testing.T) {
	md := Markdown("paper.docx", sampleResult())

	assert.Contains(t, md, "# Conversion report: paper.docx")
	assert.Contains(t, md, "| Sections | 1 |")
	assert.Contains(t, md, "| Unresolved references | 1 |")
	assert.Contains(t, md, "**ref-1** (article) Smith, J. (2020). On things.")
	assert.Contains(t, md, "## Table fallbacks")
	assert.Contains(t, md, "table 2: merges discarded")
	assert.Contains(t, md, "## Unresolved references")
	assert.Contains(t, md, "citation (Unknown, 1999): no-match")
	assert.Contains(t, md, "## Uncited floats")
	assert.Contains(t, md, "fig-x1")
	assert.Contains(t, md, "42ms")
}

func TestMarkdownReportOmitsEmptySections(t *testing.T) {
	res := sampleResult()
	res.Anomalies = nil
	res.Entries = nil
	res.Doc = book.New("doc")

	md := Markdown("clean.docx", res)
	assert.NotContains(t, md, "## Bibliography")
	assert.NotContains(t, md, "## Table fallbacks")
	assert.NotContains(t, md, "## Uncited floats")
}

func TestHTMLReport(t *testing.T) {
	html, err := HTML("paper.docx", sampleResult())
	require.NoError(t, err)

	assert.Contains(t, string(html), "<h1")
	assert.Contains(t, string(html), "<table>")
	assert.Contains(t, string(html), "fig-x1")
}
