// Package report renders a human-readable conversion report: content
// statistics, the extracted bibliography, and every anomaly an editor needs
// to review before the output is trusted.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/pipeline"
)

// md renders the report body. Tables are the only extension the report
// needs.
var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown builds the conversion report for one result.
func Markdown(name string, res *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversion report: %s\n\n", name)

	fmt.Fprintf(&b, "| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Sections | %d |\n", res.Stats.Sections)
	fmt.Fprintf(&b, "| Tables | %d |\n", res.Stats.Tables)
	fmt.Fprintf(&b, "| Figures | %d |\n", res.Stats.Figures)
	fmt.Fprintf(&b, "| References | %d |\n", res.Stats.References)
	fmt.Fprintf(&b, "| Unresolved references | %d |\n", res.Stats.Unresolved)
	fmt.Fprintf(&b, "| Anomalies | %d |\n\n", len(res.Anomalies))

	if len(res.Entries) > 0 {
		b.WriteString("## Bibliography\n\n")
		for _, e := range res.Entries {
			fmt.Fprintf(&b, "- **%s** (%s) %s\n", e.ID, e.Type(), e.Raw)
		}
		b.WriteString("\n")
	}

	writeAnomalies(&b, "Structural anomalies", res.Anomalies, book.AnomalyStructural)
	writeAnomalies(&b, "Table fallbacks", res.Anomalies, book.AnomalyTableFallback)
	writeAnomalies(&b, "Unresolved references", res.Anomalies, book.AnomalyUnresolvedRef)

	if appended := appendedFloats(res.Doc); len(appended) > 0 {
		b.WriteString("## Uncited floats\n\n")
		b.WriteString("These floats were never cited and were appended after the reference list:\n\n")
		for _, id := range appended {
			fmt.Fprintf(&b, "- %s\n", id)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\n\nConverted in %s.\n", res.Elapsed.Round(time.Millisecond))
	return b.String()
}

// HTML renders the Markdown report to HTML.
func HTML(name string, res *pipeline.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(name, res)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAnomalies(b *strings.Builder, title string, anomalies []book.Anomaly, kind book.AnomalyKind) {
	var match []book.Anomaly
	for _, a := range anomalies {
		if a.Kind == kind {
			match = append(match, a)
		}
	}
	if len(match) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, a := range match {
		fmt.Fprintf(b, "- %s\n", a.Detail)
	}
	b.WriteString("\n")
}

func appendedFloats(doc *book.Element) []string {
	var ids []string
	doc.Walk(func(e *book.Element) bool {
		if e.Tag != "fig" && e.Tag != "table-wrap" {
			return true
		}
		if p, _ := e.Attr("placement"); p == "appended" {
			id, _ := e.Attr("id")
			ids = append(ids, id)
		}
		return false
	})
	return ids
}
