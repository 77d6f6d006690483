// Package pipeline chains the three conversion stages over one document:
// normalize the raw markup, transform it to flat publication elements, then
// rebuild the nested structure. Each conversion gets fresh stage instances,
// so documents can be converted concurrently.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/config"
	"github.com/dgallion1/wordpub/internal/normalize"
	"github.com/dgallion1/wordpub/internal/structure"
	"github.com/dgallion1/wordpub/internal/transform"
	"github.com/dgallion1/wordpub/internal/wml"
)

// Converter converts word-processor documents to publication XML.
type Converter struct {
	styles *config.StyleMap
	log    *slog.Logger
}

// New creates a converter with the given style mapping. A nil style map
// selects the built-in defaults.
func New(styles *config.StyleMap, log *slog.Logger) *Converter {
	if styles == nil {
		styles = config.DefaultStyleMap()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Converter{styles: styles, log: log}
}

// Stats summarizes one conversion for reporting.
type Stats struct {
	Sections   int `json:"sections"`
	Tables     int `json:"tables"`
	Figures    int `json:"figures"`
	References int `json:"references"`
	Unresolved int `json:"unresolved"`
}

// Result holds the output of one conversion.
type Result struct {
	Doc       *book.Element
	XML       []byte
	Anomalies []book.Anomaly
	Entries   []*structure.Entry
	Stats     Stats
	Elapsed   time.Duration
}

// Convert runs the full pipeline over a raw document. Input may be a
// document archive or a bare document part. Anomalies are collected, not
// fatal; only unreadable input returns an error.
func (c *Converter) Convert(ctx context.Context, raw []byte) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := wml.ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	body := wml.Body(src)
	if body == nil {
		return nil, wml.ErrNoDocumentPart
	}

	normalized := normalize.Document(body)

	flat, anomalies := transform.New(c.styles).Document(normalized)

	st := structure.New(c.styles)
	doc, structAnomalies := st.Document(flat)
	anomalies = append(anomalies, structAnomalies...)

	var buf bytes.Buffer
	if err := book.WriteXML(&buf, doc); err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}

	res := &Result{
		Doc:       doc,
		XML:       buf.Bytes(),
		Anomalies: anomalies,
		Entries:   st.Entries(),
		Stats:     collectStats(doc),
		Elapsed:   time.Since(start),
	}
	c.log.Info("document converted",
		"bytes_in", len(raw),
		"bytes_out", len(res.XML),
		"sections", res.Stats.Sections,
		"references", res.Stats.References,
		"anomalies", len(res.Anomalies),
		"duration_ms", res.Elapsed.Milliseconds())
	return res, nil
}

func collectStats(doc *book.Element) Stats {
	var st Stats
	doc.Walk(func(e *book.Element) bool {
		switch e.Tag {
		case "sec":
			st.Sections++
		case "table-wrap":
			st.Tables++
			return false // the wrapped table is the same table
		case "table":
			st.Tables++
		case "fig":
			st.Figures++
		case "ref":
			st.References++
		case "unresolved-cite":
			st.Unresolved++
		}
		return true
	})
	return st
}
