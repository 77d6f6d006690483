// Package outline builds a quick heading outline of a word-processor
// document without running the full conversion pipeline. It is the cheap
// preview path: heading styles become a section tree, everything else is
// counted but not converted.
package outline

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/wordpub/internal/config"
)

// Outline is the heading tree of one document.
type Outline struct {
	Title    string     `json:"title"`
	Sections []*Section `json:"sections"`
	Stats    Stats      `json:"stats"`
}

// Section is one heading with its nested subsections.
type Section struct {
	Title    string     `json:"title"`
	Level    int        `json:"level"`
	Sections []*Section `json:"sections,omitempty"`
}

// Stats counts the block content seen while outlining.
type Stats struct {
	Paragraphs int `json:"paragraphs"`
	Headings   int `json:"headings"`
	Tables     int `json:"tables"`
	Words      int `json:"words"`
}

// Build reads a document archive and returns its heading outline. The
// reader is spooled to a temp file because the archive parser needs a
// seekable source with a known size.
func Build(r io.Reader, filename string, styles *config.StyleMap) (*Outline, error) {
	if styles == nil {
		styles = config.DefaultStyleMap()
	}
	tmp, err := os.CreateTemp("", "wordpub-outline-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Outline{Title: strings.TrimSuffix(filename, ".docx")}

	type stackEntry struct {
		sec   *Section
		level int
	}
	root := &Section{}
	stack := []stackEntry{{sec: root, level: 0}}

	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			out.Stats.Tables++
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		out.Stats.Paragraphs++
		out.Stats.Words += len(strings.Fields(text))

		level := headingLevel(para, styles)
		if level == 0 {
			continue
		}
		out.Stats.Headings++
		for len(stack) > 1 && stack[len(stack)-1].level >= level {
			stack = stack[:len(stack)-1]
		}
		sec := &Section{Title: text, Level: level}
		parent := stack[len(stack)-1].sec
		parent.Sections = append(parent.Sections, sec)
		stack = append(stack, stackEntry{sec: sec, level: level})
	}

	out.Sections = root.Sections
	return out, nil
}

// headingLevel maps the paragraph style through the configured style rules.
// Only title-mapped styles contribute to the outline.
func headingLevel(para *docx.Paragraph, styles *config.StyleMap) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	rule, ok := styles.Rule(para.Properties.Style.Val)
	if !ok || rule.Tag != "title" {
		return 0
	}
	if rule.Level < 1 {
		return 1
	}
	return rule.Level
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
