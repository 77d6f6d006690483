package structure

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/wordpub/internal/book"
)

// Name is one ordered author name pair.
type Name struct {
	Family string
	Given  string
}

// Entry is one extracted bibliography entry. Entries are created once during
// the structurer pass and immutable afterwards.
type Entry struct {
	ID      string
	Authors []Name
	Year    string

	ChapterTitle string
	ArticleTitle string
	Source       string
	Volume       string
	Issue        string
	FPage        string
	LPage        string
	Publisher    string
	URI          string
	DOI          string

	// Key is the normalized match key: surnames then year, canonicalized for
	// fuzzy citation matching.
	Key string
	// Raw is the entry's full source text, kept for the report.
	Raw string
}

// Type derives the classification from which optional fields are populated.
// It is computed, never stored redundantly.
func (e *Entry) Type() string {
	switch {
	case e.URI != "":
		return "web"
	case e.Issue != "" || e.ArticleTitle != "":
		return "article"
	case e.ChapterTitle != "" || e.Publisher != "":
		return "book"
	default:
		return "other"
	}
}

// yearPattern isolates a 4-digit year with an optional trailing
// disambiguation letter from surrounding non-digit text.
var yearPattern = regexp.MustCompile(`\b((?:19|20)\d{2}[a-z]?)\b`)

// extractBibliography parses every reference paragraph into an entry,
// replaces its content with the structured citation element, and wraps each
// contiguous run of references into a ref-list.
func (s *Structurer) extractBibliography(doc *book.Element) {
	hasRef := false
	for _, c := range doc.Children {
		if c.Tag == "ref" {
			hasRef = true
			break
		}
	}
	if hasRef {
		doc.Children = s.wrapRefRuns(doc.Children)
	}
	for _, c := range doc.Children {
		if c.Tag != "ref-list" {
			s.extractBibliography(c)
		}
	}
}

// wrapRefRuns rewrites the child list, replacing each maximal run of ref
// elements with one ref-list containing the parsed entries.
func (s *Structurer) wrapRefRuns(children []*book.Element) []*book.Element {
	var out []*book.Element
	i := 0
	for i < len(children) {
		if children[i].Tag != "ref" {
			out = append(out, children[i])
			i++
			continue
		}
		list := book.New("ref-list")
		for i < len(children) && children[i].Tag == "ref" {
			list.Append(s.parseRef(children[i]))
			i++
		}
		out = append(out, list)
	}
	return out
}

// parseRef maps one reference paragraph to a structured entry element.
// Author pairs come from paired surname/given-names styled runs; the year is
// isolated by pattern; the remaining fields map from their style-tagged runs.
func (s *Structurer) parseRef(ref *book.Element) *book.Element {
	s.refSeq++
	entry := &Entry{
		ID:  "ref-" + strconv.Itoa(s.refSeq),
		Raw: strings.TrimSpace(ref.PlainText()),
	}

	var pendingFamily string
	ref.Walk(func(e *book.Element) bool {
		if e.Tag != "styled-content" {
			return true
		}
		text := strings.Trim(strings.TrimSpace(e.PlainText()), ",.;:()")
		style, _ := e.Attr("style")
		switch style {
		case "surname":
			if pendingFamily != "" {
				// Surname with no given names still counts as an author.
				entry.Authors = append(entry.Authors, Name{Family: pendingFamily})
			}
			pendingFamily = text
		case "given-names":
			entry.Authors = append(entry.Authors, Name{Family: pendingFamily, Given: text})
			pendingFamily = ""
		case "year":
			if m := yearPattern.FindString(text); m != "" {
				entry.Year = m
			}
		case "chapter-title":
			entry.ChapterTitle = text
		case "article-title":
			entry.ArticleTitle = text
		case "source":
			entry.Source = text
		case "volume":
			entry.Volume = text
		case "issue":
			entry.Issue = text
		case "fpage":
			entry.FPage = text
		case "lpage":
			entry.LPage = text
		case "publisher-name":
			entry.Publisher = text
		case "uri":
			entry.URI = strings.TrimSpace(e.PlainText())
		case "doi":
			entry.DOI = strings.TrimSpace(e.PlainText())
		}
		return false
	})
	if pendingFamily != "" {
		entry.Authors = append(entry.Authors, Name{Family: pendingFamily})
	}
	if entry.Year == "" {
		if m := yearPattern.FindString(entry.Raw); m != "" {
			entry.Year = m
		}
	}
	entry.Key = entryKey(entry, s.styles.Connectors)
	s.entries = append(s.entries, entry)

	return buildRefElement(entry)
}

// entryKey builds the normalized leading text the citation matcher compares
// prefixes against: ordered surnames, then year.
func entryKey(e *Entry, connectors []string) string {
	parts := make([]string, 0, len(e.Authors)+1)
	for _, a := range e.Authors {
		parts = append(parts, a.Family)
	}
	if e.Year != "" {
		parts = append(parts, e.Year)
	}
	return normalizeKey(strings.Join(parts, " "), connectors)
}

// buildRefElement renders the immutable entry as publication markup.
func buildRefElement(e *Entry) *book.Element {
	ref := book.New("ref").SetAttr("id", e.ID)
	cit := book.New("element-citation").SetAttr("publication-type", e.Type())

	if len(e.Authors) > 0 {
		group := book.New("person-group").SetAttr("person-group-type", "author")
		for _, a := range e.Authors {
			name := book.New("name")
			name.Append(book.New("surname").AppendText(a.Family))
			if a.Given != "" {
				name.Append(book.New("given-names").AppendText(a.Given))
			}
			group.Append(name)
		}
		cit.Append(group)
	}
	appendField := func(tag, val string) {
		if val != "" {
			cit.Append(book.New(tag).AppendText(val))
		}
	}
	appendField("year", e.Year)
	appendField("chapter-title", e.ChapterTitle)
	appendField("article-title", e.ArticleTitle)
	appendField("source", e.Source)
	appendField("volume", e.Volume)
	appendField("issue", e.Issue)
	appendField("fpage", e.FPage)
	appendField("lpage", e.LPage)
	appendField("publisher-name", e.Publisher)
	appendField("uri", e.URI)
	if e.DOI != "" {
		cit.Append(book.New("pub-id").SetAttr("pub-id-type", "doi").AppendText(e.DOI))
	}
	ref.Append(cit)
	return ref
}
