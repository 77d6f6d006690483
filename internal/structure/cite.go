package structure

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dgallion1/wordpub/internal/book"
)

var keyFolder = cases.Fold()

// normalizeKey reduces citation or label text to its canonical match form:
// case-folded, connector words and ampersands dropped, punctuation and
// whitespace runs collapsed to a single separator. "Smith and Jones, 2020"
// and "SMITH & JONES (2020)" normalize identically.
func normalizeKey(s string, connectors []string) string {
	folded := keyFolder.String(s)
	tokens := splitTokens(folded)
	var kept []string
	for _, tok := range tokens {
		if isConnector(tok, connectors) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, "|")
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r >= 0x80: // folded non-ASCII letters stay token content
			return false
		}
		return true
	})
}

func isConnector(tok string, connectors []string) bool {
	if tok == "et" || tok == "al" {
		// "et al." never contributes to the key.
		return true
	}
	for _, c := range connectors {
		if tok == keyFolder.String(c) {
			return true
		}
	}
	return false
}

// resolveEntry locates the bibliography entry for a normalized citation key.
// Exact key match wins; otherwise a unique prefix match resolves; zero or
// multiple prefix matches stay unresolved. Entries are scanned in document
// order so resolution is deterministic.
func (s *Structurer) resolveEntry(key string) (*Entry, string) {
	if key == "" {
		return nil, "no-match"
	}
	for _, e := range s.entries {
		if e.Key == key {
			return e, ""
		}
	}
	var matches []*Entry
	for _, e := range s.entries {
		if strings.HasPrefix(e.Key, key) || strings.HasPrefix(key, e.Key) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], ""
	case 0:
		return nil, "no-match"
	default:
		return nil, "ambiguous"
	}
}

// parenCitation finds parenthetical groups that contain a year token; each
// is a candidate citation marker.
var parenCitation = regexp.MustCompile(`\(([^()]*(?:19|20)\d{2}[a-z]?[^()]*)\)`)

// narrativeCitation finds "Smith (2020)" style markers: one or two
// capitalized names directly followed by a parenthesized year.
var narrativeCitation = regexp.MustCompile(`\b(\p{Lu}[\p{L}'-]+(?:\s+(?:and|&|et)\s+\p{Lu}[\p{L}'-]+)?)\s+\(((?:19|20)\d{2}[a-z]?)\)`)

// resolveCitations rewrites citation markers and figure/table references in
// every content paragraph into cross-reference elements. Unresolved markers
// are tagged distinctly, never dropped.
func (s *Structurer) resolveCitations(doc *book.Element) {
	s.rewriteLeaves(doc)
}

// rewriteLeaves walks containers, skipping floats and reference lists (a
// caption must not cite its own float, a bibliography entry must not cite
// itself), and rewrites each text leaf.
func (s *Structurer) rewriteLeaves(e *book.Element) {
	switch e.Tag {
	case "fig", "table-wrap", "ref-list", "xref", "unresolved-cite", "ext-link":
		return
	}
	var out []*book.Element
	changed := false
	for _, c := range e.Children {
		if !c.IsText() {
			s.rewriteLeaves(c)
			out = append(out, c)
			continue
		}
		repl := s.rewriteText(c.Text)
		if repl == nil {
			out = append(out, c)
			continue
		}
		changed = true
		out = append(out, repl...)
	}
	if changed {
		e.Children = out
	}
}

// rewriteText scans one text leaf. It returns nil when nothing matched, or
// the replacement sequence of text and reference elements.
func (s *Structurer) rewriteText(text string) []*book.Element {
	segments := s.splitFigureRefs(text)
	var out []*book.Element
	changed := len(segments) > 1 || (len(segments) == 1 && !segments[0].IsText())
	for _, seg := range segments {
		if !seg.IsText() {
			out = append(out, seg)
			continue
		}
		cited := s.splitCitations(seg.Text)
		if cited == nil {
			out = append(out, seg)
			continue
		}
		changed = true
		out = append(out, cited...)
	}
	if !changed {
		return nil
	}
	return out
}

// splitCitations rewrites narrative and parenthetical citation markers in a
// plain text segment, or returns nil when none occur. The narrative pass runs
// first: "Smith (2020)" must bind the name to its year before the paren pass
// could see "(2020)" as a bare, unmatchable group.
func (s *Structurer) splitCitations(text string) []*book.Element {
	segments, changed := s.splitNarrative(text)
	if !changed {
		segments = []*book.Element{book.NewText(text)}
	}
	var out []*book.Element
	for _, seg := range segments {
		if seg.IsText() {
			if rendered, any := s.splitParens(seg.Text); any {
				changed = true
				out = append(out, rendered...)
				continue
			}
		}
		out = append(out, seg)
	}
	if !changed {
		return nil
	}
	return out
}

// splitParens rewrites parenthetical citation groups in text. It reports
// whether any group was rewritten.
func (s *Structurer) splitParens(text string) ([]*book.Element, bool) {
	var out []*book.Element
	last := 0
	any := false
	for _, loc := range parenCitation.FindAllStringSubmatchIndex(text, -1) {
		inner := text[loc[2]:loc[3]]
		rendered, ok := s.renderParenGroup(inner)
		if !ok {
			continue
		}
		any = true
		if last < loc[0] {
			out = append(out, book.NewText(text[last:loc[0]]))
		}
		out = append(out, book.NewText("("))
		out = append(out, rendered...)
		out = append(out, book.NewText(")"))
		last = loc[1]
	}
	if !any {
		return nil, false
	}
	if last < len(text) {
		out = append(out, book.NewText(text[last:]))
	}
	return out, true
}

// renderParenGroup resolves the semicolon-separated segments of one
// parenthetical group. It reports whether any segment was a citation.
func (s *Structurer) renderParenGroup(inner string) ([]*book.Element, bool) {
	parts := strings.Split(inner, ";")
	var out []*book.Element
	any := false
	for i, part := range parts {
		if i > 0 {
			out = append(out, book.NewText(";"))
		}
		if !yearPattern.MatchString(part) {
			out = append(out, book.NewText(part))
			continue
		}
		any = true
		out = append(out, s.citationElement(part))
	}
	return out, any
}

// splitNarrative rewrites narrative citations ("Smith (2020)") in text.
func (s *Structurer) splitNarrative(text string) ([]*book.Element, bool) {
	locs := narrativeCitation.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil, false
	}
	var out []*book.Element
	last := 0
	for _, loc := range locs {
		if last < loc[0] {
			out = append(out, book.NewText(text[last:loc[0]]))
		}
		out = append(out, s.citationElement(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, book.NewText(text[last:]))
	}
	return out, true
}

// citationElement resolves one raw citation marker to a bibliography
// cross-reference, or tags it unresolved for editorial review.
func (s *Structurer) citationElement(raw string) *book.Element {
	key := normalizeKey(raw, s.styles.Connectors)
	entry, reason := s.resolveEntry(key)
	if entry == nil {
		s.anomaly(book.AnomalyUnresolvedRef, "citation "+strings.TrimSpace(raw)+": "+reason)
		return book.New("unresolved-cite").
			SetAttr("reason", reason).
			AppendText(raw)
	}
	return book.New("xref").
		SetAttr("ref-type", "bibr").
		SetAttr("rid", entry.ID).
		AppendText(raw)
}
