package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StyleRule maps one paragraph style id to a semantic block tag. Exactly one
// of the optional fields is normally set; precedence between rules is decided
// by the transformer, not by rule order.
type StyleRule struct {
	Tag     string `yaml:"tag"`
	Level   int    `yaml:"level,omitempty"`   // heading level 1-6 when Tag is "title"
	List    string `yaml:"list,omitempty"`    // list type when Tag is "item"
	ListLvl int    `yaml:"listlvl,omitempty"` // list nesting level 1-6 when Tag is "item"
}

// StyleMap is the swappable per-publication-house dispatch data: paragraph
// style ids to block tags, run style ids to semantic inline names, plus the
// label and connector vocabulary used for float and citation matching.
type StyleMap struct {
	Styles     map[string]StyleRule `yaml:"styles"`
	RunStyles  map[string]string    `yaml:"run_styles"`
	Labels     map[string]string    `yaml:"labels"`
	Connectors []string             `yaml:"connectors"`
}

// LoadStyleMap reads a YAML style map, layering it over the defaults so a
// publication house only declares what differs.
func LoadStyleMap(path string) (*StyleMap, error) {
	m := DefaultStyleMap()
	if path == "" {
		return m, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style map: %w", err)
	}
	var override StyleMap
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("parse style map: %w", err)
	}
	for id, rule := range override.Styles {
		m.Styles[id] = rule
	}
	for id, name := range override.RunStyles {
		m.RunStyles[id] = name
	}
	for key, label := range override.Labels {
		m.Labels[key] = label
	}
	if len(override.Connectors) > 0 {
		m.Connectors = override.Connectors
	}
	return m, nil
}

// DefaultStyleMap returns the built-in dispatch tables for the standard
// manuscript template.
func DefaultStyleMap() *StyleMap {
	styles := map[string]StyleRule{
		"Title":    {Tag: "book-title"},
		"Heading1": {Tag: "title", Level: 1},
		"Heading2": {Tag: "title", Level: 2},
		"Heading3": {Tag: "title", Level: 3},
		"Heading4": {Tag: "title", Level: 4},
		"Heading5": {Tag: "title", Level: 5},
		"Heading6": {Tag: "title", Level: 6},

		"Caption":  {Tag: "caption"},
		"Quote":    {Tag: "disp-quote"},
		"Abstract": {Tag: "abstract"},

		// Reference list paragraphs.
		"References":    {Tag: "ref"},
		"Bibliography":  {Tag: "ref"},
		"ReferenceText": {Tag: "ref"},

		// Table placeholder ("head") paragraphs stay as-is even when empty.
		"TableHead": {Tag: "table-head"},

		// List paragraph styles carry type and level directly.
		"ListBullet":     {Tag: "item", List: "bullet", ListLvl: 1},
		"ListBullet2":    {Tag: "item", List: "bullet", ListLvl: 2},
		"ListBullet3":    {Tag: "item", List: "bullet", ListLvl: 3},
		"ListNumber":     {Tag: "item", List: "number", ListLvl: 1},
		"ListNumber2":    {Tag: "item", List: "number", ListLvl: 2},
		"ListNumber3":    {Tag: "item", List: "number", ListLvl: 3},
		"ListUpperAlpha": {Tag: "item", List: "upper-alpha", ListLvl: 1},
		"ListLowerAlpha": {Tag: "item", List: "lower-alpha", ListLvl: 1},
		"ListUpperRoman": {Tag: "item", List: "upper-roman", ListLvl: 1},
		"ListLowerRoman": {Tag: "item", List: "lower-roman", ListLvl: 1},
		"ListParagraph":  {Tag: "item", List: "plain", ListLvl: 1},
	}
	runStyles := map[string]string{
		"Surname":      "surname",
		"GivenNames":   "given-names",
		"ArticleTitle": "article-title",
		"ChapterTitle": "chapter-title",
		"SourceTitle":  "source",
		"Volume":       "volume",
		"Issue":        "issue",
		"FirstPage":    "fpage",
		"LastPage":     "lpage",
		"Publisher":    "publisher-name",
		"PubYear":      "year",
		"URL":          "uri",
		"DOI":          "doi",
		"CitationMark": "cite",
	}
	labels := map[string]string{
		"figure":     "Figure",
		"figures":    "Figures",
		"table":      "Table",
		"tables":     "Tables",
		"references": "References",
	}
	return &StyleMap{
		Styles:     styles,
		RunStyles:  runStyles,
		Labels:     labels,
		Connectors: []string{"and", "&", "et", "und", "i", "та"},
	}
}

// Rule returns the block rule for a paragraph style id.
func (m *StyleMap) Rule(styleID string) (StyleRule, bool) {
	r, ok := m.Styles[styleID]
	return r, ok
}

// InlineName returns the semantic inline name for a run style id.
func (m *StyleMap) InlineName(styleID string) (string, bool) {
	n, ok := m.RunStyles[styleID]
	return n, ok
}
