package structure

import (
	"fmt"
	"strconv"

	"github.com/dgallion1/wordpub/internal/book"
)

// itemLabels renders the marker for the n-th item (1-based) of each list
// type. Plain lists carry no marker.
var itemLabels = map[string]func(n int) string{
	"bullet":      func(int) string { return "•" },
	"number":      func(n int) string { return strconv.Itoa(n) + "." },
	"lower-alpha": func(n int) string { return alpha(n) + "." },
	"upper-alpha": func(n int) string { return upper(alpha(n)) + "." },
	"lower-roman": func(n int) string { return roman(n) + "." },
	"upper-roman": func(n int) string { return upper(roman(n)) + "." },
	"plain":       func(int) string { return "" },
}

// nestLists rewrites flat level-tagged items into nested lists everywhere in
// the tree. The rewrite is a bounded fixed point: every application of the
// nesting rule strictly decreases the pair measure, so the loop terminates in
// at most the initial measure's number of iterations.
func (s *Structurer) nestLists(doc *book.Element) {
	bound := nestingMeasure(doc)
	for i := 0; ; i++ {
		if !nestOnce(doc) {
			break
		}
		if i > bound {
			// The rule structure makes this unreachable; guard anyway so a
			// future regression cannot loop forever.
			s.anomaly(book.AnomalyStructural, "list nesting did not converge")
			break
		}
	}
	wrapRuns(doc)
}

// nestingMeasure counts adjacent sibling item pairs where the second item is
// deeper than the first: the decreasing measure of the rewrite.
func nestingMeasure(root *book.Element) int {
	measure := 0
	root.Walk(func(e *book.Element) bool {
		for i := 0; i+1 < len(e.Children); i++ {
			a, b := e.Children[i], e.Children[i+1]
			if a.Tag == "item" && b.Tag == "item" && itemLevel(b) > itemLevel(a) {
				measure++
			}
		}
		return true
	})
	return measure
}

// nestOnce applies the nesting rule at the first applicable site anywhere in
// the tree: an item followed by a run of deeper items absorbs that run as
// child content. Items deeper by more than one level are treated the same as
// one-deeper items, which keeps the rewrite total on malformed input.
func nestOnce(root *book.Element) bool {
	applied := false
	root.Walk(func(e *book.Element) bool {
		if applied {
			return false
		}
		for i := 0; i+1 < len(e.Children); i++ {
			a, b := e.Children[i], e.Children[i+1]
			if a.Tag != "item" || b.Tag != "item" || itemLevel(b) <= itemLevel(a) {
				continue
			}
			level := itemLevel(a)
			j := i + 1
			for j < len(e.Children) && e.Children[j].Tag == "item" && itemLevel(e.Children[j]) > level {
				j++
			}
			run := e.Children[i+1 : j]
			a.Children = append(a.Children, run...)
			e.Children = append(e.Children[:i+1], e.Children[j:]...)
			applied = true
			return false
		}
		return true
	})
	return applied
}

// wrapRuns groups maximal runs of adjacent same-type same-level sibling
// items into one list element, assigns item labels, and drops the level
// attributes. A type change at the same level starts a new list.
func wrapRuns(e *book.Element) {
	for _, c := range e.Children {
		wrapRuns(c)
	}
	if e.Tag == "list" {
		// Items here are already wrapped; re-wrapping would break the
		// idempotence the rewrite guarantees.
		return
	}
	var out []*book.Element
	i := 0
	for i < len(e.Children) {
		c := e.Children[i]
		if c.Tag != "item" {
			out = append(out, c)
			i++
			continue
		}
		typ := c.AttrOr("type", "plain")
		level := itemLevel(c)
		j := i
		for j < len(e.Children) &&
			e.Children[j].Tag == "item" &&
			e.Children[j].AttrOr("type", "plain") == typ &&
			itemLevel(e.Children[j]) == level {
			j++
		}
		list := book.New("list").SetAttr("type", typ)
		for n, item := range e.Children[i:j] {
			item.RemoveAttr("level")
			item.RemoveAttr("type")
			if label := renderLabel(typ, n+1); label != "" {
				item.SetAttr("label", label)
			}
			list.Append(item)
		}
		out = append(out, list)
		i = j
	}
	e.Children = out
}

func renderLabel(typ string, n int) string {
	if f, ok := itemLabels[typ]; ok {
		return f(n)
	}
	return ""
}

func itemLevel(e *book.Element) int {
	n, err := strconv.Atoi(e.AttrOr("level", "1"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func alpha(n int) string {
	// 1 -> a, 26 -> z, 27 -> aa.
	s := ""
	for n > 0 {
		n--
		s = string(rune('a'+n%26)) + s
		n /= 26
	}
	return s
}

var romanDigits = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func roman(n int) string {
	if n <= 0 {
		return fmt.Sprintf("%d", n)
	}
	s := ""
	for _, d := range romanDigits {
		for n >= d.value {
			s += d.symbol
			n -= d.value
		}
	}
	return s
}

func upper(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}
