package transform

import (
	"strings"

	"github.com/dgallion1/wordpub/internal/book"
	"github.com/dgallion1/wordpub/internal/wml"
)

// fieldState tracks one complex field (fldChar begin / separate / end) across
// the runs of a paragraph. Nested fields are flattened: only the outermost
// instruction decides the emitted element.
type fieldState struct {
	phase  int // 0 idle, 1 collecting instruction, 2 collecting result
	depth  int
	code   strings.Builder
	result []*book.Element
}

func (fs *fieldState) active() bool     { return fs.phase == 1 }
func (fs *fieldState) collecting() bool { return fs.phase == 2 }

func (fs *fieldState) fldChar(typ string, el *book.Element) {
	switch typ {
	case "begin":
		fs.depth++
		if fs.depth == 1 {
			fs.phase = 1
			fs.code.Reset()
			fs.result = nil
		}
	case "separate":
		if fs.depth == 1 {
			fs.phase = 2
		}
	case "end":
		if fs.depth > 0 {
			fs.depth--
		}
		if fs.depth == 0 {
			fs.emit(el)
			fs.phase = 0
		}
	}
}

func (fs *fieldState) instr(code string) {
	fs.code.WriteString(code)
}

// flush closes a field left open at paragraph end; its result content is kept
// as plain inline content rather than dropped.
func (fs *fieldState) flush(el *book.Element) {
	if fs.phase == 0 {
		return
	}
	el.Append(fs.result...)
	fs.phase = 0
	fs.depth = 0
	fs.result = nil
}

// emit renders the completed field. REF fields targeting a bookmark become
// generic cross-references; everything else contributes its displayed result
// text unchanged.
func (fs *fieldState) emit(el *book.Element) {
	instr := strings.TrimSpace(fs.code.String())
	target := refTarget(instr)
	if target == "" {
		el.Append(fs.result...)
		return
	}
	xref := book.New("xref").SetAttr("rid", target)
	xref.Children = fs.result
	el.Append(xref)
}

// simpleField maps w:fldSimple, whose result is its child runs.
func (t *Transformer) simpleField(f *wml.Node, el *book.Element) {
	instr, _ := f.Attribute("instr")
	inner := book.New("doc") // scratch container
	t.inlineContent(f, inner)
	if target := refTarget(instr); target != "" {
		xref := book.New("xref").SetAttr("rid", target)
		xref.Children = inner.Children
		el.Append(xref)
		return
	}
	el.Append(inner.Children...)
}

// refTarget extracts the bookmark name from a REF field instruction, or ""
// when the instruction is some other field kind.
func refTarget(instr string) string {
	fields := strings.Fields(instr)
	if len(fields) < 2 {
		return ""
	}
	if !strings.EqualFold(fields[0], "REF") {
		return ""
	}
	return fields[1]
}
