package book

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// WriteXML serializes the tree as publication XML. Escaping is delegated to
// the stdlib token encoder. A write failure aborts the document; the tree is
// not touched.
func WriteXML(w io.Writer, root *Element) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(xmlHeader); err != nil {
		return fmt.Errorf("write xml header: %w", err)
	}
	enc := xml.NewEncoder(bw)
	if err := encodeElement(enc, root); err != nil {
		return fmt.Errorf("write xml: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("flush xml: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush xml: %w", err)
	}
	return nil
}

func encodeElement(enc *xml.Encoder, e *Element) error {
	if e == nil {
		return nil
	}
	if e.IsText() {
		return enc.EncodeToken(xml.CharData([]byte(e.Text)))
	}
	start := xml.StartElement{Name: xml.Name{Local: e.Tag}}
	for _, a := range e.Attrs {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range e.Children {
		if err := encodeElement(enc, c); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}
