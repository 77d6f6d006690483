package wml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrNoDocumentPart is returned when a .docx container has no
// word/document.xml part.
var ErrNoDocumentPart = errors.New("wml: word/document.xml not found in container")

// Parse reads a WordprocessingML stream (a bare document.xml) into a node
// tree and returns its root element.
func Parse(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var stack []*Node
	var root *Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse wml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name, Attr: append([]xml.Attr(nil), t.Attr...)}
			if len(stack) == 0 {
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := string([]byte(t))
			if text == "" {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{IsText: true, Text: text})
		}
	}

	if root == nil {
		return nil, errors.New("parse wml: no root element")
	}
	return root, nil
}

// ParseDocument accepts either a .docx container or a bare document.xml
// stream and returns the w:document root. Container detection is by zip
// signature, mirroring how the markup arrives from upstream tooling.
func ParseDocument(raw []byte) (*Node, error) {
	if bytes.HasPrefix(raw, []byte("PK")) {
		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return nil, fmt.Errorf("open docx container: %w", err)
		}
		return parseContainer(zr)
	}
	return Parse(bytes.NewReader(raw))
}

func parseContainer(zr *zip.Reader) (*Node, error) {
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open document part: %w", err)
		}
		defer rc.Close()
		return Parse(rc)
	}
	return nil, ErrNoDocumentPart
}

// Body returns the w:body element under a w:document root, or nil.
func Body(doc *Node) *Node {
	if doc == nil {
		return nil
	}
	if doc.Is("body") {
		return doc
	}
	return doc.Child("body")
}
