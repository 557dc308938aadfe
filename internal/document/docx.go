package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"
)

// maxDocumentXMLBytes bounds the decompressed main document part.
const maxDocumentXMLBytes = 32 << 20

var headingStyles = map[string]string{
	"Heading1": "h1",
	"Heading2": "h2",
	"Heading3": "h3",
	"Heading4": "h4",
	"Heading5": "h5",
	"Heading6": "h6",
}

// convertDOCX renders the main part of a Word document as HTML. Paragraphs
// become <p> (or <hN> for heading styles), bold and italic runs become
// <strong> and <em>, and tables keep their row and cell structure.
// Empty paragraphs are dropped.
func convertDOCX(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open docx: %v", ErrConversionFailed, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			part = f
			break
		}
	}
	if part == nil {
		return nil, fmt.Errorf("%w: word/document.xml missing", ErrConversionFailed)
	}

	rc, err := part.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open document part: %v", ErrConversionFailed, err)
	}
	defer rc.Close()

	out, err := renderDocumentXML(io.LimitReader(rc, maxDocumentXMLBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}
	return out, nil
}

type docxRun struct {
	text   strings.Builder
	bold   bool
	italic bool
}

func (r *docxRun) html() string {
	s := html.EscapeString(r.text.String())
	if s == "" {
		return ""
	}
	if r.italic {
		s = "<em>" + s + "</em>"
	}
	if r.bold {
		s = "<strong>" + s + "</strong>"
	}
	return s
}

type docxRenderer struct {
	out       bytes.Buffer
	para      strings.Builder
	paraTag   string
	inPara    bool
	run       *docxRun
	inRunProp bool
	inText    bool
}

func renderDocumentXML(r io.Reader) ([]byte, error) {
	dec := xml.NewDecoder(r)
	var d docxRenderer

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			d.start(t)
		case xml.EndElement:
			d.end(t)
		case xml.CharData:
			if d.inText && d.run != nil {
				d.run.text.Write(t)
			}
		}
	}
	return d.out.Bytes(), nil
}

func (d *docxRenderer) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		d.out.WriteString(`<table class="docx-table">`)
	case "tr":
		d.out.WriteString(`<tr class="docx-tr">`)
	case "tc":
		d.out.WriteString(`<td class="docx-td">`)
	case "p":
		d.inPara = true
		d.paraTag = "p"
		d.para.Reset()
	case "pStyle":
		if tag, ok := headingStyles[attrVal(t)]; ok && d.inPara {
			d.paraTag = tag
		}
	case "r":
		d.run = &docxRun{}
	case "rPr":
		d.inRunProp = d.run != nil
	case "b":
		if d.inRunProp {
			d.run.bold = toggleOn(t)
		}
	case "i":
		if d.inRunProp {
			d.run.italic = toggleOn(t)
		}
	case "rStyle":
		if d.inRunProp {
			switch attrVal(t) {
			case "Strong":
				d.run.bold = true
			case "Emphasis":
				d.run.italic = true
			}
		}
	case "t":
		d.inText = true
	case "tab":
		if d.run != nil {
			d.run.text.WriteByte('\t')
		}
	case "br":
		if d.inPara {
			d.flushRun()
			d.para.WriteString("<br>")
		}
	}
}

func (d *docxRenderer) end(t xml.EndElement) {
	switch t.Name.Local {
	case "tbl":
		d.out.WriteString("</table>")
	case "tr":
		d.out.WriteString("</tr>")
	case "tc":
		d.out.WriteString("</td>")
	case "p":
		d.run = nil
		if d.para.Len() > 0 {
			fmt.Fprintf(&d.out, "<%s>%s</%s>", d.paraTag, d.para.String(), d.paraTag)
		}
		d.inPara = false
	case "r":
		d.flushRun()
		d.run = nil
	case "rPr":
		d.inRunProp = false
	case "t":
		d.inText = false
	}
}

func (d *docxRenderer) flushRun() {
	if d.run == nil {
		return
	}
	if d.inPara {
		d.para.WriteString(d.run.html())
	}
	// Text after a <w:br/> in the same run keeps the run's formatting.
	d.run = &docxRun{bold: d.run.bold, italic: d.run.italic}
}

func attrVal(t xml.StartElement) string {
	for _, a := range t.Attr {
		if a.Name.Local == "val" {
			return a.Value
		}
	}
	return ""
}

// toggleOn reads an OOXML on/off property such as <w:b/> or <w:b w:val="0"/>.
func toggleOn(t xml.StartElement) bool {
	switch attrVal(t) {
	case "0", "false", "off":
		return false
	default:
		return true
	}
}
