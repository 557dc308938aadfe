// Package document converts uploaded files into script content.
//
// Supported inputs are plain text, HTML, Markdown and Word (.docx). HTML
// output is always passed through a sanitizing policy before it is returned.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
)

// MIME types accepted by Convert.
const (
	TypeText     = "text/plain"
	TypeHTML     = "text/html"
	TypeMarkdown = "text/markdown"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypePDF      = "application/pdf"
)

var (
	// ErrUnsupportedType is returned for MIME types Convert cannot handle.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrConversionFailed is returned when the input is malformed.
	ErrConversionFailed = errors.New("could not process file")
)

// Format describes the markup of converted content.
type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// Result is a converted document.
type Result struct {
	Content string
	Format  Format
}

var extensionTypes = map[string]string{
	".txt":      TypeText,
	".text":     TypeText,
	".htm":      TypeHTML,
	".html":     TypeHTML,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".docx":     TypeDOCX,
	".pdf":      TypePDF,
}

// DetectType returns the MIME type to convert with. A declared type wins
// unless it is missing or generic, in which case the file extension decides.
func DetectType(filename, declared string) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mediaType
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return t
	}
	return declared
}

// Converter turns document bytes into sanitized script content.
// It is safe for concurrent use.
type Converter struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// NewConverter returns a Converter using a user-generated-content policy
// extended with the table classes emitted for Word documents.
func NewConverter() *Converter {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").
		Matching(regexp.MustCompile(`^docx-(table|tr|td)$`)).
		OnElements("table", "tr", "td")

	return &Converter{
		policy:   policy,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM, emoji.Emoji)),
	}
}

// Convert converts data of the given MIME type.
func (c *Converter) Convert(ctx context.Context, data []byte, mimeType string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch mimeType {
	case TypeText:
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrConversionFailed)
		}
		return &Result{Content: string(data), Format: FormatText}, nil

	case TypeHTML:
		return c.html(data), nil

	case TypeMarkdown:
		var buf bytes.Buffer
		if err := c.markdown.Convert(data, &buf); err != nil {
			return nil, fmt.Errorf("%w: render markdown: %v", ErrConversionFailed, err)
		}
		return c.html(buf.Bytes()), nil

	case TypeDOCX:
		out, err := convertDOCX(data)
		if err != nil {
			return nil, err
		}
		return c.html(out), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mimeType)
	}
}

func (c *Converter) html(data []byte) *Result {
	return &Result{
		Content: strings.TrimSpace(string(c.policy.SanitizeBytes(data))),
		Format:  FormatHTML,
	}
}
