// Package extract pulls plain text out of uploaded legal documents.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/valpere/lexitran/internal/markdown"
)

// ErrDocumentFormat is wrapped by every DocumentFormatError.
var ErrDocumentFormat = errors.New("unreadable document")

// DocumentFormatError reports a document whose text could not be extracted.
type DocumentFormatError struct {
	Name   string
	Format string
	Err    error
}

func (e *DocumentFormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: cannot read %s document", e.Name, e.Format)
	}
	return fmt.Sprintf("%s: cannot read %s document: %v", e.Name, e.Format, e.Err)
}

func (e *DocumentFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDocumentFormat}
	}
	return []error{ErrDocumentFormat, e.Err}
}

const (
	FormatPDF      = "pdf"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

var pdfMagic = []byte("%PDF-")

// Detect returns the format of a document from its magic bytes, falling back
// to the file extension.
func Detect(name string, data []byte) string {
	if bytes.HasPrefix(data, pdfMagic) {
		return FormatPDF
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FormatPDF
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatText
	}
}

// Extract returns the full text of the document. PDF pages are concatenated
// in page order.
func Extract(name string, data []byte) (string, error) {
	format := Detect(name, data)
	switch format {
	case FormatPDF:
		return extractPDF(name, data)
	case FormatMarkdown:
		if !utf8.Valid(data) {
			return "", &DocumentFormatError{Name: name, Format: format, Err: errors.New("invalid UTF-8")}
		}
		return markdown.ToPlainText(data), nil
	default:
		if !utf8.Valid(data) {
			return "", &DocumentFormatError{Name: name, Format: format, Err: errors.New("invalid UTF-8")}
		}
		return string(data), nil
	}
}

func extractPDF(name string, data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = &DocumentFormatError{Name: name, Format: FormatPDF, Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	if len(data) == 0 {
		return "", &DocumentFormatError{Name: name, Format: FormatPDF, Err: errors.New("empty file")}
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentFormatError{Name: name, Format: FormatPDF, Err: err}
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", &DocumentFormatError{Name: name, Format: FormatPDF, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
