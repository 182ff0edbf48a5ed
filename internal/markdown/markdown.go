// Package markdown turns Markdown sources into plain text for segmentation.
package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// blockTags end a text block; a newline is emitted in their place so that
// headings and list items never run into the following sentence.
var blockTags = map[string]bool{
	"p": true, "/p": true, "br": true, "br/": true, "li": true, "/li": true,
	"h1": true, "/h1": true, "h2": true, "/h2": true, "h3": true, "/h3": true,
	"h4": true, "/h4": true, "h5": true, "/h5": true, "h6": true, "/h6": true,
	"tr": true, "/tr": true, "blockquote": true, "/blockquote": true, "hr": true, "hr/": true,
}

func ToHTML(md []byte) string {
	opts := mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags,
	}
	renderer := mdhtml.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(md)
	return string(markdown.Render(doc, renderer))
}

// ToPlainText renders md and strips the markup, keeping block boundaries as
// newlines and decoding HTML entities.
func ToPlainText(md []byte) string {
	return strings.TrimSpace(html.UnescapeString(StripHTMLTags(ToHTML(md))))
}

// StripHTMLTags removes tags from htmlContent. Block-level tags become
// newlines.
func StripHTMLTags(htmlContent string) string {
	var result bytes.Buffer
	var tag strings.Builder
	inTag := false

	for _, ch := range htmlContent {
		switch {
		case ch == '<':
			inTag = true
			tag.Reset()
		case ch == '>' && inTag:
			inTag = false
			fields := strings.Fields(tag.String())
			if len(fields) > 0 && blockTags[strings.ToLower(fields[0])] {
				result.WriteByte('\n')
			}
		case inTag:
			tag.WriteRune(ch)
		default:
			result.WriteRune(ch)
		}
	}

	return result.String()
}
