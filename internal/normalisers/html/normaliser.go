package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// noise is removed before text extraction.
const noise = "script, style, noscript, svg, template, iframe, nav"

// mainSelectors are tried in order; the first match is used as the content root.
var mainSelectors = []string{"main", "article", "[role=main]", "#content", ".content"}

// blockTags get a line break after their text.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "hr": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "table": true, "section": true, "article": true,
	"ul": true, "ol": true, "dt": true, "dd": true,
}

// Normalise parses the markup and returns its readable text, one block per line.
func (n *Normaliser) Normalise(_ context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(upload.Content))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = normalisers.TitleFromFilename(upload.Filename)
	}

	doc.Find(noise).Remove()

	root := doc.Find("body")
	for _, sel := range mainSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			root = found
			break
		}
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	root.Each(func(_ int, s *goquery.Selection) {
		writeText(&b, s)
	})

	meta := normalisers.BaseMetadata(upload.Metadata, upload.MIMEType, "html")
	meta["title"] = title

	return &driven.NormaliseResult{
		Text:     tidy(b.String()),
		Metadata: meta,
	}, nil
}

// writeText walks the node tree and writes text, breaking lines after block elements.
func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
			return
		}
		writeText(b, c)
		if blockTags[goquery.NodeName(c)] {
			b.WriteByte('\n')
		}
	})
}

// tidy collapses runs of whitespace within lines and drops empty lines.
func tidy(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
