package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MIMEType is the Office Open XML word processing type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Normaliser handles DOCX documents.
type Normaliser struct{}

// New creates a new DOCX normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads word/document.xml and returns one line per paragraph.
func (n *Normaliser) Normalise(_ context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(upload.Content), int64(len(upload.Content)))
	if err != nil {
		return nil, fmt.Errorf("open docx %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}

	body, err := readEntry(reader, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("read docx %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}
	text, err := parseDocumentXML(body)
	if err != nil {
		return nil, fmt.Errorf("parse docx %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}

	meta := normalisers.BaseMetadata(upload.Metadata, upload.MIMEType, "docx")
	meta["title"] = extractTitle(reader, upload.Filename)

	return &driven.NormaliseResult{
		Text:     text,
		Metadata: meta,
	}, nil
}

func readEntry(reader *zip.Reader, name string) ([]byte, error) {
	f, err := reader.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// documentXML mirrors the parts of word/document.xml that carry text.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
	Tabs []struct{} `xml:"tab"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", err
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		var b strings.Builder
		for _, r := range para.Runs {
			if len(r.Tabs) > 0 && b.Len() > 0 {
				b.WriteByte('\t')
			}
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// extractTitle reads docProps/core.xml, falling back to the file name.
func extractTitle(reader *zip.Reader, filename string) string {
	var core struct {
		Title string `xml:"title"`
	}
	if content, err := readEntry(reader, "docProps/core.xml"); err == nil {
		if err := xml.Unmarshal(content, &core); err == nil {
			if title := strings.TrimSpace(core.Title); title != "" {
				return title
			}
		}
	}
	return normalisers.TitleFromFilename(filename)
}
