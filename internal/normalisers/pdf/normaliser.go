package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/logger"
	"github.com/custodia-labs/embediq/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// LicenseKeyEnv names the environment variable holding the UniDoc metered key.
const LicenseKeyEnv = "UNIDOC_LICENSE_KEY"

// ErrEncrypted indicates a password protected PDF.
var ErrEncrypted = errors.New("pdf is encrypted")

var licenseOnce sync.Once

// PageExtractor returns the text of each page of a PDF.
type PageExtractor interface {
	ExtractPages(content []byte) ([]string, error)
}

// Normaliser extracts text from PDF documents.
type Normaliser struct {
	extractor PageExtractor
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithExtractor replaces the page extractor. Used by tests.
func WithExtractor(e PageExtractor) Option {
	return func(n *Normaliser) {
		n.extractor = e
	}
}

// New creates a PDF normaliser. licenseKey is applied once per process;
// an empty key leaves unipdf unlicensed.
func New(licenseKey string, opts ...Option) *Normaliser {
	if licenseKey != "" {
		licenseOnce.Do(func() {
			if err := license.SetMeteredKey(licenseKey); err != nil {
				logger.Error("Failed to set UniDoc license key: %v. PDF processing may fail.", err)
			}
		})
	}

	n := &Normaliser{extractor: unipdfExtractor{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page, separated by blank lines.
func (n *Normaliser) Normalise(_ context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	pages, err := n.extractor.ExtractPages(upload.Content)
	if err != nil {
		return nil, fmt.Errorf("extract pdf %s: %w: %v", upload.Filename, domain.ErrExtractionFailed, err)
	}

	text := strings.Join(pages, "\n\n")
	logger.Debug("Extracted %d pages (%d bytes) from %s", len(pages), len(text), upload.Filename)

	meta := normalisers.BaseMetadata(upload.Metadata, upload.MIMEType, "pdf")
	meta["title"] = extractTitle(text, upload.Filename)
	meta["pages"] = len(pages)

	return &driven.NormaliseResult{
		Text:     text,
		Metadata: meta,
	}, nil
}

// extractTitle uses the first short non-empty line, falling back to the file name.
func extractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) < 200 && !strings.ContainsRune(line, 0) {
			return line
		}
	}
	return normalisers.TitleFromFilename(filename)
}

type unipdfExtractor struct{}

func (unipdfExtractor) ExtractPages(content []byte) ([]string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	encrypted, err := reader.IsEncrypted()
	if err != nil {
		return nil, err
	}
	if encrypted {
		ok, err := reader.Decrypt([]byte(""))
		if err != nil || !ok {
			return nil, ErrEncrypted
		}
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return nil, err
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		text, err := ex.ExtractText()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}
