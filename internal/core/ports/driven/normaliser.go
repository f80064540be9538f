package driven

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// Normaliser extracts plain text from an uploaded artifact.
// Each normaliser handles specific MIME types (e.g., PDF, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise extracts the text of the upload.
	Normalise(ctx context.Context, upload *domain.Upload) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	// Text is the extracted document text.
	Text string

	// Metadata holds format-specific facts (page count, title).
	Metadata map[string]any
}
