package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches uploads to the highest priority normaliser that
// handles their MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser. Later registrations win ties.
func (r *Registry) Register(n driven.Normaliser) {
	if n == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
}

// Normalise extracts text with the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	mimeType := ResolveMIMEType(upload.MIMEType, upload.Filename)
	n := r.find(mimeType)
	if n == nil {
		return nil, fmt.Errorf("%s (%s): %w", upload.Filename, mimeType, domain.ErrUnsupportedType)
	}

	resolved := *upload
	resolved.MIMEType = mimeType
	return n.Normalise(ctx, &resolved)
}

// Supports reports whether any normaliser handles the MIME type.
func (r *Registry) Supports(mimeType string) bool {
	return r.find(baseMIME(mimeType)) != nil
}

// SupportedMIMETypes returns the sorted, de-duplicated set of handled types.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []string
	for _, n := range r.normalisers {
		types = append(types, n.SupportedMIMETypes()...)
	}
	slices.Sort(types)
	return slices.Compact(types)
}

func (r *Registry) find(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best driven.Normaliser
	for _, n := range r.normalisers {
		if !slices.Contains(n.SupportedMIMETypes(), mimeType) {
			continue
		}
		if best == nil || n.Priority() >= best.Priority() {
			best = n
		}
	}
	return best
}

// extensionTypes covers extensions the platform MIME table often lacks.
var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".pdf":      "application/pdf",
	".html":     "text/html",
	".htm":      "text/html",
	".csv":      "text/csv",
	".json":     "application/json",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".eml":      "message/rfc822",
}

// ResolveMIMEType returns the declared type without parameters, falling back
// to the file extension when the declared type is empty or generic.
func ResolveMIMEType(declared, filename string) string {
	mt := baseMIME(declared)
	if mt != "" && mt != "application/octet-stream" {
		return mt
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := baseMIME(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	return mt
}

func baseMIME(v string) string {
	v = strings.TrimSpace(strings.ToLower(v))
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
