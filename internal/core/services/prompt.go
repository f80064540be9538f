package services

import (
	"strings"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// contextPlaceholder marks where the assembled context goes in a template.
const contextPlaceholder = "%s"

// BuildGenerationRequest fills template with the assembled context. Only the
// first placeholder is replaced, so other percent signs in a user-edited
// template are left alone.
func BuildGenerationRequest(template string, c domain.Context, question string) domain.GenerationRequest {
	return domain.GenerationRequest{
		System:   strings.Replace(template, contextPlaceholder, c.Text, 1),
		Question: question,
		Mode:     c.Mode,
	}
}

// ResolveMode returns the mode to use for a scope of scopeSize documents.
// Compare needs at least two; with fewer it falls back to normal and ok is false.
func ResolveMode(requested domain.Mode, scopeSize int) (domain.Mode, bool) {
	if requested == "" {
		return domain.ModeNormal, true
	}
	if requested == domain.ModeCompare && scopeSize < domain.MinCompareDocuments {
		return domain.ModeNormal, false
	}
	return requested, true
}
