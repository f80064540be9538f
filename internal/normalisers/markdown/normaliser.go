package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise strips Markdown syntax, keeping prose and code block bodies.
func (n *Normaliser) Normalise(_ context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if upload == nil {
		return nil, domain.ErrInvalidInput
	}

	raw := strings.ReplaceAll(string(upload.Content), "\r\n", "\n")

	meta := normalisers.BaseMetadata(upload.Metadata, upload.MIMEType, "markdown")
	meta["title"] = extractTitle(raw, upload.Filename)

	return &driven.NormaliseResult{
		Text:     stripMarkdown(raw),
		Metadata: meta,
	}, nil
}

// extractTitle returns the first H1 heading, or a title derived from the file name.
func extractTitle(content, filename string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return normalisers.TitleFromFilename(filename)
}

var (
	fenceLine     = regexp.MustCompile("(?m)^[ \t]*(```|~~~).*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	starEmphasis  = regexp.MustCompile(`(\*\*|\*)([^\s*][^*]*?)(\*\*|\*)`)
	underEmphasis = regexp.MustCompile(`(?m)(^|[\s(])(__|_)([^\s_][^_]*?)(__|_)([\s.,;:!?)]|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>[ \t]?`)
	bullets       = regexp.MustCompile(`(?m)^([ \t]*)[-*+][ \t]+`)
	numbered      = regexp.MustCompile(`(?m)^([ \t]*)\d+[.)][ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting. Fenced code keeps its body.
func stripMarkdown(content string) string {
	content = fenceLine.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = horizontal.ReplaceAllString(content, "")
	content = starEmphasis.ReplaceAllString(content, "$2")
	content = underEmphasis.ReplaceAllString(content, "$1$3$5")
	content = blockquote.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "$1")
	content = numbered.ReplaceAllString(content, "$1")
	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
