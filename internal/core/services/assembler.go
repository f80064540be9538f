package services

import (
	"strings"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// Ensure ContextAssembler implements the interface.
var _ driving.ContextAssembler = ContextAssembler{}

// Separators used when rendering a context.
const (
	chunkSeparator = "\n\n"
	groupLabel     = "DOCUMENT: "
)

// ContextAssembler renders retrieval results for generation. It holds no state.
type ContextAssembler struct{}

// Assemble builds the context for mode. Normal and ELI5 produce one flat
// string; compare groups chunks by document in first-seen order.
func (ContextAssembler) Assemble(result domain.RetrievalResult, mode domain.Mode) domain.Context {
	c := domain.Context{
		Mode:    mode,
		Sources: result.Chunks,
	}

	if !mode.GroupsByDocument() {
		texts := make([]string, len(result.Chunks))
		for i, sc := range result.Chunks {
			texts[i] = sc.Chunk.Content
		}
		c.Text = strings.Join(texts, chunkSeparator)
		return c
	}

	c.Groups = GroupByDocument(result)
	var b strings.Builder
	for i, g := range c.Groups {
		if i > 0 {
			b.WriteString(chunkSeparator)
		}
		b.WriteString(groupLabel)
		b.WriteString(g.DocumentID)
		b.WriteByte('\n')
		b.WriteString(strings.Join(g.Texts, "\n"))
	}
	c.Text = b.String()
	return c
}

// GroupByDocument collects chunk texts per document. Groups appear in the
// order their first chunk appears in the result; texts keep result order.
func GroupByDocument(result domain.RetrievalResult) []domain.ContextGroup {
	index := make(map[string]int)
	var groups []domain.ContextGroup
	for _, sc := range result.Chunks {
		id := sc.Chunk.DocumentID
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, domain.ContextGroup{DocumentID: id})
		}
		groups[i].Texts = append(groups[i].Texts, sc.Chunk.Content)
	}
	return groups
}
