// Package postprocessors turns document text into chunks ready for embedding.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Pipeline chains PostProcessors and runs them in order.
// It implements the PostProcessorPipeline interface.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the document through all processors in order and checks the
// final chunks against the document: every chunk must belong to it, carry its
// sequence index, and point inside its text with non-decreasing offsets.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk

	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	if err := checkChunks(doc, chunks); err != nil {
		return nil, err
	}

	return chunks, nil
}

func checkChunks(doc *domain.Document, chunks []domain.Chunk) error {
	prevStart, prevEnd := 0, 0
	for i, c := range chunks {
		switch {
		case c.DocumentID != doc.ID:
			return fmt.Errorf("chunk %d belongs to %q, not %q", i, c.DocumentID, doc.ID)
		case c.Index != i:
			return fmt.Errorf("chunk %d has index %d", i, c.Index)
		case c.Start < 0 || c.End <= c.Start || c.End > len(doc.Content):
			return fmt.Errorf("chunk %d offsets [%d,%d) outside text of length %d", i, c.Start, c.End, len(doc.Content))
		case c.Start < prevStart || c.End < prevEnd:
			return fmt.Errorf("chunk %d offsets decrease", i)
		}
		prevStart, prevEnd = c.Start, c.End
	}
	return nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
