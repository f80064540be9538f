// Package chunker splits document text into overlapping fixed-size windows.
package chunker

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// Name is the processor's registry name.
const Name = "chunker"

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping bytes.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Window is one chunk boundary over a text.
type Window struct {
	Index int
	Start int
	End   int
	Text  string
}

// Validate checks a size/overlap pair. It returns domain.ErrInvalidChunkConfig
// unless size > 0 and 0 <= overlap < size.
func Validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", domain.ErrInvalidChunkConfig, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrInvalidChunkConfig, overlap, size)
	}
	return nil
}

// Split cuts text into windows. Window i starts at max(0, previous end - overlap)
// and ends at min(start + size, len(text)); splitting stops at the window that
// reaches the end of the text. Offsets are byte offsets.
func Split(text string, size, overlap int) ([]Window, error) {
	if err := Validate(size, overlap); err != nil {
		return nil, err
	}

	n := len(text)
	if n == 0 {
		return nil, nil
	}

	windows := make([]Window, 0, n/(size-overlap)+1)
	prevEnd := 0
	for {
		start := max(0, prevEnd-overlap)
		end := min(start+size, n)
		windows = append(windows, Window{
			Index: len(windows),
			Start: start,
			End:   end,
			Text:  text[start:end],
		})
		if end == n {
			return windows, nil
		}
		prevEnd = end
	}
}

// ChunkID returns the identifier of a document's chunk at index i.
func ChunkID(documentID string, i int) string {
	return documentID + "#" + strconv.Itoa(i)
}

// Processor splits document content into fixed-size chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker processor. An invalid size/overlap pair is reported
// here rather than when the first document is processed.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if err := Validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}

	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return Name
}

// Size returns the configured chunk size.
func (p *Processor) Size() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	windows, err := Split(doc.Content, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, w.Index),
			DocumentID: doc.ID,
			Index:      w.Index,
			Start:      w.Start,
			End:        w.End,
			Content:    w.Text,
			Metadata:   make(map[string]any),
		})
	}

	return chunks, nil
}
