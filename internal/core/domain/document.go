package domain

import "time"

// Document is an uploaded document after text extraction.
// Its text is immutable once created; chunks are appended by ingestion.
type Document struct {
	// ID is the unique identifier for the document.
	// It is stable for the lifetime of the upload.
	ID string

	// Filename is the original name of the uploaded file.
	Filename string

	// MIMEType is the content type of the uploaded artifact.
	MIMEType string

	// Size is the size of the uploaded artifact in bytes.
	Size int64

	// Content is the full extracted text.
	Content string

	// Chunks is the ordered chunk list, by ascending Index.
	Chunks []Chunk

	// Metadata contains arbitrary key-value pairs from extraction.
	Metadata map[string]any

	// CreatedAt is when the document was stored.
	CreatedAt time.Time
}

// Chunk is a bounded, overlapping window of a document's text.
// It is owned by its Document; the vector index holds a derived view.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Index is the zero-based sequence number within the document.
	Index int

	// Start is the byte offset of the first character in the parent text.
	Start int

	// End is the byte offset one past the last character in the parent text.
	End int

	// Content is the text slice Content == parent.Content[Start:End].
	Content string

	// Embedding is the vector representation. Set once, never mutated.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Len returns the byte length of the chunk window.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// ChunkCount returns the number of chunks attached to the document.
func (d Document) ChunkCount() int {
	return len(d.Chunks)
}

// Upload is an artifact handed to the ingestion service before extraction.
type Upload struct {
	// Filename is the original file name.
	Filename string

	// MIMEType is the declared or detected content type (e.g. "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains transport-specific key-value pairs.
	Metadata map[string]any
}

// Size returns the byte size of the upload.
func (u Upload) Size() int64 {
	return int64(len(u.Content))
}
