package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDocument_Fields tests Document structure fields
func TestDocument_Fields(t *testing.T) {
	now := time.Now()

	doc := Document{
		ID:        "1700000000000-report.pdf",
		Filename:  "report.pdf",
		MIMEType:  "application/pdf",
		Size:      2048,
		Content:   "hello world",
		Metadata:  map[string]any{"pages": 2},
		CreatedAt: now,
	}

	assert.Equal(t, "1700000000000-report.pdf", doc.ID)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.MIMEType)
	assert.Equal(t, int64(2048), doc.Size)
	assert.Equal(t, 2, doc.Metadata["pages"])
	assert.Equal(t, now, doc.CreatedAt)
	assert.Equal(t, 0, doc.ChunkCount())
}

func TestChunk_Len(t *testing.T) {
	c := Chunk{Start: 800, End: 1800}
	assert.Equal(t, 1000, c.Len())
}

func TestDocument_ChunkCount(t *testing.T) {
	doc := Document{Chunks: []Chunk{{Index: 0}, {Index: 1}}}
	assert.Equal(t, 2, doc.ChunkCount())
}

func TestUpload_Size(t *testing.T) {
	u := Upload{Content: []byte("abcdef")}
	assert.Equal(t, int64(6), u.Size())
}
