package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/embediq/internal/core/domain"
)

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore(nil)
	uploaded := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Put(ctx, &domain.Document{
		ID: "d1", Filename: "a.txt", MIMEType: "text/plain", Size: 5, Content: "hello", CreatedAt: uploaded,
	}))
	require.NoError(t, store.AppendChunks(ctx, "d1", []domain.Chunk{{ID: "d1#0", DocumentID: "d1", Start: 0, End: 5, Content: "hello"}}))
	require.NoError(t, store.Put(ctx, &domain.Document{ID: "d2", Filename: "b.md", Content: "x"}))

	svc := NewDocumentService(store)
	summaries, err := svc.List(ctx)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "d1", summaries[0].ID)
	assert.Equal(t, "a.txt", summaries[0].Filename)
	assert.Equal(t, int64(5), summaries[0].Size)
	assert.Equal(t, 5, summaries[0].TextLength)
	assert.Equal(t, 1, summaries[0].ChunkCount)
	assert.Equal(t, uploaded, summaries[0].UploadedAt)
	assert.Equal(t, "d2", summaries[1].ID)
	assert.Equal(t, 0, summaries[1].ChunkCount)
}

func TestDocumentService_List_Empty(t *testing.T) {
	summaries, err := NewDocumentService(memory.NewDocumentStore(nil)).List(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}

func TestDocumentService_DeleteCascadesToIndex(t *testing.T) {
	ctx := context.Background()
	idx := memory.NewVectorIndex()
	store := memory.NewDocumentStore(idx)
	require.NoError(t, store.Put(ctx, &domain.Document{ID: "a", Content: "alpha"}))
	require.NoError(t, store.Put(ctx, &domain.Document{ID: "b", Content: "beta"}))
	indexChunk(t, idx, "a", 0, "alpha", []float32{1, 0, 0})
	indexChunk(t, idx, "b", 0, "beta", []float32{0, 1, 0})

	svc := NewDocumentService(store)
	require.NoError(t, svc.Delete(ctx, "a"))

	assert.Equal(t, 1, idx.Len())
	_, err := svc.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	r := NewRetriever(queryEmbedder(), idx, retrievalSettings(5))
	_, err = r.Retrieve(ctx, "question", []string{"a"}, 5)
	assert.ErrorIs(t, err, domain.ErrNoRelevantInformation)
}

func TestDocumentService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewDocumentService(memory.NewDocumentStore(nil))

	assert.ErrorIs(t, svc.Delete(ctx, ""), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), domain.ErrNotFound)

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
