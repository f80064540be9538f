package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

func scored(docID string, i int, content string, score float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         fmt.Sprintf("%s#%d", docID, i),
			DocumentID: docID,
			Index:      i,
			Content:    content,
		},
		Score: score,
	}
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer and sources", func(t *testing.T) {
		chat := &mockChatService{
			resp: &driving.ChatResponse{
				Answer:  "Cats purr.",
				Mode:    domain.ModeNormal,
				Sources: []domain.ScoredChunk{scored("cats", 0, "Cats purr when content.", 0.9)},
			},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question: "What do cats do?",
			Files:    []string{"cats"},
		})

		require.NoError(t, err)
		assert.Equal(t, "Cats purr.", output.Answer)
		assert.Equal(t, "normal", output.Mode)
		require.Len(t, output.Sources, 1)
		assert.Equal(t, "cats", output.Sources[0].DocumentID)
		assert.Equal(t, "cats#0", output.Sources[0].ChunkID)
		assert.Equal(t, 0.9, output.Sources[0].Score)

		assert.Equal(t, "What do cats do?", chat.req.Message)
		assert.Equal(t, mcpSessionID, chat.req.SessionID)
		assert.Equal(t, domain.ModeNormal, chat.req.Mode)
		assert.Equal(t, []string{"cats"}, chat.req.Files)
	})

	t.Run("passes mode and session through", func(t *testing.T) {
		chat := &mockChatService{
			resp: &driving.ChatResponse{Answer: "diff", Mode: domain.ModeCompare},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Chat: chat})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{
			Question:  "Compare them",
			Mode:      "COMPARE",
			SessionID: "s1",
		})

		require.NoError(t, err)
		assert.Equal(t, "compare", output.Mode)
		assert.Empty(t, output.Sources)
		assert.Equal(t, domain.ModeCompare, chat.req.Mode)
		assert.Equal(t, "s1", chat.req.SessionID)
	})

	t.Run("unknown mode is invalid input", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Chat: &mockChatService{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q", Mode: "verbose"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "invalid arguments")
	})

	t.Run("no chat service", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("no relevant information", func(t *testing.T) {
		chat := &mockChatService{err: domain.ErrNoRelevantInformation}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrNoRelevantInformation)
		assert.Contains(t, err.Error(), "no relevant information found in the uploaded documents")
	})

	t.Run("upstream failure", func(t *testing.T) {
		chat := &mockChatService{err: fmt.Errorf("generate: %w", domain.ErrGenerationUnavailable)}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Chat: chat})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		assert.Contains(t, err.Error(), "AI provider unavailable")
	})
}

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns passages", func(t *testing.T) {
		retriever := &mockRetriever{
			result: domain.RetrievalResult{Chunks: []domain.ScoredChunk{
				scored("a", 0, "first", 0.8),
				scored("b", 2, "second", 0.5),
			}},
		}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{
			Query: "test",
			Files: []string{"a", "b"},
			K:     2,
		})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		require.Len(t, output.Results, 2)
		assert.Equal(t, "a#0", output.Results[0].ChunkID)
		assert.Equal(t, "second", output.Results[1].Content)
		assert.Equal(t, "b", output.Results[1].DocumentID)

		assert.Equal(t, "test", retriever.query)
		assert.Equal(t, []string{"a", "b"}, retriever.scope)
		assert.Equal(t, 2, retriever.k)
	})

	t.Run("default k is 5", func(t *testing.T) {
		retriever := &mockRetriever{}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Results)
		assert.Equal(t, 5, retriever.k)
	})

	t.Run("empty index", func(t *testing.T) {
		retriever := &mockRetriever{err: domain.ErrNoDocumentsIndexed}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "test"})

		assert.ErrorIs(t, err, domain.ErrNoDocumentsIndexed)
		assert.Contains(t, err.Error(), "no documents have been indexed yet")
	})

	t.Run("other errors pass through", func(t *testing.T) {
		retriever := &mockRetriever{err: errors.New("index corrupted")}
		server, err := NewServer(&Ports{Retriever: retriever})
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Query: "test"})

		require.Error(t, err)
		assert.Equal(t, "index corrupted", err.Error())
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()
	uploaded := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("lists documents", func(t *testing.T) {
		docs := &mockDocumentService{
			summaries: []driving.DocumentSummary{{
				ID:         "1714564800000-notes.txt",
				Filename:   "notes.txt",
				MIMEType:   "text/plain",
				Size:       42,
				TextLength: 40,
				ChunkCount: 1,
				UploadedAt: uploaded,
			}},
		}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Document: docs})
		require.NoError(t, err)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Equal(t, DocumentOutput{
			ID:         "1714564800000-notes.txt",
			Filename:   "notes.txt",
			MIMEType:   "text/plain",
			Size:       42,
			ChunkCount: 1,
			UploadedAt: "2024-05-01T12:00:00Z",
		}, output.Documents[0])
	})

	t.Run("nil document service returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}})
		require.NoError(t, err)

		_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.NotNil(t, output.Documents)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("store closed")}
		server, err := NewServer(&Ports{Retriever: &mockRetriever{}, Document: docs})
		require.NoError(t, err)

		_, _, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{})

		assert.EqualError(t, err, "store closed")
	})
}
