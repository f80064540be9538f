package driving

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// ChatService answers questions about the uploaded documents.
type ChatService interface {
	// Send answers one message and records it in the session history.
	Send(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// History returns the records of a session, oldest first.
	History(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error)

	// Sessions returns the IDs of sessions with history, most recent first.
	Sessions(ctx context.Context) ([]string, error)
}

// ChatRequest is one user message.
type ChatRequest struct {
	// SessionID identifies the conversation. Empty uses an anonymous session.
	SessionID string

	// Message is the user's question.
	Message string

	// Mode is the requested answer mode.
	Mode domain.Mode

	// Files restricts retrieval to these document IDs. Empty means all documents.
	Files []string
}

// ChatResponse is the answer to a ChatRequest.
type ChatResponse struct {
	// Answer is the generated text.
	Answer string

	// Mode is the effective mode, which differs from the requested one
	// when compare mode was unavailable for the scope.
	Mode domain.Mode

	// Sources are the chunks the answer was grounded on.
	Sources []domain.ScoredChunk

	// History is the session history including this exchange.
	History []domain.HistoryRecord
}
