package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// defaultRetrieveK is used when the retrieve tool is called without k.
const defaultRetrieveK = domain.DefaultTopK

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string   `json:"question" jsonschema:"the question to answer from the indexed documents"`
	Mode      string   `json:"mode,omitempty" jsonschema:"answer style: normal, eli5 or compare (default normal)"`
	Files     []string `json:"files,omitempty" jsonschema:"document ids to restrict the answer to (default all)"`
	SessionID string   `json:"session_id,omitempty" jsonschema:"conversation id used to keep history (default mcp)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string         `json:"answer"`
	Mode    string         `json:"mode"`
	Sources []SourceOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string   `json:"query" jsonschema:"the text to find relevant passages for"`
	Files []string `json:"files,omitempty" jsonschema:"document ids to search (default all)"`
	K     int      `json:"k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Results []SourceOutput `json:"results"`
	Count   int            `json:"count"`
}

// SourceOutput is one retrieved passage.
type SourceOutput struct {
	DocumentID string  `json:"document_id"`
	ChunkID    string  `json:"chunk_id"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// ListDocumentsInput is the (empty) input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one indexed document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MIMEType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	ChunkCount int    `json:"chunk_count"`
	UploadedAt string `json:"uploaded_at"`
}

// mcpSessionID groups questions asked over MCP when no session is given.
const mcpSessionID = "mcp"

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Return the passages most relevant to a query",
	}, s.handleRetrieve)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List indexed documents and their ids",
	}, s.handleListDocuments)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if s.ports.Chat == nil {
		return nil, AskOutput{}, ErrMissingChatService
	}

	mode, err := domain.ParseMode(input.Mode)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = mcpSessionID
	}

	resp, err := s.ports.Chat.Send(ctx, driving.ChatRequest{
		SessionID: sessionID,
		Message:   input.Question,
		Mode:      mode,
		Files:     input.Files,
	})
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}

	return nil, AskOutput{
		Answer:  resp.Answer,
		Mode:    string(resp.Mode),
		Sources: sourceOutputs(resp.Sources),
	}, nil
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	k := input.K
	if k <= 0 {
		k = defaultRetrieveK
	}

	result, err := s.ports.Retriever.Retrieve(ctx, input.Query, input.Files, k)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}

	return nil, RetrieveOutput{
		Results: sourceOutputs(result.Chunks),
		Count:   result.Len(),
	}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	if s.ports.Document == nil {
		return nil, ListDocumentsOutput{Documents: []DocumentOutput{}}, nil
	}

	docs, err := s.ports.Document.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = documentOutput(docs[i])
	}
	return nil, output, nil
}

func sourceOutputs(chunks []domain.ScoredChunk) []SourceOutput {
	out := make([]SourceOutput, len(chunks))
	for i, sc := range chunks {
		out[i] = SourceOutput{
			DocumentID: sc.Chunk.DocumentID,
			ChunkID:    sc.Chunk.ID,
			Score:      sc.Score,
			Content:    sc.Chunk.Content,
		}
	}
	return out
}

func documentOutput(d driving.DocumentSummary) DocumentOutput {
	return DocumentOutput{
		ID:         d.ID,
		Filename:   d.Filename,
		MIMEType:   d.MIMEType,
		Size:       d.Size,
		ChunkCount: d.ChunkCount,
		UploadedAt: d.UploadedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
