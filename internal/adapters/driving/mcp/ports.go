package mcp

import (
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retriever finds passages relevant to a query.
	Retriever driving.Retriever

	// Chat answers questions. Optional; without it the ask tool fails.
	Chat driving.ChatService

	// Document lists and reads indexed documents. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retriever == nil {
		return ErrMissingRetriever
	}
	return nil
}
