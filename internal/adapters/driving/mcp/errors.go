// Package mcp provides an MCP (Model Context Protocol) server adapter for EmbedIQ.
// It lets AI assistants ask questions of, and retrieve passages from, the
// documents EmbedIQ has indexed.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// ErrMissingRetriever is returned when the retriever is not provided.
var ErrMissingRetriever = errors.New("mcp: retriever is required")

// ErrMissingChatService is returned by the ask tool when no generation
// service is configured.
var ErrMissingChatService = errors.New("mcp: chat service is not configured")

// toolError rewrites domain errors into messages an assistant can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoDocumentsIndexed):
		return fmt.Errorf("no documents have been indexed yet: %w", err)
	case errors.Is(err, domain.ErrNoRelevantInformation):
		return fmt.Errorf("no relevant information found in the uploaded documents: %w", err)
	case errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("invalid arguments: %w", err)
	case domain.IsUpstreamError(err):
		return fmt.Errorf("AI provider unavailable, try again later: %w", err)
	default:
		return err
	}
}
