// Package tui provides an interactive terminal user interface for embediq.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Chat answers questions.
	Chat driving.ChatService

	// Document lists, reads and deletes indexed documents.
	Document driving.DocumentService

	// Ingest adds files from disk. Optional; without it the
	// Add Files view reports an error.
	Ingest driving.IngestService

	// Upload bounds what the Add Files view reads from disk.
	Upload domain.UploadSettings
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Document == nil {
		return ErrMissingDocumentService
	}
	return nil
}
