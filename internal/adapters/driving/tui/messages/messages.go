// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// AnswerReceived carries the chat service's reply back to the model.
type AnswerReceived struct {
	Response *driving.ChatResponse
	Err      error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question input and answer view.
	ViewChat
	// ViewDocuments lists indexed documents.
	ViewDocuments
	// ViewDocContent shows a document's extracted text.
	ViewDocContent
	// ViewDocDetails shows document metadata.
	ViewDocDetails
	// ViewIngest reads files from disk into the index.
	ViewIngest
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewDocDetails:
		return "doc_details"
	case ViewIngest:
		return "ingest"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsLoaded carries the document listing.
type DocumentsLoaded struct {
	Documents []driving.DocumentSummary
	Err       error
}

// DocumentSelected asks to show a document's content.
type DocumentSelected struct {
	Document driving.DocumentSummary
}

// DocumentDetailsRequested asks to show a document's metadata.
type DocumentDetailsRequested struct {
	Document driving.DocumentSummary
}

// DocumentLoaded carries a full document for the content or details view.
type DocumentLoaded struct {
	DocumentID string
	Document   *domain.Document
	Err        error
}

// DocumentDeleted signals a document and its chunks were removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// ScopeSelected restricts the chat view to the given documents.
// An empty list means all documents.
type ScopeSelected struct {
	DocumentIDs []string
	Label       string
}

// FilesIngested carries the outcome of reading and ingesting a path.
type FilesIngested struct {
	Path    string
	Results []driving.IngestResult
	Err     error
}
