// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The retrieval path lives in Retriever and ContextAssembler; IngestService,
// DocumentService and ChatService wrap it for the CLI, HTTP and MCP adapters.
package services
