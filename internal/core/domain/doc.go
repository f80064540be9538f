// Package domain defines the core entities of the EmbedIQ retrieval pipeline.
//
// This package is the innermost layer of the hexagon. It has NO external
// dependencies and defines the fundamental types:
//
//   - Document: an uploaded document with its extracted text and chunks
//   - Chunk: an overlapping window of a document's text with its embedding
//   - Query: a question with an answer mode and a document scope
//   - RetrievalResult: scored chunks returned by the retriever
//   - Context: the assembled text handed to the generation service
//   - HistoryRecord: one question and answer exchanged in a chat session
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
