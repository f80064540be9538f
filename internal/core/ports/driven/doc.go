// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - EmbeddingService: Maps text to a fixed-length vector
//   - VectorIndex: In-memory nearest-neighbour search over chunk vectors
//   - DocumentStore: Documents and their ordered chunks
//   - PostProcessorPipeline: Splits document text into chunks
//   - HistoryStore: Per-session chat history
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generation. Without it, retrieval still works but chat is disabled.
//   - NormaliserRegistry: Text extraction. Without it, only raw text can be ingested.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, extractor, or postprocessor package
package driven
