package domain

// ScoredChunk is a chunk paired with its similarity to the query.
type ScoredChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Score is the cosine similarity, higher is closer.
	Score float64
}

// RetrievalResult is the ordered output of the retriever, highest score first.
type RetrievalResult struct {
	// Chunks holds at most K scored chunks.
	Chunks []ScoredChunk
}

// Len returns the number of retrieved chunks.
func (r RetrievalResult) Len() int {
	return len(r.Chunks)
}

// IsEmpty returns true if nothing was retrieved.
func (r RetrievalResult) IsEmpty() bool {
	return len(r.Chunks) == 0
}

// DocumentIDs returns the distinct document IDs in first-seen order.
func (r RetrievalResult) DocumentIDs() []string {
	seen := make(map[string]struct{}, len(r.Chunks))
	ids := make([]string, 0, len(r.Chunks))
	for _, sc := range r.Chunks {
		if _, ok := seen[sc.Chunk.DocumentID]; ok {
			continue
		}
		seen[sc.Chunk.DocumentID] = struct{}{}
		ids = append(ids, sc.Chunk.DocumentID)
	}
	return ids
}

// ContextGroup is the text of one document inside a grouped context.
type ContextGroup struct {
	// DocumentID labels the group.
	DocumentID string

	// Texts are the chunk texts in result order.
	Texts []string
}

// Context is a generation-ready rendering of a retrieval result.
type Context struct {
	// Mode is the mode the context was assembled for.
	Mode Mode

	// Text is the assembled context string.
	Text string

	// Groups is populated when the mode groups by document.
	Groups []ContextGroup

	// Sources lists the chunks the context was built from.
	Sources []ScoredChunk
}

// GenerationRequest is everything the generation service needs for one answer.
type GenerationRequest struct {
	// System is the instruction prompt including the assembled context.
	System string

	// Question is the user's original query.
	Question string

	// Mode is the effective answer mode.
	Mode Mode
}
