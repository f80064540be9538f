package driving

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// Retriever finds the chunks most similar to a query within a document scope.
type Retriever interface {
	// Retrieve returns at most k chunks, best first.
	// Returns domain.ErrNoDocumentsIndexed when the index is empty and
	// domain.ErrNoRelevantInformation when nothing survives the scope filter.
	Retrieve(ctx context.Context, query string, scope []string, k int) (domain.RetrievalResult, error)
}

// ContextAssembler renders a retrieval result for the generation service.
type ContextAssembler interface {
	// Assemble builds the context for the given mode.
	Assemble(result domain.RetrievalResult, mode domain.Mode) domain.Context
}
