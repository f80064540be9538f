package driven

import "github.com/custodia-labs/embediq/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify connectivity to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM validates a generation configuration by pinging the provider.
	ValidateLLM(config *domain.LLMSettings) error
}
