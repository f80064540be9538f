// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/custodia-labs/embediq/internal/adapters/driven/embedding/gemini"
	ollamaembed "github.com/custodia-labs/embediq/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/embediq/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/embediq/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when generation could not be set up.
	Warnings         []string          // Non-fatal issues, such as an unreachable LLM.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		_ = r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		_ = r.LLMService.Close()
	}
}

// Init creates both services from settings. The embedding service is
// required; a generation failure is recorded as a warning so retrieval-only
// commands keep working. When validate is set both services are pinged.
func Init(ctx context.Context, settings domain.AppSettings, validate bool) (*InitResult, error) {
	logger.Section("AI Services")

	create := CreateEmbeddingService
	if validate {
		create = CreateAndValidateEmbeddingService
	}
	embedder, err := create(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	logger.Info("Embedding: %s (%s, %d dimensions)", settings.Embedding.Provider, embedder.ModelName(), embedder.Dimensions())

	result := &InitResult{EmbeddingService: embedder}

	createLLM := CreateLLMService
	if validate {
		createLLM = CreateAndValidateLLMService
	}
	llm, err := createLLM(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		logger.Warn("Generation unavailable: %v", err)
		return result, nil
	}
	logger.Info("Generation: %s (%s)", settings.LLM.Provider, llm.ModelName())
	result.LLMService = llm
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and pings it.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'embediq config show' to check settings",
			domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and pings it.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(ctx, settings)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'embediq config show' to check settings",
			domain.ErrGenerationUnavailable, err)
	}
	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service, pings it and closes it.
func ValidateEmbeddingConfig(ctx context.Context, settings *domain.EmbeddingSettings) error {
	svc, err := CreateAndValidateEmbeddingService(ctx, settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// ValidateLLMConfig creates an LLM service, pings it and closes it.
func ValidateLLMConfig(ctx context.Context, settings *domain.LLMSettings) error {
	svc, err := CreateAndValidateLLMService(ctx, settings)
	if err != nil {
		return err
	}
	return svc.Close()
}

// CreateEmbeddingService creates the embedding service selected by settings,
// throttled to settings.RequestsPerMinute.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if err := checkEmbedding(settings); err != nil {
		return nil, err
	}

	var (
		svc driven.EmbeddingService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderGemini:
		svc, err = geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
		})
	case domain.AIProviderOllama:
		svc = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	case domain.AIProviderOpenAI:
		svc, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
	if err != nil {
		return nil, err
	}
	return ratelimit.New(svc, settings.RequestsPerMinute), nil
}

// CreateLLMService creates the generation service selected by settings.
func CreateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if err := checkLLM(settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(ctx, geminillm.Config{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
		})
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	default:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})
	}
}

func checkEmbedding(settings *domain.EmbeddingSettings) error {
	switch {
	case settings == nil || settings.Provider == "":
		return fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	case !settings.Provider.IsValid():
		return fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrEmbeddingUnavailable, settings.Provider)
	case !settings.Provider.SupportsEmbedding():
		return fmt.Errorf("%w: %s does not support embeddings, use gemini, ollama or openai",
			domain.ErrEmbeddingUnavailable, settings.Provider)
	case settings.Provider.RequiresAPIKey() && settings.APIKey == "":
		return fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrEmbeddingUnavailable, settings.Provider, settings.Provider.APIKeyEnv())
	}
	return nil
}

func checkLLM(settings *domain.LLMSettings) error {
	switch {
	case settings == nil || settings.Provider == "":
		return fmt.Errorf("%w: no generation provider configured", domain.ErrGenerationUnavailable)
	case !settings.Provider.IsValid():
		return fmt.Errorf("%w: unsupported generation provider %q", domain.ErrGenerationUnavailable, settings.Provider)
	case settings.Provider.RequiresAPIKey() && settings.APIKey == "":
		return fmt.Errorf("%w: %s requires an API key (set %s)",
			domain.ErrGenerationUnavailable, settings.Provider, settings.Provider.APIKeyEnv())
	}
	return nil
}
