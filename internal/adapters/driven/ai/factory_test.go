package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/embediq/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/embediq/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/embediq/internal/adapters/driven/embedding/ratelimit"
	anthropicllm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/embediq/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/embediq/internal/core/domain"
)

// unreachable is a local address nothing listens on.
const unreachable = "http://127.0.0.1:1"

func TestCreateEmbeddingService_Providers(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		model    string
	}{
		{
			name:     "gemini",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderGemini, APIKey: "key"},
			model:    "embedding-001",
		},
		{
			name:     "ollama",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOllama, Model: "all-minilm"},
			model:    "all-minilm",
		},
		{
			name:     "openai",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-test"},
			model:    "text-embedding-3-small",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), &tt.settings)

			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_ConcreteTypes(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
	})
	require.NoError(t, err)
	assert.IsType(t, &ollamaembed.EmbeddingService{}, svc)

	svc, err = CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOpenAI,
		APIKey:   "sk-test",
	})
	require.NoError(t, err)
	assert.IsType(t, &openaiembed.EmbeddingService{}, svc)
}

func TestCreateEmbeddingService_WrapsRateLimit(t *testing.T) {
	svc, err := CreateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider:          domain.AIProviderOllama,
		RequestsPerMinute: 60,
	})

	require.NoError(t, err)
	assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
	assert.Equal(t, "nomic-embed-text", svc.ModelName())
}

func TestCreateEmbeddingService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.EmbeddingSettings
		contains string
	}{
		{name: "nil settings", settings: nil, contains: "no embedding provider"},
		{name: "empty provider", settings: &domain.EmbeddingSettings{}, contains: "no embedding provider"},
		{
			name:     "unknown provider",
			settings: &domain.EmbeddingSettings{Provider: "cohere"},
			contains: "unsupported embedding provider",
		},
		{
			name:     "anthropic has no embeddings",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderAnthropic, APIKey: "key"},
			contains: "does not support embeddings",
		},
		{
			name:     "missing gemini key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderGemini},
			contains: "GEMINI_API_KEY",
		},
		{
			name:     "missing openai key",
			settings: &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			contains: "OPENAI_API_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(context.Background(), tt.settings)

			require.Error(t, err)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCreateLLMService_Providers(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.LLMSettings
		want     any
	}{
		{
			name:     "gemini",
			settings: domain.LLMSettings{Provider: domain.AIProviderGemini, APIKey: "key"},
			want:     &geminillm.LLMService{},
		},
		{
			name:     "ollama",
			settings: domain.LLMSettings{Provider: domain.AIProviderOllama},
			want:     &ollamallm.LLMService{},
		},
		{
			name:     "openai",
			settings: domain.LLMSettings{Provider: domain.AIProviderOpenAI, APIKey: "sk-test"},
			want:     &openaillm.LLMService{},
		},
		{
			name:     "anthropic",
			settings: domain.LLMSettings{Provider: domain.AIProviderAnthropic, APIKey: "sk-ant"},
			want:     &anthropicllm.LLMService{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), &tt.settings)

			require.NoError(t, err)
			assert.IsType(t, tt.want, svc)
			assert.NotEmpty(t, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateLLMService_Errors(t *testing.T) {
	tests := []struct {
		name     string
		settings *domain.LLMSettings
		contains string
	}{
		{name: "nil settings", settings: nil, contains: "no generation provider"},
		{name: "empty provider", settings: &domain.LLMSettings{}, contains: "no generation provider"},
		{
			name:     "unknown provider",
			settings: &domain.LLMSettings{Provider: "mistral"},
			contains: "unsupported generation provider",
		},
		{
			name:     "missing anthropic key",
			settings: &domain.LLMSettings{Provider: domain.AIProviderAnthropic},
			contains: "ANTHROPIC_API_KEY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateLLMService(context.Background(), tt.settings)

			require.Error(t, err)
			assert.Nil(t, svc)
			assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCreateAndValidateEmbeddingService_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})

	require.NoError(t, err)
	assert.NoError(t, svc.Close())
}

func TestCreateAndValidateEmbeddingService_Unreachable(t *testing.T) {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  unreachable,
	})

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "embediq config")
}

func TestCreateAndValidateLLMService_Unreachable(t *testing.T) {
	svc, err := CreateAndValidateLLMService(context.Background(), &domain.LLMSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  unreachable,
	})

	require.Error(t, err)
	assert.Nil(t, svc)
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestInit_LLMFailureIsWarning(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOpenAI}

	result, err := Init(context.Background(), settings, false)

	require.NoError(t, err)
	defer result.Close()
	assert.NotNil(t, result.EmbeddingService)
	assert.Nil(t, result.LLMService)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "OPENAI_API_KEY")
}

func TestInit_EmbeddingFailureIsFatal(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding.APIKey = ""

	result, err := Init(context.Background(), settings, false)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestInit_BothServices(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOllama}
	settings.LLM = domain.LLMSettings{Provider: domain.AIProviderOllama}

	result, err := Init(context.Background(), settings, false)

	require.NoError(t, err)
	defer result.Close()
	assert.NotNil(t, result.EmbeddingService)
	assert.NotNil(t, result.LLMService)
	assert.Empty(t, result.Warnings)
}

func TestInitResult_CloseNil(t *testing.T) {
	result := &InitResult{}

	assert.NotPanics(t, func() { result.Close() })
}
