package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

func newTestSettingsService(store *mockConfigStore, env map[string]string) *SettingsService {
	svc := NewSettingsService(store, &mockValidator{})
	if env == nil {
		return svc.WithEnv(noEnv)
	}
	return svc.WithEnv(envMap(env))
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc := newTestSettingsService(newMockConfigStore(), nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.Embedding.Provider)
	assert.Equal(t, "embedding-001", settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", settings.LLM.Model)
	assert.InDelta(t, 0.2, settings.LLM.Temperature, 1e-9)
	assert.Equal(t, domain.DefaultChunkSize, settings.Chunker.Size)
	assert.Equal(t, domain.DefaultChunkOverlap, settings.Chunker.Overlap)
	assert.Equal(t, domain.DefaultTopK, settings.Retrieval.TopK)
	assert.Equal(t, domain.DefaultEmbedTimeout, settings.Retrieval.EmbedTimeout)
	assert.Equal(t, domain.DefaultServerAddr, settings.Server.Addr)
	assert.Equal(t, domain.HistoryBackendMemory, settings.History.Backend)
	assert.Equal(t, domain.DefaultAppSettings(), svc.GetDefaults())
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	store := newMockConfigStore()
	store.data = map[string]any{
		"embedding.provider":         "ollama",
		"llm.provider":               "openai",
		"llm.api_key":                "sk-file",
		"llm.temperature":            int64(0),
		"chunker.size":               int64(500),
		"chunker.overlap":            int64(50),
		"retrieval.candidates":       int64(20),
		"retrieval.generate_timeout": "2m",
		"retrieval.embed_timeout":    "not a duration",
		"upload.max_file_size":       int64(1024),
		"server.addr":                "127.0.0.1:9000",
	}
	svc := newTestSettingsService(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, domain.AIProviderOpenAI, settings.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", settings.LLM.Model)
	assert.Equal(t, "sk-file", settings.LLM.APIKey)
	assert.Empty(t, settings.LLM.BaseURL)
	assert.Zero(t, settings.LLM.Temperature)
	assert.Equal(t, 500, settings.Chunker.Size)
	assert.Equal(t, 50, settings.Chunker.Overlap)
	assert.Equal(t, 20, settings.Retrieval.Candidates)
	assert.Equal(t, 2*time.Minute, settings.Retrieval.GenerateTimeout)
	assert.Equal(t, domain.DefaultEmbedTimeout, settings.Retrieval.EmbedTimeout)
	assert.Equal(t, int64(1024), settings.Upload.MaxFileSize)
	assert.Equal(t, "127.0.0.1:9000", settings.Server.Addr)
}

func TestSettingsService_Get_InvalidStoredProviderFallsBack(t *testing.T) {
	store := newMockConfigStore()
	store.data["llm.provider"] = "mystery"
	svc := newTestSettingsService(store, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderGemini, settings.LLM.Provider)
}

func TestSettingsService_Get_EnvOverrides(t *testing.T) {
	store := newMockConfigStore()
	store.data["embedding.provider"] = "gemini"
	store.data["embedding.model"] = "embedding-001"
	store.data["embedding.api_key"] = "file-key"
	svc := newTestSettingsService(store, map[string]string{
		"EMBEDIQ_EMBEDDING_PROVIDER": "ollama",
		"EMBEDIQ_LLM_PROVIDER":       "anthropic",
		"ANTHROPIC_API_KEY":          "env-anthropic",
		"OLLAMA_HOST":                "http://ollama:11434",
		"EMBEDIQ_EMBEDDING_RPM":      "120",
		"PORT":                       "8080",
		"EMBEDIQ_HISTORY_PATH":       "/var/lib/embediq/history.db",
	})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://ollama:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 120, settings.Embedding.RequestsPerMinute)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "env-anthropic", settings.LLM.APIKey)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Equal(t, ":8080", settings.Server.Addr)
	assert.Equal(t, domain.HistoryBackendSQLite, settings.History.Backend)
	assert.Equal(t, "/var/lib/embediq/history.db", settings.History.Path)
}

func TestSettingsService_Get_AddrBeatsPort(t *testing.T) {
	svc := newTestSettingsService(newMockConfigStore(), map[string]string{
		"PORT":         "8080",
		"EMBEDIQ_ADDR": "0.0.0.0:7000",
	})

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", settings.Server.Addr)
}

func TestSettingsService_Save_SkipsEnvKeys(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, map[string]string{"GEMINI_API_KEY": "env-key"})

	settings, err := svc.Get()
	require.NoError(t, err)
	require.Equal(t, "env-key", settings.Embedding.APIKey)

	require.NoError(t, svc.Save(settings))

	_, stored := store.data["embedding.api_key"]
	assert.False(t, stored)
	assert.Equal(t, "gemini", store.data["embedding.provider"])
	assert.Equal(t, "30s", store.data["retrieval.embed_timeout"])
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	settings.LLM.APIKey = "secret"
	settings.Chunker = domain.ChunkerSettings{Size: 300, Overlap: 30}
	settings.Retrieval.GenerateTimeout = 90 * time.Second
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "secret", got.LLM.APIKey)
	assert.Equal(t, settings.Chunker, got.Chunker)
	assert.Equal(t, 90*time.Second, got.Retrieval.GenerateTimeout)
}

func TestSettingsService_Save_StoreError(t *testing.T) {
	store := newMockConfigStore()
	store.setErr = errors.New("read-only file system")
	svc := newTestSettingsService(store, nil)

	settings := domain.DefaultAppSettings()
	err := svc.Save(&settings)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.AIProvider
		apiKey   string
		wantErr  bool
	}{
		{name: "ollama needs no key", provider: domain.AIProviderOllama},
		{name: "openai with key", provider: domain.AIProviderOpenAI, apiKey: "sk-test"},
		{name: "openai without key", provider: domain.AIProviderOpenAI, wantErr: true},
		{name: "anthropic cannot embed", provider: domain.AIProviderAnthropic, apiKey: "k", wantErr: true},
		{name: "unknown provider", provider: "mystery", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockConfigStore()
			svc := newTestSettingsService(store, nil)

			err := svc.SetEmbeddingProvider(tt.provider, "", tt.apiKey)

			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.provider, settings.Embedding.Provider)
			assert.Equal(t, domain.DefaultEmbeddingModels()[tt.provider], settings.Embedding.Model)
			assert.Equal(t, tt.apiKey, settings.Embedding.APIKey)
		})
	}
}

func TestSettingsService_SetEmbeddingProvider_KeepsExistingKey(t *testing.T) {
	store := newMockConfigStore()
	store.data["embedding.provider"] = "openai"
	store.data["embedding.api_key"] = "sk-existing"
	svc := newTestSettingsService(store, nil)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", ""))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-existing", settings.Embedding.APIKey)
	assert.Equal(t, "text-embedding-3-large", settings.Embedding.Model)
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Equal(t, "sk-ant", settings.LLM.APIKey)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)

	err = svc.SetLLMProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	err = svc.SetLLMProvider("mystery", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_SetChunking(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)

	require.NoError(t, svc.SetChunking(400, 0))
	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.ChunkerSettings{Size: 400, Overlap: 0}, settings.Chunker)

	for _, bad := range [][2]int{{0, 0}, {-5, 0}, {100, 100}, {100, 150}, {100, -1}} {
		err := svc.SetChunking(bad[0], bad[1])
		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig, "size %d overlap %d", bad[0], bad[1])
		assert.True(t, domain.IsConfigurationError(err))
	}
	settings, err = svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 400, settings.Chunker.Size)
}

func TestSettingsService_Validate(t *testing.T) {
	store := newMockConfigStore()
	svc := newTestSettingsService(store, nil)
	require.NoError(t, svc.Validate())

	store.data["chunker.size"] = int64(100)
	store.data["chunker.overlap"] = int64(200)
	store.data["retrieval.top_k"] = int64(0)

	err := svc.Validate()

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Contains(t, err.Error(), "chunker.overlap")
	assert.Contains(t, err.Error(), "retrieval.top_k")
}

func TestSettingsService_ValidateConfigs(t *testing.T) {
	store := newMockConfigStore()
	validator := &mockValidator{llmErr: domain.ErrGenerationUnavailable}
	svc := NewSettingsService(store, validator).WithEnv(noEnv)

	require.NoError(t, svc.ValidateEmbeddingConfig())
	assert.Equal(t, 1, validator.embedCalls)
	require.NotNil(t, validator.lastEmbed)
	assert.Equal(t, domain.AIProviderGemini, validator.lastEmbed.Provider)

	assert.ErrorIs(t, svc.ValidateLLMConfig(), domain.ErrGenerationUnavailable)
	assert.Equal(t, 1, validator.llmCalls)

	noValidator := NewSettingsService(store, nil).WithEnv(noEnv)
	assert.NoError(t, noValidator.ValidateEmbeddingConfig())
	assert.NoError(t, noValidator.ValidateLLMConfig())
}
