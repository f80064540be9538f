package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedRPM          = "embedding.requests_per_minute"
	keyLLMProvider       = "llm.provider"
	keyLLMModel          = "llm.model"
	keyLLMBaseURL        = "llm.base_url"
	keyLLMAPIKey         = "llm.api_key"
	keyLLMTemperature    = "llm.temperature"
	keyLLMTopK           = "llm.top_k"
	keyLLMTopP           = "llm.top_p"
	keyLLMMaxTokens      = "llm.max_output_tokens"
	keyChunkSize         = "chunker.size"
	keyChunkOverlap      = "chunker.overlap"
	keyTopK              = "retrieval.top_k"
	keyCandidates        = "retrieval.candidates"
	keyEmbedTimeout      = "retrieval.embed_timeout"
	keyGenerateTimeout   = "retrieval.generate_timeout"
	keyMaxFileSize       = "upload.max_file_size"
	keyMaxFiles          = "upload.max_files"
	keyConcurrency       = "upload.concurrency"
	keyHistoryBackend    = "history.backend"
	keyHistoryPath       = "history.path"
	keyServerAddr        = "server.addr"
	defaultOllamaURL     = "http://localhost:11434"
	envEmbedProvider     = "EMBEDIQ_EMBEDDING_PROVIDER"
	envEmbedModel        = "EMBEDIQ_EMBEDDING_MODEL"
	envLLMProvider       = "EMBEDIQ_LLM_PROVIDER"
	envLLMModel          = "EMBEDIQ_LLM_MODEL"
	envOllamaHost        = "OLLAMA_HOST"
	envServerAddr        = "EMBEDIQ_ADDR"
	envPort              = "PORT"
	envHistoryPath       = "EMBEDIQ_HISTORY_PATH"
	envRequestsPerMinute = "EMBEDIQ_EMBEDDING_RPM"
)

// SettingsService reads settings from the config store, applies
// environment overrides and writes changes back.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// Get retrieves current application settings. Values come from the
// defaults, then the config file, then the environment.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			RequestsPerMinute: s.getInt(keyEmbedRPM, d.Embedding.RequestsPerMinute),
		},
		LLM: domain.LLMSettings{
			Provider:        s.getProvider(keyLLMProvider, d.LLM.Provider),
			Model:           s.configStore.GetString(keyLLMModel),
			BaseURL:         s.configStore.GetString(keyLLMBaseURL),
			APIKey:          s.configStore.GetString(keyLLMAPIKey),
			Temperature:     s.getFloat(keyLLMTemperature, d.LLM.Temperature),
			TopK:            s.getInt(keyLLMTopK, d.LLM.TopK),
			TopP:            s.getFloat(keyLLMTopP, d.LLM.TopP),
			MaxOutputTokens: s.getInt(keyLLMMaxTokens, d.LLM.MaxOutputTokens),
		},
		Chunker: domain.ChunkerSettings{
			Size:    s.getInt(keyChunkSize, d.Chunker.Size),
			Overlap: s.getInt(keyChunkOverlap, d.Chunker.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:            s.getInt(keyTopK, d.Retrieval.TopK),
			Candidates:      s.getInt(keyCandidates, d.Retrieval.Candidates),
			EmbedTimeout:    s.getDuration(keyEmbedTimeout, d.Retrieval.EmbedTimeout),
			GenerateTimeout: s.getDuration(keyGenerateTimeout, d.Retrieval.GenerateTimeout),
		},
		Upload: domain.UploadSettings{
			MaxFileSize: int64(s.getInt(keyMaxFileSize, int(d.Upload.MaxFileSize))),
			MaxFiles:    s.getInt(keyMaxFiles, d.Upload.MaxFiles),
			Concurrency: s.getInt(keyConcurrency, d.Upload.Concurrency),
		},
		History: domain.HistorySettings{
			Backend: domain.HistoryBackend(s.getString(keyHistoryBackend, string(d.History.Backend))),
			Path:    s.configStore.GetString(keyHistoryPath),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
	}

	s.applyEnv(settings)
	fillProviderDefaults(&settings.Embedding.Model, &settings.Embedding.BaseURL,
		settings.Embedding.Provider, domain.DefaultEmbeddingModels())
	fillProviderDefaults(&settings.LLM.Model, &settings.LLM.BaseURL,
		settings.LLM.Provider, domain.DefaultLLMModels())

	return settings, nil
}

// applyEnv overlays environment variables on settings.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if p, ok := s.env(envEmbedProvider); ok && domain.AIProvider(p).IsValid() {
		if domain.AIProvider(p) != settings.Embedding.Provider {
			settings.Embedding.Model = ""
		}
		settings.Embedding.Provider = domain.AIProvider(p)
	}
	if m, ok := s.env(envEmbedModel); ok {
		settings.Embedding.Model = m
	}
	if p, ok := s.env(envLLMProvider); ok && domain.AIProvider(p).IsValid() {
		if domain.AIProvider(p) != settings.LLM.Provider {
			settings.LLM.Model = ""
		}
		settings.LLM.Provider = domain.AIProvider(p)
	}
	if m, ok := s.env(envLLMModel); ok {
		settings.LLM.Model = m
	}

	if key, ok := s.env(settings.Embedding.Provider.APIKeyEnv()); ok {
		settings.Embedding.APIKey = key
	}
	if key, ok := s.env(settings.LLM.Provider.APIKeyEnv()); ok {
		settings.LLM.APIKey = key
	}

	if host, ok := s.env(envOllamaHost); ok {
		if settings.Embedding.Provider.IsLocal() {
			settings.Embedding.BaseURL = host
		}
		if settings.LLM.Provider.IsLocal() {
			settings.LLM.BaseURL = host
		}
	}
	if rpm, ok := s.env(envRequestsPerMinute); ok {
		if n, err := strconv.Atoi(rpm); err == nil {
			settings.Embedding.RequestsPerMinute = n
		}
	}

	if port, ok := s.env(envPort); ok {
		settings.Server.Addr = ":" + port
	}
	if addr, ok := s.env(envServerAddr); ok {
		settings.Server.Addr = addr
	}
	if path, ok := s.env(envHistoryPath); ok {
		settings.History.Path = path
		settings.History.Backend = domain.HistoryBackendSQLite
	}
}

// env returns a non-empty environment value.
func (s *SettingsService) env(key string) (string, bool) {
	if key == "" || s.lookupEnv == nil {
		return "", false
	}
	v, ok := s.lookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func fillProviderDefaults(model, baseURL *string, provider domain.AIProvider, models map[domain.AIProvider]string) {
	if *model == "" {
		*model = models[provider]
	}
	if provider.IsLocal() && *baseURL == "" {
		*baseURL = defaultOllamaURL
	}
}

// Save persists application settings. API keys that came from the
// environment are not written to the file.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedRPM, settings.Embedding.RequestsPerMinute},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMTopK, settings.LLM.TopK},
		{keyLLMTopP, settings.LLM.TopP},
		{keyLLMMaxTokens, settings.LLM.MaxOutputTokens},
		{keyChunkSize, settings.Chunker.Size},
		{keyChunkOverlap, settings.Chunker.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyCandidates, settings.Retrieval.Candidates},
		{keyEmbedTimeout, settings.Retrieval.EmbedTimeout.String()},
		{keyGenerateTimeout, settings.Retrieval.GenerateTimeout.String()},
		{keyMaxFileSize, settings.Upload.MaxFileSize},
		{keyMaxFiles, settings.Upload.MaxFiles},
		{keyConcurrency, settings.Upload.Concurrency},
		{keyHistoryBackend, string(settings.History.Backend)},
		{keyHistoryPath, settings.History.Path},
		{keyServerAddr, settings.Server.Addr},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if err := s.saveAPIKey(keyEmbedAPIKey, settings.Embedding.Provider, settings.Embedding.APIKey); err != nil {
		return err
	}
	return s.saveAPIKey(keyLLMAPIKey, settings.LLM.Provider, settings.LLM.APIKey)
}

func (s *SettingsService) saveAPIKey(key string, provider domain.AIProvider, apiKey string) error {
	if apiKey == "" {
		return nil
	}
	if fromEnv, ok := s.env(provider.APIKeyEnv()); ok && fromEnv == apiKey {
		return nil
	}
	if err := s.configStore.Set(key, apiKey); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}
	if !provider.SupportsEmbedding() {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" && provider == settings.Embedding.Provider {
		apiKey = settings.Embedding.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, provider.APIKeyEnv())
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.APIKey = apiKey
	if !provider.IsLocal() {
		settings.Embedding.BaseURL = ""
	}
	fillProviderDefaults(&settings.Embedding.Model, &settings.Embedding.BaseURL,
		provider, domain.DefaultEmbeddingModels())

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	if apiKey == "" && provider == settings.LLM.Provider {
		apiKey = settings.LLM.APIKey
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s (or set %s)", domain.ErrInvalidInput, provider, provider.APIKeyEnv())
	}

	settings.LLM.Provider = provider
	settings.LLM.Model = model
	settings.LLM.APIKey = apiKey
	if !provider.IsLocal() {
		settings.LLM.BaseURL = ""
	}
	fillProviderDefaults(&settings.LLM.Model, &settings.LLM.BaseURL,
		provider, domain.DefaultLLMModels())

	return s.Save(settings)
}

// SetChunking updates the chunk size and overlap.
func (s *SettingsService) SetChunking(size, overlap int) error {
	if size <= 0 || overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: size %d, overlap %d", domain.ErrInvalidChunkConfig, size, overlap)
	}
	if err := s.configStore.Set(keyChunkSize, size); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkSize, err)
	}
	if err := s.configStore.Set(keyChunkOverlap, overlap); err != nil {
		return fmt.Errorf("save %s: %w", keyChunkOverlap, err)
	}
	return nil
}

// Validate checks the current settings and reports every problem at once.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	problems := settings.Validate()
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i, p := range problems {
		errs[i] = p
	}
	return fmt.Errorf("%w: %w", domain.ErrConfiguration, errors.Join(errs...))
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current generation configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults. A key that is present
// wins over the default even when its value is zero.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
