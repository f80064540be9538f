package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API. Generation only.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsEmbedding returns true if the provider exposes an embedding API.
func (p AIProvider) SupportsEmbedding() bool {
	return p == AIProviderGemini || p == AIProviderOllama || p == AIProviderOpenAI
}

// APIKeyEnv returns the environment variable that carries the provider's key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// Defaults for the retrieval pipeline.
const (
	// DefaultChunkSize is the number of bytes per chunk window.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of bytes shared by consecutive windows.
	DefaultChunkOverlap = 200

	// DefaultTopK is the number of chunks handed to the assembler.
	DefaultTopK = 5

	// DefaultCandidates is the number of nearest neighbours fetched before
	// the scope filter runs.
	DefaultCandidates = 5

	// DefaultEmbedTimeout bounds a single embedding call.
	DefaultEmbedTimeout = 30 * time.Second

	// DefaultGenerateTimeout bounds a single generation call.
	DefaultGenerateTimeout = 60 * time.Second

	// DefaultMaxFileSize is the largest accepted upload (10 MiB).
	DefaultMaxFileSize int64 = 10 * 1024 * 1024

	// DefaultMaxFiles is the number of files accepted in one upload.
	DefaultMaxFiles = 5

	// DefaultIngestConcurrency is how many documents ingest in parallel.
	DefaultIngestConcurrency = 4

	// DefaultServerAddr is the HTTP listen address.
	DefaultServerAddr = ":5000"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// RequestsPerMinute throttles embedding calls. Zero disables throttling.
	RequestsPerMinute int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || !e.Provider.SupportsEmbedding() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key for cloud providers.
	APIKey string

	// Temperature controls randomness.
	Temperature float64

	// TopK limits sampling to the K most likely tokens.
	TopK int

	// TopP is the nucleus sampling threshold.
	TopP float64

	// MaxOutputTokens caps the answer length.
	MaxOutputTokens int
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings holds the chunk-boundary policy.
type ChunkerSettings struct {
	// Size is the window length in bytes.
	Size int

	// Overlap is the number of bytes shared with the previous window.
	Overlap int
}

// RetrievalSettings holds query-time tuning.
type RetrievalSettings struct {
	// TopK is the maximum number of chunks returned.
	TopK int

	// Candidates is the number of neighbours fetched before scope filtering.
	Candidates int

	// EmbedTimeout bounds the query embedding call.
	EmbedTimeout time.Duration

	// GenerateTimeout bounds the generation call.
	GenerateTimeout time.Duration
}

// UploadSettings holds limits applied by the file-ingestion service.
type UploadSettings struct {
	// MaxFileSize is the largest accepted file in bytes.
	MaxFileSize int64

	// MaxFiles is the number of files accepted per upload request.
	MaxFiles int

	// Concurrency is how many documents ingest in parallel.
	Concurrency int
}

// HistoryBackend selects where chat history is kept.
type HistoryBackend string

// Available history backends.
const (
	// HistoryBackendMemory keeps history for the lifetime of the process.
	HistoryBackendMemory HistoryBackend = "memory"

	// HistoryBackendSQLite persists history to a SQLite database.
	HistoryBackendSQLite HistoryBackend = "sqlite"
)

// HistorySettings holds chat history configuration.
type HistorySettings struct {
	// Backend selects the store implementation.
	Backend HistoryBackend

	// Path is the SQLite database file (sqlite backend only).
	Path string
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Chunker   ChunkerSettings
	Retrieval RetrievalSettings
	Upload    UploadSettings
	History   HistorySettings
	Server    ServerSettings
}

// DefaultAppSettings returns settings matching the reference deployment:
// Gemini for both embedding and generation, 1000/200 chunking, top 5.
// API keys are left empty and must come from the environment or config.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderGemini,
			Model:    DefaultEmbeddingModels()[AIProviderGemini],
		},
		LLM: LLMSettings{
			Provider:        AIProviderGemini,
			Model:           DefaultLLMModels()[AIProviderGemini],
			Temperature:     0.2,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 1024,
		},
		Chunker: ChunkerSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:            DefaultTopK,
			Candidates:      DefaultCandidates,
			EmbedTimeout:    DefaultEmbedTimeout,
			GenerateTimeout: DefaultGenerateTimeout,
		},
		Upload: UploadSettings{
			MaxFileSize: DefaultMaxFileSize,
			MaxFiles:    DefaultMaxFiles,
			Concurrency: DefaultIngestConcurrency,
		},
		History: HistorySettings{
			Backend: HistoryBackendMemory,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings and returns every problem found.
func (s AppSettings) Validate() []ValidationError {
	var errs []ValidationError

	if s.Chunker.Size <= 0 {
		errs = append(errs, ValidationError{Field: "chunker.size", Message: "must be positive"})
	}
	if s.Chunker.Overlap < 0 || s.Chunker.Overlap >= s.Chunker.Size {
		errs = append(errs, ValidationError{Field: "chunker.overlap", Message: "must be in [0, chunker.size)"})
	}
	if s.Retrieval.TopK <= 0 {
		errs = append(errs, ValidationError{Field: "retrieval.top_k", Message: "must be positive"})
	}
	if s.Retrieval.Candidates <= 0 {
		errs = append(errs, ValidationError{Field: "retrieval.candidates", Message: "must be positive"})
	}
	if !s.Embedding.Provider.IsValid() || !s.Embedding.Provider.SupportsEmbedding() {
		errs = append(errs, ValidationError{
			Field:   "embedding.provider",
			Message: fmt.Sprintf("unsupported embedding provider %q", s.Embedding.Provider),
		})
	}
	if !s.LLM.Provider.IsValid() {
		errs = append(errs, ValidationError{
			Field:   "llm.provider",
			Message: fmt.Sprintf("unsupported llm provider %q", s.LLM.Provider),
		})
	}
	if s.LLM.Temperature < 0 || s.LLM.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "llm.temperature", Message: "must be between 0 and 2"})
	}
	if s.Upload.MaxFileSize <= 0 {
		errs = append(errs, ValidationError{Field: "upload.max_file_size", Message: "must be positive"})
	}
	if s.Upload.MaxFiles <= 0 {
		errs = append(errs, ValidationError{Field: "upload.max_files", Message: "must be positive"})
	}
	switch s.History.Backend {
	case HistoryBackendMemory:
	case HistoryBackendSQLite:
		if s.History.Path == "" {
			errs = append(errs, ValidationError{Field: "history.path", Message: "required for sqlite backend"})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "history.backend",
			Message: fmt.Sprintf("unknown backend %q", s.History.Backend),
		})
	}

	return errs
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "embedding-001",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini:    "gemini-2.0-flash",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"embedding-001":        768,
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
