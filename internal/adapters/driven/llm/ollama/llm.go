// Package ollama provides an LLM service adapter using a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/embediq/internal/adapters/driven/ai/apiclient"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
	DefaultTimeout = 5 * time.Minute
)

// Config holds configuration for the Ollama LLM service.
type Config struct {
	// BaseURL is the Ollama API base URL.
	BaseURL string

	// Model is the model to use.
	Model string

	// Timeout is the request timeout. Local models can be slow to load.
	Timeout time.Duration
}

// LLMService answers questions using Ollama's /api/chat endpoint.
type LLMService struct {
	api     *apiclient.Client
	baseURL string
	model   string
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type options struct {
	Temperature float64  `json:"temperature,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewLLMService creates a new Ollama LLM service.
func NewLLMService(cfg Config) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		api: &apiclient.Client{
			HTTP:     &http.Client{Timeout: cfg.Timeout},
			Provider: "ollama",
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Generate sends the transcript with streaming disabled.
func (s *LLMService) Generate(ctx context.Context, req domain.GenerationRequest, opts driven.GenerateOptions) (string, error) {
	body := chatRequest{Model: s.model}
	for _, msg := range driven.BuildMessages(req) {
		body.Messages = append(body.Messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	o := options{
		Temperature: opts.Temperature,
		TopK:        opts.TopK,
		TopP:        opts.TopP,
		NumPredict:  opts.MaxTokens,
		Stop:        opts.StopWords,
	}
	if o.Temperature != 0 || o.TopK != 0 || o.TopP != 0 || o.NumPredict != 0 || len(o.Stop) > 0 {
		body.Options = &o
	}

	var resp chatResponse
	if err := s.api.PostJSON(ctx, s.baseURL+"/api/chat", body, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	return resp.Message.Content, nil
}

// ModelName returns the name of the model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping checks /api/tags, which answers without loading a model.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.api.Get(ctx, s.baseURL+"/api/tags"); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
