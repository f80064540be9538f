package driven

import (
	"context"

	"github.com/custodia-labs/embediq/internal/core/domain"
)

// LLMService turns an assembled context and a question into an answer.
// It is consumed as a black box; failures propagate to the caller.
//
// Implementations include:
//   - Gemini (gemini-2.0-flash)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces an answer for the request.
	Generate(ctx context.Context, req domain.GenerationRequest, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate. Zero leaves the provider default.
	MaxTokens int

	// Temperature controls randomness. Zero leaves the provider default.
	Temperature float64

	// TopK limits sampling to the K most likely tokens. Zero leaves the provider default.
	TopK int

	// TopP is the nucleus sampling threshold. Zero leaves the provider default.
	TopP float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Greeting is the opening exchange every conversation is seeded with.
func Greeting() []ChatMessage {
	return []ChatMessage{
		{Role: "user", Content: "Hi, I'm looking for information from my documents."},
		{Role: "assistant", Content: "Hello! I'm EmbedIQ, and I can help you find information from your uploaded documents. What would you like to know?"},
	}
}

// BuildMessages lays out a request as a chat transcript: system prompt,
// the seeded greeting, then the user's question.
func BuildMessages(req domain.GenerationRequest) []ChatMessage {
	msgs := make([]ChatMessage, 0, 4)
	msgs = append(msgs, ChatMessage{Role: "system", Content: req.System})
	msgs = append(msgs, Greeting()...)
	msgs = append(msgs, ChatMessage{Role: "user", Content: "User question: " + req.Question})
	return msgs
}
