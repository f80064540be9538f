package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
	"github.com/custodia-labs/embediq/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// DefaultSessionID is used when a message arrives without a session.
const DefaultSessionID = "default"

// ChatService answers questions from the indexed documents and keeps
// per-session history.
type ChatService struct {
	retriever       driving.Retriever
	assembler       driving.ContextAssembler
	llm             driven.LLMService
	prompts         driven.PromptStore
	history         driven.HistoryStore
	docStore        driven.DocumentStore
	topK            int
	generateTimeout time.Duration
	options         driven.GenerateOptions
	now             func() time.Time
}

// NewChatService creates a chat service. llm may be nil, in which case Send
// fails with domain.ErrGenerationUnavailable but History still works.
func NewChatService(
	retriever driving.Retriever,
	llm driven.LLMService,
	prompts driven.PromptStore,
	history driven.HistoryStore,
	docStore driven.DocumentStore,
	settings domain.AppSettings,
) *ChatService {
	topK := settings.Retrieval.TopK
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &ChatService{
		retriever:       retriever,
		assembler:       ContextAssembler{},
		llm:             llm,
		prompts:         prompts,
		history:         history,
		docStore:        docStore,
		topK:            topK,
		generateTimeout: settings.Retrieval.GenerateTimeout,
		options:         GenerateOptionsFrom(settings.LLM),
		now:             time.Now,
	}
}

// GenerateOptionsFrom maps generation settings to per-call options.
func GenerateOptionsFrom(s domain.LLMSettings) driven.GenerateOptions {
	return driven.GenerateOptions{
		MaxTokens:   s.MaxOutputTokens,
		Temperature: s.Temperature,
		TopK:        s.TopK,
		TopP:        s.TopP,
	}
}

// Send answers one message and appends the exchange to the session history.
func (s *ChatService) Send(ctx context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	logger.Section("Chat")

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", domain.ErrInvalidInput)
	}
	if req.Mode != "" && !req.Mode.IsValid() {
		return nil, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, req.Mode)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	if s.llm == nil {
		return nil, fmt.Errorf("%w: no generation service configured", domain.ErrGenerationUnavailable)
	}

	mode, ok := ResolveMode(req.Mode, s.scopeSize(ctx, req.Files))
	if !ok {
		logger.Info("Mode %s unavailable for this scope, using %s", req.Mode, mode)
	}

	result, err := s.retriever.Retrieve(ctx, message, req.Files, s.topK)
	if err != nil {
		return nil, err
	}

	assembled := s.assembler.Assemble(result, mode)
	template, err := s.prompts.Load(driven.PromptName(mode))
	if err != nil {
		return nil, fmt.Errorf("%w: load prompt for %s: %w", domain.ErrConfiguration, mode, err)
	}
	genReq := BuildGenerationRequest(template, assembled, message)

	answer, err := s.generate(ctx, genReq)
	if err != nil {
		logger.Warn("Generation failed: %v", err)
		return nil, err
	}

	record := domain.HistoryRecord{
		SessionID: sessionID,
		User:      message,
		Bot:       answer,
		Mode:      mode,
		Timestamp: s.now(),
	}
	if err := s.history.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("save history: %w", err)
	}
	history, err := s.history.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	return &driving.ChatResponse{
		Answer:  answer,
		Mode:    mode,
		Sources: result.Chunks,
		History: history,
	}, nil
}

func (s *ChatService) generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if s.generateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generateTimeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := s.llm.Generate(ctx, req, s.options)
	if err != nil {
		if errors.Is(err, domain.ErrUpstream) {
			return "", fmt.Errorf("generate answer: %w", err)
		}
		return "", fmt.Errorf("generate answer: %w: %w", domain.ErrGenerationUnavailable, err)
	}
	logger.Debug("Generated %d bytes in %v with %s", len(answer), time.Since(start), s.llm.ModelName())
	return answer, nil
}

// scopeSize counts the documents a query can draw from: the stored documents
// named by the scope when one is given, otherwise every stored document.
func (s *ChatService) scopeSize(ctx context.Context, files []string) int {
	scope := domain.NewScope(files)
	if s.docStore == nil {
		return len(scope)
	}
	if scope != nil {
		n := 0
		for id := range scope {
			if s.docStore.Exists(ctx, id) {
				n++
			}
		}
		return n
	}
	docs, err := s.docStore.List(ctx)
	if err != nil {
		return 0
	}
	return len(docs)
}

// History returns the records of a session, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.HistoryRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return s.history.List(ctx, sessionID)
}

// Sessions returns the IDs of sessions with history, most recent first.
func (s *ChatService) Sessions(ctx context.Context) ([]string, error) {
	return s.history.Sessions(ctx)
}
