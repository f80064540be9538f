package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbedder returns fixed vectors for known texts and a constant vector otherwise.
type mockEmbedder struct {
	mu       sync.Mutex
	vectors  map[string][]float32
	fallback []float32
	err      error
	failOn   string
	calls    []string
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{
		vectors:  make(map[string][]float32),
		fallback: []float32{0, 0, 1},
	}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, text)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.failOn != "" && text == m.failOn {
		return nil, fmt.Errorf("embedding rejected %q", text)
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 3 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockLLM records the last request and returns a canned answer.
type mockLLM struct {
	answer  string
	err     error
	lastReq domain.GenerationRequest
	lastOpt driven.GenerateOptions
	calls   int
}

func (m *mockLLM) Generate(_ context.Context, req domain.GenerationRequest, opts driven.GenerateOptions) (string, error) {
	m.calls++
	m.lastReq = req
	m.lastOpt = opts
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockPrompts serves templates from a map.
type mockPrompts struct {
	templates map[string]string
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{templates: map[string]string{
		driven.PromptAnswerNormal:  "NORMAL\n%s",
		driven.PromptAnswerELI5:    "ELI5\n%s",
		driven.PromptAnswerCompare: "COMPARE\n%s",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}

// mockNormaliser returns the upload content as text, or a fixed error.
type mockNormaliser struct {
	err error
}

func (m *mockNormaliser) Normalise(_ context.Context, upload *domain.Upload) (*driven.NormaliseResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &driven.NormaliseResult{
		Text:     string(upload.Content),
		Metadata: map[string]any{"mime_type": "text/plain"},
	}, nil
}

func (m *mockNormaliser) Register(_ driven.Normaliser) {}
func (m *mockNormaliser) Supports(_ string) bool       { return true }
func (m *mockNormaliser) SupportedMIMETypes() []string { return []string{"text/plain"} }

// mockConfigStore is a map-backed driven.ConfigStore.
type mockConfigStore struct {
	mu     sync.RWMutex
	data   map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{data: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	s, _ := v.([]string)
	return s
}

func (m *mockConfigStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "/tmp/mock/config.toml" }

// mockValidator counts validation calls.
type mockValidator struct {
	embedErr, llmErr     error
	embedCalls, llmCalls int
	lastEmbed            *domain.EmbeddingSettings
}

func (m *mockValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	m.embedCalls++
	m.lastEmbed = cfg
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ *domain.LLMSettings) error {
	m.llmCalls++
	return m.llmErr
}

// noEnv is an empty environment.
func noEnv(string) (string, bool) { return "", false }

// envMap builds an environment lookup from pairs.
func envMap(kv map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := kv[k]
		return v, ok
	}
}
