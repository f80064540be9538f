package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driven"
)

type mockModels struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	reply    string
	err      error
}

func (m *mockModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.contents = contents
	m.config = config
	if m.err != nil {
		return nil, m.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(m.reply, genai.RoleModel)}},
	}, nil
}

func (m *mockModels) Get(_ context.Context, _ string, _ *genai.GetModelConfig) (*genai.Model, error) {
	return &genai.Model{}, m.err
}

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestGenerate_BuildsConversation(t *testing.T) {
	models := &mockModels{reply: "The answer is 42."}
	svc := &LLMService{models: models, model: DefaultModel}

	answer, err := svc.Generate(context.Background(),
		domain.GenerationRequest{System: "You are EmbedIQ. Context: x", Question: "what is it?"},
		driven.GenerateOptions{Temperature: 0.2, TopK: 40, TopP: 0.95, MaxTokens: 1024},
	)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42.", answer)

	require.Len(t, models.contents, 3)
	assert.Equal(t, string(genai.RoleUser), models.contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), models.contents[1].Role)
	assert.Equal(t, "User question: what is it?", models.contents[2].Parts[0].Text)

	require.NotNil(t, models.config.SystemInstruction)
	assert.Equal(t, "You are EmbedIQ. Context: x", models.config.SystemInstruction.Parts[0].Text)
	assert.InDelta(t, 0.2, *models.config.Temperature, 1e-6)
	assert.InDelta(t, 40, *models.config.TopK, 1e-6)
	assert.InDelta(t, 0.95, *models.config.TopP, 1e-6)
	assert.Equal(t, int32(1024), models.config.MaxOutputTokens)
}

func TestGenerate_ZeroOptionsLeaveDefaults(t *testing.T) {
	models := &mockModels{reply: "ok"}
	svc := &LLMService{models: models, model: DefaultModel}

	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Question: "q"}, driven.GenerateOptions{})
	require.NoError(t, err)
	assert.Nil(t, models.config.Temperature)
	assert.Nil(t, models.config.TopK)
}

func TestGenerate_Errors(t *testing.T) {
	svc := &LLMService{models: &mockModels{err: errors.New("503 overloaded")}, model: DefaultModel}
	_, err := svc.Generate(context.Background(), domain.GenerationRequest{Question: "q"}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.True(t, domain.IsUpstreamError(err))

	svc = &LLMService{models: &mockModels{reply: ""}, model: DefaultModel}
	_, err = svc.Generate(context.Background(), domain.GenerationRequest{Question: "q"}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
}

func TestPing(t *testing.T) {
	svc := &LLMService{models: &mockModels{}, model: DefaultModel}
	assert.NoError(t, svc.Ping(context.Background()))
	assert.Equal(t, DefaultModel, svc.ModelName())
}
