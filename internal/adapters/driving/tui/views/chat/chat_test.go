package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

type mockChatService struct {
	resp *driving.ChatResponse
	err  error
	reqs []driving.ChatRequest
}

func (m *mockChatService) Send(_ context.Context, req driving.ChatRequest) (*driving.ChatResponse, error) {
	m.reqs = append(m.reqs, req)
	return m.resp, m.err
}

func (m *mockChatService) History(_ context.Context, _ string) ([]domain.HistoryRecord, error) {
	return nil, nil
}

func (m *mockChatService) Sessions(_ context.Context) ([]string, error) {
	return nil, nil
}

func catsResponse(mode domain.Mode) *driving.ChatResponse {
	return &driving.ChatResponse{
		Answer: "Cats purr when content.",
		Mode:   mode,
		Sources: []domain.ScoredChunk{
			{Chunk: domain.Chunk{ID: "1-cats.txt#0", DocumentID: "1-cats.txt", Content: "Cats purr."}, Score: 0.91},
			{Chunk: domain.Chunk{ID: "1-cats.txt#1", DocumentID: "1-cats.txt", Content: "Cats nap."}, Score: 0.52},
		},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typeText(v *View, s string) {
	for _, r := range s {
		v.Update(keyRune(r))
	}
}

func newTestView(svc driving.ChatService) *View {
	v := NewView(nil, nil, svc)
	v.SetDimensions(140, 40)
	return v
}

// askAndAnswer types a question, submits it and feeds the reply back.
func askAndAnswer(t *testing.T, v *View, question string) {
	t.Helper()
	typeText(v, question)
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	v.Update(cmd())
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil, nil)

	assert.NotEmpty(t, v.SessionID())
	assert.Equal(t, domain.ModeNormal, v.Mode())
	assert.True(t, v.InputFocused())
	assert.NotNil(t, v.Init())
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_AskSendsRequest(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)

	typeText(v, "why do cats purr?")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, v.Pending())
	assert.False(t, v.InputFocused())
	assert.Contains(t, v.View(), "Thinking...")

	v.Update(cmd())

	require.Len(t, svc.reqs, 1)
	assert.Equal(t, driving.ChatRequest{
		SessionID: v.SessionID(),
		Message:   "why do cats purr?",
		Mode:      domain.ModeNormal,
		Files:     nil,
	}, svc.reqs[0])
	assert.False(t, v.Pending())
	require.Len(t, v.Exchanges(), 1)
	assert.Equal(t, "Cats purr when content.", v.Exchanges()[0].Answer)

	out := v.View()
	assert.Contains(t, out, "You: why do cats purr?")
	assert.Contains(t, out, "Cats purr when content.")
	assert.Contains(t, out, "2 sources")
}

func TestView_BlankQuestionIgnored(t *testing.T) {
	svc := &mockChatService{}
	v := newTestView(svc)

	typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.False(t, v.Pending())
}

func TestView_AskError(t *testing.T) {
	svc := &mockChatService{err: domain.ErrNoRelevantInformation}
	v := newTestView(svc)

	askAndAnswer(t, v, "dogs?")

	assert.ErrorIs(t, v.Err(), domain.ErrNoRelevantInformation)
	assert.True(t, v.InputFocused())
	assert.Empty(t, v.Exchanges())
	assert.Contains(t, v.View(), "Error:")
}

func TestView_NoService(t *testing.T) {
	v := newTestView(nil)

	askAndAnswer(t, v, "hello")

	assert.ErrorIs(t, v.Err(), ErrNoChatService)
}

func TestView_CycleMode(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeELI5)}
	v := newTestView(svc)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.ModeELI5, v.Mode())
	assert.Contains(t, v.View(), "eli5")

	askAndAnswer(t, v, "explain")
	assert.Equal(t, domain.ModeELI5, svc.reqs[0].Mode)

	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.ModeCompare, v.Mode())
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, domain.ModeNormal, v.Mode())
}

func TestView_CompareDowngradeNoted(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)
	v.Update(tea.KeyMsg{Type: tea.KeyTab})
	v.Update(tea.KeyMsg{Type: tea.KeyTab})

	askAndAnswer(t, v, "compare them")

	assert.Equal(t, domain.ModeCompare, svc.reqs[0].Mode)
	assert.Contains(t, v.View(), "answered in normal mode")
}

func TestView_Scope(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)

	v.Update(messages.ScopeSelected{DocumentIDs: []string{"1-cats.txt"}, Label: "cats.txt"})
	assert.Contains(t, v.View(), "cats.txt")

	askAndAnswer(t, v, "purr?")
	assert.Equal(t, []string{"1-cats.txt"}, svc.reqs[0].Files)

	v.Update(keyRune('a'))
	assert.Empty(t, v.Scope())
	assert.Contains(t, v.View(), "all documents")
}

func TestView_AnswerKeys(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)
	askAndAnswer(t, v, "purr?")

	v.Update(keyRune('s'))
	assert.True(t, v.ShowingSources())
	out := v.View()
	assert.Contains(t, out, "Sources (2)")
	assert.Contains(t, out, "0.910")

	v.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, v.sources.Selected())

	v.Update(keyRune('s'))
	assert.False(t, v.ShowingSources())

	_, cmd := v.Update(keyRune('n'))
	assert.NotNil(t, cmd)
	assert.True(t, v.InputFocused())

	askAndAnswer(t, v, "again?")
	assert.Len(t, v.Exchanges(), 2)
	assert.Equal(t, svc.reqs[0].SessionID, svc.reqs[1].SessionID)
	assert.Contains(t, v.View(), "1 earlier questions in this session")
}

func TestView_KeysIgnoredWhilePending(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)
	typeText(v, "q1")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	_, cmd := v.Update(keyRune('n'))

	assert.Nil(t, cmd)
	assert.False(t, v.InputFocused())
}

func TestView_Back(t *testing.T) {
	v := newTestView(nil)

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Reset(t *testing.T) {
	svc := &mockChatService{resp: catsResponse(domain.ModeNormal)}
	v := newTestView(svc)
	askAndAnswer(t, v, "purr?")
	before := v.SessionID()

	v.Reset()

	assert.NotEqual(t, before, v.SessionID())
	assert.Empty(t, v.Exchanges())
	assert.True(t, v.InputFocused())
}

func TestView_ErrorOccurred(t *testing.T) {
	v := newTestView(nil)

	v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
	assert.Contains(t, v.View(), "Error: boom")
}
