// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// ErrNoChatService is returned when a question is asked without a chat service.
var ErrNoChatService = errors.New("chat service not available")

var modeCycle = []domain.Mode{domain.ModeNormal, domain.ModeELI5, domain.ModeCompare}

// Exchange is one answered question.
type Exchange struct {
	Question string
	Answer   string
	Mode     domain.Mode
}

// View holds the question input, the latest answer and its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Field
	sources   *list.PassageList
	statusbar *status.Bar

	chatService driving.ChatService
	ctx         context.Context

	sessionID   string
	mode        domain.Mode
	scope       []string
	scopeLabel  string
	exchanges   []Exchange
	pending     string
	focusInput  bool
	showSources bool
	err         error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view with a fresh session.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		sources:     list.NewPassageList(s),
		statusbar:   status.NewBar(s, km),
		chatService: chatService,
		ctx:         context.Background(),
		sessionID:   uuid.NewString(),
		mode:        domain.ModeNormal,
		focusInput:  true,
		width:       80,
		height:      24,
	}
	v.statusbar.SetScope(v.scopeDisplay())
	return v
}

// SetContext sets the context used for chat calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init focuses the question input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.input.Focus())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		return v, v.handleAnswer(msg)

	case messages.ScopeSelected:
		v.SetScope(msg.DocumentIDs, msg.Label)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(keyStr, v.keymap.CycleMode):
		v.cycleMode()
		return v, nil
	}

	if v.pending != "" {
		return v, nil
	}

	if v.focusInput {
		if keymap.Matches(keyStr, v.keymap.Ask) {
			return v, v.ask()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.NewQuestion):
		v.focusInput = true
		v.input.Reset()
		v.statusbar.Clear()
		return v, v.input.Focus()
	case keymap.Matches(keyStr, v.keymap.ToggleSources):
		v.showSources = !v.showSources
	case keymap.Matches(keyStr, v.keymap.ClearScope):
		v.SetScope(nil, "")
	case keymap.Matches(keyStr, v.keymap.Up), keymap.Matches(keyStr, v.keymap.Down):
		if v.showSources {
			v.sources, _ = v.sources.Update(msg)
		}
	}

	return v, nil
}

func (v *View) ask() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" {
		return nil
	}

	v.pending = question
	v.err = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")

	svc, ctx := v.chatService, v.ctx
	req := driving.ChatRequest{
		SessionID: v.sessionID,
		Message:   question,
		Mode:      v.mode,
		Files:     append([]string(nil), v.scope...),
	}
	return func() tea.Msg {
		if svc == nil {
			return messages.AnswerReceived{Err: ErrNoChatService}
		}
		resp, err := svc.Send(ctx, req)
		return messages.AnswerReceived{Response: resp, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) tea.Cmd {
	question := v.pending
	v.pending = ""

	if msg.Err != nil || msg.Response == nil {
		err := msg.Err
		if err == nil {
			err = errors.New("empty response")
		}
		v.setError(err)
		v.focusInput = true
		v.input.SetValue(question)
		return v.input.Focus()
	}

	resp := msg.Response
	v.err = nil
	v.exchanges = append(v.exchanges, Exchange{Question: question, Answer: resp.Answer, Mode: resp.Mode})
	v.sources.SetPassages(resp.Sources)

	v.statusbar.SetState(status.StateAnswered)
	switch {
	case resp.Mode != v.mode:
		v.statusbar.SetMessage(fmt.Sprintf("answered in %s mode", resp.Mode))
	case len(resp.Sources) == 1:
		v.statusbar.SetMessage("1 source")
	default:
		v.statusbar.SetMessage(fmt.Sprintf("%d sources", len(resp.Sources)))
	}
	return nil
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) cycleMode() {
	for i, m := range modeCycle {
		if m == v.mode {
			v.mode = modeCycle[(i+1)%len(modeCycle)]
			break
		}
	}
	v.statusbar.SetMode(v.mode)
}

func (v *View) scopeDisplay() string {
	switch {
	case len(v.scope) == 0:
		return "all documents"
	case v.scopeLabel != "":
		return v.scopeLabel
	case len(v.scope) == 1:
		return v.scope[0]
	default:
		return fmt.Sprintf("%d documents", len(v.scope))
	}
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)
	sections = append(sections, v.styles.Title.Render("EmbedIQ"), "")

	if n := len(v.exchanges); n > 1 {
		sections = append(sections, v.styles.Muted.Render(fmt.Sprintf("%d earlier questions in this session", n-1)), "")
	}

	answerWidth := max(v.width-4, 20)
	switch {
	case v.pending != "":
		sections = append(sections,
			v.styles.Question.Render("You: "+v.pending),
			v.styles.Muted.Render("Thinking..."), "")
	case len(v.exchanges) > 0:
		last := v.exchanges[len(v.exchanges)-1]
		sections = append(sections,
			v.styles.Question.Render("You: "+last.Question),
			v.styles.Answer.Width(answerWidth).Render(last.Answer), "")
	}

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.focusInput {
		sections = append(sections, v.input.View(), "")
	}

	if v.showSources && v.pending == "" {
		sections = append(sections, v.sources.View(), "")
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.sources.SetDimensions(width, max(height/3, 4))
	v.statusbar.SetWidth(width)
}

// SetScope restricts questions to the given documents. Nil means all.
func (v *View) SetScope(ids []string, label string) {
	v.scope = append([]string(nil), ids...)
	v.scopeLabel = label
	if len(v.scope) == 0 {
		v.scopeLabel = ""
	}
	v.statusbar.SetScope(v.scopeDisplay())
}

// SetDocumentNames maps document ids to display names for the sources list.
func (v *View) SetDocumentNames(names map[string]string) {
	v.sources.SetNames(names)
}

// Reset starts a new session and returns focus to the input.
func (v *View) Reset() tea.Cmd {
	v.sessionID = uuid.NewString()
	v.exchanges = nil
	v.pending = ""
	v.err = nil
	v.showSources = false
	v.focusInput = true
	v.sources.SetPassages(nil)
	v.input.Reset()
	v.statusbar.Clear()
	return v.input.Focus()
}

// SessionID returns the chat session identifier.
func (v *View) SessionID() string {
	return v.sessionID
}

// Mode returns the selected answer mode.
func (v *View) Mode() domain.Mode {
	return v.mode
}

// Scope returns the document ids questions are restricted to.
func (v *View) Scope() []string {
	return v.scope
}

// Exchanges returns the answered questions, oldest first.
func (v *View) Exchanges() []Exchange {
	return v.exchanges
}

// Pending reports whether a question is awaiting an answer.
func (v *View) Pending() bool {
	return v.pending != ""
}

// InputFocused reports whether the question input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// ShowingSources reports whether the sources list is visible.
func (v *View) ShowingSources() bool {
	return v.showSources
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
