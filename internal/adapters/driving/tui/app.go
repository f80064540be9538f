package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/docdetails"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/ingest"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/views/menu"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles

	menuView       *menu.View
	chatView       *chat.View
	documentsView  *documents.View
	docContentView *doccontent.View
	docDetailsView *docdetails.View
	ingestView     *ingest.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		chatView:       chat.NewView(s, km, ports.Chat),
		documentsView:  documents.NewView(s, ports.Document),
		docContentView: doccontent.NewView(s, ports.Document),
		docDetailsView: docdetails.NewView(s, ports.Document),
		ingestView:     ingest.NewView(s, ports.Ingest, ports.Upload),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and every view that calls a service.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.SetContext(ctx)
	a.documentsView.SetContext(ctx)
	a.docContentView.SetContext(ctx)
	a.docDetailsView.SetContext(ctx)
	a.ingestView.SetContext(ctx)
	return a
}

// Init implements tea.Model. It also fetches document names so chat
// sources can show filenames instead of ids.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("embediq"),
		a.loadDocumentNames(),
	)
}

func (a *App) loadDocumentNames() tea.Cmd {
	svc, ctx := a.ports.Document, a.ctx
	return func() tea.Msg {
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.forward(msg)

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewChat:
			return a, a.chatView.Init()
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewIngest:
			a.ingestView.Reset()
			return a, a.ingestView.Init()
		case messages.ViewMenu, messages.ViewHelp, messages.ViewDocContent, messages.ViewDocDetails:
		}
		return a, nil

	case messages.AnswerReceived:
		a.chatView, cmd = a.chatView.Update(msg)
		a.err = a.chatView.Err()
		return a, cmd

	case messages.DocumentsLoaded:
		if msg.Err == nil {
			names := make(map[string]string, len(msg.Documents))
			for _, d := range msg.Documents {
				names[d.ID] = d.Filename
			}
			a.chatView.SetDocumentNames(names)
		}
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.Document)

	case messages.DocumentDetailsRequested:
		a.currentView = messages.ViewDocDetails
		return a, a.docDetailsView.SetDocument(msg.Document)

	case messages.DocumentLoaded:
		a.docContentView, _ = a.docContentView.Update(msg)
		a.docDetailsView, _ = a.docDetailsView.Update(msg)
		return a, nil

	case messages.DocumentDeleted:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ScopeSelected:
		a.chatView, _ = a.chatView.Update(msg)
		a.currentView = messages.ViewChat
		return a, a.chatView.Init()

	case messages.FilesIngested:
		a.ingestView, cmd = a.ingestView.Update(msg)
		a.err = msg.Err
		if msg.Err == nil {
			return a, tea.Batch(cmd, a.loadDocumentNames())
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.forward(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward hands msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewDocuments:
		a.documentsView, cmd = a.documentsView.Update(msg)
	case messages.ViewDocContent:
		a.docContentView, cmd = a.docContentView.Update(msg)
	case messages.ViewDocDetails:
		a.docDetailsView, cmd = a.docDetailsView.Update(msg)
	case messages.ViewIngest:
		a.ingestView, cmd = a.ingestView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewChat:
		return a.chatView.View()
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewIngest:
		return a.ingestView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + `

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Ask:
  (type)      Enter a question
  enter       Ask
  tab         Cycle mode (normal, eli5, compare)
  n           New question
  s           Show or hide sources
  a           Ask across all documents

Documents:
  enter       Actions (content, details, ask, delete)
  r           Reload

` + a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
	a.ingestView.SetDimensions(width, height)
}
