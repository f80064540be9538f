// Package docdetails provides the document details view component for the TUI.
package docdetails

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

const previewWidth = 60

// View shows a document's metadata and chunk layout.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	summary      *driving.DocumentSummary
	document     *domain.Document
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new document details view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// SetDocument selects the document and loads it.
func (v *View) SetDocument(doc driving.DocumentSummary) tea.Cmd {
	v.summary = &doc
	v.document = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true

	svc, ctx, id := v.documentService, v.ctx, doc.ID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentLoaded{DocumentID: id, Err: fmt.Errorf("document service not available")}
		}
		full, err := svc.Get(ctx, id)
		return messages.DocumentLoaded{DocumentID: id, Document: full, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document details view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentLoaded:
		if v.summary == nil || msg.DocumentID != v.summary.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		v.document = msg.Document
		v.lines = v.buildContent()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

func (v *View) visibleLines() int {
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

func (v *View) buildContent() []string {
	doc := v.document
	if doc == nil {
		return nil
	}

	lines := []string{
		formatField("ID", doc.ID),
		formatField("Filename", doc.Filename),
		formatField("Type", doc.MIMEType),
		formatField("Size", fmt.Sprintf("%d bytes", doc.Size)),
		formatField("Text", fmt.Sprintf("%d characters", len([]rune(doc.Content)))),
		formatField("Chunks", fmt.Sprintf("%d", len(doc.Chunks))),
	}
	if !doc.CreatedAt.IsZero() {
		lines = append(lines, formatField("Uploaded", doc.CreatedAt.Format("2006-01-02 15:04:05")))
	}

	if len(doc.Metadata) > 0 {
		lines = append(lines, "", "Metadata:")
		for _, k := range slices.Sorted(maps.Keys(doc.Metadata)) {
			lines = append(lines, fmt.Sprintf("  %s: %s", k, preview(fmt.Sprint(doc.Metadata[k]))))
		}
	}

	if len(doc.Chunks) > 0 {
		lines = append(lines, "", "Chunks:")
		for _, c := range doc.Chunks {
			lines = append(lines, fmt.Sprintf("  #%d: %s", c.Index, preview(c.Content)))
		}
	}

	return lines
}

func formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// preview collapses whitespace and shortens s to one display line.
func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewWidth {
		return s
	}
	return string(r[:previewWidth-3]) + "..."
}

// View renders the document details view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Document Details"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading document..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("No document details available"))
	default:
		visible := v.visibleLines()
		for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderLine(v.lines[i]))
			b.WriteString("\n")
		}
		if len(v.lines) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(v.lines)),
				len(v.lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] scroll  [esc] back"))

	return b.String()
}

func (v *View) renderLine(line string) string {
	switch {
	case line == "Metadata:" || line == "Chunks:":
		return v.styles.Subtitle.Render(line)
	case strings.HasPrefix(line, "  "):
		label, value, _ := strings.Cut(line, ":")
		return v.styles.Muted.Render(label+":") + v.styles.Normal.Render(value)
	case strings.Contains(line, ":"):
		label, value, _ := strings.Cut(line, ":")
		return v.styles.Subtitle.Render(label+":") + v.styles.Normal.Render(value)
	default:
		return v.styles.Normal.Render(line)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Document returns the loaded document, or nil.
func (v *View) Document() *domain.Document {
	return v.document
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
