// Package ingest provides the Add Files view, which reads a file or
// directory from disk and feeds it to the ingestion service.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/embediq/internal/connectors/filesystem"
	"github.com/custodia-labs/embediq/internal/core/domain"
	"github.com/custodia-labs/embediq/internal/core/ports/driving"
)

// ErrNoIngestService is reported when files are added without an ingest service.
var ErrNoIngestService = errors.New("ingest service not available")

// View prompts for a path and shows per-file results.
type View struct {
	styles        *styles.Styles
	input         *input.Field
	ingestService driving.IngestService
	limits        domain.UploadSettings
	ctx           context.Context

	path    string
	results []driving.IngestResult
	running bool
	err     error
	width   int
	height  int
}

// NewView creates a new Add Files view.
func NewView(s *styles.Styles, ingestService driving.IngestService, limits domain.UploadSettings) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		input:         input.NewPathInput(s),
		ingestService: ingestService,
		limits:        limits,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// SetContext sets the context used for reading and ingesting.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init focuses the path input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.input.Focus())
}

// Reset clears the previous run.
func (v *View) Reset() {
	v.input.Reset()
	v.path = ""
	v.results = nil
	v.running = false
	v.err = nil
}

// Update handles messages for the Add Files view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case tea.KeyEnter:
			return v, v.submit()
		}
		if v.running {
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd

	case messages.FilesIngested:
		v.running = false
		v.err = msg.Err
		v.results = msg.Results
		if msg.Err == nil {
			v.input.Reset()
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) submit() tea.Cmd {
	path := strings.TrimSpace(v.input.Value())
	if path == "" || v.running {
		return nil
	}

	v.path = path
	v.running = true
	v.err = nil
	v.results = nil

	svc, ctx, limits := v.ingestService, v.ctx, v.limits
	return func() tea.Msg {
		if svc == nil {
			return messages.FilesIngested{Path: path, Err: ErrNoIngestService}
		}
		results, err := ingestPath(ctx, svc, path, limits)
		return messages.FilesIngested{Path: path, Results: results, Err: err}
	}
}

// ingestPath reads path and ingests it in batches of at most limits.MaxFiles.
func ingestPath(
	ctx context.Context,
	svc driving.IngestService,
	path string,
	limits domain.UploadSettings,
) ([]driving.IngestResult, error) {
	uploads, err := filesystem.ReadUploads(ctx, path, limits.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("no files found in %s", path)
	}

	batch := limits.MaxFiles
	if batch <= 0 {
		batch = len(uploads)
	}

	results := make([]driving.IngestResult, 0, len(uploads))
	for start := 0; start < len(uploads); start += batch {
		end := min(start+batch, len(uploads))
		batchResults, err := svc.IngestBatch(ctx, uploads[start:end])
		if err != nil {
			return results, err
		}
		results = append(results, batchResults...)
	}
	return results, nil
}

// View renders the Add Files view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Add Files"))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")

	switch {
	case v.running:
		b.WriteString(v.styles.Muted.Render("Ingesting " + v.path + "..."))
		b.WriteString("\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
	}

	if len(v.results) > 0 {
		b.WriteString(v.renderResults())
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[enter] ingest  [esc] back"))
	return b.String()
}

func (v *View) renderResults() string {
	var b strings.Builder
	failed := 0

	for _, r := range v.results {
		if r.Err != nil {
			failed++
			b.WriteString(v.styles.Error.Render(fmt.Sprintf("  ✗ %s: %v", r.Filename, r.Err)))
		} else {
			b.WriteString(v.styles.Success.Render(fmt.Sprintf("  ✓ %s", r.Filename)))
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf(" (%d chunks)", len(r.Document.Chunks))))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Normal.Render(fmt.Sprintf("Ingested %d of %d files.", len(v.results)-failed, len(v.results))))
	b.WriteString("\n")
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
}

// Results returns the outcome of the last run.
func (v *View) Results() []driving.IngestResult {
	return v.results
}

// Running reports whether an ingest is in progress.
func (v *View) Running() bool {
	return v.running
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
