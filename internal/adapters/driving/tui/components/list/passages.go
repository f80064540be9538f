// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/embediq/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/embediq/internal/core/domain"
)

// PassageList displays the retrieved chunks behind an answer.
type PassageList struct {
	passages []domain.ScoredChunk
	names    map[string]string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates an empty passage list.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &PassageList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (p *PassageList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (p *PassageList) Update(msg tea.Msg) (*PassageList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			p.MoveUp()
		case "down", "j":
			p.MoveDown()
		}
	}
	return p, nil
}

// View renders the visible passages, keeping the selection on screen.
func (p *PassageList) View() string {
	if len(p.passages) == 0 {
		return p.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(p.passages)+2)
	lines = append(lines, p.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(p.passages))), "")

	// Each passage takes two lines.
	visible := max((p.height-2)/2, 1)
	start := 0
	if p.selected >= visible {
		start = p.selected - visible + 1
	}
	end := min(start+visible, len(p.passages))

	for i := start; i < end; i++ {
		lines = append(lines, p.renderPassage(i, p.passages[i]))
	}
	return strings.Join(lines, "\n")
}

func (p *PassageList) renderPassage(index int, sc domain.ScoredChunk) string {
	indicator := "  "
	if index == p.selected {
		indicator = "> "
	}

	name := sc.Chunk.DocumentID
	if n, ok := p.names[name]; ok && n != "" {
		name = n
	}
	label := truncate(fmt.Sprintf("%s #%d", name, sc.Chunk.Index), max(p.width-16, 10))
	score := fmt.Sprintf("%.3f", sc.Score)

	var head string
	if index == p.selected {
		head = p.styles.Selected.Render(fmt.Sprintf("%s%s  %s", indicator, label, score))
	} else {
		head = p.styles.Normal.Render(indicator+label+"  ") + p.styles.Muted.Render(score)
	}

	preview := truncate(strings.Join(strings.Fields(sc.Chunk.Content), " "), max(p.width-6, 20))
	return head + "\n" + p.styles.Muted.Render("    "+preview)
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// SetPassages replaces the list and resets the selection.
func (p *PassageList) SetPassages(passages []domain.ScoredChunk) {
	p.passages = passages
	p.selected = 0
}

// SetNames maps document IDs to display names.
func (p *PassageList) SetNames(names map[string]string) {
	p.names = names
}

// Passages returns the current passages.
func (p *PassageList) Passages() []domain.ScoredChunk {
	return p.passages
}

// Selected returns the index of the selected passage.
func (p *PassageList) Selected() int {
	return p.selected
}

// SelectedPassage returns the selected passage, or nil when empty.
func (p *PassageList) SelectedPassage() *domain.ScoredChunk {
	if p.selected < 0 || p.selected >= len(p.passages) {
		return nil
	}
	return &p.passages[p.selected]
}

// MoveUp moves selection up.
func (p *PassageList) MoveUp() {
	if p.selected > 0 {
		p.selected--
	}
}

// MoveDown moves selection down.
func (p *PassageList) MoveDown() {
	if p.selected < len(p.passages)-1 {
		p.selected++
	}
}

// SetDimensions sets the component dimensions.
func (p *PassageList) SetDimensions(width, height int) {
	p.width = width
	p.height = height
}

// Count returns the number of passages.
func (p *PassageList) Count() int {
	return len(p.passages)
}
