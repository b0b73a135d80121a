// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/caresync/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/caresync/internal/core/domain"
)

// SourceList displays the sources cited by an answer in a navigable list.
type SourceList struct {
	sources  []domain.Source
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the source list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	// Each source takes two lines
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.sources) {
		end = len(l.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}

	return strings.Join(lines, "\n")
}

// renderSource formats a single source with its snippet.
func (l *SourceList) renderSource(index int, source *domain.Source) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := Citation(source)
	maxTitleLen := l.width - 12
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	title = truncate(title, maxTitleLen)

	score := fmt.Sprintf("%.2f", source.RelevanceScore)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, score))
	} else {
		titleLine = l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			l.styles.Muted.Render(score)
	}

	maxSnippetLen := l.width - 6
	if maxSnippetLen < 20 {
		maxSnippetLen = 20
	}
	snippet := strings.Join(strings.Fields(source.TextSnippet), " ")
	snippetLine := l.styles.Muted.Render("    " + truncate(snippet, maxSnippetLen))

	return titleLine + "\n" + snippetLine
}

// Citation formats a source as "name, page N", or just the name when the
// page is unknown.
func Citation(source *domain.Source) string {
	name := source.DocumentName
	if name == "" {
		name = "(unknown document)"
	}
	if source.PageNumber != nil {
		return fmt.Sprintf("%s, page %d", name, *source.PageNumber)
	}
	return name
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetSources replaces the listed sources.
func (l *SourceList) SetSources(sources []domain.Source) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.Source {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *SourceList) SetSelected(index int) {
	if index >= 0 && index < len(l.sources) {
		l.selected = index
	}
}

// SelectedSource returns the currently selected source, or nil if none.
func (l *SourceList) SelectedSource() *domain.Source {
	if len(l.sources) == 0 || l.selected < 0 || l.selected >= len(l.sources) {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the current width.
func (l *SourceList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *SourceList) Height() int {
	return l.height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}

// IsEmpty returns whether the list is empty.
func (l *SourceList) IsEmpty() bool {
	return len(l.sources) == 0
}
