package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
	"github.com/abhisek/bmc/internal/store"
	"github.com/abhisek/bmc/internal/ui/layout"
	"github.com/abhisek/bmc/internal/ui/theme"
)

// Source lists completion events in order.
type Source interface {
	Completions(ctx context.Context) ([]store.CompletionEvent, error)
}

type historyLoadedMsg struct {
	Events []store.CompletionEvent
	Err    error
}

// HistoryScreen displays the completion journal, newest first.
type HistoryScreen struct {
	source   Source
	catalog  *catalog.Catalog
	events   []store.CompletionEvent
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen. cat supplies unit titles; units no
// longer in the catalog are shown by id.
func New(source Source, cat *catalog.Catalog) *HistoryScreen {
	return &HistoryScreen{
		source:  source,
		catalog: cat,
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		events, err := s.source.Completions(context.Background())
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		// Newest first.
		for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
			events[i], events[j] = events[j], events[i]
		}
		return historyLoadedMsg{Events: events}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.events = msg.Events
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.events)-1 {
				s.selected++
			}
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) unitTitle(id string) string {
	if u, ok := s.catalog.Find(id); ok {
		return u.Title
	}
	return id
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return theme.Subtitle.Width(width).Render("\n\n  Loading history...")
	}
	if len(s.events) == 0 {
		return theme.Subtitle.Width(width).Italic(true).Render("\n\n  No units completed yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	// Keep the selection inside the visible window.
	visible := max(height-2, 1)
	start := 0
	if s.selected >= visible {
		start = s.selected - visible + 1
	}
	end := min(start+visible, len(s.events))

	for i := start; i < end; i++ {
		ev := s.events[i]
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		line := fmt.Sprintf("%s%s  ✓ %s",
			prefix, ev.CompletedAt.Local().Format("Jan 02, 2006 15:04"), s.unitTitle(ev.UnitID))

		style := theme.Body
		if i == s.selected {
			style = theme.Selected
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)))
		b.WriteString("\n")
	}

	return b.String()
}
