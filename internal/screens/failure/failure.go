// Package failure shows a fatal startup error with retry and quit actions.
package failure

import (
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
	"github.com/abhisek/bmc/internal/ui/components"
	"github.com/abhisek/bmc/internal/ui/layout"
	"github.com/abhisek/bmc/internal/ui/theme"
)

// FailureScreen reports an error that left no units to show.
type FailureScreen struct {
	err  error
	menu components.Menu
}

var _ screen.Screen = (*FailureScreen)(nil)
var _ screen.KeyHintProvider = (*FailureScreen)(nil)

// New creates a FailureScreen for err. Retry replaces the screen with the
// one produced by retry; a nil retry disables the option.
func New(err error, retry func() screen.Screen) *FailureScreen {
	items := []components.MenuItem{
		{
			Label:    "Retry",
			Key:      "r",
			Disabled: retry == nil,
			Action: func() tea.Cmd {
				next := retry()
				return func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
			},
		},
		{
			Label:  "Quit",
			Key:    "q",
			Action: func() tea.Cmd { return tea.Quit },
		},
	}
	return &FailureScreen{err: err, menu: components.NewMenu(items)}
}

func (f *FailureScreen) Init() tea.Cmd {
	return nil
}

func (f *FailureScreen) Title() string {
	return "Error"
}

func (f *FailureScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Choose"},
		{Key: "r", Description: "Retry"},
		{Key: "q", Description: "Quit"},
	}
}

func (f *FailureScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	f.menu, cmd = f.menu.Update(msg)
	return f, cmd
}

// Headline summarizes the error for display.
func Headline(err error) string {
	var loadErr *catalog.CatalogLoadError
	if errors.As(err, &loadErr) {
		return "Could not load the unit list"
	}
	return "Something went wrong"
}

func (f *FailureScreen) View(width, height int) string {
	detail := ""
	if f.err != nil {
		detail = f.err.Error()
	}

	sections := []string{
		theme.Failure.Render(Headline(f.err)),
		"",
		lipgloss.NewStyle().Foreground(theme.TextDim).Width(min(width-4, 70)).Render(detail),
		"",
		f.menu.View(),
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
