// Package loading implements the startup screen that fetches the unit
// catalog and hands over to the course screen.
package loading

import (
	"context"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
	"github.com/abhisek/bmc/internal/ui/layout"
	"github.com/abhisek/bmc/internal/ui/theme"
)

const tickInterval = 100 * time.Millisecond

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

type tickMsg time.Time

type loadedMsg struct {
	err error
}

// LoadFunc fetches the catalog and starts the session.
type LoadFunc func(ctx context.Context) error

// LoadingScreen runs a LoadFunc once and replaces itself with the next
// screen on success or the failure screen on error.
type LoadingScreen struct {
	load      LoadFunc
	onSuccess func() screen.Screen
	onFailure func(err error) screen.Screen

	tickCount int
	done      bool
}

var _ screen.Screen = (*LoadingScreen)(nil)

// New creates a LoadingScreen.
func New(load LoadFunc, onSuccess func() screen.Screen, onFailure func(error) screen.Screen) *LoadingScreen {
	return &LoadingScreen{
		load:      load,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
}

func (l *LoadingScreen) Title() string {
	return "Loading"
}

func (l *LoadingScreen) Init() tea.Cmd {
	load := l.load
	return tea.Batch(
		tick(),
		func() tea.Msg {
			return loadedMsg{err: load(context.Background())}
		},
	)
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (l *LoadingScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if l.done {
			return l, nil
		}
		l.tickCount++
		return l, tick()

	case loadedMsg:
		if l.done {
			return l, nil
		}
		l.done = true
		var next screen.Screen
		if msg.err != nil {
			next = l.onFailure(msg.err)
		} else {
			next = l.onSuccess()
		}
		return l, func() tea.Msg {
			return router.ReplaceScreenMsg{Screen: next}
		}
	}

	return l, nil
}

func (l *LoadingScreen) View(width, height int) string {
	frame := spinnerFrames[l.tickCount%len(spinnerFrames)]

	status := lipgloss.NewStyle().Foreground(theme.Secondary).Render(frame) + " " +
		theme.Body.Render("Loading units...")

	var sections []string
	if !layout.IsCompactHeight(height) {
		sections = append(sections, RenderBanner(width), "")
	}
	sections = append(sections, status)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
