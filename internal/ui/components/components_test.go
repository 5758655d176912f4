package components

import (
	"strconv"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
)

type pressedMsg struct{}

func TestButtonFiresOnKey(t *testing.T) {
	b := NewButton("Complete", "c", true, func() tea.Cmd {
		return func() tea.Msg { return pressedMsg{} }
	})

	_, cmd := b.Update(tea.KeyPressMsg{Code: 'c', Text: "c"})
	if assert.NotNil(t, cmd) {
		assert.IsType(t, pressedMsg{}, cmd())
	}

	_, cmd = b.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	assert.Nil(t, cmd)
}

func TestButtonDisabledIgnoresKey(t *testing.T) {
	b := NewButton("Complete", "c", false, func() tea.Cmd {
		return func() tea.Msg { return pressedMsg{} }
	})

	_, cmd := b.Update(tea.KeyPressMsg{Code: 'c', Text: "c"})
	assert.Nil(t, cmd)
	assert.Contains(t, b.View(), "Complete")
}

func TestProgressBarClampsPercent(t *testing.T) {
	for _, pct := range []int{-5, 0, 50, 100, 140} {
		view := NewProgressBar("", pct, true, 30).View()
		want := pct
		if want < 0 {
			want = 0
		}
		if want > 100 {
			want = 100
		}
		assert.True(t, strings.Contains(view, "  "+strconv.Itoa(want)+"%"), "percent %d rendered as %q", pct, view)
	}
}

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Retry", Disabled: true},
		{Label: "Quit"},
	})
	assert.Equal(t, 1, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 1, m.Selected)
}

func TestMenuWrapsAround(t *testing.T) {
	m := NewMenu([]MenuItem{{Label: "Retry"}, {Label: "Skip", Disabled: true}, {Label: "Quit"}})
	assert.Equal(t, 0, m.Selected)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 2, m.Selected)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	assert.Equal(t, 0, m.Selected)
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 2, m.Selected)
}

func TestMenuShortcutKey(t *testing.T) {
	chosen := ""
	pick := func(name string) func() tea.Cmd {
		return func() tea.Cmd {
			chosen = name
			return nil
		}
	}
	m := NewMenu([]MenuItem{
		{Label: "Retry", Key: "r", Action: pick("retry")},
		{Label: "Quit", Key: "q", Action: pick("quit")},
	})

	m, _ = m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	assert.Equal(t, "quit", chosen)
	assert.Equal(t, 1, m.Selected)
	assert.Contains(t, m.View(), "Quit [q]")
}
