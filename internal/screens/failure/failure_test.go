package failure

import (
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
)

type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "" }
func (s *stubScreen) Title() string                           { return "Loading" }

var enter = tea.KeyPressMsg{Code: tea.KeyEnter}

func TestRetryReplacesScreen(t *testing.T) {
	retries := 0
	f := New(errors.New("boom"), func() screen.Screen {
		retries++
		return &stubScreen{}
	})

	_, cmd := f.Update(enter)
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Loading", msg.Screen.Title())
	assert.Equal(t, 1, retries)
}

func TestQuit(t *testing.T) {
	f := New(errors.New("boom"), func() screen.Screen { return &stubScreen{} })

	f.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	_, cmd := f.Update(enter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNoRetryStartsOnQuit(t *testing.T) {
	f := New(errors.New("boom"), nil)
	_, cmd := f.Update(enter)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestShortcutKeys(t *testing.T) {
	retried := false
	f := New(errors.New("boom"), func() screen.Screen {
		retried = true
		return &stubScreen{}
	})

	_, cmd := f.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.False(t, retried)

	_, cmd = f.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.NotNil(t, cmd)
	assert.IsType(t, router.ReplaceScreenMsg{}, cmd())
	assert.True(t, retried)
}

func TestRetryKeyIgnoredWithoutRetry(t *testing.T) {
	f := New(errors.New("boom"), nil)
	_, cmd := f.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	assert.Nil(t, cmd)
}

func TestHeadline(t *testing.T) {
	loadErr := &catalog.CatalogLoadError{URL: "http://x/data/units.json", StatusCode: 404}
	assert.Equal(t, "Could not load the unit list", Headline(loadErr))
	assert.Equal(t, "Something went wrong", Headline(errors.New("x")))

	view := New(loadErr, nil).View(80, 20)
	assert.True(t, strings.Contains(view, "Could not load the unit list"))
}
