package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/media"
	"github.com/abhisek/bmc/internal/offline"
	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
	"github.com/abhisek/bmc/internal/screens/course"
	"github.com/abhisek/bmc/internal/screens/failure"
	"github.com/abhisek/bmc/internal/screens/history"
	"github.com/abhisek/bmc/internal/screens/loading"
	"github.com/abhisek/bmc/internal/tracker"
	"github.com/abhisek/bmc/internal/ui/layout"
)

// Options wires the TUI to the rest of the program.
type Options struct {
	Loader     *catalog.Loader
	Controller *tracker.Controller
	// Link is the location reference the session starts from, e.g. "#unit=u2".
	Link string
	// Worker is the offline cache layer; nil disables it.
	Worker      *offline.Worker
	Media       *media.Client
	Opener      tracker.Opener
	Journal     history.Source
	BaseURL     string
	DownloadDir string
	Logger      *zap.Logger
}

type offlineStatusMsg struct {
	phase offline.Phase
	err   error
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	opts    Options
	offline string
	width   int
	height  int
}

// newAppModel creates a new AppModel with the loading screen.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := AppModel{opts: opts}
	m.router = router.New(m.loadingScreen())
	return m
}

func (m AppModel) loadingScreen() screen.Screen {
	opts := m.opts
	var cat *catalog.Catalog
	return loading.New(
		func(ctx context.Context) error {
			loaded, err := opts.Loader.Load(ctx)
			if err != nil {
				return err
			}
			cat = loaded
			if err := opts.Controller.Start(ctx, loaded, opts.Link); err != nil {
				// Progress that could not be saved is still shown.
				opts.Logger.Warn("start session", zap.Error(err))
			}
			return nil
		},
		func() screen.Screen { return m.courseScreen(cat) },
		func(err error) screen.Screen {
			opts.Logger.Error("startup failed", zap.Error(err))
			return failure.New(err, m.loadingScreen)
		},
	)
}

func (m AppModel) courseScreen(cat *catalog.Catalog) screen.Screen {
	opts := m.opts
	var historyScreen func() screen.Screen
	if opts.Journal != nil {
		historyScreen = func() screen.Screen { return history.New(opts.Journal, cat) }
	}
	return course.New(course.Options{
		Controller:  opts.Controller,
		Media:       opts.Media,
		Opener:      opts.Opener,
		BaseURL:     opts.BaseURL,
		DownloadDir: opts.DownloadDir,
		History:     historyScreen,
		Logger:      opts.Logger,
	})
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Init(), m.registerOffline())
}

// registerOffline installs and activates the offline cache in the
// background. It never blocks the UI.
func (m AppModel) registerOffline() tea.Cmd {
	w := m.opts.Worker
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		err := w.Register(context.Background())
		return offlineStatusMsg{phase: w.Phase(), err: err}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case offlineStatusMsg:
		m.offline = offlineLabel(msg.phase, msg.err)
		if msg.err != nil {
			m.opts.Logger.Warn("offline cache unavailable", zap.Error(msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func offlineLabel(phase offline.Phase, err error) string {
	switch {
	case err != nil:
		return "online only"
	case phase == offline.PhaseServing:
		return "offline ready"
	default:
		return phase.String()
	}
}

func (m AppModel) status() string {
	var status string
	if sp, ok := m.router.Active().(screen.StatusProvider); ok {
		status = sp.Status()
	}
	if m.offline != "" {
		if status != "" {
			status += "   "
		}
		status += "● " + m.offline
	}
	return status
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.status(), m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	} else {
		footerHints = []layout.KeyHint{
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
