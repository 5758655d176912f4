// Package course implements the main screen: the unit list, the detail pane
// of the active unit, overall progress and the final-exam gate.
package course

import (
	"context"
	"errors"
	"net/url"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/media"
	"github.com/abhisek/bmc/internal/router"
	"github.com/abhisek/bmc/internal/screen"
	"github.com/abhisek/bmc/internal/tracker"
	"github.com/abhisek/bmc/internal/ui/components"
	"github.com/abhisek/bmc/internal/ui/layout"
)

// Options configures a CourseScreen.
type Options struct {
	Controller *tracker.Controller
	Media      *media.Client
	Opener     tracker.Opener
	// BaseURL resolves relative audio and document references.
	BaseURL     string
	DownloadDir string
	// History builds the completion history screen; nil hides it.
	History func() screen.Screen
	Logger  *zap.Logger
}

type mediaStatus int

const (
	mediaNone mediaStatus = iota
	mediaChecking
	mediaReady
	mediaFailed
)

type probeResultMsg struct {
	seq  int
	kind media.Kind
	err  error
}

type downloadDoneMsg struct {
	path string
	err  error
}

type openDoneMsg struct {
	what string
	err  error
}

// CourseScreen is the unit tracker screen.
type CourseScreen struct {
	ctrl        *tracker.Controller
	media       *media.Client
	opener      tracker.Opener
	base        *url.URL
	downloadDir string
	history     func() screen.Screen
	logger      *zap.Logger

	search components.TextInput
	items  []tracker.ListItem
	cursor int

	probeSeq    int
	audio       mediaStatus
	document    mediaStatus
	audioErr    *media.LoadFailure
	documentErr *media.LoadFailure

	notice    string
	noticeErr bool
}

var _ screen.Screen = (*CourseScreen)(nil)
var _ screen.KeyHintProvider = (*CourseScreen)(nil)
var _ screen.StatusProvider = (*CourseScreen)(nil)

// New creates a CourseScreen over a started controller.
func New(opts Options) *CourseScreen {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var base *url.URL
	if opts.BaseURL != "" {
		base, _ = url.Parse(opts.BaseURL)
	}
	mc := opts.Media
	if mc == nil {
		mc = media.New(nil, logger)
	}
	s := &CourseScreen{
		ctrl:        opts.Controller,
		media:       mc,
		opener:      opts.Opener,
		base:        base,
		downloadDir: opts.DownloadDir,
		history:     opts.History,
		logger:      logger.Named("course"),
		search:      components.NewTextInput("search units", 64),
	}
	s.refresh()
	s.focusActive()
	return s
}

func (s *CourseScreen) Init() tea.Cmd {
	return s.probeMedia()
}

func (s *CourseScreen) Title() string {
	return "Course"
}

// Status reports the completion count and percentage for the header.
func (s *CourseScreen) Status() string {
	sum := s.ctrl.Summary()
	return tracker.CountLabel(sum) + "  " + percentLabel(sum.Percent)
}

func (s *CourseScreen) KeyHints() []layout.KeyHint {
	if s.search.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Done"},
			{Key: "Esc", Description: "Clear"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "c", Description: "Complete"},
		{Key: "a/d/o", Description: "Audio/Save/Doc"},
		{Key: "[ ]", Description: "Back/Fwd"},
		{Key: "/", Description: "Search"},
	}
	if s.ctrl.Gate().Enabled {
		hints = append(hints, layout.KeyHint{Key: "e", Description: "Exam"})
	}
	if s.history != nil {
		hints = append(hints, layout.KeyHint{Key: "h", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "q", Description: "Quit"})
}

func (s *CourseScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case probeResultMsg:
		s.applyProbe(msg)
		return s, nil

	case downloadDoneMsg:
		if msg.err != nil {
			s.setError(failureLabel(msg.err, "download failed"))
		} else {
			s.setNotice("Saved " + msg.path)
		}
		return s, nil

	case openDoneMsg:
		if msg.err != nil {
			s.setError(failureLabel(msg.err, "could not open "+msg.what))
		}
		return s, nil

	case tea.KeyMsg:
		if s.search.Focused() {
			return s, s.updateSearch(msg)
		}
		return s, s.handleKey(msg)
	}

	if s.search.Focused() {
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *CourseScreen) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		s.search.Reset()
		s.search.Blur()
		s.refresh()
		s.focusActive()
		return nil
	case "enter":
		s.search.Blur()
		return nil
	case "up", "down":
		s.search.Blur()
		return s.handleKey(msg)
	}
	var cmd tea.Cmd
	s.search, cmd = s.search.Update(msg)
	s.refresh()
	s.cursor = 0
	return cmd
}

func (s *CourseScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	ctx := context.Background()

	switch msg.String() {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.items)-1 {
			s.cursor++
		}
	case "/":
		return s.search.Focus()
	case "esc":
		if s.search.Value() != "" {
			s.search.Reset()
			s.refresh()
			s.focusActive()
		}
	case "enter":
		if s.cursor < len(s.items) {
			return s.selectUnit(ctx, s.items[s.cursor].Unit.ID)
		}
	case "c":
		s.completeActive(ctx)
	case "e":
		return s.openExam(ctx)
	case "a":
		if d, ok := s.ctrl.Detail(); ok && d.CanDownloadAudio {
			return s.open("audio", d.AudioURL)
		}
	case "d":
		if d, ok := s.ctrl.Detail(); ok && d.CanDownloadAudio {
			return s.download(d.AudioURL)
		}
	case "o":
		if d, ok := s.ctrl.Detail(); ok && d.CanOpenDocument {
			return s.open("document", d.DocumentURL)
		}
	case "[":
		return s.step(s.ctrl.Back(ctx))
	case "]":
		return s.step(s.ctrl.Forward(ctx))
	case "h":
		if s.history != nil {
			next := s.history()
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
	case "q":
		return tea.Quit
	}
	return nil
}

func (s *CourseScreen) selectUnit(ctx context.Context, id string) tea.Cmd {
	ok, err := s.ctrl.SelectUnit(ctx, id)
	if !ok {
		return nil
	}
	s.clearNotice()
	if err != nil {
		s.setError("progress not saved: " + err.Error())
	}
	s.refresh()
	s.focusActive()
	return s.probeMedia()
}

func (s *CourseScreen) completeActive(ctx context.Context) {
	active, err := s.ctrl.CompleteActiveUnit(ctx)
	if !active {
		s.setError("Select a unit first.")
		return
	}
	s.clearNotice()
	if err != nil {
		s.setError("progress not saved: " + err.Error())
	}
	s.refresh()
}

func (s *CourseScreen) openExam(ctx context.Context) tea.Cmd {
	err := s.ctrl.OpenExam(ctx)
	switch {
	case errors.Is(err, tracker.ErrExamLocked):
		s.setError("Complete every unit to unlock the final exam (" + s.ctrl.Gate().Hint + ").")
	case err != nil:
		s.setError(err.Error())
	default:
		s.setNotice("Opening the final exam...")
	}
	return nil
}

func (s *CourseScreen) step(moved bool, err error) tea.Cmd {
	if !moved {
		return nil
	}
	s.clearNotice()
	if err != nil {
		s.setError("progress not saved: " + err.Error())
	}
	s.refresh()
	s.focusActive()
	return s.probeMedia()
}

func (s *CourseScreen) open(what, ref string) tea.Cmd {
	if s.opener == nil {
		return nil
	}
	target := s.resolve(ref)
	opener := s.opener
	return func() tea.Msg {
		return openDoneMsg{what: what, err: opener.Open(context.Background(), target)}
	}
}

func (s *CourseScreen) download(ref string) tea.Cmd {
	target := s.resolve(ref)
	mc, dir := s.media, s.downloadDir
	s.setNotice("Downloading audio...")
	return func() tea.Msg {
		path, err := mc.Download(context.Background(), media.KindAudio, target, dir)
		return downloadDoneMsg{path: path, err: err}
	}
}

// probeMedia checks the active unit's resources in the background. Results
// from an earlier selection are dropped.
func (s *CourseScreen) probeMedia() tea.Cmd {
	s.probeSeq++
	s.audio, s.document = mediaNone, mediaNone
	s.audioErr, s.documentErr = nil, nil

	d, ok := s.ctrl.Detail()
	if !ok {
		return nil
	}

	seq := s.probeSeq
	mc := s.media
	var cmds []tea.Cmd
	probe := func(kind media.Kind, ref string) tea.Cmd {
		target := s.resolve(ref)
		return func() tea.Msg {
			return probeResultMsg{seq: seq, kind: kind, err: mc.Probe(context.Background(), kind, target)}
		}
	}
	if d.CanDownloadAudio {
		s.audio = mediaChecking
		cmds = append(cmds, probe(media.KindAudio, d.AudioURL))
	}
	if d.CanOpenDocument {
		s.document = mediaChecking
		cmds = append(cmds, probe(media.KindDocument, d.DocumentURL))
	}
	return tea.Batch(cmds...)
}

func (s *CourseScreen) applyProbe(msg probeResultMsg) {
	if msg.seq != s.probeSeq {
		return
	}
	status := mediaReady
	var failure *media.LoadFailure
	if msg.err != nil {
		status = mediaFailed
		if !errors.As(msg.err, &failure) {
			failure = &media.LoadFailure{Kind: msg.kind, Err: msg.err}
		}
		s.logger.Debug("media probe failed", zap.String("kind", string(msg.kind)), zap.Error(msg.err))
	}
	switch msg.kind {
	case media.KindAudio:
		s.audio, s.audioErr = status, failure
	case media.KindDocument:
		s.document, s.documentErr = status, failure
	}
}

// resolve turns a unit's media reference into an absolute URL.
func (s *CourseScreen) resolve(ref string) string {
	if s.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

func (s *CourseScreen) refresh() {
	s.items = s.ctrl.List(s.search.Value())
	if s.cursor >= len(s.items) {
		s.cursor = max(len(s.items)-1, 0)
	}
}

// focusActive moves the cursor onto the active unit when it is listed.
func (s *CourseScreen) focusActive() {
	for i, it := range s.items {
		if it.Active {
			s.cursor = i
			return
		}
	}
}

func (s *CourseScreen) setNotice(text string) {
	s.notice, s.noticeErr = text, false
}

func (s *CourseScreen) setError(text string) {
	s.notice, s.noticeErr = text, true
}

func (s *CourseScreen) clearNotice() {
	s.notice, s.noticeErr = "", false
}

func failureLabel(err error, fallback string) string {
	var lf *media.LoadFailure
	if errors.As(err, &lf) {
		return lf.Label()
	}
	if err == nil {
		return fallback
	}
	return fallback + ": " + err.Error()
}
