package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/location"
	"github.com/abhisek/bmc/internal/metrics"
	"github.com/abhisek/bmc/internal/progress"
)

// ErrExamLocked is returned when the exam is opened before every unit is
// complete.
var ErrExamLocked = errors.New("exam is locked until every unit is complete")

// Journal records first-time completions.
type Journal interface {
	AppendCompletion(ctx context.Context, unitID string, at time.Time) error
}

// Opener launches a URL outside this process.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Options configures a Controller. Journal and Opener are optional.
type Options struct {
	Store   *progress.Store
	Journal Journal
	Opener  Opener
	ExamURL string
	Logger  *zap.Logger
	Now     func() time.Time
}

// Controller owns the session state. It is not safe for concurrent use;
// callers serialize commands.
type Controller struct {
	store   *progress.Store
	journal Journal
	opener  Opener
	examURL string
	logger  *zap.Logger
	now     func() time.Time

	state   State
	message string
	history *location.History
}

// NewController creates a Controller with an empty catalog.
func NewController(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		store:   opts.Store,
		journal: opts.Journal,
		opener:  opts.Opener,
		examURL: opts.ExamURL,
		logger:  logger.Named("tracker"),
		now:     now,
		state:   State{Progress: progress.Record{}},
		history: location.NewHistory(),
	}
}

// Start installs cat as the current catalog, back-fills the progress record
// and restores the selection from link, the persisted active id or the
// first unit, in that order.
func (c *Controller) Start(ctx context.Context, cat *catalog.Catalog, link string) error {
	rec, persistedID := c.store.Load(ctx)
	rec, err := c.store.EnsureKeys(ctx, rec, cat.IDs())
	c.state = State{Catalog: cat, Progress: rec, ActiveID: persistedID}
	hydrateErr := c.hydrate(ctx, link, persistedID)
	if err != nil {
		return fmt.Errorf("ensure progress keys: %w", err)
	}
	return hydrateErr
}

// Navigate re-applies a location reference, as on a back/forward event.
func (c *Controller) Navigate(ctx context.Context, link string) error {
	return c.hydrate(ctx, link, c.state.ActiveID)
}

// Back moves to the previous location in the history and re-applies it.
// It reports false when there is nothing to go back to.
func (c *Controller) Back(ctx context.Context) (bool, error) {
	link, ok := c.history.Back()
	if !ok {
		return false, nil
	}
	return true, c.Navigate(ctx, link)
}

// Forward is Back in the other direction.
func (c *Controller) Forward(ctx context.Context) (bool, error) {
	link, ok := c.history.Forward()
	if !ok {
		return false, nil
	}
	return true, c.Navigate(ctx, link)
}

func (c *Controller) hydrate(ctx context.Context, link, persistedID string) error {
	id := Resolve(c.state.Catalog, link, persistedID)
	if id == "" {
		c.state.ActiveID = ""
		c.message = ""
		return nil
	}
	_, err := c.SelectUnit(ctx, id)
	return err
}

// SelectUnit makes id the active unit and persists the choice. Unknown ids
// are ignored and report false. A persistence failure is returned, but the
// selection still takes effect in memory.
func (c *Controller) SelectUnit(ctx context.Context, id string) (bool, error) {
	next, ok := Select(c.state, id)
	if !ok {
		return false, nil
	}
	c.state = next
	metrics.ObserveSelection()

	if c.state.IsComplete(id) {
		c.message = MessageAlreadyCompleted
	} else {
		c.message = ""
	}
	c.history.Push(location.Format(id))

	if err := c.store.Save(ctx, c.state.Progress, c.state.ActiveID); err != nil {
		c.logger.Warn("persist selection failed", zap.String("unit", id), zap.Error(err))
		return true, err
	}
	c.logger.Debug("unit selected", zap.String("unit", id))
	return true, nil
}

// CompleteActiveUnit marks the active unit complete. It is a no-op without
// an active unit and idempotent otherwise. The returned bool reports
// whether a unit is active.
func (c *Controller) CompleteActiveUnit(ctx context.Context) (bool, error) {
	id := c.state.ActiveID
	if id == "" {
		return false, nil
	}
	next, changed := Complete(c.state)
	c.state = next
	c.message = MessageCompleted

	if err := c.store.Save(ctx, c.state.Progress, id); err != nil {
		c.logger.Warn("persist completion failed", zap.String("unit", id), zap.Error(err))
		return true, err
	}
	if !changed {
		return true, nil
	}

	metrics.ObserveCompletion()
	c.logger.Info("unit completed", zap.String("unit", id))
	if c.journal != nil {
		if err := c.journal.AppendCompletion(ctx, id, c.now()); err != nil {
			// The flag is already persisted; a missing journal entry only
			// affects history.
			c.logger.Warn("journal completion failed", zap.String("unit", id), zap.Error(err))
		}
	}
	return true, nil
}

// OpenExam launches the exam URL. It returns ErrExamLocked while the gate
// is closed.
func (c *Controller) OpenExam(ctx context.Context) error {
	if !IsFullyComplete(c.state) {
		return ErrExamLocked
	}
	if c.opener == nil {
		return errors.New("no opener configured")
	}
	if err := c.opener.Open(ctx, c.examURL); err != nil {
		return fmt.Errorf("open exam: %w", err)
	}
	c.logger.Info("exam opened")
	return nil
}

// State returns the current session snapshot.
func (c *Controller) State() State {
	s := c.state
	s.Progress = c.state.Progress.Clone()
	return s
}

// Message returns the confirmation text for the completion control.
func (c *Controller) Message() string { return c.message }

// Location returns the current location reference, or "".
func (c *Controller) Location() string {
	link, _ := c.history.Current()
	return link
}

// ExamURL returns the configured exam URL.
func (c *Controller) ExamURL() string { return c.examURL }

// Detail returns the detail pane of the active unit.
func (c *Controller) Detail() (Detail, bool) {
	return DetailView(c.state, c.message)
}

// List returns the unit rows matching query.
func (c *Controller) List(query string) []ListItem {
	return ListView(c.state, catalog.Filter(c.state.Catalog.Units(), query))
}

// Summary returns the aggregate completion.
func (c *Controller) Summary() Summary {
	return ComputeProgress(c.state)
}

// Gate returns the exam action's presentation.
func (c *Controller) Gate() Gate {
	return GateView(c.state)
}
