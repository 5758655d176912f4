// Package tracker holds the course session state and the commands that
// move it: selecting a unit, completing the active unit and deriving the
// exam gate. The transitions are pure functions; Controller applies them
// and writes the result through the progress store.
package tracker

import (
	"math"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/location"
	"github.com/abhisek/bmc/internal/progress"
)

// State is a snapshot of the session. Transitions never mutate their input.
type State struct {
	Catalog  *catalog.Catalog
	Progress progress.Record
	ActiveID string // empty when nothing is selected
}

// Summary is the aggregate completion over the catalog.
type Summary struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

// Active returns the selected unit.
func (s State) Active() (catalog.Unit, bool) {
	if s.ActiveID == "" {
		return catalog.Unit{}, false
	}
	return s.Catalog.Find(s.ActiveID)
}

// IsComplete reports whether id is marked complete.
func (s State) IsComplete(id string) bool {
	return s.Progress[id]
}

// Select makes id the active unit. Unknown ids leave the state unchanged
// and report false.
func Select(s State, id string) (State, bool) {
	if !s.Catalog.Has(id) {
		return s, false
	}
	next := s
	next.Progress = s.Progress.Clone()
	next.ActiveID = id
	return next, true
}

// Complete marks the active unit complete. It reports whether the flag
// changed; completing a complete unit, or completing with no active unit,
// returns an equal state and false.
func Complete(s State) (State, bool) {
	if s.ActiveID == "" {
		return s, false
	}
	if s.Progress[s.ActiveID] {
		return s, false
	}
	next := s
	next.Progress = s.Progress.WithCompleted(s.ActiveID)
	return next, true
}

// Resolve picks the unit to select on startup or after navigation: the id
// named by link if it is in the catalog, else the persisted active id if it
// still is, else the first unit. It returns "" for an empty catalog.
func Resolve(cat *catalog.Catalog, link, persistedID string) string {
	if id, ok := location.Parse(link); ok && cat.Has(id) {
		return id
	}
	if persistedID != "" && cat.Has(persistedID) {
		return persistedID
	}
	if u, ok := cat.First(); ok {
		return u.ID
	}
	return ""
}

// ComputeProgress counts completed catalog units. Ids in the record that
// are not in the catalog are ignored.
func ComputeProgress(s State) Summary {
	total := s.Catalog.Len()
	done := 0
	for _, id := range s.Catalog.IDs() {
		if s.Progress[id] {
			done++
		}
	}
	return Summary{Completed: done, Total: total, Percent: percent(done, total)}
}

// IsFullyComplete reports whether the catalog is non-empty and every unit
// in it is complete.
func IsFullyComplete(s State) bool {
	sum := ComputeProgress(s)
	return sum.Total > 0 && sum.Completed == sum.Total
}

func percent(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}
