package tracker

import (
	"fmt"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/location"
)

// Confirmation messages shown next to the completion control.
const (
	MessageCompleted        = "Well done! This unit is complete."
	MessageAlreadyCompleted = "This unit is already marked complete."
)

// Detail is what the detail pane shows for the active unit.
type Detail struct {
	UnitID           string `json:"unit_id"`
	Title            string `json:"title"`
	Path             string `json:"path"`
	AudioURL         string `json:"audio_url"`
	CanDownloadAudio bool   `json:"can_download_audio"`
	DocumentURL      string `json:"document_url"`
	CanOpenDocument  bool   `json:"can_open_document"`
	Completed        bool   `json:"completed"`
	CanComplete      bool   `json:"can_complete"`
	Message          string `json:"message"`
	Location         string `json:"location"`
}

// ListItem is one row of the unit list.
type ListItem struct {
	Unit      catalog.Unit `json:"unit"`
	Completed bool         `json:"completed"`
	Active    bool         `json:"active"`
}

// Gate is the exam action's presentation.
type Gate struct {
	Visible bool    `json:"visible"`
	Enabled bool    `json:"enabled"`
	Hint    string  `json:"hint"`
	Summary Summary `json:"summary"`
}

// DetailView builds the detail pane for the active unit. With no active
// unit it returns the zero Detail and false.
func DetailView(s State, message string) (Detail, bool) {
	u, ok := s.Active()
	if !ok {
		return Detail{}, false
	}
	done := s.IsComplete(u.ID)
	return Detail{
		UnitID:           u.ID,
		Title:            u.Title,
		Path:             u.Path,
		AudioURL:         u.Audio,
		CanDownloadAudio: u.HasAudio(),
		DocumentURL:      u.PDF,
		CanOpenDocument:  u.HasDocument(),
		Completed:        done,
		CanComplete:      !done,
		Message:          message,
		Location:         location.Format(u.ID),
	}, true
}

// ListView returns the rows for units in order, with badges and the active
// highlight taken from s.
func ListView(s State, units []catalog.Unit) []ListItem {
	items := make([]ListItem, 0, len(units))
	for _, u := range units {
		items = append(items, ListItem{
			Unit:      u,
			Completed: s.IsComplete(u.ID),
			Active:    u.ID == s.ActiveID,
		})
	}
	return items
}

// GateView derives the exam action from s.
func GateView(s State) Gate {
	sum := ComputeProgress(s)
	open := IsFullyComplete(s)
	g := Gate{Visible: open, Enabled: open, Summary: sum}
	if open {
		g.Hint = "ready"
	} else {
		g.Hint = CountLabel(sum)
	}
	return g
}

// CountLabel renders a summary as "k/N units".
func CountLabel(sum Summary) string {
	return fmt.Sprintf("%d/%d units", sum.Completed, sum.Total)
}
