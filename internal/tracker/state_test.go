package tracker

import (
	"fmt"
	"testing"

	"github.com/abhisek/bmc/internal/catalog"
	"github.com/abhisek/bmc/internal/progress"
)

func twoUnits() *catalog.Catalog {
	return catalog.MustNew([]catalog.Unit{
		{ID: "u1", Title: "One"},
		{ID: "u2", Title: "Two"},
	})
}

func TestComputeProgress_EmptyCatalog(t *testing.T) {
	s := State{Catalog: catalog.MustNew(nil), Progress: progress.Record{"ghost": true}}

	got := ComputeProgress(s)
	if got != (Summary{Completed: 0, Total: 0, Percent: 0}) {
		t.Errorf("ComputeProgress = %+v, want zero summary", got)
	}
	if IsFullyComplete(s) {
		t.Error("empty catalog must never be complete")
	}
}

func TestComputeProgress_Rounding(t *testing.T) {
	tests := []struct {
		done, total int
		want        int
	}{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{3, 8, 38},
		{1, 6, 17},
		{7, 7, 100},
	}

	for _, tt := range tests {
		units := make([]catalog.Unit, tt.total)
		rec := progress.Record{}
		for i := range units {
			units[i] = catalog.Unit{ID: fmt.Sprintf("u%d", i)}
			rec[units[i].ID] = i < tt.done
		}
		s := State{Catalog: catalog.MustNew(units), Progress: rec}

		got := ComputeProgress(s)
		if got.Percent != tt.want || got.Completed != tt.done || got.Total != tt.total {
			t.Errorf("%d/%d: got %+v, want percent %d", tt.done, tt.total, got, tt.want)
		}
		if IsFullyComplete(s) != (tt.done == tt.total) {
			t.Errorf("%d/%d: IsFullyComplete = %v", tt.done, tt.total, IsFullyComplete(s))
		}
	}
}

func TestComputeProgress_FreshCatalog(t *testing.T) {
	cat := twoUnits()
	s := State{Catalog: cat, Progress: progress.Record{}.WithKeys(cat.IDs())}

	if got := ComputeProgress(s); got != (Summary{0, 2, 0}) {
		t.Errorf("ComputeProgress = %+v, want (0,2,0)", got)
	}
	g := GateView(s)
	if g.Visible || g.Enabled {
		t.Error("gate should be hidden")
	}
	if g.Hint != "0/2 units" {
		t.Errorf("hint = %q, want 0/2 units", g.Hint)
	}
}

func TestComplete_UnlocksGateWhenAllDone(t *testing.T) {
	cat := twoUnits()
	s := State{Catalog: cat, Progress: progress.Record{}.WithKeys(cat.IDs())}

	s, _ = Select(s, "u1")
	s, changed := Complete(s)
	if !changed {
		t.Fatal("first completion should change state")
	}
	if got := ComputeProgress(s); got != (Summary{1, 2, 50}) {
		t.Errorf("after u1: %+v, want (1,2,50)", got)
	}
	if GateView(s).Visible {
		t.Error("gate should still be hidden")
	}
	d, _ := DetailView(s, "")
	if d.CanComplete {
		t.Error("completion control for u1 should be disabled")
	}

	s, _ = Select(s, "u2")
	d, _ = DetailView(s, "")
	if !d.CanComplete {
		t.Error("u2 should still be completable")
	}

	s, _ = Complete(s)
	if got := ComputeProgress(s); got != (Summary{2, 2, 100}) {
		t.Errorf("after u2: %+v, want (2,2,100)", got)
	}
	g := GateView(s)
	if !g.Visible || !g.Enabled || g.Hint != "ready" {
		t.Errorf("gate = %+v, want visible, enabled, ready", g)
	}
}

func TestComputeProgress_IgnoresUnknownIDs(t *testing.T) {
	cat := twoUnits()
	s := State{Catalog: cat, Progress: progress.Record{"old": true, "u1": true, "u2": false}}

	if got := ComputeProgress(s); got != (Summary{1, 2, 50}) {
		t.Errorf("ComputeProgress = %+v, want (1,2,50)", got)
	}
	if IsFullyComplete(s) {
		t.Error("should not be complete while u2 is open")
	}
	if _, ok := s.Progress["old"]; !ok {
		t.Error("unknown id should be retained")
	}
}

func TestSelect_UnknownIDIsNoOp(t *testing.T) {
	s := State{Catalog: twoUnits(), Progress: progress.Record{}, ActiveID: "u1"}

	next, ok := Select(s, "nope")
	if ok {
		t.Error("Select of unknown id reported success")
	}
	if next.ActiveID != "u1" {
		t.Errorf("ActiveID = %q, want u1", next.ActiveID)
	}
}

func TestComplete_Idempotent(t *testing.T) {
	s := State{Catalog: twoUnits(), Progress: progress.Record{"u1": false, "u2": false}, ActiveID: "u1"}

	once, _ := Complete(s)
	twice, changed := Complete(once)
	if changed {
		t.Error("second completion reported a change")
	}
	if !once.Progress.Equal(twice.Progress) {
		t.Errorf("records differ: %v vs %v", once.Progress, twice.Progress)
	}
	if s.Progress["u1"] {
		t.Error("Complete mutated its input")
	}
}

func TestComplete_NoActiveUnit(t *testing.T) {
	s := State{Catalog: twoUnits(), Progress: progress.Record{"u1": false}}
	next, changed := Complete(s)
	if changed || next.Progress["u1"] {
		t.Error("completion without an active unit must be a no-op")
	}
}

func TestResolve(t *testing.T) {
	cat := twoUnits()
	tests := []struct {
		name      string
		cat       *catalog.Catalog
		link      string
		persisted string
		want      string
	}{
		{"link wins", cat, "#unit=u2", "u1", "u2"},
		{"invalid link falls to persisted", cat, "#unit=zz", "u2", "u2"},
		{"no link uses persisted", cat, "", "u2", "u2"},
		{"stale persisted falls to first", cat, "", "gone", "u1"},
		{"nothing uses first", cat, "", "", "u1"},
		{"empty catalog", catalog.MustNew(nil), "#unit=u1", "u1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.cat, tt.link, tt.persisted); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListView(t *testing.T) {
	s := State{Catalog: twoUnits(), Progress: progress.Record{"u1": true}, ActiveID: "u2"}
	items := ListView(s, s.Catalog.Units())

	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if !items[0].Completed || items[0].Active {
		t.Errorf("u1 row = %+v", items[0])
	}
	if items[1].Completed || !items[1].Active {
		t.Errorf("u2 row = %+v", items[1])
	}
}

func TestDetailView_MissingMedia(t *testing.T) {
	cat := catalog.MustNew([]catalog.Unit{
		{ID: "a", Title: "A", Audio: "https://x/a.mp3"},
		{ID: "b", Title: "B", PDF: "https://x/b.pdf"},
	})
	s := State{Catalog: cat, Progress: progress.Record{}}

	s, _ = Select(s, "a")
	d, ok := DetailView(s, "")
	if !ok || !d.CanDownloadAudio || d.CanOpenDocument {
		t.Errorf("detail a = %+v", d)
	}
	if d.Location != "#unit=a" {
		t.Errorf("location = %q", d.Location)
	}

	s, _ = Select(s, "b")
	d, _ = DetailView(s, "")
	if d.CanDownloadAudio || !d.CanOpenDocument {
		t.Errorf("detail b = %+v", d)
	}

	if _, ok := DetailView(State{Catalog: cat}, ""); ok {
		t.Error("DetailView without selection reported ok")
	}
}
