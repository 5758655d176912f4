package progress

import (
	"context"
	"errors"
	"testing"
)

type failingBackend struct{ err error }

func (f failingBackend) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f failingBackend) Put(context.Context, string, []byte) error       { return f.err }
func (f failingBackend) Delete(context.Context, string) error             { return f.err }

func TestLoadFreshStart(t *testing.T) {
	s := NewStore(NewMemoryBackend(), nil)

	rec, active := s.Load(context.Background())
	if len(rec) != 0 {
		t.Errorf("expected empty record, got %v", rec)
	}
	if active != "" {
		t.Errorf("expected no active id, got %q", active)
	}
}

func TestLoadCorruptIsFreshStart(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{"},
		{"wrong progress type", `{"progress": [true, false]}`},
		{"wrong active type", `{"progress": {}, "activeUnitId": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewMemoryBackend()
			_ = backend.Put(context.Background(), StorageKey, []byte(tt.raw))
			s := NewStore(backend, nil)

			rec, active := s.Load(context.Background())
			if len(rec) != 0 || active != "" {
				t.Errorf("Load() = %v, %q; want empty", rec, active)
			}
		})
	}
}

func TestLoadNullFields(t *testing.T) {
	backend := NewMemoryBackend()
	_ = backend.Put(context.Background(), StorageKey, []byte(`{"progress": null, "activeUnitId": null}`))

	rec, active := NewStore(backend, nil).Load(context.Background())
	if rec == nil || len(rec) != 0 {
		t.Errorf("expected empty non-nil record, got %#v", rec)
	}
	if active != "" {
		t.Errorf("active = %q, want empty", active)
	}
}

func TestLoadBackendErrorIsFreshStart(t *testing.T) {
	s := NewStore(failingBackend{err: errors.New("disk gone")}, nil)
	rec, active := s.Load(context.Background())
	if len(rec) != 0 || active != "" {
		t.Errorf("Load() = %v, %q; want empty", rec, active)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		record Record
		active string
	}{
		{"empty", Record{}, ""},
		{"with active", Record{"u1": true, "u2": false}, "u2"},
		{"stale ids kept", Record{"u1": true, "gone": true}, "u1"},
		{"percent id", Record{"unit 1/a": false}, "unit 1/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(NewMemoryBackend(), nil)
			if err := s.Save(ctx, tt.record, tt.active); err != nil {
				t.Fatalf("save: %v", err)
			}
			rec, active := s.Load(ctx)
			if !rec.Equal(tt.record) {
				t.Errorf("record = %v, want %v", rec, tt.record)
			}
			if active != tt.active {
				t.Errorf("active = %q, want %q", active, tt.active)
			}
		})
	}
}

func TestSaveStoresNullActiveID(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend, nil)
	if err := s.Save(context.Background(), Record{"u1": false}, ""); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, _, _ := backend.Get(context.Background(), StorageKey)
	want := `{"progress":{"u1":false},"activeUnitId":null}`
	if string(raw) != want {
		t.Errorf("document = %s, want %s", raw, want)
	}
}

func TestSaveBackendError(t *testing.T) {
	s := NewStore(failingBackend{err: errors.New("read-only")}, nil)
	if err := s.Save(context.Background(), Record{}, ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestLastWriterWins(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	a := NewStore(backend, nil)
	b := NewStore(backend, nil)

	_ = a.Save(ctx, Record{"u1": true, "u2": false}, "u1")
	_ = b.Save(ctx, Record{"u1": false, "u2": true}, "u2")

	rec, active := a.Load(ctx)
	if !rec.Equal(Record{"u1": false, "u2": true}) || active != "u2" {
		t.Errorf("Load() = %v, %q; want second writer's state", rec, active)
	}
}

func TestEnsureKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), nil)
	_ = s.Save(ctx, Record{"u1": true, "old": true}, "u1")

	rec, _ := s.Load(ctx)
	got, err := s.EnsureKeys(ctx, rec, []string{"u1", "u2", "u3"})
	if err != nil {
		t.Fatalf("ensure keys: %v", err)
	}

	want := Record{"u1": true, "u2": false, "u3": false, "old": true}
	if !got.Equal(want) {
		t.Errorf("EnsureKeys = %v, want %v", got, want)
	}

	persisted, active := s.Load(ctx)
	if !persisted.Equal(want) {
		t.Errorf("persisted = %v, want %v", persisted, want)
	}
	if active != "u1" {
		t.Errorf("active id lost: %q", active)
	}
}

func TestEnsureKeysIsNoOpWhenCovered(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s := NewStore(backend, nil)
	ids := []string{"u1", "u2"}

	first, err := s.EnsureKeys(ctx, Record{"u1": true}, ids)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	before, _, _ := backend.Get(ctx, StorageKey)

	second, err := s.EnsureKeys(ctx, first, ids)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	after, _, _ := backend.Get(ctx, StorageKey)

	if !first.Equal(second) {
		t.Errorf("records differ: %v vs %v", first, second)
	}
	if string(before) != string(after) {
		t.Errorf("persisted documents differ:\n%s\n%s", before, after)
	}
}

func TestRecordHelpersDoNotMutate(t *testing.T) {
	orig := Record{"u1": false}
	_ = orig.WithCompleted("u1")
	_ = orig.WithKeys([]string{"u2"})

	if orig["u1"] {
		t.Error("WithCompleted mutated receiver")
	}
	if _, ok := orig["u2"]; ok {
		t.Error("WithKeys mutated receiver")
	}
}

func TestResetStartsFresh(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemoryBackend(), nil)
	if err := s.Save(ctx, Record{"u1": true}, "u1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	rec, active := s.Load(ctx)
	if len(rec) != 0 || active != "" {
		t.Errorf("after reset got %v, %q", rec, active)
	}

	// Resetting twice is fine.
	if err := s.Reset(ctx); err != nil {
		t.Errorf("second Reset: %v", err)
	}
}

func TestResetBackendError(t *testing.T) {
	boom := errors.New("disk gone")
	err := NewStore(failingBackend{err: boom}, nil).Reset(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("Reset error = %v, want %v", err, boom)
	}
}
