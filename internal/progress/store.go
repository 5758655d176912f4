package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// StorageKey is the key the progress document is stored under.
const StorageKey = "bmc_progress_v1"

// ErrCorrupt marks a persisted document that could not be decoded. Load
// recovers from it silently; it is only ever logged.
var ErrCorrupt = errors.New("persisted progress is corrupt")

// Backend is a durable string-keyed document store.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// document is the persisted wire shape.
type document struct {
	Progress     map[string]bool `json:"progress"`
	ActiveUnitID *string         `json:"activeUnitId"`
}

// Store reads and writes the progress document.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore returns a Store over backend.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger.Named("progress")}
}

// Load returns the persisted record and active id. It never fails: absent or
// unreadable state yields an empty record and no active id.
func (s *Store) Load(ctx context.Context) (Record, string) {
	data, found, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		s.logger.Warn("read progress failed; starting fresh", zap.Error(err))
		return Record{}, ""
	}
	if !found {
		return Record{}, ""
	}

	rec, active, err := decode(data)
	if err != nil {
		s.logger.Warn("discarding persisted progress", zap.Error(err))
		return Record{}, ""
	}
	return rec, active
}

// Save writes record and activeID as one document. An empty activeID is
// stored as null.
func (s *Store) Save(ctx context.Context, record Record, activeID string) error {
	data, err := encode(record, activeID)
	if err != nil {
		return err
	}
	if err := s.backend.Put(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// EnsureKeys back-fills false for every id missing from record, persists the
// result together with the currently persisted active id and returns it.
func (s *Store) EnsureKeys(ctx context.Context, record Record, ids []string) (Record, error) {
	next := record.WithKeys(ids)
	_, active := s.Load(ctx)
	if err := s.Save(ctx, next, active); err != nil {
		return next, err
	}
	return next, nil
}

// Reset removes the persisted document. The next Load is a fresh start.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.backend.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("reset progress: %w", err)
	}
	s.logger.Info("progress reset")
	return nil
}

func encode(record Record, activeID string) ([]byte, error) {
	doc := document{Progress: map[string]bool(record.Clone())}
	if activeID != "" {
		id := activeID
		doc.ActiveUnitID = &id
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode progress: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Record, string, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	rec := Record(doc.Progress).Clone()
	active := ""
	if doc.ActiveUnitID != nil {
		active = *doc.ActiveUnitID
	}
	return rec, active, nil
}
