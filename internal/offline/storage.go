package offline

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/abhisek/bmc/internal/store"
)

// Storage holds named caches of responses. *store.CacheRepo implements it.
type Storage interface {
	Names(ctx context.Context) ([]string, error)
	PutAll(ctx context.Context, name string, entries []store.CacheEntry) error
	Match(ctx context.Context, name, url string) (*store.CacheEntry, bool, error)
	Delete(ctx context.Context, name string) error
	Info(ctx context.Context) ([]store.CacheInfo, error)
}

var _ Storage = (*store.CacheRepo)(nil)

// MemoryStorage is an in-process Storage.
type MemoryStorage struct {
	mu     sync.Mutex
	caches map[string]map[string]store.CacheEntry
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{caches: make(map[string]map[string]store.CacheEntry)}
}

func (m *MemoryStorage) Names(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.caches))
	for name := range m.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryStorage) PutAll(_ context.Context, name string, entries []store.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := make(map[string]store.CacheEntry, len(entries))
	m.caches[name] = c
	for _, e := range entries {
		c[e.URL] = copyEntry(e)
	}
	return nil
}

func (m *MemoryStorage) Match(_ context.Context, name, url string) (*store.CacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.caches[name][url]
	if !ok {
		return nil, false, nil
	}
	cp := copyEntry(e)
	return &cp, true, nil
}

func (m *MemoryStorage) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.caches, name)
	return nil
}

func (m *MemoryStorage) Info(context.Context) ([]store.CacheInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.CacheInfo, 0, len(m.caches))
	for name, c := range m.caches {
		info := store.CacheInfo{Name: name, Entries: len(c)}
		for _, e := range c {
			info.TotalBytes += int64(len(e.Body))
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func copyEntry(e store.CacheEntry) store.CacheEntry {
	cp := e
	cp.Header = e.Header.Clone()
	cp.Body = append([]byte(nil), e.Body...)
	return cp
}
