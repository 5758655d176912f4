package store

import (
	"net/http"
	"time"
)

// CacheEntry is one stored response in a named offline cache.
type CacheEntry struct {
	URL      string
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// CacheInfo summarizes a named cache.
type CacheInfo struct {
	Name       string
	Entries    int
	TotalBytes int64
}

// CompletionEvent records the moment a unit was first marked complete.
type CompletionEvent struct {
	EventID     string
	Sequence    int64
	UnitID      string
	CompletedAt time.Time
}
