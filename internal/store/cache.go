package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CacheRepo persists named response caches.
type CacheRepo struct {
	db *sql.DB
}

// Names lists every cache name that holds at least one entry.
func (r *CacheRepo) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT cache_name FROM cache_entries ORDER BY cache_name`)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan cache name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// PutAll replaces the contents of cache name with entries in one transaction.
// Either every entry is written or none is.
func (r *CacheRepo) PutAll(ctx context.Context, name string, entries []CacheEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
		return fmt.Errorf("clear cache %s: %w", name, err)
	}
	for _, e := range entries {
		header, err := json.Marshal(e.Header)
		if err != nil {
			return fmt.Errorf("marshal header for %s: %w", e.URL, err)
		}
		storedAt := e.StoredAt
		if storedAt.IsZero() {
			storedAt = time.Now()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO cache_entries (cache_name, url, status, header_json, body, stored_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			name, e.URL, e.Status, string(header), e.Body, storedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("store %s: %w", e.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache %s: %w", name, err)
	}
	return nil
}

// Match returns the entry stored for url in cache name.
func (r *CacheRepo) Match(ctx context.Context, name, url string) (*CacheEntry, bool, error) {
	var (
		e        CacheEntry
		header   string
		storedAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT url, status, header_json, body, stored_at FROM cache_entries WHERE cache_name = ? AND url = ?`,
		name, url,
	).Scan(&e.URL, &e.Status, &header, &e.Body, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %s: %w", url, err)
	}
	e.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &e.Header); err != nil {
		return nil, false, fmt.Errorf("decode header for %s: %w", url, err)
	}
	if t, err := time.Parse(time.RFC3339Nano, storedAt); err == nil {
		e.StoredAt = t
	}
	return &e, true, nil
}

// Delete drops cache name and all its entries.
func (r *CacheRepo) Delete(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
		return fmt.Errorf("delete cache %s: %w", name, err)
	}
	return nil
}

// Info returns entry counts and sizes per cache.
func (r *CacheRepo) Info(ctx context.Context) ([]CacheInfo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT cache_name, COUNT(1), COALESCE(SUM(LENGTH(body)), 0)
		 FROM cache_entries GROUP BY cache_name ORDER BY cache_name`)
	if err != nil {
		return nil, fmt.Errorf("cache info: %w", err)
	}
	defer rows.Close()

	var out []CacheInfo
	for rows.Next() {
		var ci CacheInfo
		if err := rows.Scan(&ci.Name, &ci.Entries, &ci.TotalBytes); err != nil {
			return nil, fmt.Errorf("scan cache info: %w", err)
		}
		out = append(out, ci)
	}
	return out, rows.Err()
}
