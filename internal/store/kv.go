package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LocalStorage is a string-keyed document store, one value per key.
type LocalStorage struct {
	db *sql.DB
}

// Get returns the stored value for key. found is false when the key is absent.
func (l *LocalStorage) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	var s string
	err = l.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return []byte(s), true, nil
}

// Put replaces the value stored under key.
func (l *LocalStorage) Put(ctx context.Context, key string, value []byte) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}
