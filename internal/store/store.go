package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store holds the SQLite handle and provides access to repositories.
type Store struct {
	db   *sql.DB
	path string
	seq  *sequenceCounter
}

// connPragmas are applied by the driver to every pooled connection, so the
// busy timeout holds for the offline cache and the progress writer alike.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and runs pending migrations.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", connString(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := applyMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: dsn, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the DSN the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LocalStorage returns the key/value repository that backs the progress record.
func (s *Store) LocalStorage() *LocalStorage {
	return &LocalStorage{db: s.db}
}

// CacheRepo returns the named-cache repository used by the offline layer.
func (s *Store) CacheRepo() *CacheRepo {
	return &CacheRepo{db: s.db}
}

// JournalRepo returns the append-only completion journal.
func (s *Store) JournalRepo() *JournalRepo {
	return &JournalRepo{db: s.db, seq: s.seq}
}

// connString appends the connection pragmas to dsn. Transactions begin
// IMMEDIATE so a writer waits on the busy timeout instead of failing when it
// upgrades a read lock.
func connString(dsn string) string {
	params := make([]string, 0, len(connPragmas)+1)
	for _, p := range connPragmas {
		params = append(params, "_pragma="+p)
	}
	params = append(params, "_txlock=immediate")

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DefaultDBPath resolves the database file path in priority order:
// 1. BMC_DB environment variable
// 2. $XDG_DATA_HOME/bmc/bmc.db
// 3. ~/.local/share/bmc/bmc.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("BMC_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "bmc", "bmc.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
