package store

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another bmc process already holds the writer lock.
var ErrLocked = errors.New("another bmc process is using this database")

// WriterLock guards a database against concurrent writers across processes.
type WriterLock struct {
	lock *flock.Flock
}

// LockPath returns the lock file path used for the database at dbPath.
func LockPath(dbPath string) string {
	return dbPath + ".lock"
}

// AcquireWriter takes the exclusive writer lock for dbPath without blocking.
func AcquireWriter(dbPath string) (*WriterLock, error) {
	if err := EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	l := flock.New(LockPath(dbPath))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &WriterLock{lock: l}, nil
}

// Release drops the lock. Safe on a nil receiver.
func (w *WriterLock) Release() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}
