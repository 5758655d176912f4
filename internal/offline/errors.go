package offline

import (
	"errors"
	"fmt"
)

var (
	// ErrInstallInProgress is returned when Install is called while another
	// install is running.
	ErrInstallInProgress = errors.New("cache install already in progress")

	// ErrNotInstalled is returned by Activate before a successful install.
	ErrNotInstalled = errors.New("cache is not installed")
)

// CacheInstallFailure reports the asset that failed a bulk install. The
// whole install fails with it; the cache is left untouched.
type CacheInstallFailure struct {
	Asset string
	Err   error
}

func (e *CacheInstallFailure) Error() string {
	return fmt.Sprintf("install cache asset %s: %v", e.Asset, e.Err)
}

func (e *CacheInstallFailure) Unwrap() error { return e.Err }
