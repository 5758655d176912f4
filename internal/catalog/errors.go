package catalog

import (
	"errors"
	"fmt"
)

// ErrEmptyID indicates a unit without an id.
var ErrEmptyID = errors.New("unit id must not be empty")

// DuplicateUnitError indicates two units share an id.
type DuplicateUnitError struct {
	ID string
}

func (e *DuplicateUnitError) Error() string {
	return fmt.Sprintf("duplicate unit id %q", e.ID)
}

// CatalogLoadError reports that the unit list could not be loaded. It is
// fatal to startup: without a catalog no unit can be shown.
type CatalogLoadError struct {
	URL        string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *CatalogLoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load catalog %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("load catalog %s: %v", e.URL, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }
