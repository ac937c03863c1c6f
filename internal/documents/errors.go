package documents

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing registry row.
	ErrNotFound = errors.New("document not found")
	// ErrFileMissing reports a registry row whose underlying file is gone.
	// Surfaced as 404 like ErrNotFound, but logged as an error because it
	// violates the storage invariant.
	ErrFileMissing = errors.New("document file not found")
	// ErrForbidden reports a stream request by neither owner nor admin.
	ErrForbidden = errors.New("access denied")
	// ErrNoFields reports a patch carrying no recognized field.
	ErrNoFields = errors.New("no valid fields to update")
)

// ValidationError rejects an upload before any side effect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ProcessingError wraps a classify/analyze failure. The compensating
// status=failed write has already been attempted by the time it is returned;
// Err is always the original engine error, never the compensation's.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }
