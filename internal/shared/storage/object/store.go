package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound reports that a stored object does not exist. Retrieval opens
// the object first and treats this error as the single "file missing"
// signal, so there is no existence-check/open race.
var ErrNotFound = errors.New("object not found")

// ObjectStore is durable byte storage for uploaded files. Stored names are
// generated by the upload gateway and are never user-controlled.
type ObjectStore interface {
	// Save writes r under storedName and returns the byte count. A
	// storedName that already exists is an error: stored names are
	// globally unique.
	Save(ctx context.Context, storedName string, r io.Reader) (int64, error)
	// Open returns a streaming reader for the object, or ErrNotFound.
	Open(ctx context.Context, storedName string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an
	// error so compensation paths stay idempotent.
	Delete(ctx context.Context, storedName string) error
}
