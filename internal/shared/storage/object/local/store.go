package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"procurement-backend/internal/shared/storage/object"
)

// Store implements ObjectStore using a directory on the local filesystem.
type Store struct {
	baseDir string
}

// New creates a local object store rooted at baseDir, creating the
// directory if needed. Directory bootstrap happens here, at service start,
// never as an import side effect.
func New(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes the reader to disk under storedName. O_EXCL enforces the
// stored-name uniqueness invariant at the filesystem level.
func (s *Store) Save(ctx context.Context, storedName string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(fullPath)
		return 0, fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("close file: %w", err)
	}
	return written, nil
}

// Open opens a stored object for reading. A missing file maps to
// object.ErrNotFound.
func (s *Store) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object; a missing object is not an error.
func (s *Store) Delete(ctx context.Context, storedName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) resolve(storedName string) (string, error) {
	clean := filepath.Clean(storedName)
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid stored name")
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
