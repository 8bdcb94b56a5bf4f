// Package artifact stores opaque uploaded artifacts (payment proofs,
// KYC documents). The core only ever sees the returned reference
// string; storage backends are interchangeable.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists raw artifact bytes and returns an opaque reference.
type Store interface {
	Upload(data []byte) (string, error)
}

// FileStore writes artifacts to a local directory. The reference is the
// generated file name.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Upload writes the artifact and returns its reference.
func (s *FileStore) Upload(data []byte) (string, error) {
	ref := uuid.New().String()
	if err := os.WriteFile(filepath.Join(s.dir, ref), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to store artifact: %w", err)
	}
	return ref, nil
}
