// Package blob keeps the original bytes of uploaded documents on disk,
// one file per document named <id><ext>.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/caresync/internal/core/domain"
	"github.com/custodia-labs/caresync/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BlobStore = (*Store)(nil)

// Store is a directory-backed BlobStore.
type Store struct {
	dir string
}

// NewStore creates the blob directory if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: blob directory is required", domain.ErrConfig)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the blob directory.
func (s *Store) Dir() string {
	return s.dir
}

// Put stores data under id with the given extension and returns its path.
func (s *Store) Put(_ context.Context, id, ext string, data []byte) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	if strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("%w: invalid extension %q", domain.ErrInvalidInput, ext)
	}

	path := filepath.Join(s.dir, id+ext)
	tmp, err := os.CreateTemp(s.dir, ".blob-*")
	if err != nil {
		return "", fmt.Errorf("creating blob: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("renaming blob: %w", err)
	}
	return path, nil
}

// Get returns the bytes stored under id.
func (s *Store) Get(_ context.Context, id string) ([]byte, error) {
	path, err := s.find(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// Delete removes the bytes stored under id. Missing blobs are not an error.
func (s *Store) Delete(_ context.Context, id string) error {
	path, err := s.find(id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob: %w", err)
	}
	return nil
}

// find locates the file for id regardless of its extension.
func (s *Store) find(id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, id+".*"))
	if err != nil {
		return "", fmt.Errorf("finding blob: %w", err)
	}
	if len(matches) == 0 {
		// Blobs stored without an extension.
		path := filepath.Join(s.dir, id)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		return "", fmt.Errorf("%w: blob %s", domain.ErrNotFound, id)
	}
	return matches[0], nil
}

func validID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\*?[`) || id == "." || id == ".." {
		return fmt.Errorf("%w: invalid blob id %q", domain.ErrInvalidInput, id)
	}
	return nil
}
