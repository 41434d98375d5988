package persistent

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm = 0o755
)

// FileStore places assets on the local filesystem under a single root.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("FileStore - NewFileStore: root is required")
	}

	if err := os.MkdirAll(root, dirPerm); err != nil {
		return nil, fmt.Errorf("FileStore - NewFileStore - os.MkdirAll: %w", err)
	}

	return &FileStore{root: filepath.Clean(root)}, nil
}

func (s *FileStore) Root() string {
	return s.root
}

// EnsureDir creates dir and its parents; an existing directory is not an error.
func (s *FileStore) EnsureDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("FileStore - EnsureDir - os.MkdirAll: %w", err)
	}

	return nil
}

// Move renames src onto dst, replacing dst if present.
func (s *FileStore) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("FileStore - Move - os.Rename: %w", err)
	}

	return nil
}

// Remove deletes path; a missing file is not an error.
func (s *FileStore) Remove(_ context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("FileStore - Remove - os.Remove: %w", err)
	}

	return nil
}
