// Package storage provides object storage adapters for delivery.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage implements ObjectStorage for a local delivery directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage adapter.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// Upload copies a local file into the delivery directory.
func (s *LocalStorage) Upload(_ context.Context, localPath, key string) error {
	dest := filepath.Join(s.basePath, key)
	if dest == localPath {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return err
	}

	src, err := os.Open(localPath) //#nosec G304 -- localPath is a file we exported
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(dest) //#nosec G304 -- dest is under the configured base path
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Exists checks if a file exists in the delivery directory.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.basePath, key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// FullPath returns the full path for a key.
func (s *LocalStorage) FullPath(key string) string {
	return filepath.Join(s.basePath, key)
}
