package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs as files under a base directory.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a local store rooted at basePath, creating the
// directory if needed.
func NewLocalStore(basePath string) (*LocalStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, blobErrors.NewWithCause(ErrWriteFailed, err).WithDetail("path", basePath)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, blobErrors.NewWithCause(ErrWriteFailed, err).WithDetail("path", abs)
	}
	return &LocalStore{basePath: abs}, nil
}

// BasePath returns the root directory of the store.
func (s *LocalStore) BasePath() string {
	return s.basePath
}

// resolve maps a key to an absolute path, rejecting traversal outside the base.
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" {
		return "", blobErrors.New(ErrInvalidKey).WithDetail("reason", "empty key")
	}
	full := filepath.Join(s.basePath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) && full != s.basePath {
		return "", blobErrors.New(ErrInvalidKey).WithDetail("key", key)
	}
	return full, nil
}

func (s *LocalStore) Read(_ context.Context, key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blobErrors.New(ErrNotFound).WithDetail("key", key)
		}
		return nil, blobErrors.NewWithCause(ErrReadFailed, err).WithDetail("key", key)
	}
	return data, nil
}

func (s *LocalStore) Write(_ context.Context, key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return blobErrors.NewWithCause(ErrWriteFailed, err).WithDetail("key", key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return blobErrors.NewWithCause(ErrWriteFailed, err).WithDetail("key", key)
	}
	return nil
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}
	if errors.Is(statErr, os.ErrNotExist) {
		return false, nil
	}
	return false, blobErrors.NewWithCause(ErrReadFailed, statErr).WithDetail("key", key)
}
