package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore publishes artifacts into a directory tree on disk.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a local artifact store rooted at baseDir, creating
// the directory if needed.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	baseDir = filepath.Clean(baseDir)
	if baseDir == "" || baseDir == "." {
		return nil, fmt.Errorf("%w: base directory cannot be empty", ErrInvalidKey)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Publish copies the local file into the store.
func (s *LocalStore) Publish(ctx context.Context, key, localPath string) error {
	dst, err := s.resolve(key)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrArtifactNotFound, localPath)
		}
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to copy artifact: %w", err)
	}
	return nil
}

// Exists checks whether an artifact is present under key.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return true, nil
}

// URL returns the published artifact's filesystem path.
func (s *LocalStore) URL(ctx context.Context, key string) (string, error) {
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrArtifactNotFound
	}
	return full, nil
}

// Delete removes the artifact under key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrArtifactNotFound
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

// resolve validates the key and anchors it below baseDir.
func (s *LocalStore) resolve(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	full := filepath.Join(s.baseDir, filepath.Clean(key))
	rel, err := filepath.Rel(s.baseDir, full)
	if err != nil || (len(rel) > 0 && rel[0] == '.') {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return full, nil
}
