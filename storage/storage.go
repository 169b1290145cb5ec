// Package storage publishes finished run artifacts (video, GIF, subtitles)
// to a configured destination: a local directory or an S3 bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidKey       = errors.New("invalid artifact key")
)

// ArtifactStore is the destination for finished run artifacts.
type ArtifactStore interface {
	// Publish copies the local file at localPath to the store under key.
	Publish(ctx context.Context, key, localPath string) error

	// Exists reports whether an artifact is present under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns an address for the published artifact: a filesystem path
	// for local stores, a presigned URL for S3.
	URL(ctx context.Context, key string) (string, error)

	// Delete removes the artifact under key.
	Delete(ctx context.Context, key string) error
}

// Config selects and parameterizes an artifact store.
type Config struct {
	Type    string // "local" or "s3"
	BaseDir string // local
	Bucket  string // s3
	Region  string // s3
}

// NewArtifactStore creates an ArtifactStore from configuration.
func NewArtifactStore(cfg Config) (ArtifactStore, error) {
	switch strings.ToLower(cfg.Type) {
	case "local":
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStore(cfg.BaseDir)

	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("bucket is required for S3 storage")
		}
		if cfg.Region == "" {
			return nil, fmt.Errorf("region is required for S3 storage")
		}
		return NewS3Store(cfg.Bucket, cfg.Region)

	default:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	}
}

// RunKey builds the store key for one artifact of a run: the run ID as the
// prefix, the artifact's base name below it.
func RunKey(runID, localPath string) string {
	return path.Join(runID, filepath.Base(localPath))
}

// validateKey rejects empty, absolute and traversing keys so both backends
// behave the same.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	clean := filepath.Clean(key)
	if strings.HasPrefix(clean, ".") {
		return fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	if filepath.IsAbs(clean) {
		return fmt.Errorf("%w: absolute keys not allowed", ErrInvalidKey)
	}
	return nil
}
