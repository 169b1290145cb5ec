package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLocalStorePublishRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "published"))
	require.NoError(t, err)

	src := writeArtifact(t, t.TempDir(), "demo.mp4", "video bytes")
	key := RunKey("run-123", src)
	assert.Equal(t, "run-123/demo.mp4", key)

	require.NoError(t, store.Publish(ctx, key, src))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	url, err := store.URL(ctx, key)
	require.NoError(t, err)
	data, err := os.ReadFile(url)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
}

func TestLocalStorePublishMissingSource(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	err = store.Publish(context.Background(), "run-123/demo.mp4", "/nonexistent/demo.mp4")
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	src := writeArtifact(t, t.TempDir(), "demo.srt", "1\n")
	require.NoError(t, store.Publish(ctx, "run-1/demo.srt", src))
	require.NoError(t, store.Delete(ctx, "run-1/demo.srt"))

	exists, err := store.Exists(ctx, "run-1/demo.srt")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, store.Delete(ctx, "run-1/demo.srt"), ErrArtifactNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.mp4", "/abs/path.mp4", "run/../../etc/passwd"} {
		_, err := store.Exists(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestValidateKey(t *testing.T) {
	assert.NoError(t, validateKey("run-1/demo.mp4"))
	assert.NoError(t, validateKey("demo.mp4"))
	assert.ErrorIs(t, validateKey(""), ErrInvalidKey)
	assert.ErrorIs(t, validateKey("../x"), ErrInvalidKey)
	assert.ErrorIs(t, validateKey("/abs"), ErrInvalidKey)
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", contentTypeFor("a/demo.MP4"))
	assert.Equal(t, "image/gif", contentTypeFor("demo.gif"))
	assert.Equal(t, "text/plain; charset=utf-8", contentTypeFor("demo.srt"))
	assert.Equal(t, "application/octet-stream", contentTypeFor("demo.bin"))
}

func TestNewArtifactStoreConfig(t *testing.T) {
	_, err := NewArtifactStore(Config{Type: "local", BaseDir: t.TempDir()})
	assert.NoError(t, err)

	_, err = NewArtifactStore(Config{Type: "local"})
	assert.Error(t, err)

	_, err = NewArtifactStore(Config{Type: "s3"})
	assert.Error(t, err)

	_, err = NewArtifactStore(Config{Type: "gcs"})
	assert.Error(t, err)
}
