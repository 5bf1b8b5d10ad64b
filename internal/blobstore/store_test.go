package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arhamdeez/envVault/internal/config"
	appErr "github.com/Arhamdeez/envVault/internal/pkg/errors"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := New(config.BlobStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "owner-abc123", []byte("ciphertext")))

	data, err := store.Get(ctx, "owner-abc123")
	require.NoError(t, err)
	require.Equal(t, []byte("ciphertext"), data)

	require.NoError(t, store.Delete(ctx, "owner-abc123"))
	_, err = store.Get(ctx, "owner-abc123")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestLocalStoreRejectsPathSeparators(t *testing.T) {
	store, err := New(config.BlobStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.Error(t, store.Put(ctx, "../escape", []byte("x")))
	_, err = store.Get(ctx, "a/b")
	require.Error(t, err)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	store := NewMemory()
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.NoError(t, store.Delete(context.Background(), "nope"))
}

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(config.BlobStoreConfig{Type: "ftp"})
	require.Error(t, err)
}
