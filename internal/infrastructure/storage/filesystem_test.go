package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nutriweek/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStore_RoundTrip(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	data := []byte("%PDF-1.4 fake report")
	meta := domain.ObjectMeta{"stage": "pregnancy_trimester2", "weekStart": "2025-01-05"}

	require.NoError(t, store.Put(ctx, "share_abc_123.pdf", data, meta))

	got, err := store.Get(ctx, "share_abc_123.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := store.Head(ctx, "share_abc_123.pdf")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, "pregnancy_trimester2", info.Meta["stage"])
	assert.Equal(t, "2025-01-05", info.Meta["weekStart"])
}

func TestFilesystemStore_MissingKey(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	got, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	info, err := store.Head(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, info)

	// Deleting an absent key is not an error.
	assert.NoError(t, store.Delete(ctx, "absent"))
}

func TestFilesystemStore_Overwrite(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", []byte("first"), nil))
	require.NoError(t, store.Put(ctx, "key", []byte("second version"), domain.ObjectMeta{"v": "2"}))

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("second version"), got)

	info, err := store.Head(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "2", info.Meta["v"])
}

func TestFilesystemStore_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "key", []byte("data"), domain.ObjectMeta{"a": "b"}))
	require.NoError(t, store.Delete(ctx, "key"))

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, got)

	// The meta sidecar goes with it.
	_, statErr := os.Stat(filepath.Join(dir, "key.meta.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"plain key", "share_lxx_42.pdf", false},
		{"empty", "", true},
		{"path separator", "a/b", true},
		{"backslash", `a\b`, true},
		{"dot dot", "..secret", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte{1, 2, 3}
	meta := domain.ObjectMeta{"k": "v"}
	require.NoError(t, store.Put(ctx, "key", data, meta))

	// Mutating the caller's copies must not touch the stored object.
	data[0] = 9
	meta["k"] = "changed"

	got, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	info, err := store.Head(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "v", info.Meta["k"])
}

func TestMemoryStore_MissingKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	got, err := store.Get(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, got)

	info, err := store.Head(ctx, "absent")
	require.NoError(t, err)
	assert.Nil(t, info)
}
