package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]vaultSvc.BlobStore {
	t.Helper()
	fs, err := NewFileSystemStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)
	return map[string]vaultSvc.BlobStore{
		"memory":     NewMemoryStore(),
		"filesystem": fs,
	}
}

func TestStores_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.ValidateSetup(ctx))

			info, err := store.Write(ctx, "proj/abc-a.txt", bytes.NewReader([]byte("hello")))
			require.NoError(t, err)
			assert.Equal(t, "proj/abc-a.txt", info.Location)
			assert.Equal(t, int64(5), info.Size)

			rc, err := store.Read(ctx, info.Location)
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, "hello", string(data))
		})
	}
}

func TestStores_MissingBlob(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read(ctx, "proj/nothing-here")
			assert.ErrorIs(t, err, vaultSvc.ErrBlobNotFound)
		})
	}
}

func TestStores_RejectInvalidKeys(t *testing.T) {
	ctx := context.Background()
	keys := []string{"", "/abs", "../escape", "a/../../b", "a/./b", `a\b`, "a//b"}
	for name, store := range backends(t) {
		for _, key := range keys {
			t.Run(name+"/"+key, func(t *testing.T) {
				_, err := store.Write(ctx, key, bytes.NewReader([]byte("x")))
				assert.ErrorIs(t, err, ErrInvalidKey)
			})
		}
	}
}

func TestFileSystemStore_LeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	require.NoError(t, err)

	_, err = store.Write(context.Background(), "p/blob", bytes.NewReader([]byte("data")))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "p"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "blob", entries[0].Name())
}

func TestFileSystemStore_CancelledWrite(t *testing.T) {
	root := t.TempDir()
	store, err := NewFileSystemStore(root)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Write(ctx, "p/blob", bytes.NewReader([]byte("data")))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Read(context.Background(), "p/blob")
	assert.ErrorIs(t, err, vaultSvc.ErrBlobNotFound, "a failed write leaves nothing behind")
}

func TestFileSystemStore_ValidateSetup(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	store := &FileSystemStore{root: file}
	assert.Error(t, store.ValidateSetup(context.Background()))
}

func TestMemoryStore_Remove(t *testing.T) {
	store := NewMemoryStore()
	info, err := store.Write(context.Background(), "p/x", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	store.Remove(info.Location)
	assert.Equal(t, 0, store.Len())
	_, err = store.Read(context.Background(), info.Location)
	assert.ErrorIs(t, err, vaultSvc.ErrBlobNotFound)
}
