package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails the first n calls of each operation with err
type flakyStore struct {
	*MemoryStore
	failures int
	err      error
	writes   int
	reads    int
}

func (f *flakyStore) Write(ctx context.Context, key string, r io.ReadSeeker) (vaultSvc.BlobInfo, error) {
	f.writes++
	if f.writes <= f.failures {
		// Consume part of the body so a missing rewind would corrupt the blob
		_, _ = io.CopyN(io.Discard, r, 2)
		return vaultSvc.BlobInfo{}, f.err
	}
	return f.MemoryStore.Write(ctx, key, r)
}

func (f *flakyStore) Read(ctx context.Context, location string) (io.ReadCloser, error) {
	f.reads++
	if f.reads <= f.failures {
		return nil, f.err
	}
	return f.MemoryStore.Read(ctx, location)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRetryingStore_RecoversFromTransientErrors(t *testing.T) {
	ctx := context.Background()
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2, err: errors.New("connection reset")}
	store := NewRetryingStore(flaky, 3, time.Millisecond, quietLogger())

	info, err := store.Write(ctx, "p/x", bytes.NewReader([]byte("payload")))
	require.NoError(t, err)
	assert.Equal(t, 3, flaky.writes)
	assert.Equal(t, int64(7), info.Size)

	rc, err := store.Read(ctx, info.Location)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data), "reader is rewound before each attempt")
	assert.Equal(t, 3, flaky.reads)
}

func TestRetryingStore_GivesUp(t *testing.T) {
	flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10, err: errors.New("503 slow down")}
	store := NewRetryingStore(flaky, 2, time.Millisecond, quietLogger())

	_, err := store.Write(context.Background(), "p/x", bytes.NewReader([]byte("x")))
	require.Error(t, err)
	assert.Equal(t, "503 slow down", err.Error())
	assert.Equal(t, 3, flaky.writes, "first try plus two retries")
}

func TestRetryingStore_FinalErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing blob", vaultSvc.ErrBlobNotFound},
		{"invalid key", ErrInvalidKey},
		{"cancelled", context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flaky := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10, err: tt.err}
			store := NewRetryingStore(flaky, 5, time.Millisecond, quietLogger())

			_, err := store.Read(context.Background(), "p/x")
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, 1, flaky.reads)
		})
	}
}
