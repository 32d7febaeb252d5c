package vault

import (
	"context"
	"errors"
	"io"
)

// ErrBlobNotFound is returned by a BlobStore when a location holds no blob
var ErrBlobNotFound = errors.New("blob not found")

// BlobInfo describes a blob after it has been durably written
type BlobInfo struct {
	Location string
	Size     int64
}

// BlobStore is durable byte storage addressed by opaque location strings.
// Write returns only after the bytes are durable; a Read after a successful
// Write observes them.
type BlobStore interface {
	// Write stores r under a fresh location derived from key. The reader is
	// seekable so a failed attempt can be replayed from the start.
	Write(ctx context.Context, key string, r io.ReadSeeker) (BlobInfo, error)

	// Read opens the blob at location; ErrBlobNotFound when absent
	Read(ctx context.Context, location string) (io.ReadCloser, error)

	// ValidateSetup verifies the store is reachable and writable
	ValidateSetup(ctx context.Context) error
}
