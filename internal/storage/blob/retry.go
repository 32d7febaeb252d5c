package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	vaultSvc "filevault/internal/domain/services/vault"

	"github.com/sethvargo/go-retry"
)

// RetryingStore retries transient failures of another store with exponential
// backoff. Missing blobs, invalid keys and cancelled contexts are final.
type RetryingStore struct {
	next     vaultSvc.BlobStore
	attempts uint64
	base     time.Duration
	logger   *slog.Logger
}

// NewRetryingStore wraps next; attempts is the number of retries after the
// first try
func NewRetryingStore(next vaultSvc.BlobStore, attempts uint64, base time.Duration, logger *slog.Logger) *RetryingStore {
	return &RetryingStore{
		next:     next,
		attempts: attempts,
		base:     base,
		logger:   logger,
	}
}

func (s *RetryingStore) backoff() retry.Backoff {
	return retry.WithMaxRetries(s.attempts, retry.NewExponential(s.base))
}

// Write retries the write, rewinding the reader before every attempt
func (s *RetryingStore) Write(ctx context.Context, key string, r io.ReadSeeker) (vaultSvc.BlobInfo, error) {
	var info vaultSvc.BlobInfo
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind content: %w", err)
		}
		var err error
		info, err = s.next.Write(ctx, key, r)
		return s.classify(err, "write", key, attempt)
	})
	return info, err
}

// Read retries opening the blob
func (s *RetryingStore) Read(ctx context.Context, location string) (io.ReadCloser, error) {
	var rc io.ReadCloser
	attempt := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		attempt++
		var err error
		rc, err = s.next.Read(ctx, location)
		return s.classify(err, "read", location, attempt)
	})
	return rc, err
}

// ValidateSetup is not retried; startup should fail fast
func (s *RetryingStore) ValidateSetup(ctx context.Context) error {
	return s.next.ValidateSetup(ctx)
}

func (s *RetryingStore) classify(err error, op, key string, attempt int) error {
	if err == nil || !isTransient(err) {
		return err
	}
	s.logger.Warn("blob operation failed, retrying",
		"op", op,
		"key", key,
		"attempt", attempt,
		"error", err,
	)
	return retry.RetryableError(err)
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, vaultSvc.ErrBlobNotFound),
		errors.Is(err, ErrInvalidKey),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}

var _ vaultSvc.BlobStore = (*RetryingStore)(nil)
