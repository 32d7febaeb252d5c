package blob

import (
	"context"
	"fmt"
	"log/slog"

	"filevault/internal/config"
	vaultSvc "filevault/internal/domain/services/vault"
)

// NewFromConfig builds the configured backend wrapped in the retry decorator
func NewFromConfig(ctx context.Context, cfg config.BlobConfig, logger *slog.Logger) (vaultSvc.BlobStore, error) {
	var store vaultSvc.BlobStore

	switch cfg.Backend {
	case config.BlobBackendMemory:
		store = NewMemoryStore()
	case config.BlobBackendFilesystem:
		fs, err := NewFileSystemStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		store = fs
	case config.BlobBackendS3:
		s3Store, err := NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		store = s3Store
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.Backend)
	}

	logger.Info("blob store configured", "backend", cfg.Backend, "retry_attempts", cfg.RetryAttempts)

	if cfg.RetryAttempts == 0 {
		return store, nil
	}
	return NewRetryingStore(store, cfg.RetryAttempts, cfg.RetryBackoff, logger), nil
}
