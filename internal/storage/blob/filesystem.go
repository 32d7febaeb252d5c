package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	vaultSvc "filevault/internal/domain/services/vault"
)

// FileSystemStore keeps blobs as files below a root directory. The location
// is the slash-separated key relative to the root:
//
//	<root>/
//	  <project>/
//	    <uuid>-<name>
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at dir, creating it if needed
func NewFileSystemStore(dir string) (*FileSystemStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &FileSystemStore{root: dir}, nil
}

// Write stores r under key using temp file + fsync + rename, so the blob is
// either fully present and durable or absent.
func (s *FileSystemStore) Write(ctx context.Context, key string, r io.ReadSeeker) (vaultSvc.BlobInfo, error) {
	if err := validateKey(key); err != nil {
		return vaultSvc.BlobInfo{}, err
	}
	destPath := s.path(key)
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("create blob directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, readerWithContext(ctx, r))
	if err != nil {
		tmpFile.Close()
		return vaultSvc.BlobInfo{}, fmt.Errorf("write blob: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return vaultSvc.BlobInfo{}, fmt.Errorf("sync blob: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return vaultSvc.BlobInfo{}, fmt.Errorf("rename blob into place: %w", err)
	}

	success = true
	return vaultSvc.BlobInfo{Location: key, Size: written}, nil
}

// Read opens the blob at location
func (s *FileSystemStore) Read(ctx context.Context, location string) (io.ReadCloser, error) {
	if err := validateKey(location); err != nil {
		return nil, fmt.Errorf("%s: %w", location, vaultSvc.ErrBlobNotFound)
	}
	f, err := os.Open(s.path(location))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", location, vaultSvc.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// ValidateSetup verifies the root directory exists and is writable
func (s *FileSystemStore) ValidateSetup(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("blob root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blob root is not a directory: %s", s.root)
	}

	check, err := os.CreateTemp(s.root, ".check-*")
	if err != nil {
		return fmt.Errorf("blob root not writable: %w", err)
	}
	name := check.Name()
	check.Close()
	return os.Remove(name)
}

func (s *FileSystemStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

var _ vaultSvc.BlobStore = (*FileSystemStore)(nil)
