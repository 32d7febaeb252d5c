package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// FileRepository defines data access operations for logical files
type FileRepository interface {
	// Create inserts a file
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves an active (not soft-deleted) file
	GetByID(ctx context.Context, id string) (*models.File, error)

	// UpdateBlob points the file at a new blob (and optionally renames it)
	UpdateBlob(ctx context.Context, file *models.File) error

	// UpdateLocation writes the logical folder and name of a file
	UpdateLocation(ctx context.Context, file *models.File) error

	// SoftDelete stamps deleted_at on an active file
	SoftDelete(ctx context.Context, id string) error

	// ListByFolder lists active files whose folder equals folderPath exactly;
	// empty folderPath selects files without a folder
	ListByFolder(ctx context.Context, projectID, folderPath string) ([]models.FileListing, error)

	// ReplaceFolderPrefix rewrites folder strings of files (deleted ones included)
	// equal to oldPath or starting with oldPath + "/"
	ReplaceFolderPrefix(ctx context.Context, projectID, oldPath, newPath string) (int64, error)
}
