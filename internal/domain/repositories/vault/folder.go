package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// FolderRepository defines data access operations for folders
type FolderRepository interface {
	// Create inserts a folder; a path collision returns *domain.DuplicatePathError
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID within a project
	GetByID(ctx context.Context, id, projectID string) (*models.Folder, error)

	// GetByIDOnly retrieves a folder by ID without project scoping
	GetByIDOnly(ctx context.Context, id string) (*models.Folder, error)

	// GetByPath retrieves a folder by its exact materialized path
	GetByPath(ctx context.Context, projectID, path string) (*models.Folder, error)

	// Update writes name, parent and path of a folder
	Update(ctx context.Context, folder *models.Folder) error

	// ReplacePathPrefix rewrites the leading oldPrefix of every folder path in
	// the project that starts with it. Returns the number of rows rewritten.
	ReplacePathPrefix(ctx context.Context, projectID, oldPrefix, newPrefix string) (int64, error)

	// ListByProject lists all folders of a project ordered by path
	ListByProject(ctx context.Context, projectID string) ([]models.Folder, error)
}
