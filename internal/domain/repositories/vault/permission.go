package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// PermissionRepository defines data access operations for folder grants
type PermissionRepository interface {
	// CountByProject counts explicit grants in a project
	CountByProject(ctx context.Context, projectID string) (int, error)

	// Get retrieves the grant for (folder scope, user); nil folderID is the root scope
	Get(ctx context.Context, projectID string, folderID *string, userID string) (*models.FolderPermission, error)

	// ListForUser lists every grant a user holds in a project
	ListForUser(ctx context.Context, projectID, userID string) ([]models.FolderPermission, error)

	// ListForScope lists every grant on one folder scope
	ListForScope(ctx context.Context, projectID string, folderID *string) ([]models.FolderPermission, error)

	// Create inserts a grant
	Create(ctx context.Context, perm *models.FolderPermission) error

	// Update writes the flags of an existing grant
	Update(ctx context.Context, perm *models.FolderPermission) error

	// Delete removes a grant by ID
	Delete(ctx context.Context, id string) error
}
