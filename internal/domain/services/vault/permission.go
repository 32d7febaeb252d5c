package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// PermissionService resolves and manages folder-level permissions
type PermissionService interface {
	// Effective computes the user's access on a folder (nil = project root)
	Effective(ctx context.Context, projectID, userID string, folderID *string) (models.Access, error)

	// Grant upserts an explicit grant; granting neither read nor write
	// removes any existing grant instead
	Grant(ctx context.Context, req *GrantRequest) (models.GrantOutcome, error)

	// ListGrants lists project members with their explicit grant on a scope
	ListGrants(ctx context.Context, actorID, projectID string, folderID *string) ([]models.MemberGrant, error)
}

// GrantRequest represents a permission upsert
type GrantRequest struct {
	ProjectID string  `json:"project_id"`
	FolderID  *string `json:"folder_id"` // null = project root scope
	ActorID   string  `json:"-"`
	UserID    string  `json:"user_id"`
	CanRead   bool    `json:"can_read"`
	CanWrite  bool    `json:"can_write"`
}
