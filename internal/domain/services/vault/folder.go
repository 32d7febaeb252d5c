package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
	"filevault/internal/httputil"
)

// FolderService manages a project's folder tree
type FolderService interface {
	// CreateFolder creates a folder under an optional parent
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.Folder, error)

	// GetFolder retrieves a folder
	GetFolder(ctx context.Context, userID, folderID string) (*models.Folder, error)

	// MoveOrRenameFolder renames and/or reparents a folder, cascading the path
	// change to descendant folders and to files
	MoveOrRenameFolder(ctx context.Context, userID, folderID string, req *UpdateFolderRequest) (*models.Folder, error)

	// ListFolders lists every folder of a project ordered by path
	ListFolders(ctx context.Context, userID, projectID string) ([]models.FolderListing, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	ProjectID string  `json:"project_id"`
	UserID    string  `json:"-"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id,omitempty"` // null for root folders
}

// UpdateFolderRequest represents a rename and/or move
type UpdateFolderRequest struct {
	Name *string `json:"name,omitempty"` // rename
	// Tri-state: absent = keep parent, null = move to root, value = move under it
	ParentID httputil.OptionalString `json:"parent_id"`
}
