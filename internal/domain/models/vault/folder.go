package vault

import (
	"time"
)

// Folder is one node of a project's folder tree. Path is materialized:
// parent.Path + "/" + Name, or Name at the project root.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	ParentID  *string   `json:"parent_id" db:"parent_id"` // NULL = project root
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FolderListing is a folder annotated with the caller's effective access
type FolderListing struct {
	Folder
	CanRead  bool `json:"can_read"`
	CanWrite bool `json:"can_write"`
}
