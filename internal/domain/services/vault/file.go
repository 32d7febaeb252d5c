package vault

import (
	"context"
	"io"

	models "filevault/internal/domain/models/vault"
	"filevault/internal/httputil"
)

// FileService manages logical files and their revision logs
type FileService interface {
	// UploadFile creates a file with revision 1
	UploadFile(ctx context.Context, req *UploadFileRequest) (*models.File, error)

	// ReplaceFile appends a revision holding new content
	ReplaceFile(ctx context.Context, req *ReplaceFileRequest) (*models.FileRevision, error)

	// RestoreRevision appends a revision that points at an earlier revision's blob
	RestoreRevision(ctx context.Context, userID, fileID string, revisionNo int) (*models.FileRevision, error)

	// MoveFile changes the logical folder and/or name of a file
	MoveFile(ctx context.Context, userID, fileID string, req *MoveFileRequest) (*models.File, error)

	// DeleteFile soft-deletes a file
	DeleteFile(ctx context.Context, userID, fileID string) error

	// GetFile retrieves an active file
	GetFile(ctx context.Context, userID, fileID string) (*models.File, error)

	// ListFiles lists active files living exactly in folderPath ("" = no folder)
	ListFiles(ctx context.Context, userID, projectID, folderPath string) ([]models.FileListing, error)

	// ListRevisions lists a file's revisions ascending
	ListRevisions(ctx context.Context, userID, fileID string) ([]models.FileRevision, error)

	// GetRevision retrieves one revision
	GetRevision(ctx context.Context, userID, fileID string, revisionNo int) (*models.FileRevision, error)

	// OpenFile streams the current content, or a given revision's content
	OpenFile(ctx context.Context, userID, fileID string, revisionNo *int) (*FileContent, error)
}

// UploadFileRequest represents a new upload
type UploadFileRequest struct {
	ProjectID   string
	UserID      string
	FolderPath  string // "" = no folder
	Name        string
	ContentType string
	Content     io.ReadSeeker
}

// ReplaceFileRequest represents a new revision upload for an existing file
type ReplaceFileRequest struct {
	FileID      string
	UserID      string
	Name        string // optional; empty keeps the current name
	ContentType string
	Content     io.ReadSeeker
}

// MoveFileRequest represents a file move and/or rename
type MoveFileRequest struct {
	// Tri-state: absent = keep folder, null or "" = no folder, value = that folder path
	Folder httputil.OptionalString `json:"folder"`
	Name   *string                 `json:"name,omitempty"`
}

// FileContent is an open blob plus the metadata needed to serve it
type FileContent struct {
	io.ReadCloser
	Name        string
	ContentType string
	SizeBytes   int64
	RevisionNo  int
}
