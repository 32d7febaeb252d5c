package vault

import (
	"time"
)

// DefaultContentType is used when an upload does not declare one
const DefaultContentType = "application/octet-stream"

// BlobRef points at an immutable blob in the blob store
type BlobRef struct {
	Location    string `json:"-" db:"blob_location"`
	ContentType string `json:"content_type" db:"content_type"`
	SizeBytes   int64  `json:"size_bytes" db:"size_bytes"`
}

// File is a logical file in a project. Folder holds the folder's path string,
// not its id; renaming a folder rewrites it. Blob is the current pointer and
// always mirrors the latest revision once revisions exist.
type File struct {
	ID           string     `json:"id" db:"id"`
	ProjectID    string     `json:"project_id" db:"project_id"`
	Folder       *string    `json:"folder" db:"folder"` // NULL = no folder assigned
	OriginalName string     `json:"name" db:"original_name"`
	Blob         BlobRef    `json:"blob"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// IsDeleted reports whether the file has been soft-deleted
func (f *File) IsDeleted() bool {
	return f.DeletedAt != nil
}

// FolderPath returns the logical folder as a plain string ("" = no folder)
func (f *File) FolderPath() string {
	if f.Folder == nil {
		return ""
	}
	return *f.Folder
}

// FileListing is an active file with its latest revision number
type FileListing struct {
	File
	LatestRevision int `json:"revision_no"`
}
