package vault

import (
	"time"
)

// FileRevision is one immutable entry of a file's append-only history.
// RevisionNo runs 1, 2, 3, ... per file with no gaps.
type FileRevision struct {
	ID         string    `json:"id" db:"id"`
	FileID     string    `json:"file_id" db:"file_id"`
	RevisionNo int       `json:"revision_no" db:"revision_no"`
	Blob       BlobRef   `json:"blob"`
	UploadedBy *string   `json:"uploaded_by" db:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}
