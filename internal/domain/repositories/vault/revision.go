package vault

import (
	"context"

	models "filevault/internal/domain/models/vault"
)

// RevisionRepository defines data access operations for the append-only
// revision log. There is no update or delete.
type RevisionRepository interface {
	// Append inserts a revision; (file_id, revision_no) is unique
	Append(ctx context.Context, rev *models.FileRevision) error

	// MaxRevisionNo returns the highest revision number of a file, 0 when none
	MaxRevisionNo(ctx context.Context, fileID string) (int, error)

	// Get retrieves one revision of a file
	Get(ctx context.Context, fileID string, revisionNo int) (*models.FileRevision, error)

	// ListByFile lists a file's revisions ascending by revision number
	ListByFile(ctx context.Context, fileID string) ([]models.FileRevision, error)
}
