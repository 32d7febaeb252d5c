package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
	"filevault/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const revisionColumns = `id, file_id, revision_no, blob_location, content_type, size_bytes, uploaded_by, uploaded_at`

// PostgresRevisionRepository implements the RevisionRepository interface
type PostgresRevisionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRevisionRepository creates a new file revision repository
func NewRevisionRepository(config *postgres.RepositoryConfig) vaultRepo.RevisionRepository {
	return &PostgresRevisionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append inserts a revision
func (r *PostgresRevisionRepository) Append(ctx context.Context, rev *models.FileRevision) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_id, revision_no, blob_location, content_type, size_bytes, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`, r.tables.FileRevisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		rev.FileID,
		rev.RevisionNo,
		rev.Blob.Location,
		rev.Blob.ContentType,
		rev.Blob.SizeBytes,
		rev.UploadedBy,
		rev.UploadedAt,
	).Scan(&rev.ID, &rev.UploadedAt)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			// Another writer appended the same number; the project lock should
			// make this unreachable
			return fmt.Errorf("revision %d of file %s already exists: %w", rev.RevisionNo, rev.FileID, err)
		}
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// MaxRevisionNo returns the highest revision number of a file, 0 when none
func (r *PostgresRevisionRepository) MaxRevisionNo(ctx context.Context, fileID string) (int, error) {
	query := fmt.Sprintf(`SELECT COALESCE(MAX(revision_no), 0) FROM %s WHERE file_id = $1`, r.tables.FileRevisions)

	var maxRev int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, fileID).Scan(&maxRev); err != nil {
		return 0, fmt.Errorf("max revision: %w", err)
	}
	return maxRev, nil
}

// Get retrieves one revision of a file
func (r *PostgresRevisionRepository) Get(ctx context.Context, fileID string, revisionNo int) (*models.FileRevision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE file_id = $1 AND revision_no = $2
	`, revisionColumns, r.tables.FileRevisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rev, err := scanRevision(executor.QueryRow(ctx, query, fileID, revisionNo))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, domain.NewNotFound("revision", fileID+"#"+strconv.Itoa(revisionNo))
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

// ListByFile lists a file's revisions ascending
func (r *PostgresRevisionRepository) ListByFile(ctx context.Context, fileID string) ([]models.FileRevision, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE file_id = $1
		ORDER BY revision_no ASC
	`, revisionColumns, r.tables.FileRevisions)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("list revisions: %w", err)
	}
	defer rows.Close()

	revs := []models.FileRevision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision: %w", err)
		}
		revs = append(revs, *rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revisions: %w", err)
	}
	return revs, nil
}

func scanRevision(row pgx.Row) (*models.FileRevision, error) {
	var rev models.FileRevision
	err := row.Scan(
		&rev.ID,
		&rev.FileID,
		&rev.RevisionNo,
		&rev.Blob.Location,
		&rev.Blob.ContentType,
		&rev.Blob.SizeBytes,
		&rev.UploadedBy,
		&rev.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rev, nil
}
