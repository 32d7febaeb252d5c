package vault

import (
	"context"
	"fmt"
	"log/slog"

	"filevault/internal/domain"
	models "filevault/internal/domain/models/vault"
	vaultRepo "filevault/internal/domain/repositories/vault"
	"filevault/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const fileColumns = `id, project_id, folder, original_name, blob_location, content_type, size_bytes, uploaded_at, updated_at, deleted_at`

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *postgres.RepositoryConfig) vaultRepo.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new file
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, folder, original_name, blob_location, content_type, size_bytes, uploaded_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, uploaded_at, updated_at
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		file.ProjectID,
		file.Folder,
		file.OriginalName,
		file.Blob.Location,
		file.Blob.ContentType,
		file.Blob.SizeBytes,
		file.UploadedAt,
		file.UpdatedAt,
	).Scan(&file.ID, &file.UploadedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// GetByID retrieves an active file
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, fileColumns, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	file, err := scanFile(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, domain.NewNotFound("file", id)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

// UpdateBlob points the file at a new blob
func (r *PostgresFileRepository) UpdateBlob(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET original_name = $1, blob_location = $2, content_type = $3, size_bytes = $4, updated_at = $5
		WHERE id = $6 AND deleted_at IS NULL
	`, r.tables.Files)

	return r.exec(ctx, "update file blob", file.ID, query,
		file.OriginalName,
		file.Blob.Location,
		file.Blob.ContentType,
		file.Blob.SizeBytes,
		file.UpdatedAt,
		file.ID,
	)
}

// UpdateLocation writes folder and name of a file
func (r *PostgresFileRepository) UpdateLocation(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder = $1, original_name = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`, r.tables.Files)

	return r.exec(ctx, "update file location", file.ID, query,
		file.Folder,
		file.OriginalName,
		file.UpdatedAt,
		file.ID,
	)
}

// SoftDelete stamps deleted_at on an active file
func (r *PostgresFileRepository) SoftDelete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Files)

	return r.exec(ctx, "soft delete file", id, query, id)
}

// ListByFolder lists active files living exactly in folderPath. The latest
// revision defaults to 1 for files that predate the revision log.
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, projectID, folderPath string) ([]models.FileListing, error) {
	var folderFilter string
	args := []any{projectID}
	if folderPath == "" {
		folderFilter = `(f.folder IS NULL OR f.folder = '')`
	} else {
		folderFilter = `f.folder = $2`
		args = append(args, folderPath)
	}

	query := fmt.Sprintf(`
		SELECT f.id, f.project_id, f.folder, f.original_name, f.blob_location, f.content_type,
		       f.size_bytes, f.uploaded_at, f.updated_at, f.deleted_at,
		       COALESCE((SELECT MAX(v.revision_no) FROM %s v WHERE v.file_id = f.id), 1) AS latest_revision
		FROM %s f
		WHERE f.project_id = $1 AND %s AND f.deleted_at IS NULL
		ORDER BY f.original_name ASC, f.id ASC
	`, r.tables.FileRevisions, r.tables.Files, folderFilter)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	files := []models.FileListing{}
	for rows.Next() {
		var item models.FileListing
		err := rows.Scan(
			&item.ID,
			&item.ProjectID,
			&item.Folder,
			&item.OriginalName,
			&item.Blob.Location,
			&item.Blob.ContentType,
			&item.Blob.SizeBytes,
			&item.UploadedAt,
			&item.UpdatedAt,
			&item.DeletedAt,
			&item.LatestRevision,
		)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

// ReplaceFolderPrefix rewrites folder strings under a moved folder. Files
// directly in the folder (folder = oldPath) and below it (oldPath + "/...")
// are rewritten; soft-deleted files too, so their history stays addressable.
func (r *PostgresFileRepository) ReplaceFolderPrefix(ctx context.Context, projectID, oldPath, newPath string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder = $3 || substr(folder, char_length($2) + 1), updated_at = now()
		WHERE project_id = $1
		  AND (folder = $2 OR left(folder, char_length($2) + 1) = $2 || '/')
	`, r.tables.Files)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, oldPath, newPath)
	if err != nil {
		return 0, fmt.Errorf("rewrite file folders: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PostgresFileRepository) exec(ctx context.Context, op, id, query string, args ...any) error {
	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, args...)
	if err != nil {
		if postgres.IsPgInvalidInputError(err) {
			return domain.NewNotFound("file", id)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("file", id)
	}
	return nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	var file models.File
	err := row.Scan(
		&file.ID,
		&file.ProjectID,
		&file.Folder,
		&file.OriginalName,
		&file.Blob.Location,
		&file.Blob.ContentType,
		&file.Blob.SizeBytes,
		&file.UploadedAt,
		&file.UpdatedAt,
		&file.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &file, nil
}
