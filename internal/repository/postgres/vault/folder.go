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

const folderColumns = `id, project_id, parent_id, name, path, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *postgres.RepositoryConfig) vaultRepo.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create creates a new folder
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, parent_id, name, path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		folder.ProjectID,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.DuplicatePathError{Path: folder.Path}
		}
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("folder", derefOr(folder.ParentID, ""))
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID within a project
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, projectID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND project_id = $2
	`, folderColumns, r.tables.Folders)

	return r.getOne(ctx, id, query, id, projectID)
}

// GetByIDOnly retrieves a folder by ID (no project scoping)
// Use when authorization is handled separately
func (r *PostgresFolderRepository) GetByIDOnly(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, folderColumns, r.tables.Folders)

	return r.getOne(ctx, id, query, id)
}

// GetByPath retrieves a folder by its materialized path
func (r *PostgresFolderRepository) GetByPath(ctx context.Context, projectID, path string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1 AND path = $2
	`, folderColumns, r.tables.Folders)

	return r.getOne(ctx, path, query, projectID, path)
}

// Update updates name, parent and path of a folder
func (r *PostgresFolderRepository) Update(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, path = $3, updated_at = $4
		WHERE id = $5 AND project_id = $6
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		folder.ParentID,
		folder.Name,
		folder.Path,
		folder.UpdatedAt,
		folder.ID,
		folder.ProjectID,
	)

	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return &domain.DuplicatePathError{Path: folder.Path}
		}
		if postgres.IsPgCheckError(err) {
			return &domain.InvalidParentError{FolderID: folder.ID, ParentID: derefOr(folder.ParentID, "")}
		}
		return fmt.Errorf("update folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder", folder.ID)
	}

	return nil
}

// ReplacePathPrefix rewrites the leading prefix of every matching folder path.
// left() is used instead of LIKE so '%' and '_' in folder names are literal.
func (r *PostgresFolderRepository) ReplacePathPrefix(ctx context.Context, projectID, oldPrefix, newPrefix string) (int64, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $3 || substr(path, char_length($2) + 1), updated_at = now()
		WHERE project_id = $1 AND left(path, char_length($2)) = $2
	`, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, projectID, oldPrefix, newPrefix)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return 0, &domain.DuplicatePathError{Path: newPrefix}
		}
		return 0, fmt.Errorf("rewrite folder paths: %w", err)
	}

	return result.RowsAffected(), nil
}

// ListByProject retrieves all folders in a project ordered by path
func (r *PostgresFolderRepository) ListByProject(ctx context.Context, projectID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1
		ORDER BY path ASC
	`, folderColumns, r.tables.Folders)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	folders := []models.Folder{}
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, *folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

func (r *PostgresFolderRepository) getOne(ctx context.Context, key, query string, args ...any) (*models.Folder, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	folder, err := scanFolder(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, domain.NewNotFound("folder", key)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}
	return folder, nil
}

func scanFolder(row pgx.Row) (*models.Folder, error) {
	var folder models.Folder
	err := row.Scan(
		&folder.ID,
		&folder.ProjectID,
		&folder.ParentID,
		&folder.Name,
		&folder.Path,
		&folder.CreatedAt,
		&folder.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

func derefOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
