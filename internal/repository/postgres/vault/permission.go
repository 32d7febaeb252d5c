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

const permissionColumns = `id, project_id, folder_id, user_id, can_read, can_write`

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewPermissionRepository creates a new folder permission repository
func NewPermissionRepository(config *postgres.RepositoryConfig) vaultRepo.PermissionRepository {
	return &PostgresPermissionRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CountByProject counts explicit grants in a project
func (r *PostgresPermissionRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE project_id = $1`, r.tables.FolderPermissions)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count folder permissions: %w", err)
	}
	return count, nil
}

// Get retrieves the grant for one scope and user
func (r *PostgresPermissionRepository) Get(ctx context.Context, projectID string, folderID *string, userID string) (*models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1 AND user_id = $2 AND folder_id IS NOT DISTINCT FROM $3
	`, permissionColumns, r.tables.FolderPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	perm, err := scanPermission(executor.QueryRow(ctx, query, projectID, userID, folderID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) || postgres.IsPgInvalidInputError(err) {
			return nil, domain.NewNotFound("folder permission", userID)
		}
		return nil, fmt.Errorf("get folder permission: %w", err)
	}
	return perm, nil
}

// ListForUser lists every grant a user holds in a project
func (r *PostgresPermissionRepository) ListForUser(ctx context.Context, projectID, userID string) ([]models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1 AND user_id = $2
	`, permissionColumns, r.tables.FolderPermissions)

	return r.list(ctx, query, projectID, userID)
}

// ListForScope lists every grant on one folder scope
func (r *PostgresPermissionRepository) ListForScope(ctx context.Context, projectID string, folderID *string) ([]models.FolderPermission, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE project_id = $1 AND folder_id IS NOT DISTINCT FROM $2
		ORDER BY user_id ASC
	`, permissionColumns, r.tables.FolderPermissions)

	return r.list(ctx, query, projectID, folderID)
}

// Create inserts a grant
func (r *PostgresPermissionRepository) Create(ctx context.Context, perm *models.FolderPermission) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, folder_id, user_id, can_read, can_write)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, r.tables.FolderPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		perm.ProjectID,
		perm.FolderID,
		perm.UserID,
		perm.CanRead,
		perm.CanWrite,
	).Scan(&perm.ID)
	if err != nil {
		if postgres.IsPgForeignKeyError(err) {
			return domain.NewNotFound("folder", derefOr(perm.FolderID, ""))
		}
		return fmt.Errorf("create folder permission: %w", err)
	}
	return nil
}

// Update writes the flags of an existing grant
func (r *PostgresPermissionRepository) Update(ctx context.Context, perm *models.FolderPermission) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET can_read = $1, can_write = $2
		WHERE id = $3
	`, r.tables.FolderPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, perm.CanRead, perm.CanWrite, perm.ID)
	if err != nil {
		return fmt.Errorf("update folder permission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder permission", perm.ID)
	}
	return nil
}

// Delete removes a grant
func (r *PostgresPermissionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.FolderPermissions)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete folder permission: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("folder permission", id)
	}
	return nil
}

func (r *PostgresPermissionRepository) list(ctx context.Context, query string, args ...any) ([]models.FolderPermission, error) {
	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list folder permissions: %w", err)
	}
	defer rows.Close()

	perms := []models.FolderPermission{}
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder permission: %w", err)
		}
		perms = append(perms, *perm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder permissions: %w", err)
	}
	return perms, nil
}

func scanPermission(row pgx.Row) (*models.FolderPermission, error) {
	var perm models.FolderPermission
	err := row.Scan(
		&perm.ID,
		&perm.ProjectID,
		&perm.FolderID,
		&perm.UserID,
		&perm.CanRead,
		&perm.CanWrite,
	)
	if err != nil {
		return nil, err
	}
	return &perm, nil
}
