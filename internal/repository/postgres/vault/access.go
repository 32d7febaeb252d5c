package vault

import (
	"context"
	"fmt"

	models "filevault/internal/domain/models/vault"
	vaultSvc "filevault/internal/domain/services/vault"
	"filevault/internal/repository/postgres"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessGate answers membership questions from the project layer's tables
type AccessGate struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// NewAccessGate creates an access gate over the project member and user tables
func NewAccessGate(config *postgres.RepositoryConfig) *AccessGate {
	return &AccessGate{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// IsMember reports whether the user belongs to the project
func (g *AccessGate) IsMember(ctx context.Context, userID, projectID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE project_id = $1 AND user_id = $2)
	`, g.tables.ProjectMembers)

	var ok bool
	executor := postgres.GetExecutor(ctx, g.pool)
	if err := executor.QueryRow(ctx, query, projectID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check project membership: %w", err)
	}
	return ok, nil
}

// IsAdmin reports whether the user holds the admin role
func (g *AccessGate) IsAdmin(ctx context.Context, userID string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND is_admin)
	`, g.tables.Users)

	var ok bool
	executor := postgres.GetExecutor(ctx, g.pool)
	if err := executor.QueryRow(ctx, query, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("check admin role: %w", err)
	}
	return ok, nil
}

// ListMembers lists the members of a project ordered by name
func (g *AccessGate) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	query := fmt.Sprintf(`
		SELECT u.id, u.name, u.email
		FROM %s m
		JOIN %s u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY u.name ASC, u.id ASC
	`, g.tables.ProjectMembers, g.tables.Users)

	executor := postgres.GetExecutor(ctx, g.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project members: %w", err)
	}
	return members, nil
}

var _ vaultSvc.AccessGate = (*AccessGate)(nil)
