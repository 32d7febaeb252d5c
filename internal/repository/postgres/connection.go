package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"filevault/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Prefix            string
	Folders           string
	FolderPermissions string
	Files             string
	FileRevisions     string
	ProjectMembers    string
	Users             string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Prefix:            prefix,
		Folders:           fmt.Sprintf("%sfolders", prefix),
		FolderPermissions: fmt.Sprintf("%sfolder_permissions", prefix),
		Files:             fmt.Sprintf("%sfiles", prefix),
		FileRevisions:     fmt.Sprintf("%sfile_revisions", prefix),
		ProjectMembers:    fmt.Sprintf("%sproject_members", prefix),
		Users:             fmt.Sprintf("%susers", prefix),
	}
}

// Pool sizing
const (
	maxConns = 25
	minConns = 5
)

// CreateConnectionPool creates a new pgx connection pool.
//
// Port 6543 is a transaction-mode PgBouncer, which does not
// support prepared statements; there the pool switches to
// QueryExecModeCacheDescribe unless the connection string already picked a
// mode via default_query_exec_mode.
//
// Table names are interpolated with fmt.Sprintf before the SQL reaches the
// server, so prefixed environments get distinct cached statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the appropriate query executor for the context.
// If a transaction is present in the context, it returns the transaction.
// Otherwise, it returns the provided pool.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
