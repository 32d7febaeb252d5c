package postgres

import (
	"context"
	"fmt"
	"os"

	"filevault/internal/repository/postgres/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// tablePrefixEnv is substituted into the migration files by goose ENVSUB
const tablePrefixEnv = "VAULT_TABLE_PREFIX"

// RunMigrations applies the embedded schema to the pool's database
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := os.Setenv(tablePrefixEnv, tables.Prefix); err != nil {
		return fmt.Errorf("set migration prefix: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetTableName(tables.Prefix + "goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
