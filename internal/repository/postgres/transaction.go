package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"filevault/internal/domain/repositories"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// projectLockQuery takes a transaction-scoped advisory lock keyed by project.
// It is released automatically on commit or rollback.
const projectLockQuery = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

// TransactionManager implements the TransactionManager interface
type TransactionManager struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(pool *pgxpool.Pool, logger *slog.Logger) repositories.TransactionManager {
	return &TransactionManager{pool: pool, logger: logger}
}

// ExecTx executes a function within a transaction
func (tm *TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return tm.exec(ctx, "", fn)
}

// ExecProjectTx executes a function within a transaction holding the project lock
func (tm *TransactionManager) ExecProjectTx(ctx context.Context, projectID string, fn repositories.TxFn) error {
	if projectID == "" {
		return errors.New("project transaction requires a project id")
	}
	return tm.exec(ctx, projectID, fn)
}

func (tm *TransactionManager) exec(ctx context.Context, projectID string, fn repositories.TxFn) error {
	// Nested call: join the outer transaction, which already holds whatever
	// lock its caller asked for
	if tx := repositories.GetTx(ctx); tx != nil {
		if projectID != "" {
			if _, err := tx.Exec(ctx, projectLockQuery, projectID); err != nil {
				return fmt.Errorf("lock project %s: %w", projectID, err)
			}
		}
		return fn(ctx)
	}

	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// Rollback after commit is a no-op (ErrTxClosed)
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			tm.logger.Warn("rollback failed", "error", err)
		}
	}()

	if projectID != "" {
		if _, err := tx.Exec(ctx, projectLockQuery, projectID); err != nil {
			return fmt.Errorf("lock project %s: %w", projectID, err)
		}
	}

	txCtx := repositories.SetTx(ctx, tx)
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
