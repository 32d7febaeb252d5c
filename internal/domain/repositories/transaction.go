package repositories

import "context"

// TxFn is a function that runs within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager handles database transactions
type TransactionManager interface {
	// ExecTx executes a function within a transaction
	ExecTx(ctx context.Context, fn TxFn) error

	// ExecProjectTx executes a function within a transaction that holds the
	// project's exclusive lock until commit or rollback. Structural mutations
	// (path cascades, revision appends, grant upserts) of one project never
	// interleave.
	ExecProjectTx(ctx context.Context, projectID string, fn TxFn) error
}
