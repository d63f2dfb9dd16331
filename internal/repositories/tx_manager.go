package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

// TxManager hides transaction begin/commit/rollback from the services.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(executor SQLExecutor) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager creates a TxManager backed by the connection pool.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

// WithinTx runs fn inside a single transaction. Any error returned by fn rolls
// the transaction back and is returned unchanged.
func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(executor SQLExecutor) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", ErrDatabaseError, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
