package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ximilsoft/postgresql-manager/query/sqlgen"
)

// Tx wraps sql.Tx and routes statements through the manager's middleware.
type Tx struct {
	*sql.Tx
	m *Manager
}

// Exec runs a statement inside the transaction.
func (tx *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return execWith(ctx, tx.m, tx.Tx, query, args...)
}

// queryRow runs a single-row query inside the transaction.
func (tx *Tx) queryRow(ctx context.Context, q *sqlgen.Query, dest ...any) error {
	return tx.m.runMiddleware(ctx, q.SQL, q.Args, func() error {
		return tx.QueryRowContext(ctx, q.SQL, q.Args...).Scan(dest...)
	})
}

// TransactionFunc is a function that runs within a transaction
type TransactionFunc func(tx *Tx) error

// transaction runs fn inside a transaction on the session. If fn returns an
// error or panics the transaction is rolled back, otherwise it is committed.
func (s *session) transaction(ctx context.Context, fn TransactionFunc) error {
	sqlTx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	tx := &Tx{Tx: sqlTx, m: s.m}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
