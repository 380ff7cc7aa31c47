// Package dbx holds the database plumbing shared by the repositories: the
// DBTX abstraction over *sql.DB and *sql.Tx, the transaction wrapper that
// scopes one unit of work, and the session factory.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so repositories can run
// either inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a single transaction.
//
// The transaction is committed when fn returns nil and rolled back when fn
// returns an error or panics. The error from fn is returned unchanged; a
// failed rollback never masks it. A panic is re-raised after the rollback.
// If BeginTx fails its error is returned and fn is not called.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}

// InTx is WithTx for units of work that produce a value. On any failure the
// zero value of T is returned together with the error.
func InTx[T any](ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) (T, error)) (T, error) {
	var result T
	err := WithTx(ctx, db, opts, func(ctx context.Context, tx DBTX) error {
		var ferr error
		result, ferr = fn(ctx, tx)
		return ferr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
