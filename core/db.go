package core

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type (
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

var _ DBTransactor = (*sql.Tx)(nil)

// RunInTx executes fn inside a single transaction.
// The transaction is rolled back when fn returns an error (or panics) and committed otherwise.
func RunInTx(ctx context.Context, db DB, fn func(tx DBExecutor) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errors.Wrapf(err, "rolling back transaction: %v", rbErr)
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}
