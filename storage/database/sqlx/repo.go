package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/trezcool/enrollment/core"
)

// repo holds what every sqlx repository needs: the pool, used when the service
// does not hand over a transaction, and the driver specifics of the queries.
type repo struct {
	db *sqlx.DB
}

func (r repo) getExec(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) == 0 || svcExec[0] == nil {
		return r.db
	}
	switch exec := svcExec[0].(type) {
	case *sqlx.Tx:
		return exec
	case *sqlx.DB:
		return exec
	case *sql.Tx:
		return &sqlx.Tx{Tx: exec, Mapper: r.db.Mapper}
	case *sql.DB:
		return sqlx.NewDb(exec, r.db.DriverName())
	default:
		return r.db
	}
}

// query rebinds a query written with '?' placeholders for the current driver.
func (r repo) query(q string) string {
	return r.db.Rebind(q)
}

// lockQuery appends a row lock to a SELECT.
// sqlite3 has no row locks: its transactions begin IMMEDIATE, which already serializes writers.
func (r repo) lockQuery(q string) string {
	if r.db.DriverName() == core.EnginePostgres {
		q += " FOR UPDATE"
	}
	return r.query(q)
}

func (r repo) get(ctx context.Context, exec []core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	return sqlx.GetContext(ctx, r.getExec(exec), dest, q, args...)
}

func (r repo) sel(ctx context.Context, exec []core.DBExecutor, dest interface{}, q string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, r.getExec(exec), dest, q, args...)
}

func (r repo) exec(ctx context.Context, exec []core.DBExecutor, q string, args ...interface{}) (sql.Result, error) {
	return r.getExec(exec).ExecContext(ctx, q, args...)
}

func trapNoRowsErr(err error, entity string, id interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NewNotFoundError(entity, id)
	}
	return err
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
