// Package dbsql is the shared database/sql shim three backend adapters
// (mysql, sqlite, duckdb) build on: a driver.RawExecutor over *sql.DB/
// *sql.Tx, and row/column collection helpers that satisfy driver.Adapter's
// CollectRows/ResolveRowCount contract for any database/sql-compatible
// driver. Postgres and ClickHouse bypass this in favor of their native
// client libraries (pipeline mode, native Arrow batches); ADBC bypasses it
// in favor of arrow-adbc's own cursor shape.
package dbsql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/result"
)

// Executor adapts a *sql.DB (or, inside a transaction, a *sql.Tx) to
// driver.RawExecutor. Statement text arrives already rendered for the
// target parameter style; params is a []any positional arg list or a
// []sql.NamedArg-compatible []any, whichever NormalizeExecuteParameters
// produced.
type Executor struct {
	db *sql.DB
	tx *sql.Tx
}

// NewExecutor wraps an open *sql.DB.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

func (e *Executor) querier() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
} {
	if e.tx != nil {
		return e.tx
	}

	return e.db
}

func (e *Executor) argsOf(params any) []any {
	if params == nil {
		return nil
	}

	if args, ok := params.([]any); ok {
		return args
	}

	return []any{params}
}

// Exec runs a statement not expected to return rows, e.g. INSERT/UPDATE/
// DELETE without RETURNING.
func (e *Executor) Exec(ctx context.Context, rawSQL string, params any) (any, error) {
	res, err := e.querier().ExecContext(ctx, rawSQL, e.argsOf(params)...)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// Query runs a statement expected to return rows.
func (e *Executor) Query(ctx context.Context, rawSQL string, params any) (any, error) {
	rows, err := e.querier().QueryContext(ctx, rawSQL, e.argsOf(params)...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ExecMany prepares rawSQL once and executes it once per row of batch
// (a []any of []any argument lists), accumulating total rows affected.
func (e *Executor) ExecMany(ctx context.Context, rawSQL string, batch any) (any, error) {
	rows, ok := batch.([]any)
	if !ok {
		return nil, fmt.Errorf("dbsql: ExecMany expects a []any batch, got %T", batch)
	}

	stmt, err := e.querier().(interface {
		PrepareContext(context.Context, string) (*sql.Stmt, error)
	}).PrepareContext(ctx, rawSQL)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var total int64

	for _, row := range rows {
		args, _ := row.([]any)

		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return nil, err
		}

		n, err := res.RowsAffected()
		if err == nil {
			total += n
		}
	}

	return totalRowsAffected(total), nil
}

// totalRowsAffected wraps a precomputed total as a sql.Result-like value
// ResolveRowCount can read back.
type totalRowsAffected int64

func (t totalRowsAffected) LastInsertId() (int64, error) { return 0, nil }
func (t totalRowsAffected) RowsAffected() (int64, error) { return int64(t), nil }

// ExecScript runs a (driver-supported) multi-statement script verbatim.
func (e *Executor) ExecScript(ctx context.Context, script string) error {
	_, err := e.querier().ExecContext(ctx, script)
	return err
}

// Begin opens a *sql.Tx, routes this Executor's later calls through it,
// and returns a driver.Tx handle that commits or rolls it back.
func (e *Executor) Begin(ctx context.Context) (driver.Tx, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	e.tx = tx

	return &txHandle{e: e, tx: tx}, nil
}

type txHandle struct {
	e  *Executor
	tx *sql.Tx
}

func (t *txHandle) Commit(ctx context.Context) error {
	t.e.tx = nil
	return t.tx.Commit()
}

func (t *txHandle) Rollback(ctx context.Context) error {
	t.e.tx = nil
	return t.tx.Rollback()
}

// Cancel is a no-op: database/sql cancellation happens through ctx.
func (e *Executor) Cancel(ctx context.Context) error { return nil }

// Close closes the underlying *sql.DB.
func (e *Executor) Close() error { return e.db.Close() }

// CollectRows drains a *sql.Rows cursor into driver-agnostic rows/columns.
// A cursor that is instead a sql.Result (from a plain Exec) has no rows to
// collect.
func CollectRows(cursor any) ([]result.Row, []result.Column, error) {
	rows, ok := cursor.(*sql.Rows)
	if !ok {
		return nil, nil, nil
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	columns := make([]result.Column, len(colTypes))
	for i, ct := range colTypes {
		nullable, _ := ct.Nullable()
		columns[i] = result.Column{Name: ct.Name(), DeclaredType: ct.DatabaseTypeName(), Nullable: nullable}
	}

	var out []result.Row

	for rows.Next() {
		scanTargets := make([]any, len(columns))
		values := make([]any, len(columns))

		for i := range scanTargets {
			scanTargets[i] = &values[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, err
		}

		out = append(out, result.Row(values))
	}

	return out, columns, rows.Err()
}

// ResolveRowCount reads rows-affected from a sql.Result cursor, or reports
// -1 (unknown, coerced to 0 by result.New) for a *sql.Rows cursor, since
// database/sql does not expose an affected-row count for QueryContext.
func ResolveRowCount(cursor any) (int64, error) {
	switch c := cursor.(type) {
	case sql.Result:
		return c.RowsAffected()
	case *sql.Rows:
		return -1, nil
	default:
		return 0, nil
	}
}

// MapSentinel is the small, shared "is this a not-found/constraint/timeout
// error" classification every database/sql-backed adapter's own MapError
// delegates to after checking driver-specific error types.
func MapSentinel(err error) sqlspec.Kind {
	switch err {
	case sql.ErrNoRows:
		return sqlspec.KindDataError
	case sql.ErrTxDone:
		return sqlspec.KindTransactionError
	case context.DeadlineExceeded:
		return sqlspec.KindTimeout
	default:
		return sqlspec.KindExecutionError
	}
}
