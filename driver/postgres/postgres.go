// Package postgres is the Postgres backend adapter: pgx/v5 native
// connections (not database/sql), giving the driver the pipeline mode
// DriverCapability.NativePipeline advertises for this dialect, plus
// native RETURNING/array/JSON support.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("postgres", connector{})
}

type connector struct{}

func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	cfg, err := pgxpool.ParseConfig(db.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing DSN: %w", err)
	}

	if db.MaxSize > 0 {
		cfg.MaxConns = int32(db.MaxSize)
	}

	if db.MinSize > 0 {
		cfg.MinConns = int32(db.MinSize)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %w", err)
	}

	return driver.NewPool(db, dial(pool)), nil
}

func dial(pool *pgxpool.Pool) driver.Dialer {
	return func(ctx context.Context, db sqlspec.Database) (driver.RawExecutor, driver.Adapter, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, nil, err
		}

		return &executor{pool: pool, conn: conn}, adapter{}, nil
	}
}

// executor wraps a checked-out pgxpool.Conn, swapping in a pgx.Tx once a
// transaction is open.
type executor struct {
	pool *pgxpool.Pool
	conn *pgxpool.Conn
	tx   pgx.Tx
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (e *executor) querier() querier {
	if e.tx != nil {
		return e.tx
	}

	return e.conn
}

func (e *executor) args(params any) []any {
	if params == nil {
		return nil
	}

	if args, ok := params.([]any); ok {
		return args
	}

	return []any{params}
}

func (e *executor) Exec(ctx context.Context, sql string, params any) (any, error) {
	tag, err := e.querier().Exec(ctx, sql, e.args(params)...)
	if err != nil {
		return nil, err
	}

	return tag, nil
}

func (e *executor) Query(ctx context.Context, sql string, params any) (any, error) {
	rows, err := e.querier().Query(ctx, sql, e.args(params)...)
	if err != nil {
		return nil, err
	}

	return rows, nil
}

func (e *executor) ExecMany(ctx context.Context, sql string, batch any) (any, error) {
	rows, ok := batch.([]any)
	if !ok {
		return nil, fmt.Errorf("postgres: ExecMany expects a []any batch, got %T", batch)
	}

	// pgx.Batch pipelines every statement over the wire in one round trip
	// (this is the native_pipeline the Design Notes call out for Postgres).
	b := &pgx.Batch{}

	for _, row := range rows {
		args, _ := row.([]any)
		b.Queue(sql, args...)
	}

	br := e.querier().(interface {
		SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	}).SendBatch(ctx, b)
	defer br.Close()

	var total int64

	for range rows {
		tag, err := br.Exec()
		if err != nil {
			return nil, err
		}

		total += tag.RowsAffected()
	}

	return total, nil
}

func (e *executor) ExecScript(ctx context.Context, script string) error {
	_, err := e.conn.Exec(ctx, script)
	return err
}

func (e *executor) Begin(ctx context.Context) (driver.Tx, error) {
	tx, err := e.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}

	e.tx = tx

	return &txHandle{e: e, tx: tx}, nil
}

type txHandle struct {
	e  *executor
	tx pgx.Tx
}

func (t *txHandle) Commit(ctx context.Context) error {
	t.e.tx = nil
	return t.tx.Commit(ctx)
}

func (t *txHandle) Rollback(ctx context.Context) error {
	t.e.tx = nil
	return t.tx.Rollback(ctx)
}

func (e *executor) Cancel(ctx context.Context) error { return nil }

func (e *executor) Close() error {
	e.conn.Release()
	return nil
}

type adapter struct{}

func (adapter) Capability() sqlspec.DriverCapability {
	return sqlspec.CapabilityFor(sqlspec.DialectPostgres)
}

func (adapter) CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error) {
	rows, ok := cursor.(pgx.Rows)
	if !ok {
		return nil, nil, nil
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]result.Column, len(fields))

	for i, f := range fields {
		columns[i] = result.Column{Name: f.Name}
	}

	var out []result.Row

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}

		out = append(out, result.Row(values))
	}

	return out, columns, rows.Err()
}

func (adapter) ResolveRowCount(cursor any) (int64, error) {
	switch c := cursor.(type) {
	case pgconn.CommandTag:
		return c.RowsAffected(), nil
	case int64:
		return c, nil
	default:
		return -1, nil
	}
}

func (adapter) NormalizeExecuteParameters(params any) (any, error) {
	return params, nil
}

func (adapter) NormalizeExecuteManyParameters(many []any) (any, error) {
	return many, nil
}

func (adapter) MapError(err error) error {
	var pgErr *pgconn.PgError
	if ok := asPgError(err, &pgErr); ok {
		kind := sqlspec.KindExecutionError

		switch pgErr.Code[:2] {
		case "23":
			kind = sqlspec.KindDataError
		case "08":
			kind = sqlspec.KindConnectivityError
		case "40":
			kind = sqlspec.KindTransactionError
		}

		return sqlspec.NewError(kind, pgErr.Message, err).WithCode(pgErr.Code)
	}

	return sqlspec.NewError(sqlspec.KindExecutionError, err.Error(), err)
}

func asPgError(err error, target **pgconn.PgError) bool {
	type pgErrWrapper interface{ PgError() *pgconn.PgError }

	if w, ok := err.(pgErrWrapper); ok {
		*target = w.PgError()
		return true
	}

	if pe, ok := err.(*pgconn.PgError); ok {
		*target = pe
		return true
	}

	return false
}
