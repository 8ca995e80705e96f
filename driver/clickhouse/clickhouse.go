// Package clickhouse is the ClickHouse backend adapter, built on
// ClickHouse/clickhouse-go/v2's native driver.Conn (not its database/sql
// shim), so batched inserts go through the client's native columnar batch
// protocol — the NativePipeline the Design Notes flag for this dialect.
package clickhouse

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("clickhouse", connector{})
}

type connector struct{}

func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	opts, err := clickhouse.ParseDSN(db.DSN)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: parsing DSN: %w", err)
	}

	if db.MaxSize > 0 {
		opts.MaxOpenConns = db.MaxSize
	}

	if db.MinSize > 0 {
		opts.MaxIdleConns = db.MinSize
	}

	return driver.NewPool(db, dial(opts)), nil
}

func dial(opts *clickhouse.Options) driver.Dialer {
	return func(ctx context.Context, db sqlspec.Database) (driver.RawExecutor, driver.Adapter, error) {
		conn, err := clickhouse.Open(opts)
		if err != nil {
			return nil, nil, err
		}

		if err := conn.Ping(ctx); err != nil {
			return nil, nil, err
		}

		return &executor{conn: conn}, adapter{}, nil
	}
}

type executor struct {
	conn chdriver.Conn
	tx   chdriver.Tx
}

func (e *executor) Exec(ctx context.Context, sql string, params any) (any, error) {
	args := argsOf(params)

	if e.tx != nil {
		return nil, e.tx.Exec(ctx, sql, args...)
	}

	return nil, e.conn.Exec(ctx, sql, args...)
}

func (e *executor) Query(ctx context.Context, sql string, params any) (any, error) {
	args := argsOf(params)

	if e.tx != nil {
		return e.tx.Query(ctx, sql, args...)
	}

	return e.conn.Query(ctx, sql, args...)
}

// ExecMany uses ClickHouse's native PrepareBatch: rows are appended
// columnar-side and flushed in one native protocol round trip.
func (e *executor) ExecMany(ctx context.Context, sql string, batch any) (any, error) {
	rows, ok := batch.([]any)
	if !ok {
		return nil, fmt.Errorf("clickhouse: ExecMany expects a []any batch, got %T", batch)
	}

	b, err := e.conn.PrepareBatch(ctx, sql)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		args, _ := row.([]any)
		if err := b.Append(args...); err != nil {
			return nil, err
		}
	}

	if err := b.Send(); err != nil {
		return nil, err
	}

	return int64(len(rows)), nil
}

func (e *executor) ExecScript(ctx context.Context, script string) error {
	return e.conn.Exec(ctx, script)
}

func (e *executor) Begin(ctx context.Context) (driver.Tx, error) {
	return nil, sqlspec.NewError(sqlspec.KindUnsupportedOperation,
		"clickhouse does not support multi-statement transactions", sqlspec.ErrUnsupportedOperation)
}

func (e *executor) Cancel(ctx context.Context) error { return nil }

func (e *executor) Close() error { return e.conn.Close() }

func argsOf(params any) []any {
	if params == nil {
		return nil
	}

	if args, ok := params.([]any); ok {
		return args
	}

	return []any{params}
}

type adapter struct{}

func (adapter) Capability() sqlspec.DriverCapability {
	return sqlspec.CapabilityFor(sqlspec.DialectClickHouse)
}

func (adapter) CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error) {
	rows, ok := cursor.(chdriver.Rows)
	if !ok {
		return nil, nil, nil
	}
	defer rows.Close()

	types := rows.ColumnTypes()
	names := rows.Columns()
	columns := make([]result.Column, len(names))

	for i, n := range names {
		columns[i] = result.Column{Name: n, DeclaredType: types[i].DatabaseTypeName()}
	}

	var out []result.Row

	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))

		for i, t := range types {
			scanTargets[i] = newScanTarget(t)
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, nil, err
		}

		for i, v := range scanTargets {
			values[i] = derefScanTarget(v)
		}

		out = append(out, result.Row(values))
	}

	return out, columns, rows.Err()
}

func newScanTarget(t chdriver.ColumnType) any {
	return reflect.New(t.ScanType()).Interface()
}

func derefScanTarget(v any) any {
	return reflect.ValueOf(v).Elem().Interface()
}

func (adapter) ResolveRowCount(cursor any) (int64, error) {
	if n, ok := cursor.(int64); ok {
		return n, nil
	}

	return -1, nil
}

func (adapter) NormalizeExecuteParameters(params any) (any, error) {
	return params, nil
}

func (adapter) NormalizeExecuteManyParameters(many []any) (any, error) {
	return many, nil
}

func (adapter) MapError(err error) error {
	if exc, ok := err.(*clickhouse.Exception); ok {
		return sqlspec.NewError(sqlspec.KindExecutionError, exc.Message, err).WithCode(fmt.Sprintf("%d", exc.Code))
	}

	return sqlspec.NewError(sqlspec.KindExecutionError, err.Error(), err)
}
