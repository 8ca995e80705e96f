// Package duckdb is the DuckDB backend adapter, built on database/sql plus
// marcboeker/go-duckdb and the shared dbsql.Executor shim. DuckDB's
// DriverCapability advertises Arrow: true, so Session.ExecuteArrow can
// eventually be specialized to DuckDB's native Arrow result set; today it
// still goes through the row-buffer fallback in result.ResultSet.Arrow,
// which is correct, just not zero-copy for this backend yet.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/driver/dbsql"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("duckdb", connector{})
}

type connector struct{}

func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	conn, err := sql.Open("duckdb", db.DSN)
	if err != nil {
		return nil, fmt.Errorf("duckdb: opening: %w", err)
	}

	if db.MaxSize > 0 {
		conn.SetMaxOpenConns(db.MaxSize)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}

	return driver.NewPool(db, dial(conn)), nil
}

func dial(conn *sql.DB) driver.Dialer {
	return func(ctx context.Context, db sqlspec.Database) (driver.RawExecutor, driver.Adapter, error) {
		return dbsql.NewExecutor(conn), adapter{}, nil
	}
}

type adapter struct{}

func (adapter) Capability() sqlspec.DriverCapability {
	return sqlspec.CapabilityFor(sqlspec.DialectDuckDB)
}

func (adapter) CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error) {
	return dbsql.CollectRows(cursor)
}

func (adapter) ResolveRowCount(cursor any) (int64, error) {
	return dbsql.ResolveRowCount(cursor)
}

func (adapter) NormalizeExecuteParameters(params any) (any, error) {
	return params, nil
}

func (adapter) NormalizeExecuteManyParameters(many []any) (any, error) {
	return many, nil
}

func (adapter) MapError(err error) error {
	return sqlspec.NewError(dbsql.MapSentinel(err), err.Error(), err)
}
