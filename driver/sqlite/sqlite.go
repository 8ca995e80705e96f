// Package sqlite is the SQLite backend adapter, built on database/sql plus
// mattn/go-sqlite3 and the shared dbsql.Executor shim.
//
// SQLite allows only one writer at a time; the Pool is always capped at
// MaxSize=1, whatever max_size the caller configured, matching mattn/go-sqlite3's own
// single-writer discipline rather than starving callers with unexplained
// SQLITE_BUSY errors under a larger pool.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/driver/dbsql"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("sqlite", connector{})
}

type connector struct{}

func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	conn, err := sql.Open("sqlite3", db.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening: %w", err)
	}

	maxSize := db.MaxSize
	if maxSize <= 0 || maxSize > 1 {
		maxSize = 1
		db.MaxSize = 1
	}

	conn.SetMaxOpenConns(maxSize)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("sqlite: ping: %w", err)
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
	return sqlspec.CapabilityFor(sqlspec.DialectSQLite)
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
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		kind := sqlspec.KindExecutionError

		switch sqliteErr.Code {
		case sqlite3.ErrConstraint:
			kind = sqlspec.KindDataError
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			kind = sqlspec.KindConnectivityError
		}

		return sqlspec.NewError(kind, sqliteErr.Error(), err)
	}

	return sqlspec.NewError(dbsql.MapSentinel(err), err.Error(), err)
}
