// Package mysql is the MySQL backend adapter, built on database/sql plus
// go-sql-driver/mysql and the shared dbsql.Executor shim.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/driver/dbsql"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("mysql", connector{})
}

type connector struct{}

func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	cfg, err := gomysql.ParseDSN(db.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: parsing DSN: %w", err)
	}

	cfg.ParseTime = true
	cfg.MultiStatements = true

	conn, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql: opening: %w", err)
	}

	if db.MaxSize > 0 {
		conn.SetMaxOpenConns(db.MaxSize)
	}

	if db.MinSize > 0 {
		conn.SetMaxIdleConns(db.MinSize)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("mysql: ping: %w", err)
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
	return sqlspec.CapabilityFor(sqlspec.DialectMySQL)
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
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := sqlspec.KindExecutionError

		switch {
		case mysqlErr.Number == 1062:
			kind = sqlspec.KindDataError
		case mysqlErr.Number >= 1040 && mysqlErr.Number <= 1045:
			kind = sqlspec.KindConnectivityError
		case mysqlErr.Number == 1213:
			kind = sqlspec.KindTransactionError
		}

		return sqlspec.NewError(kind, mysqlErr.Message, err).WithCode(fmt.Sprintf("%d", mysqlErr.Number))
	}

	return sqlspec.NewError(dbsql.MapSentinel(err), err.Error(), err)
}
