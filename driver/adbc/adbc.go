// Package adbc is the generic Arrow Database Connectivity backend
// adapter: any vendor exposing an ADBC driver (Snowflake, BigQuery,
// Flight SQL endpoints, ...) is reachable through apache/arrow-adbc/go/adbc
// without a bespoke adapter package, trading the other backends' native
// client libraries for ADBC's one Arrow-native wire contract.
package adbc

import (
	"context"
	"fmt"

	"github.com/apache/arrow-adbc/go/adbc"
	"github.com/apache/arrow-adbc/go/adbc/drivermgr"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/result"
)

func init() {
	sqlspec.RegisterConnector("adbc", connector{})
}

type connector struct{}

// Connect passes db.DSN to drivermgr.Driver under both the "driver" key
// (the ADBC driver's shared-library path or entrypoint) and the "uri" key;
// there is no separate setting for the target database's own connection
// string.
func (connector) Connect(db sqlspec.Database) (sqlspec.Pool, error) {
	drv := drivermgr.Driver{}

	adbcDB, err := drv.NewDatabase(map[string]string{
		"driver": db.DSN,
		"uri":    db.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("adbc: opening database: %w", err)
	}

	return driver.NewPool(db, dial(adbcDB)), nil
}

func dial(adbcDB adbc.Database) driver.Dialer {
	return func(ctx context.Context, db sqlspec.Database) (driver.RawExecutor, driver.Adapter, error) {
		conn, err := adbcDB.Open(ctx)
		if err != nil {
			return nil, nil, err
		}

		return &executor{conn: conn}, adapter{}, nil
	}
}

type executor struct {
	conn adbc.Connection
	tx   adbc.Connection // ADBC transactions are connection-scoped, not statement-scoped
}

func (e *executor) newStatement(ctx context.Context, sql string) (adbc.Statement, error) {
	conn := e.conn
	if e.tx != nil {
		conn = e.tx
	}

	stmt, err := conn.NewStatement()
	if err != nil {
		return nil, err
	}

	if err := stmt.SetSqlQuery(sql); err != nil {
		stmt.Close()
		return nil, err
	}

	return stmt, nil
}

func (e *executor) Exec(ctx context.Context, sql string, params any) (any, error) {
	stmt, err := e.newStatement(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	n, err := stmt.ExecuteUpdate(ctx)
	if err != nil {
		return nil, err
	}

	return n, nil
}

func (e *executor) Query(ctx context.Context, sql string, params any) (any, error) {
	stmt, err := e.newStatement(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	reader, _, err := stmt.ExecuteQuery(ctx)
	if err != nil {
		return nil, err
	}

	return reader, nil
}

func (e *executor) ExecMany(ctx context.Context, sql string, batch any) (any, error) {
	return nil, sqlspec.NewError(sqlspec.KindUnsupportedOperation,
		"adbc adapter does not yet implement bulk ingest via Bind; use Execute in a loop", sqlspec.ErrUnsupportedOperation)
}

func (e *executor) ExecScript(ctx context.Context, script string) error {
	stmt, err := e.newStatement(ctx, script)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.ExecuteUpdate(ctx)

	return err
}

func (e *executor) Begin(ctx context.Context) (driver.Tx, error) {
	if err := e.conn.Commit(ctx); err != nil {
		// some ADBC drivers start in autocommit and error on a no-op
		// Commit; ignore and proceed to disabling autocommit below.
		_ = err
	}

	if opts, ok := e.conn.(adbc.PostInitOptions); ok {
		if err := opts.SetOption(adbc.OptionKeyAutoCommit, adbc.OptionValueDisabled); err != nil {
			return nil, err
		}
	}

	e.tx = e.conn

	return &txHandle{e: e}, nil
}

type txHandle struct{ e *executor }

func (t *txHandle) Commit(ctx context.Context) error {
	err := t.e.conn.Commit(ctx)
	t.e.tx = nil

	return err
}

func (t *txHandle) Rollback(ctx context.Context) error {
	err := t.e.conn.Rollback(ctx)
	t.e.tx = nil

	return err
}

func (e *executor) Cancel(ctx context.Context) error { return nil }

func (e *executor) Close() error { return e.conn.Close() }

type adapter struct{}

func (adapter) Capability() sqlspec.DriverCapability {
	return sqlspec.DriverCapability{
		Dialect:         sqlspec.DialectGeneric,
		SupportedStyles: []sqlspec.ParamStyle{sqlspec.StyleQmark, sqlspec.StyleNumeric},
		PreferredStyle:  sqlspec.StyleQmark,
		Features:        map[sqlspec.Feature]bool{sqlspec.FeatureArrowNative: true},
		Arrow:           true,
	}
}

func (adapter) CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error) {
	reader, ok := cursor.(array.RecordReader)
	if !ok {
		return nil, nil, nil
	}
	defer reader.Release()

	var (
		columns []result.Column
		rows    []result.Row
	)

	for reader.Next() {
		rec := reader.Record()

		if columns == nil {
			columns = columnsFromSchema(rec.Schema())
		}

		for r := 0; r < int(rec.NumRows()); r++ {
			row := make(result.Row, rec.NumCols())
			for c := 0; c < int(rec.NumCols()); c++ {
				row[c] = valueAt(rec.Column(c), r)
			}

			rows = append(rows, row)
		}
	}

	return rows, columns, reader.Err()
}

func columnsFromSchema(schema *arrow.Schema) []result.Column {
	cols := make([]result.Column, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = result.Column{Name: f.Name, DeclaredType: f.Type.Name(), Nullable: f.Nullable}
	}

	return cols
}

func valueAt(col arrow.Array, row int) any {
	if col.IsNull(row) {
		return nil
	}

	switch c := col.(type) {
	case *array.Int64:
		return c.Value(row)
	case *array.Float64:
		return c.Value(row)
	case *array.Boolean:
		return c.Value(row)
	case *array.String:
		return c.Value(row)
	default:
		return fmt.Sprintf("%v", col)
	}
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
	if adbcErr, ok := err.(adbc.Error); ok {
		return sqlspec.NewError(sqlspec.KindExecutionError, adbcErr.Msg, err)
	}

	return sqlspec.NewError(sqlspec.KindExecutionError, err.Error(), err)
}
