// Package driver specifies the Driver Contract & Session (spec.md §4.7):
// a uniform set of verbs every backend adapter exposes, a parallel sync/
// async suspension discipline (§5), and the fixed per-driver helper set
// (collect rows, resolve rowcount, normalize parameters, map errors) each
// adapter package (driver/postgres, driver/mysql, ...) supplies.
//
// Per the Design Notes' "inheritance-heavy driver hierarchy... replace
// with a driver-capability record", an adapter is a value satisfying
// Adapter plus RawExecutor, not a subclass in an inheritance chain.
package driver

import (
	"context"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/result"
)

// Adapter is the fixed per-driver helper set spec.md §4.7 requires of
// every backend: the driver's declared capability record, row collection,
// rowcount resolution, parameter normalization, and error mapping. cursor
// is whatever opaque handle the backend's RawExecutor returns from Exec/
// Query (e.g. *sql.Rows, pgx.Rows) — Adapter is the only place that knows
// its concrete type.
type Adapter interface {
	Capability() sqlspec.DriverCapability

	// CollectRows drains cursor into a driver-agnostic row/column set.
	CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error)

	// ResolveRowCount reports the number of rows a mutation affected.
	// Negative driver sentinels are the caller's (Session's) job to
	// coerce to 0 per spec.md §9; adapters return the raw driver value.
	ResolveRowCount(cursor any) (int64, error)

	// NormalizeExecuteParameters reshapes already-paramstyle-normalized
	// driver params (see paramstyle.Normalize) into whatever concrete
	// argument list/map the backend's client library expects (e.g. []any
	// for database/sql, pgx.NamedArgs for pgx).
	NormalizeExecuteParameters(params any) (any, error)

	// NormalizeExecuteManyParameters does the same for a batch.
	NormalizeExecuteManyParameters(many []any) (any, error)

	// MapError translates a driver-native error into the §7 taxonomy.
	MapError(err error) error
}

// Tx is the transaction handle a RawExecutor hands back from Begin.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RawExecutor is the thin shim over a backend's actual client library: it
// knows how to send already-normalized SQL+params and get a cursor back,
// run a multi-statement script, and open a transaction. Everything else
// (state machine, caching, stack execution, result construction) is
// handled uniformly by Session on top of this.
type RawExecutor interface {
	Exec(ctx context.Context, sql string, params any) (cursor any, err error)
	Query(ctx context.Context, sql string, params any) (cursor any, err error)
	ExecMany(ctx context.Context, sql string, many any) (cursor any, err error)
	ExecScript(ctx context.Context, script string) error
	Begin(ctx context.Context) (Tx, error)
	Cancel(ctx context.Context) error
	Close() error
}

// ExecuteResult is returned by Session.Execute.
type ExecuteResult struct {
	Result *result.ResultSet
}

// ExecuteManyResult is returned by Session.ExecuteMany.
type ExecuteManyResult struct {
	RowsAffected int64
	Warnings     []result.Warning
}

// ScriptResult is returned by Session.ExecuteScript.
type ScriptResult struct {
	StatementCount int
}

// ColumnarResult is returned by Session.ExecuteArrow.
type ColumnarResult struct {
	Table result.ColumnarTable
}
