package driver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/cache"
	"github.com/sqlspec/sqlspec/paramstyle"
	"github.com/sqlspec/sqlspec/result"
	"github.com/sqlspec/sqlspec/sqlast"
)

// txState is the Session's transaction state machine, spec.md §4.7:
// Idle -> InTxn -> (Idle on commit/rollback) | InTxnAborted -> Idle (only
// via rollback). A Session in InTxnAborted rejects every verb except
// Rollback and Close.
type txState int

const (
	txIdle txState = iota
	txActive
	txAborted
	txClosed
)

// Session is the uniform execution surface spec.md §4.7 specifies on top
// of a backend's RawExecutor: compile-through-cache, parameter
// normalization, the five execute verbs, and transaction scoping. It
// implements sqlspec.Conn so a Pool can hand it out directly.
type Session struct {
	exec    RawExecutor
	adapter Adapter
	cache   *cache.Cache
	dialect sqlspec.Dialect

	mu    sync.Mutex
	state txState
	tx    Tx

	release func()
	closed  atomic.Bool

	denyList sqlast.DenyList
}

// NewSession builds a Session over a backend's RawExecutor and Adapter. c
// may be nil, in which case every compile is a cache miss (no caching).
// release is invoked by Session.Release and should return the connection
// to its Pool; it may be nil for a standalone Session.
func NewSession(exec RawExecutor, adapter Adapter, c *cache.Cache, release func()) *Session {
	if c == nil {
		c = cache.New(cache.Options{})
	}

	return &Session{
		exec:    exec,
		adapter: adapter,
		cache:   c,
		dialect: adapter.Capability().Dialect,
		release: release,
	}
}

// WithDenyList returns a Session that rejects the given statement kinds at
// compile time, e.g. to keep a read-replica Session from ever compiling a
// DELETE.
func (s *Session) WithDenyList(deny sqlast.DenyList) *Session {
	s.denyList = deny

	return s
}

// Capability returns the Session's backend capability record.
func (s *Session) Capability() sqlspec.DriverCapability {
	return s.adapter.Capability()
}

// Close tears down the underlying RawExecutor. Safe to call more than
// once.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.mu.Lock()
	s.state = txClosed
	s.mu.Unlock()

	return s.exec.Close()
}

// Release returns the Session to its Pool without closing it, per
// sqlspec.Conn.
func (s *Session) Release() {
	if s.release != nil {
		s.release()
	}
}

func (s *Session) checkUsable() error {
	if s.closed.Load() {
		return sqlspec.NewError(sqlspec.KindConnectivityError, "session is closed", sqlspec.ErrSessionClosed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == txAborted {
		return sqlspec.NewError(sqlspec.KindTransactionError, "transaction was aborted by a prior error; call Rollback", sqlspec.ErrTransactionAborted)
	}

	return nil
}

// compile renders stmt for the Session's dialect and preferred style,
// going through the Statement cache keyed on its content fingerprint
// (never its bound values), per spec.md §4.3.
func (s *Session) compile(ctx context.Context, stmt sqlspec.Statement) (sqlspec.CompiledStatement, error) {
	resolved := stmt.Resolved()

	dialect := resolved.Dialect()
	if dialect == "" || dialect == sqlspec.DialectAuto {
		dialect = s.dialect
	}

	capability := s.adapter.Capability()
	style := capability.PreferredStyle

	key := cache.Key{Fingerprint: resolved.Fingerprint()}

	compileOne := func(ctx context.Context) (sqlspec.CompiledStatement, error) {
		ast, err := sqlast.Parse(resolved.Raw(), dialect)
		if err != nil {
			return sqlspec.CompiledStatement{}, err
		}

		if resolved.Config().Validate {
			if diags := sqlast.Validate(ast, s.denyList); diags.HasErrors() {
				return sqlspec.CompiledStatement{}, sqlspec.NewError(sqlspec.KindParseError, formatDiagnostics(diags), sqlspec.ErrMissingClause)
			}
		}

		sql, bindings, err := sqlast.Render(ast, dialect, style, capability)
		if err != nil {
			return sqlspec.CompiledStatement{}, err
		}

		return sqlspec.CompiledStatement{
			SQL:         sql,
			Bindings:    bindings,
			Style:       style,
			Fingerprint: resolved.Fingerprint(),
		}, nil
	}

	if !resolved.Config().Cache {
		return compileOne(ctx)
	}

	return s.cache.Get(ctx, key, compileOne)
}

func (s *Session) normalizeParams(compiled sqlspec.CompiledStatement, resolved sqlspec.Statement) (any, error) {
	normalized, err := paramstyle.Normalize(resolved.Positional(), resolved.Named(), compiled.Bindings, paramstyle.NormalizeOptions{})
	if err != nil {
		return nil, err
	}

	return s.adapter.NormalizeExecuteParameters(normalized)
}

// Execute runs stmt and returns the resulting ResultSet: rows for a
// query, rows-affected for a mutation (spec.md §4.7 "execute").
func (s *Session) Execute(ctx context.Context, stmt sqlspec.Statement) (*ExecuteResult, error) {
	if err := s.checkUsable(); err != nil {
		return nil, err
	}

	resolved := stmt.Resolved()

	compiled, err := s.compile(ctx, stmt)
	if err != nil {
		return nil, err
	}

	params, err := s.normalizeParams(compiled, resolved)
	if err != nil {
		return nil, err
	}

	cursor, err := s.queryOrExec(ctx, compiled.SQL, params)
	if err != nil {
		return nil, s.wrapErr(err, compiled.Fingerprint)
	}

	rows, columns, err := s.adapter.CollectRows(ctx, cursor)
	if err != nil {
		return nil, s.wrapErr(err, compiled.Fingerprint)
	}

	rowsAffected, err := s.adapter.ResolveRowCount(cursor)
	if err != nil {
		return nil, s.wrapErr(err, compiled.Fingerprint)
	}

	rs, err := result.New(columns, rows, rowsAffected, false)
	if err != nil {
		return nil, err
	}

	return &ExecuteResult{Result: rs}, nil
}

// queryOrExec dispatches to the RawExecutor's Query or Exec depending on
// whether the compiled SQL looks like it produces rows. This matters for
// the database/sql-backed adapters (mysql/sqlite/duckdb): a plain mutation
// run through QueryContext never carries a real affected-row count (only
// sql.Result from ExecContext does), so a mutation with no RETURNING/
// OUTPUT clause is routed to Exec to get a trustworthy RowsAffected; a
// statement that produces a result set — SELECT/WITH/SHOW, or a mutation
// with RETURNING — is routed to Query. Drivers that expose one uniform
// call for both (pgx, ClickHouse) are unaffected either way.
func (s *Session) queryOrExec(ctx context.Context, sql string, params any) (any, error) {
	if producesRows(sql) {
		return s.exec.Query(ctx, sql, params)
	}

	return s.exec.Exec(ctx, sql, params)
}

// producesRows is a lexical fast-path, not a parser: it only needs to be
// right about the statement's leading keyword and the presence of a
// RETURNING/OUTPUT clause. sqlast.Render passes the statement's own
// casing and layout through, so the check upper-cases the text itself.
func producesRows(sql string) bool {
	trimmed := strings.TrimSpace(sql)

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return false
	}

	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH", "SHOW", "EXPLAIN", "PRAGMA", "VALUES", "TABLE":
		return true
	}

	upper := strings.ToUpper(trimmed)

	return strings.Contains(upper, " RETURNING ") || strings.HasSuffix(upper, "RETURNING *") ||
		strings.Contains(upper, " OUTPUT ")
}

// ExecuteMany runs stmt once per parameter set in many, batching via the
// adapter's native batch support when available (spec.md §4.7
// "execute_many").
func (s *Session) ExecuteMany(ctx context.Context, stmt sqlspec.Statement, many []map[string]any) (*ExecuteManyResult, error) {
	if err := s.checkUsable(); err != nil {
		return nil, err
	}

	if len(many) == 0 {
		return &ExecuteManyResult{}, nil
	}

	compiled, err := s.compile(ctx, stmt)
	if err != nil {
		return nil, err
	}

	implicitTx := s.state == txIdle
	if implicitTx {
		if err := s.Begin(ctx); err != nil {
			return nil, err
		}
	}

	normalizedBatch := make([]any, 0, len(many))

	for _, named := range many {
		normalized, err := paramstyle.Normalize(nil, named, compiled.Bindings, paramstyle.NormalizeOptions{})
		if err != nil {
			if implicitTx {
				_ = s.Rollback(ctx)
			}

			return nil, err
		}

		adapted, err := s.adapter.NormalizeExecuteParameters(normalized)
		if err != nil {
			if implicitTx {
				_ = s.Rollback(ctx)
			}

			return nil, err
		}

		normalizedBatch = append(normalizedBatch, adapted)
	}

	batch, err := s.adapter.NormalizeExecuteManyParameters(normalizedBatch)
	if err != nil {
		if implicitTx {
			_ = s.Rollback(ctx)
		}

		return nil, err
	}

	cursor, err := s.exec.ExecMany(ctx, compiled.SQL, batch)
	if err != nil {
		wrapped := s.wrapErr(err, compiled.Fingerprint)

		if implicitTx {
			_ = s.Rollback(ctx)
		}

		return nil, wrapped
	}

	rowsAffected, err := s.adapter.ResolveRowCount(cursor)
	if err != nil {
		if implicitTx {
			_ = s.Rollback(ctx)
		}

		return nil, s.wrapErr(err, compiled.Fingerprint)
	}

	var warnings []result.Warning

	if rowsAffected < 0 {
		rowsAffected = 0
		warnings = append(warnings, result.Warning{Message: "driver reported rows-affected -1 for execute_many; coerced to 0"})
	}

	if implicitTx {
		if err := s.Commit(ctx); err != nil {
			return nil, err
		}
	}

	return &ExecuteManyResult{RowsAffected: rowsAffected, Warnings: warnings}, nil
}

// ExecuteScript runs a multi-statement script verbatim, bypassing the
// compile/cache pipeline (spec.md §4.7 "execute_script"). The script is
// split with sqlast.ParseScript only to count its statements; the raw
// text goes to the executor unchanged.
func (s *Session) ExecuteScript(ctx context.Context, script string) (*ScriptResult, error) {
	if err := s.checkUsable(); err != nil {
		return nil, err
	}

	stmts, err := sqlast.ParseScript(script, s.dialect)
	if err != nil {
		return nil, err
	}

	if err := s.exec.ExecScript(ctx, script); err != nil {
		return nil, s.wrapErr(err, "")
	}

	return &ScriptResult{StatementCount: len(stmts)}, nil
}

// ExecuteArrow runs stmt through Execute and returns its result as a
// columnar table built from the ResultSet's row buffers by
// ResultSet.Arrow (spec.md §4.7 "execute_arrow"). It does not consult the
// capability's Arrow flag and never takes a native Arrow batch from the
// adapter.
func (s *Session) ExecuteArrow(ctx context.Context, stmt sqlspec.Statement) (*ColumnarResult, error) {
	execResult, err := s.Execute(ctx, stmt)
	if err != nil {
		return nil, err
	}

	table, err := execResult.Result.Arrow()
	if err != nil {
		return nil, err
	}

	return &ColumnarResult{Table: table}, nil
}

// Begin opens a transaction, failing if one is already open.
func (s *Session) Begin(ctx context.Context) error {
	if err := s.checkUsable(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == txActive {
		return sqlspec.NewError(sqlspec.KindTransactionError, "session already has an open transaction", sqlspec.ErrSessionInTransaction)
	}

	tx, err := s.exec.Begin(ctx)
	if err != nil {
		return s.wrapErr(err, "")
	}

	s.tx = tx
	s.state = txActive

	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != txActive {
		return sqlspec.NewError(sqlspec.KindTransactionError, "no open transaction to commit", sqlspec.ErrNoTransaction)
	}

	err := s.tx.Commit(ctx)
	s.tx = nil
	s.state = txIdle

	if err != nil {
		return s.wrapErr(err, "")
	}

	return nil
}

// Rollback rolls back the open transaction, including one in the
// aborted state — this is the only verb an aborted Session still accepts
// besides Close, returning it to Idle.
func (s *Session) Rollback(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != txActive && s.state != txAborted {
		return sqlspec.NewError(sqlspec.KindTransactionError, "no open transaction to roll back", sqlspec.ErrNoTransaction)
	}

	err := s.tx.Rollback(ctx)
	s.tx = nil
	s.state = txIdle

	if err != nil {
		return s.wrapErr(err, "")
	}

	return nil
}

// Transaction runs fn inside a new transaction scope, committing on a nil
// return and rolling back (then re-raising) otherwise — the scoped
// begin/commit/rollback primitive of spec.md §4.7. It runs on the Session
// it is called on and acquires no connection itself.
func (s *Session) Transaction(ctx context.Context, fn func(*Session) error) (err error) {
	if err := s.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = s.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(s); err != nil {
		if rbErr := s.Rollback(ctx); rbErr != nil {
			return rbErr
		}

		return err
	}

	return s.Commit(ctx)
}

func formatDiagnostics(diags sqlast.ValidationDiagnostics) string {
	var b strings.Builder

	for i, d := range diags.Diagnostics {
		if i > 0 {
			b.WriteString("; ")
		}

		fmt.Fprintf(&b, "%s: %s", d.Severity, d.Message)
	}

	return b.String()
}

// wrapErr maps a raw driver error through the adapter and marks the
// transaction aborted if one is open, per spec.md §4.7's "an execution
// error inside a transaction moves it to InTxn(Aborted) rather than
// silently closing it".
func (s *Session) wrapErr(err error, fingerprint string) error {
	mapped := s.adapter.MapError(err)

	s.mu.Lock()
	if s.state == txActive {
		s.state = txAborted
	}
	s.mu.Unlock()

	var sqlErr *sqlspec.Error
	if e, ok := mapped.(*sqlspec.Error); ok {
		sqlErr = e
	} else {
		sqlErr = sqlspec.NewError(sqlspec.KindExecutionError, mapped.Error(), mapped)
	}

	if fingerprint != "" {
		sqlErr = sqlErr.WithFingerprint(fingerprint)
	}

	return sqlErr
}
