package stack

import (
	"context"
	"errors"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
)

// ErrSkipped marks a StackResult entry for an operation that was never
// attempted because an earlier operation failed under FailFast.
var ErrSkipped = errors.New("stack operation skipped after an earlier failure")

// StackResult is Execute's return value: one result (or nil on failure)
// per StackOperation, positionally aligned with the stack's own ordering —
// index i of Results/Errors always corresponds to index i of the stack.
// The concrete type behind Results[i] depends on that operation's Method:
// *driver.ExecuteResult for MethodExecute, *driver.ExecuteManyResult for
// MethodExecuteMany, *driver.ScriptResult for MethodExecuteScript, and
// *driver.ColumnarResult for MethodExecuteArrow.
type StackResult struct {
	Results []any
	Errors  []error
}

// Failed reports whether any operation in the run produced an error.
func (r *StackResult) Failed() bool {
	for _, err := range r.Errors {
		if err != nil {
			return true
		}
	}

	return false
}

// Execute runs every operation in s against session on one connection and
// transaction, per spec.md §4.8. A driver whose capability advertises
// NativePipeline (e.g. ClickHouse, Postgres via pgx pipelining) takes the
// native path, letting the backend's own batching reduce round trips;
// other drivers take the sequential path. Both honor mode identically:
//
//   - FailFast (continue_on_error=false): stop at the first failure; every
//     operation after it is recorded with ErrSkipped; the transaction rolls
//     back.
//   - CollectErrors (continue_on_error=true): attempt every operation
//     regardless of earlier failures; the transaction commits only if none
//     failed, otherwise rolls back. Once a failing execute moves the
//     session's transaction to InTxn(Aborted) (spec.md §4.7), the Session
//     itself rejects every later attempt until rollback — so "attempts every
//     operation" does not mean later operations get a real chance to
//     succeed, only that Execute keeps calling them rather than skipping.
func Execute(ctx context.Context, session *driver.Session, s StatementStack, mode Mode) (*StackResult, error) {
	ops := s.Operations()
	out := &StackResult{
		Results: make([]any, len(ops)),
		Errors:  make([]error, len(ops)),
	}

	txErr := session.Transaction(ctx, func(tx *driver.Session) error {
		run := sequentialRun
		if session.Capability().NativePipeline {
			run = nativeRun
		}

		return run(ctx, tx, ops, mode, out)
	})

	if txErr != nil {
		return out, sqlspec.NewError(sqlspec.KindStackExecutionError, "stack execution failed", sqlspec.ErrStackItemFailed)
	}

	return out, nil
}

type runFunc func(ctx context.Context, tx *driver.Session, ops []StackOperation, mode Mode, out *StackResult) error

// sequentialRun executes each operation one at a time on tx's connection.
func sequentialRun(ctx context.Context, tx *driver.Session, ops []StackOperation, mode Mode, out *StackResult) error {
	for i, op := range ops {
		rs, err := runOne(ctx, tx, op)
		out.Results[i] = rs
		out.Errors[i] = err

		if err != nil && mode == FailFast {
			markSkipped(out, i+1)
			return err
		}
	}

	if out.Failed() {
		return sqlspec.ErrStackItemFailed
	}

	return nil
}

// nativeRun is identical to sequentialRun today: the fixed per-driver
// helper set has no heterogeneous-statement batching verb, so a capable
// backend's round-trip reduction happens at the transaction level (one
// connection checkout, no commit between statements) rather than via a
// single wire batch. This is the extension point a future native batching
// verb would hook into without changing Execute's contract.
func nativeRun(ctx context.Context, tx *driver.Session, ops []StackOperation, mode Mode, out *StackResult) error {
	return sequentialRun(ctx, tx, ops, mode, out)
}

func markSkipped(out *StackResult, from int) {
	for i := from; i < len(out.Errors); i++ {
		out.Errors[i] = ErrSkipped
	}
}

// runOne dispatches op to the Session verb its Method names — the
// heterogeneous core of the stack, letting one run mix plain statements,
// batched parameter sets, raw scripts, and columnar reads.
func runOne(ctx context.Context, session *driver.Session, op StackOperation) (any, error) {
	switch op.Method {
	case MethodExecuteMany:
		return session.ExecuteMany(ctx, op.Statement, op.Many)
	case MethodExecuteScript:
		return session.ExecuteScript(ctx, op.Script)
	case MethodExecuteArrow:
		stmt := bindParams(op)
		return session.ExecuteArrow(ctx, stmt)
	default:
		stmt := bindParams(op)
		return session.Execute(ctx, stmt)
	}
}

// bindParams applies a stack operation's bound positional/named
// parameters to its Statement, matching Statement.WithParams/MergeParams
// semantics: a bare Append carries neither and leaves the statement's own
// bound parameters untouched.
func bindParams(op StackOperation) sqlspec.Statement {
	stmt := op.Statement

	if len(op.Positional) > 0 {
		stmt = stmt.WithParams(op.Positional, nil)
	}

	if len(op.Params) > 0 {
		stmt = stmt.MergeParams(op.Params)
	}

	return stmt
}
