package stack

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	"github.com/sqlspec/sqlspec/result"
)

// fakeExecutor is a minimal driver.RawExecutor: every Exec succeeds with a
// nil cursor unless its sql text equals failOn, and Begin hands back a
// fakeTx that records whether it was committed or rolled back.
type fakeExecutor struct {
	tx      *fakeTx
	execLog []string
	failOn  string
}

type fakeTx struct {
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

func (e *fakeExecutor) Exec(ctx context.Context, sql string, params any) (any, error) {
	e.execLog = append(e.execLog, sql)
	if e.failOn != "" && sql == e.failOn {
		return nil, errors.New("fake: statement failed")
	}
	return "ok", nil
}

func (e *fakeExecutor) Query(ctx context.Context, sql string, params any) (any, error) {
	return e.Exec(ctx, sql, params)
}

func (e *fakeExecutor) ExecMany(ctx context.Context, sql string, many any) (any, error) {
	return e.Exec(ctx, sql, nil)
}

func (e *fakeExecutor) ExecScript(ctx context.Context, script string) error { return nil }

func (e *fakeExecutor) Begin(ctx context.Context) (driver.Tx, error) {
	e.tx = &fakeTx{}
	return e.tx, nil
}

func (e *fakeExecutor) Cancel(ctx context.Context) error { return nil }
func (e *fakeExecutor) Close() error                     { return nil }

// fakeAdapter treats every statement as a bare mutation with one row
// affected and never fails to map an error.
type fakeAdapter struct{}

func (fakeAdapter) Capability() sqlspec.DriverCapability {
	return sqlspec.CapabilityFor(sqlspec.DialectGeneric)
}

func (fakeAdapter) CollectRows(ctx context.Context, cursor any) ([]result.Row, []result.Column, error) {
	return nil, nil, nil
}

func (fakeAdapter) ResolveRowCount(cursor any) (int64, error) { return 1, nil }

func (fakeAdapter) NormalizeExecuteParameters(params any) (any, error) { return params, nil }

func (fakeAdapter) NormalizeExecuteManyParameters(many []any) (any, error) { return many, nil }

func (fakeAdapter) MapError(err error) error { return err }

func newTestSession(exec *fakeExecutor) *driver.Session {
	return driver.NewSession(exec, fakeAdapter{}, nil, nil)
}

func TestExecuteFailFastSkipsRemainderAndRollsBack(t *testing.T) {
	exec := &fakeExecutor{failOn: "UPDATE orders SET status = 'shipped'"}
	session := newTestSession(exec)

	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders (id) VALUES (1)")).
		Append(sqlspec.NewStatement("UPDATE orders SET status = 'shipped'")).
		Append(sqlspec.NewStatement("INSERT INTO audit_log (msg) VALUES ('done')"))

	out, err := Execute(context.Background(), session, s, FailFast)

	assert.Error(t, err)
	assert.True(t, out.Failed())
	assert.Error(t, out.Errors[1])
	assert.Equal(t, ErrSkipped, out.Errors[2])
	assert.True(t, exec.tx.rolledBack)
	assert.False(t, exec.tx.committed)
}

// CollectErrors still attempts every operation rather than stopping at the
// first failure, but once a failing execute moves the Session's
// transaction to InTxn(Aborted) (spec.md §4.7's state machine), every
// operation after it is rejected by the Session itself before reaching
// the backend — matching real aborted-transaction semantics rather than
// pretending those later attempts would have succeeded.
func TestExecuteCollectErrorsAttemptsEveryOperation(t *testing.T) {
	exec := &fakeExecutor{failOn: "UPDATE orders SET status = 'shipped'"}
	session := newTestSession(exec)

	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders (id) VALUES (1)")).
		Append(sqlspec.NewStatement("UPDATE orders SET status = 'shipped'")).
		Append(sqlspec.NewStatement("INSERT INTO audit_log (msg) VALUES ('done')"))

	out, err := Execute(context.Background(), session, s, CollectErrors)

	assert.Error(t, err)
	assert.NoError(t, out.Errors[0])
	assert.Error(t, out.Errors[1])
	assert.Error(t, out.Errors[2])
	assert.True(t, exec.tx.rolledBack)
	assert.False(t, exec.tx.committed)
}

func TestExecuteDispatchesHeterogeneousMethods(t *testing.T) {
	exec := &fakeExecutor{}
	session := newTestSession(exec)

	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders (id) VALUES (1)")).
		AppendMany(sqlspec.NewStatement("INSERT INTO line_items (order_id, sku) VALUES (1, 'a')"),
			[]map[string]any{{}, {}}).
		AppendScript("VACUUM;")

	out, err := Execute(context.Background(), session, s, FailFast)

	assert.NoError(t, err)
	assert.False(t, out.Failed())

	if _, ok := out.Results[0].(*driver.ExecuteResult); !ok {
		t.Fatalf("expected *driver.ExecuteResult for index 0, got %T", out.Results[0])
	}

	if _, ok := out.Results[1].(*driver.ExecuteManyResult); !ok {
		t.Fatalf("expected *driver.ExecuteManyResult for index 1, got %T", out.Results[1])
	}

	if _, ok := out.Results[2].(*driver.ScriptResult); !ok {
		t.Fatalf("expected *driver.ScriptResult for index 2, got %T", out.Results[2])
	}

	assert.True(t, exec.tx.committed)
}

func TestExecuteCommitsWhenEverythingSucceeds(t *testing.T) {
	exec := &fakeExecutor{}
	session := newTestSession(exec)

	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders (id) VALUES (1)")).
		Append(sqlspec.NewStatement("INSERT INTO audit_log (msg) VALUES ('done')"))

	out, err := Execute(context.Background(), session, s, FailFast)

	assert.NoError(t, err)
	assert.False(t, out.Failed())
	assert.True(t, exec.tx.committed)
	assert.False(t, exec.tx.rolledBack)
}
