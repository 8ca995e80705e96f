package stack

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestStatementStackIsImmutable(t *testing.T) {
	base := NewStack().Append(sqlspec.NewStatement("SELECT 1"))
	extended := base.With(StackOperation{Statement: sqlspec.NewStatement("SELECT 2")})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, extended.Len())
}

func TestStatementStackOperationsOrderPreserved(t *testing.T) {
	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders ...")).
		Append(sqlspec.NewStatement("INSERT INTO line_items ..."))

	ops := s.Operations()

	assert.Equal(t, 2, len(ops))
	assert.Equal(t, "INSERT INTO orders ...", ops[0].Statement.Raw())
	assert.Equal(t, "INSERT INTO line_items ...", ops[1].Statement.Raw())
}

func TestStatementStackFingerprintStableAndOrderSensitive(t *testing.T) {
	a := NewStack().
		Append(sqlspec.NewStatement("SELECT 1")).
		Append(sqlspec.NewStatement("SELECT 2"))

	b := NewStack().
		Append(sqlspec.NewStatement("SELECT 1")).
		Append(sqlspec.NewStatement("SELECT 2"))

	reordered := NewStack().
		Append(sqlspec.NewStatement("SELECT 2")).
		Append(sqlspec.NewStatement("SELECT 1"))

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), reordered.Fingerprint())
}

func TestStatementStackFingerprintEmpty(t *testing.T) {
	assert.Equal(t, NewStack().Fingerprint(), NewStack().Fingerprint())
}

func TestStatementStackIsHeterogeneous(t *testing.T) {
	s := NewStack().
		Append(sqlspec.NewStatement("INSERT INTO orders (id) VALUES (1)")).
		AppendMany(sqlspec.NewStatement("INSERT INTO line_items (order_id, sku) VALUES (:order_id, :sku)"),
			[]map[string]any{{"order_id": 1, "sku": "a"}, {"order_id": 1, "sku": "b"}}).
		AppendScript("VACUUM; ANALYZE;").
		AppendArrow(sqlspec.NewStatement("SELECT * FROM orders"))

	ops := s.Operations()

	assert.Equal(t, 4, len(ops))
	assert.Equal(t, MethodExecute, ops[0].Method)
	assert.Equal(t, MethodExecuteMany, ops[1].Method)
	assert.Equal(t, 2, len(ops[1].Many))
	assert.Equal(t, MethodExecuteScript, ops[2].Method)
	assert.Equal(t, "VACUUM; ANALYZE;", ops[2].Script)
	assert.Equal(t, MethodExecuteArrow, ops[3].Method)
}

func TestStatementStackFingerprintDistinguishesMethod(t *testing.T) {
	executed := NewStack().Append(sqlspec.NewStatement("DO SOMETHING"))
	scripted := NewStack().AppendScript("DO SOMETHING")

	assert.NotEqual(t, executed.Fingerprint(), scripted.Fingerprint())
}
