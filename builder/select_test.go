package builder

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestSelectBuilderRendersWhereJoinOrderLimit(t *testing.T) {
	stmt, err := Select("id", "name").
		From("users").
		Join("LEFT", "orders", "orders.user_id = users.id").
		Where(Col("active").Eq(true)).
		OrderBy("name", "ASC").
		Limit(10).
		Offset(5).
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t,
		"SELECT id, name FROM users LEFT JOIN orders ON orders.user_id = users.id WHERE active = :b1 ORDER BY name ASC LIMIT :b2 OFFSET :b3",
		stmt.Raw())
}

func TestSelectBuilderDefaultsToStar(t *testing.T) {
	stmt, err := Select().From("users").ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users", stmt.Raw())
}

func TestSelectBuilderGroupByHaving(t *testing.T) {
	stmt, err := Select("status", "COUNT(*)").
		From("orders").
		GroupBy("status").
		Having(Col("COUNT(*)").Gt(1)).
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t,
		"SELECT status, COUNT(*) FROM orders GROUP BY status HAVING COUNT(*) > :b1",
		stmt.Raw())
}

func TestSelectBuilderInStatementSubquery(t *testing.T) {
	sub := Select("id").From("banned_users")

	stmt, err := Select("*").
		From("users").
		Where(Col("id").InStatement(sub)).
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE id IN (SELECT id FROM banned_users)", stmt.Raw())
}

func TestSelectBuilderIsImmutable(t *testing.T) {
	base := Select("id").From("users")
	withWhere := base.Where(Col("active").Eq(true))

	baseStmt, err := base.ToStatement()
	assert.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users", baseStmt.Raw())

	withWhereStmt, err := withWhere.ToStatement()
	assert.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE active = :b1", withWhereStmt.Raw())
}

func TestSelectBuilderWithDialectAffectsVectorPredicate(t *testing.T) {
	stmt, err := Select("id").
		From("docs").
		Where(Col("embedding").VectorDistance("cosine", []float64{0.1, 0.2}).Within("<", 0.5)).
		WithDialect(sqlspec.DialectPostgres).
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, sqlspec.DialectPostgres, stmt.Dialect())
	assert.Contains(t, stmt.Raw(), "<=>")
}
