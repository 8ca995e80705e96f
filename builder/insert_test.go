package builder

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestInsertBuilderSingleRow(t *testing.T) {
	stmt, err := Insert("users").
		Columns("id", "name").
		Values(1, "ada").
		Returning("id").
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id, name) VALUES (:b1, :b2) RETURNING id", stmt.Raw())
}

func TestInsertBuilderMultiRow(t *testing.T) {
	stmt, err := Insert("users").
		Columns("id", "name").
		Values(1, "ada").
		Values(2, "grace").
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (id, name) VALUES (:b1, :b2), (:b3, :b4)", stmt.Raw())
}

func TestInsertBuilderRejectsMismatchedRowWidth(t *testing.T) {
	_, err := Insert("users").
		Columns("id", "name").
		Values(1).
		ToStatement()

	assert.Error(t, err)
}

func TestInsertBuilderRejectsNoColumns(t *testing.T) {
	_, err := Insert("users").Values(1).ToStatement()
	assert.Error(t, err)
}

func TestUpdateBuilderSetWhereReturning(t *testing.T) {
	stmt, err := Update("users").
		Set("name", "ada").
		Set("active", true).
		Where(Col("id").Eq(1)).
		Returning("id").
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = :b1, active = :b2 WHERE id = :b3 RETURNING id", stmt.Raw())
}

func TestUpdateBuilderRejectsEmptySet(t *testing.T) {
	_, err := Update("users").Where(Col("id").Eq(1)).ToStatement()
	assert.Error(t, err)
}

func TestDeleteBuilderWhereReturning(t *testing.T) {
	stmt, err := Delete("users").
		Where(Col("id").Eq(1)).
		Returning("id").
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = :b1 RETURNING id", stmt.Raw())
}
