package builder

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMergeBuilderFullUpsert(t *testing.T) {
	stmt, err := Merge("target_users", "staged_users", "target_users.id = staged_users.id").
		WhenMatched(Assign("name", "ada")).
		WhenNotMatched(InsertValues{Columns: []string{"id", "name"}, Values: []any{1, "ada"}}).
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t,
		"MERGE INTO target_users USING staged_users ON target_users.id = staged_users.id"+
			" WHEN MATCHED THEN UPDATE SET name = :b1"+
			" WHEN NOT MATCHED THEN INSERT (id, name) VALUES (:b2, :b3)",
		stmt.Raw())
}

func TestMergeBuilderWhenMatchedDelete(t *testing.T) {
	stmt, err := Merge("target_users", "staged_users", "target_users.id = staged_users.id").
		WhenMatchedDelete().
		ToStatement()

	assert.NoError(t, err)
	assert.Equal(t,
		"MERGE INTO target_users USING staged_users ON target_users.id = staged_users.id WHEN MATCHED THEN DELETE",
		stmt.Raw())
}

func TestMergeBuilderRejectsNoClauses(t *testing.T) {
	_, err := Merge("target_users", "staged_users", "target_users.id = staged_users.id").ToStatement()
	assert.Error(t, err)
}
