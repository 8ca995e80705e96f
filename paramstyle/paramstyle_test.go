package paramstyle

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestDetectIgnoresPlaceholderInsideStringLiteral(t *testing.T) {
	sql := "SELECT 'What?' AS q, id FROM t WHERE id = ?"

	placeholders, err := Scan(sql)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(placeholders))
	assert.Equal(t, sqlspec.StyleQmark, placeholders[0].Style)
}

func TestDetectIgnoresCastOperator(t *testing.T) {
	styles, err := Detect("SELECT id::text FROM t WHERE id = :id")
	assert.NoError(t, err)
	assert.Equal(t, map[sqlspec.ParamStyle]bool{sqlspec.StyleNamedColon: true}, styles)
}

func TestDetectTreatsMySQLAtVariablesAsNamedAt(t *testing.T) {
	styles, err := Detect("SET @total := (SELECT count FROM t WHERE id = @id)")
	assert.NoError(t, err)
	assert.Equal(t, map[sqlspec.ParamStyle]bool{sqlspec.StyleNamedAt: true}, styles)
}

func TestDetectSkipsLineAndBlockComments(t *testing.T) {
	sql := "SELECT id -- what about :name?\nFROM t /* :also_ignored */ WHERE id = ?"

	styles, err := Detect(sql)
	assert.NoError(t, err)
	assert.Equal(t, map[sqlspec.ParamStyle]bool{sqlspec.StyleQmark: true}, styles)
}

func TestDetectSkipsDollarQuotedBlocks(t *testing.T) {
	sql := "CREATE FUNCTION f() RETURNS void AS $$ SELECT :not_a_param $$ LANGUAGE sql"

	styles, err := Detect(sql)
	assert.NoError(t, err)
	assert.Equal(t, map[sqlspec.ParamStyle]bool{}, styles)
}

func TestRewriteNamedToNumeric(t *testing.T) {
	sql := "SELECT * FROM users WHERE name = :name AND age > :age"

	target, bindings, err := Rewrite(sql, sqlspec.StyleNumeric)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM users WHERE name = $1 AND age > $2", target)

	named := map[string]any{"name": "Alice", "age": 25}

	driverParams, err := Normalize(nil, named, bindings, NormalizeOptions{})
	assert.NoError(t, err)
	assert.Equal(t, []any{"Alice", 25}, driverParams)
}

func TestRewriteRoundTrip(t *testing.T) {
	sql := "SELECT * FROM t WHERE a = :a AND b = :b AND a = :a"

	numericSQL, toNumeric, err := Rewrite(sql, sqlspec.StyleNumeric)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2 AND a = $1", numericSQL)

	backToNamed, _, err := Rewrite(numericSQL, sqlspec.StyleNamedColon)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = :p1 AND b = :p2 AND a = :p1", backToNamed)

	params, err := Normalize(nil, map[string]any{"a": 1, "b": 2}, toNumeric, NormalizeOptions{})
	assert.NoError(t, err)
	assert.Equal(t, []any{1, 2}, params)
}

func TestNormalizeMissingNamedParameter(t *testing.T) {
	_, bindings, err := Rewrite("SELECT * FROM t WHERE id = :id", sqlspec.StyleNumeric)
	assert.NoError(t, err)

	_, err = Normalize(nil, map[string]any{"user_id": 1}, bindings, NormalizeOptions{})
	assert.Error(t, err)
	assert.True(t, sqlspec.IsKind(err, sqlspec.KindParameterError))
}

func TestRequireSingleStyleRejectsMixing(t *testing.T) {
	cap := sqlspec.CapabilityFor(sqlspec.DialectPostgres)

	_, err := RequireSingleStyle("SELECT * FROM t WHERE a = ? AND b = $1", cap)
	assert.Error(t, err)
}

func TestRewriteQmarkRepeatsPositionalOccurrences(t *testing.T) {
	target, bindings, err := Rewrite("SELECT * FROM t WHERE a = ? OR a = ?", sqlspec.StyleQmark)
	assert.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = ? OR a = ?", target)
	assert.Equal(t, 2, len(bindings))

	params, err := Normalize([]any{1, 2}, nil, bindings, NormalizeOptions{})
	assert.NoError(t, err)
	assert.Equal(t, []any{1, 2}, params)
}
