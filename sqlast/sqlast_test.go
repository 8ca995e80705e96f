package sqlast

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/sqlspec/sqlspec"
)

func TestParseClassifiesStatementKind(t *testing.T) {
	cases := map[string]StatementKind{
		"SELECT id FROM users":             KindSelect,
		"INSERT INTO users (id) VALUES (1)": KindInsert,
		"UPDATE users SET name = ?":         KindUpdate,
		"DELETE FROM users WHERE id = ?":    KindDelete,
		"WITH t AS (SELECT 1) SELECT * FROM t": KindSelect,
	}

	for sql, want := range cases {
		ast, err := Parse(sql, sqlspec.DialectGeneric)
		assert.NoError(t, err)
		assert.Equal(t, want, ast.Kind, sql)
	}
}

func TestParseExtractsFromTable(t *testing.T) {
	ast, err := Parse("SELECT id FROM users AS u WHERE u.active = ?", sqlspec.DialectGeneric)
	assert.NoError(t, err)
	assert.True(t, ast.HasWhere)
	assert.Equal(t, 1, len(ast.Tables))
	assert.Equal(t, "USERS", ast.Tables[0].Name)
}

func TestParseExtractsJoinAndDetectsMissingOn(t *testing.T) {
	ast, err := Parse("SELECT * FROM a JOIN b ON a.id = b.id", sqlspec.DialectGeneric)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(ast.Joins))
	assert.True(t, ast.Joins[0].HasOn)

	diags := Validate(ast, nil)
	assert.False(t, diags.HasErrors())
}

func TestValidateFlagsJoinWithoutPredicate(t *testing.T) {
	ast, err := Parse("SELECT * FROM a JOIN b", sqlspec.DialectGeneric)
	assert.NoError(t, err)

	diags := Validate(ast, nil)
	assert.True(t, diags.HasErrors())
}

func TestValidateWarnsUpdateWithoutWhere(t *testing.T) {
	ast, err := Parse("UPDATE users SET active = ?", sqlspec.DialectGeneric)
	assert.NoError(t, err)

	diags := Validate(ast, nil)
	assert.False(t, diags.HasErrors())
	assert.Equal(t, 1, len(diags.Diagnostics))
	assert.Equal(t, "warning", diags.Diagnostics[0].Severity)
}

func TestValidateRejectsDeniedKind(t *testing.T) {
	ast, err := Parse("DELETE FROM users WHERE id = ?", sqlspec.DialectGeneric)
	assert.NoError(t, err)

	diags := Validate(ast, DenyList{KindDelete: true})
	assert.True(t, diags.HasErrors())
}

func TestRenderRewritesParamStyle(t *testing.T) {
	ast, err := Parse("SELECT * FROM users WHERE id = :id AND status = :status", sqlspec.DialectGeneric)
	assert.NoError(t, err)

	cap := sqlspec.DriverCapability{
		Dialect:         sqlspec.DialectPostgres,
		SupportedStyles: []sqlspec.ParamStyle{sqlspec.StyleNumeric},
		PreferredStyle:  sqlspec.StyleNumeric,
	}

	sql, bindings, err := Render(ast, sqlspec.DialectPostgres, sqlspec.StyleNumeric, cap)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(bindings))
	assert.Contains(t, sql, "$1")
	assert.Contains(t, sql, "$2")
}

func TestRenderRejectsMergeWithoutCapability(t *testing.T) {
	ast := &AST{Raw: "MERGE INTO t USING s ON t.id = s.id", Kind: KindMerge}

	cap := sqlspec.DriverCapability{SupportedStyles: []sqlspec.ParamStyle{sqlspec.StyleQmark}}

	_, _, err := Render(ast, sqlspec.DialectSQLite, sqlspec.StyleQmark, cap)
	assert.Error(t, err)
	assert.True(t, sqlspec.IsKind(err, sqlspec.KindUnsupportedOperation))
}

func TestParseScriptSplitsOnTopLevelSemicolons(t *testing.T) {
	script := "SELECT 1; INSERT INTO t (a) VALUES ('x;y'); DELETE FROM t WHERE a = 1;"

	asts, err := ParseScript(script, sqlspec.DialectGeneric)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(asts))
	assert.Equal(t, KindSelect, asts[0].Kind)
	assert.Equal(t, KindInsert, asts[1].Kind)
	assert.Equal(t, KindDelete, asts[2].Kind)
}

func TestAnalyzeReportsTablesAndAggregates(t *testing.T) {
	ast, err := Parse("SELECT COUNT(id) FROM orders WHERE status = 'open'", sqlspec.DialectGeneric)
	assert.NoError(t, err)

	report := Analyze(ast)
	assert.Equal(t, []string{"ORDERS"}, report.TablesRead)
	assert.Equal(t, 1, len(report.Aggregates))
	assert.Equal(t, []string{"STATUS"}, report.FilterColumns)
}

func TestAnalysisReportToXML(t *testing.T) {
	report := AnalysisReport{TablesRead: []string{"USERS"}}

	xml, err := report.ToXML()
	assert.NoError(t, err)
	assert.Contains(t, xml, "USERS")
}
