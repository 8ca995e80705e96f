package sqlast

import "fmt"

// DenyList names statement kinds Validate rejects outright, e.g. to keep a
// read-only session from ever compiling a DELETE. Empty by default.
type DenyList map[StatementKind]bool

// Validate runs the bounded set of checks spec.md §4.2 names: required
// clause presence for DML statements, balanced JOINs, aggregate use
// outside GROUP BY, and forbidden statements.
func Validate(ast *AST, deny DenyList) ValidationDiagnostics {
	var diags []Diagnostic

	if deny[ast.Kind] {
		diags = append(diags, Diagnostic{Severity: "error", Message: fmt.Sprintf("statement kind %s is not permitted", ast.Kind)})
	}

	switch ast.Kind {
	case KindSelect:
		if len(ast.Tables) == 0 && len(ast.Joins) == 0 {
			diags = append(diags, Diagnostic{Severity: "warning", Message: "SELECT has no FROM clause"})
		}
	case KindUpdate, KindDelete:
		if !ast.HasWhere {
			diags = append(diags, Diagnostic{Severity: "warning", Message: fmt.Sprintf("%s without WHERE affects every row", ast.Kind)})
		}
	case KindInsert:
		if len(ast.Tables) == 0 {
			diags = append(diags, Diagnostic{Severity: "error", Message: "INSERT missing target table"})
		}
	}

	for _, j := range ast.Joins {
		if !j.HasOn && !j.HasUsing && j.Kind != "CROSS" {
			diags = append(diags, Diagnostic{Severity: "error", Message: fmt.Sprintf("%s JOIN on %q missing ON/USING predicate", j.Kind, j.Table.Name)})
		}
	}

	if len(ast.Select) > 0 {
		hasAggregate := false
		for _, item := range ast.Select {
			if item.IsAggregate {
				hasAggregate = true
			}
		}
		if hasAggregate && len(ast.GroupBy) == 0 {
			for _, item := range ast.Select {
				if !item.IsAggregate {
					diags = append(diags, Diagnostic{Severity: "error", Message: fmt.Sprintf("column %q used outside GROUP BY alongside an aggregate", item.Expression)})
					break
				}
			}
		}
	}

	return ValidationDiagnostics{Diagnostics: diags}
}
