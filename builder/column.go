// Package builder implements the Filter/Builder Pipeline: a fluent query
// builder producing Statements, and the Filter protocol that augments a
// Statement by AST-level rewriting instead of caller string concatenation
// (spec.md §4.5).
//
// "Dynamic attribute access" facades (sql.embedding.vector_distance(...))
// are replaced per the Design Notes with an explicit Column value type and
// method dispatch, which is type-checkable in a systems language where the
// dynamic-language facade is not.
package builder

import "fmt"

// Column is a typed reference to a table column, replacing the dynamic
// attribute-access facade the source system used for predicate
// construction (DESIGN.md Design Notes §9).
type Column struct {
	name string
}

// Col builds a Column reference by name. A qualified name ("t.id") is
// passed through unchanged.
func Col(name string) Column { return Column{name: name} }

// Name returns the column's SQL text.
func (c Column) Name() string { return c.name }

func (c Column) cmp(op string, value any) Predicate {
	return comparePredicate{col: c, op: op, value: value}
}

// Eq builds "col = value".
func (c Column) Eq(value any) Predicate { return c.cmp("=", value) }

// Neq builds "col <> value".
func (c Column) Neq(value any) Predicate { return c.cmp("<>", value) }

// Lt builds "col < value".
func (c Column) Lt(value any) Predicate { return c.cmp("<", value) }

// Lte builds "col <= value".
func (c Column) Lte(value any) Predicate { return c.cmp("<=", value) }

// Gt builds "col > value".
func (c Column) Gt(value any) Predicate { return c.cmp(">", value) }

// Gte builds "col >= value".
func (c Column) Gte(value any) Predicate { return c.cmp(">=", value) }

// Like builds "col LIKE value".
func (c Column) Like(value any) Predicate { return c.cmp("LIKE", value) }

// In builds "col IN (v1, v2, ...)". An empty values list builds a
// predicate that is always false (1 = 0), matching the common SQL
// convention for an empty IN-list.
func (c Column) In(values ...any) Predicate {
	return inPredicate{col: c, values: values}
}

// InStatement builds "col IN (<subquery>)", binding sub's own parameters
// alongside the outer statement's.
func (c Column) InStatement(sub SubqueryStatement) Predicate {
	return inSubqueryPredicate{col: c, sub: sub}
}

// IsNull builds "col IS NULL".
func (c Column) IsNull() Predicate { return rawPredicate{sql: fmt.Sprintf("%s IS NULL", c.name)} }

// IsNotNull builds "col IS NOT NULL".
func (c Column) IsNotNull() Predicate {
	return rawPredicate{sql: fmt.Sprintf("%s IS NOT NULL", c.name)}
}

// VectorDistance returns a vector-distance expression over this column
// against target, rendered with the dialect-specific operator or function
// the predicate DSL names in spec.md §4.5 ("a vector-distance expression
// that renders dialect-specific operators/functions").
func (c Column) VectorDistance(metric string, target []float64) VectorExpr {
	return VectorExpr{col: c, metric: metric, target: target}
}

// VectorExpr is a vector-distance expression; Within turns it into a
// Predicate comparing the computed distance against a threshold.
type VectorExpr struct {
	col    Column
	metric string
	target []float64
}

// Within builds a predicate requiring the vector distance to satisfy op
// against threshold, e.g. VectorDistance("cosine", v).Within("<", 0.2).
func (v VectorExpr) Within(op string, threshold float64) Predicate {
	return vectorPredicate{expr: v, op: op, threshold: threshold}
}
