package builder

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

type mergeClause struct {
	kind string // "matched" | "not_matched" | "not_matched_by_source"
	sets []assignment
	ins  InsertValues
	del  bool
}

// InsertValues is the column/value pair a MERGE's WHEN NOT MATCHED clause
// inserts.
type InsertValues struct {
	Columns []string
	Values  []any
}

// MergeBuilder is the fluent MERGE/UPSERT builder (spec.md §4.5): analogous
// to Update/Delete, with a WHEN MATCHED / WHEN NOT MATCHED / WHEN NOT
// MATCHED BY SOURCE clause set. The builder always emits standard MERGE
// text; sqlast.Render does not translate it into another dialect form. It
// rewrites only the placeholders and surfaces UnsupportedOperation for a
// capability without FeatureMerge (spec.md §4.2 edge case).
type MergeBuilder struct {
	target  string
	source  string
	on      string
	clauses []mergeClause
	dialect sqlspec.Dialect
}

// Merge starts a MERGE builder: target is the table being merged into,
// source is the table or subquery providing candidate rows, on is the
// join predicate between them.
func Merge(target, source, on string) MergeBuilder {
	return MergeBuilder{target: target, source: source, on: on}
}

func (b MergeBuilder) clone() MergeBuilder {
	cp := b
	cp.clauses = append([]mergeClause(nil), b.clauses...)

	return cp
}

// WhenMatched appends a WHEN MATCHED THEN UPDATE SET ... clause.
func (b MergeBuilder) WhenMatched(sets ...assignment) MergeBuilder {
	cp := b.clone()
	cp.clauses = append(cp.clauses, mergeClause{kind: "matched", sets: sets})

	return cp
}

// WhenMatchedDelete appends a WHEN MATCHED THEN DELETE clause.
func (b MergeBuilder) WhenMatchedDelete() MergeBuilder {
	cp := b.clone()
	cp.clauses = append(cp.clauses, mergeClause{kind: "matched", del: true})

	return cp
}

// WhenNotMatched appends a WHEN NOT MATCHED THEN INSERT clause.
func (b MergeBuilder) WhenNotMatched(ins InsertValues) MergeBuilder {
	cp := b.clone()
	cp.clauses = append(cp.clauses, mergeClause{kind: "not_matched", ins: ins})

	return cp
}

// WhenNotMatchedBySource appends a WHEN NOT MATCHED BY SOURCE clause
// (update or delete), available on backends that support it (SQL Server,
// some PostgreSQL-compatible engines).
func (b MergeBuilder) WhenNotMatchedBySource(sets ...assignment) MergeBuilder {
	cp := b.clone()
	cp.clauses = append(cp.clauses, mergeClause{kind: "not_matched_by_source", sets: sets})

	return cp
}

// Assign builds one "col = value" assignment for use with WhenMatched /
// WhenNotMatchedBySource.
func Assign(col string, value any) assignment { return assignment{col: col, value: value} }

// WithDialect sets the dialect hint.
func (b MergeBuilder) WithDialect(d sqlspec.Dialect) MergeBuilder {
	cp := b.clone()
	cp.dialect = d

	return cp
}

// ToStatement freezes the builder into a Statement.
func (b MergeBuilder) ToStatement() (sqlspec.Statement, error) {
	if len(b.clauses) == 0 {
		return sqlspec.Statement{}, sqlspec.NewError(sqlspec.KindCompileError,
			fmt.Sprintf("MERGE into %s has no WHEN clauses", b.target), nil)
	}

	pc := newParamCollector()
	pc.dialect = b.dialect

	var buf strings.Builder

	fmt.Fprintf(&buf, "MERGE INTO %s USING %s ON %s", b.target, b.source, b.on)

	for _, c := range b.clauses {
		switch c.kind {
		case "matched":
			buf.WriteString(" WHEN MATCHED THEN ")

			if c.del {
				buf.WriteString("DELETE")
				continue
			}

			buf.WriteString("UPDATE SET " + renderAssignments(c.sets, pc))
		case "not_matched":
			fmt.Fprintf(&buf, " WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s)",
				strings.Join(c.ins.Columns, ", "), renderValues(c.ins.Values, pc))
		case "not_matched_by_source":
			buf.WriteString(" WHEN NOT MATCHED BY SOURCE THEN ")

			if len(c.sets) == 0 {
				buf.WriteString("DELETE")
			} else {
				buf.WriteString("UPDATE SET " + renderAssignments(c.sets, pc))
			}
		}
	}

	return toStatement(buf.String(), pc).WithDialect(b.dialect), nil
}

func renderAssignments(sets []assignment, pc *paramCollector) string {
	parts := make([]string, len(sets))
	for i, a := range sets {
		parts[i] = fmt.Sprintf("%s = %s", a.col, pc.bind(a.value))
	}

	return strings.Join(parts, ", ")
}

func renderValues(values []any, pc *paramCollector) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = pc.bind(v)
	}

	return strings.Join(parts, ", ")
}
