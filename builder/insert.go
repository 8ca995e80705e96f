package builder

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

// InsertBuilder is the fluent INSERT builder (spec.md §4.5).
type InsertBuilder struct {
	table     string
	columns   []string
	rows      [][]any
	returning []string
	dialect   sqlspec.Dialect
}

// Insert starts an INSERT builder targeting table.
func Insert(table string) InsertBuilder {
	return InsertBuilder{table: table}
}

func (b InsertBuilder) clone() InsertBuilder {
	cp := b
	cp.columns = append([]string(nil), b.columns...)
	cp.rows = append([][]any(nil), b.rows...)
	cp.returning = append([]string(nil), b.returning...)

	return cp
}

// Columns sets the column list every row's values line up with.
func (b InsertBuilder) Columns(cols ...string) InsertBuilder {
	cp := b.clone()
	cp.columns = append([]string(nil), cols...)

	return cp
}

// Values appends one row of values; its length must equal len(Columns())
// at ToStatement time.
func (b InsertBuilder) Values(row ...any) InsertBuilder {
	cp := b.clone()
	cp.rows = append(cp.rows, append([]any(nil), row...))

	return cp
}

// Returning sets the RETURNING column list.
func (b InsertBuilder) Returning(cols ...string) InsertBuilder {
	cp := b.clone()
	cp.returning = append([]string(nil), cols...)

	return cp
}

// WithDialect sets the dialect hint.
func (b InsertBuilder) WithDialect(d sqlspec.Dialect) InsertBuilder {
	cp := b.clone()
	cp.dialect = d

	return cp
}

// ToStatement freezes the builder into a Statement.
func (b InsertBuilder) ToStatement() (sqlspec.Statement, error) {
	if len(b.columns) == 0 {
		return sqlspec.Statement{}, sqlspec.NewError(sqlspec.KindCompileError,
			fmt.Sprintf("INSERT into %s has no columns", b.table), nil)
	}

	for i, row := range b.rows {
		if len(row) != len(b.columns) {
			return sqlspec.Statement{}, sqlspec.NewError(sqlspec.KindCompileError,
				fmt.Sprintf("INSERT row %d has %d values, expected %d", i, len(row), len(b.columns)), nil)
		}
	}

	pc := newParamCollector()
	pc.dialect = b.dialect

	var buf strings.Builder

	fmt.Fprintf(&buf, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))

	rowTexts := make([]string, len(b.rows))

	for i, row := range b.rows {
		placeholders := make([]string, len(row))
		for j, v := range row {
			placeholders[j] = pc.bind(v)
		}

		rowTexts[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	buf.WriteString(strings.Join(rowTexts, ", "))

	if len(b.returning) > 0 {
		fmt.Fprintf(&buf, " RETURNING %s", strings.Join(b.returning, ", "))
	}

	return toStatement(buf.String(), pc).WithDialect(b.dialect), nil
}
