package builder

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

type assignment struct {
	col   string
	value any
}

// UpdateBuilder is the fluent UPDATE builder (spec.md §4.5).
type UpdateBuilder struct {
	table     string
	sets      []assignment
	where     Predicate
	returning []string
	dialect   sqlspec.Dialect
}

// Update starts an UPDATE builder targeting table.
func Update(table string) UpdateBuilder {
	return UpdateBuilder{table: table}
}

func (b UpdateBuilder) clone() UpdateBuilder {
	cp := b
	cp.sets = append([]assignment(nil), b.sets...)
	cp.returning = append([]string(nil), b.returning...)

	return cp
}

// Set appends one "col = value" assignment to SET.
func (b UpdateBuilder) Set(col string, value any) UpdateBuilder {
	cp := b.clone()
	cp.sets = append(cp.sets, assignment{col: col, value: value})

	return cp
}

// Where sets the UPDATE's WHERE predicate.
func (b UpdateBuilder) Where(p Predicate) UpdateBuilder {
	cp := b.clone()
	cp.where = p

	return cp
}

// Returning sets the RETURNING column list.
func (b UpdateBuilder) Returning(cols ...string) UpdateBuilder {
	cp := b.clone()
	cp.returning = append([]string(nil), cols...)

	return cp
}

// WithDialect sets the dialect hint.
func (b UpdateBuilder) WithDialect(d sqlspec.Dialect) UpdateBuilder {
	cp := b.clone()
	cp.dialect = d

	return cp
}

// ToStatement freezes the builder into a Statement.
func (b UpdateBuilder) ToStatement() (sqlspec.Statement, error) {
	if len(b.sets) == 0 {
		return sqlspec.Statement{}, sqlspec.NewError(sqlspec.KindCompileError,
			fmt.Sprintf("UPDATE %s has no SET assignments", b.table), nil)
	}

	pc := newParamCollector()
	pc.dialect = b.dialect

	var buf strings.Builder

	fmt.Fprintf(&buf, "UPDATE %s SET ", b.table)

	setTexts := make([]string, len(b.sets))
	for i, a := range b.sets {
		setTexts[i] = fmt.Sprintf("%s = %s", a.col, pc.bind(a.value))
	}

	buf.WriteString(strings.Join(setTexts, ", "))

	if b.where != nil {
		rendered, err := b.where.render(pc)
		if err != nil {
			return sqlspec.Statement{}, err
		}

		fmt.Fprintf(&buf, " WHERE %s", rendered)
	}

	if len(b.returning) > 0 {
		fmt.Fprintf(&buf, " RETURNING %s", strings.Join(b.returning, ", "))
	}

	return toStatement(buf.String(), pc).WithDialect(b.dialect), nil
}
