package builder

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

// DeleteBuilder is the fluent DELETE builder (spec.md §4.5).
type DeleteBuilder struct {
	table     string
	where     Predicate
	returning []string
	dialect   sqlspec.Dialect
}

// Delete starts a DELETE builder targeting table.
func Delete(table string) DeleteBuilder {
	return DeleteBuilder{table: table}
}

func (b DeleteBuilder) clone() DeleteBuilder {
	cp := b
	cp.returning = append([]string(nil), b.returning...)

	return cp
}

// Where sets the DELETE's WHERE predicate.
func (b DeleteBuilder) Where(p Predicate) DeleteBuilder {
	cp := b.clone()
	cp.where = p

	return cp
}

// Returning sets the RETURNING column list.
func (b DeleteBuilder) Returning(cols ...string) DeleteBuilder {
	cp := b.clone()
	cp.returning = append([]string(nil), cols...)

	return cp
}

// WithDialect sets the dialect hint.
func (b DeleteBuilder) WithDialect(d sqlspec.Dialect) DeleteBuilder {
	cp := b.clone()
	cp.dialect = d

	return cp
}

// ToStatement freezes the builder into a Statement.
func (b DeleteBuilder) ToStatement() (sqlspec.Statement, error) {
	pc := newParamCollector()
	pc.dialect = b.dialect

	var buf strings.Builder

	fmt.Fprintf(&buf, "DELETE FROM %s", b.table)

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
