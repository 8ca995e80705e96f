package builder

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

type joinClause struct {
	kind  string
	table string
	on    string
}

type orderClause struct {
	col string
	dir string
}

// SelectBuilder is the fluent SELECT builder (spec.md §4.5): each method
// returns a new, immutable value; ToStatement freezes the accumulated
// state into a Statement with the inferred dialect and placeholders.
type SelectBuilder struct {
	columns []string
	table   string
	joins   []joinClause
	where   Predicate
	groupBy []string
	having  Predicate
	order   []orderClause
	limit   *int
	offset  *int
	dialect sqlspec.Dialect
}

// Select starts a SELECT builder projecting cols. No columns means "*".
func Select(cols ...string) SelectBuilder {
	return SelectBuilder{columns: append([]string(nil), cols...)}
}

func (b SelectBuilder) clone() SelectBuilder {
	cp := b
	cp.joins = append([]joinClause(nil), b.joins...)
	cp.groupBy = append([]string(nil), b.groupBy...)
	cp.order = append([]orderClause(nil), b.order...)

	return cp
}

// From sets the queried table.
func (b SelectBuilder) From(table string) SelectBuilder {
	cp := b.clone()
	cp.table = table

	return cp
}

// Join appends a JOIN clause; kind is e.g. "INNER", "LEFT", "FULL", "CROSS".
func (b SelectBuilder) Join(kind, table, on string) SelectBuilder {
	cp := b.clone()
	cp.joins = append(cp.joins, joinClause{kind: kind, table: table, on: on})

	return cp
}

// Where sets the WHERE predicate, replacing any previously set one. Use
// And/Or to combine multiple conditions.
func (b SelectBuilder) Where(p Predicate) SelectBuilder {
	cp := b.clone()
	cp.where = p

	return cp
}

// GroupBy appends columns to GROUP BY.
func (b SelectBuilder) GroupBy(cols ...string) SelectBuilder {
	cp := b.clone()
	cp.groupBy = append(cp.groupBy, cols...)

	return cp
}

// Having sets the HAVING predicate.
func (b SelectBuilder) Having(p Predicate) SelectBuilder {
	cp := b.clone()
	cp.having = p

	return cp
}

// OrderBy appends one ORDER BY term; dir is "ASC" or "DESC".
func (b SelectBuilder) OrderBy(col, dir string) SelectBuilder {
	cp := b.clone()
	cp.order = append(cp.order, orderClause{col: col, dir: dir})

	return cp
}

// Limit sets LIMIT n.
func (b SelectBuilder) Limit(n int) SelectBuilder {
	cp := b.clone()
	cp.limit = &n

	return cp
}

// Offset sets OFFSET n.
func (b SelectBuilder) Offset(n int) SelectBuilder {
	cp := b.clone()
	cp.offset = &n

	return cp
}

// WithDialect sets the dialect hint used to choose dialect-specific
// rendering for expressions like vector-distance predicates.
func (b SelectBuilder) WithDialect(d sqlspec.Dialect) SelectBuilder {
	cp := b.clone()
	cp.dialect = d

	return cp
}

// ToStatement freezes the builder into a Statement.
func (b SelectBuilder) ToStatement() (sqlspec.Statement, error) {
	pc := newParamCollector()
	pc.dialect = b.dialect

	sql, err := b.toSQL(pc)
	if err != nil {
		return sqlspec.Statement{}, err
	}

	return toStatement(sql, pc).WithDialect(b.dialect), nil
}

func (b SelectBuilder) renderSub(pc *paramCollector) (string, error) {
	return b.toSQL(pc)
}

func (b SelectBuilder) toSQL(pc *paramCollector) (string, error) {
	var buf strings.Builder

	buf.WriteString("SELECT ")

	if len(b.columns) == 0 {
		buf.WriteString("*")
	} else {
		buf.WriteString(strings.Join(b.columns, ", "))
	}

	if b.table != "" {
		fmt.Fprintf(&buf, " FROM %s", b.table)
	}

	for _, j := range b.joins {
		fmt.Fprintf(&buf, " %s JOIN %s ON %s", j.kind, j.table, j.on)
	}

	if b.where != nil {
		rendered, err := b.where.render(pc)
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, " WHERE %s", rendered)
	}

	if len(b.groupBy) > 0 {
		fmt.Fprintf(&buf, " GROUP BY %s", strings.Join(b.groupBy, ", "))
	}

	if b.having != nil {
		rendered, err := b.having.render(pc)
		if err != nil {
			return "", err
		}

		fmt.Fprintf(&buf, " HAVING %s", rendered)
	}

	if len(b.order) > 0 {
		terms := make([]string, len(b.order))
		for i, o := range b.order {
			dir := strings.ToUpper(o.dir)
			if dir == "" {
				dir = "ASC"
			}

			terms[i] = o.col + " " + dir
		}

		fmt.Fprintf(&buf, " ORDER BY %s", strings.Join(terms, ", "))
	}

	if b.limit != nil {
		fmt.Fprintf(&buf, " LIMIT %s", pc.bind(*b.limit))
	}

	if b.offset != nil {
		fmt.Fprintf(&buf, " OFFSET %s", pc.bind(*b.offset))
	}

	return buf.String(), nil
}
