package builder

import (
	"fmt"

	"github.com/sqlspec/sqlspec"
)

// paramCollector assigns a stable named placeholder to each bound value a
// builder emits, so the rendered SQL carries named_colon placeholders
// (":bN") that paramstyle/sqlast can detect, rewrite to any target style,
// and validate like any other Statement's named parameters.
type paramCollector struct {
	named   map[string]any
	counter int
	dialect sqlspec.Dialect
}

func newParamCollector() *paramCollector {
	return &paramCollector{named: make(map[string]any), dialect: sqlspec.DialectGeneric}
}

// bind records value and returns the ":name" placeholder text referencing it.
func (p *paramCollector) bind(value any) string {
	p.counter++
	name := fmt.Sprintf("b%d", p.counter)
	p.named[name] = value

	return ":" + name
}

// SubqueryStatement is satisfied by any builder that can render itself as
// a parenthesizable subquery sharing the outer statement's parameter
// collector — used by Column.InStatement and the EXISTS predicate.
type SubqueryStatement interface {
	renderSub(pc *paramCollector) (string, error)
}

// toStatement freezes a rendered SQL body plus its bound named parameters
// into a Statement, the common tail of every builder's ToStatement method.
func toStatement(sql string, pc *paramCollector) sqlspec.Statement {
	return sqlspec.NewStatement(sql).WithParams(nil, pc.named)
}
