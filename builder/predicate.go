package builder

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/sqlspec/sqlspec"
)

// Predicate is the predicate DSL's value type: a boolean SQL expression
// that renders itself against a shared paramCollector so its bound values
// end up in the enclosing Statement's named parameter set. Concrete
// variants are tuples (column, op, value), raw strings, sub-statements
// (for IN/EXISTS), and vector-distance expressions (spec.md §4.5).
type Predicate interface {
	render(pc *paramCollector) (string, error)
}

// Raw wraps a caller-supplied SQL fragment as a Predicate verbatim, for
// expressions the column/operator DSL does not cover.
func Raw(sql string) Predicate { return rawPredicate{sql: sql} }

type rawPredicate struct{ sql string }

func (p rawPredicate) render(*paramCollector) (string, error) { return p.sql, nil }

type comparePredicate struct {
	col   Column
	op    string
	value any
}

func (p comparePredicate) render(pc *paramCollector) (string, error) {
	return fmt.Sprintf("%s %s %s", p.col.name, p.op, pc.bind(p.value)), nil
}

type inPredicate struct {
	col    Column
	values []any
}

func (p inPredicate) render(pc *paramCollector) (string, error) {
	if len(p.values) == 0 {
		return "1 = 0", nil
	}

	placeholders := make([]string, len(p.values))
	for i, v := range p.values {
		placeholders[i] = pc.bind(v)
	}

	return fmt.Sprintf("%s IN (%s)", p.col.name, strings.Join(placeholders, ", ")), nil
}

type inSubqueryPredicate struct {
	col Column
	sub SubqueryStatement
}

func (p inSubqueryPredicate) render(pc *paramCollector) (string, error) {
	sub, err := p.sub.renderSub(pc)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s IN (%s)", p.col.name, sub), nil
}

// Exists builds "EXISTS (<subquery>)".
func Exists(sub SubqueryStatement) Predicate { return existsPredicate{sub: sub} }

type existsPredicate struct{ sub SubqueryStatement }

func (p existsPredicate) render(pc *paramCollector) (string, error) {
	sub, err := p.sub.renderSub(pc)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("EXISTS (%s)", sub), nil
}

type vectorPredicate struct {
	expr      VectorExpr
	op        string
	threshold float64
}

// vectorOperatorByDialect maps a metric name to the dialect-specific
// infix operator pgvector-style backends expose. Dialects without a
// native operator fall back to a portable function call.
var vectorOperatorByDialect = map[sqlspec.Dialect]map[string]string{
	sqlspec.DialectPostgres: {
		"l2":         "<->",
		"cosine":     "<=>",
		"inner_prod": "<#>",
	},
}

// render emits the vector-distance expression using the target dialect's
// native infix operator when one is declared in vectorOperatorByDialect,
// falling back to the portable VECTOR_DISTANCE(...) function form any
// backend can parse.
func (p vectorPredicate) render(pc *paramCollector) (string, error) {
	var expr string

	if ops, ok := vectorOperatorByDialect[pc.dialect]; ok {
		if op, ok := ops[p.expr.metric]; ok {
			placeholder := pc.bind(formatVector(p.expr.target))
			expr = fmt.Sprintf("%s %s %s", p.expr.col.name, op, placeholder)
		}
	}

	if expr == "" {
		placeholder := pc.bind(formatVector(p.expr.target))
		expr = fmt.Sprintf("VECTOR_DISTANCE(%s, %s, '%s')", p.expr.col.name, placeholder, p.expr.metric)
	}

	return fmt.Sprintf("%s %s %s", expr, p.op, pc.bind(p.threshold)), nil
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = fmt.Sprintf("%g", f)
	}

	return "[" + strings.Join(parts, ",") + "]"
}

// Computed compares col against the value a CEL expression evaluates to,
// given a set of named variables — for filter values derived at call time
// rather than supplied as a literal (e.g. "now - duration('24h')" for a
// rolling window). Evaluation happens at render time, grounded on the
// teacher's intermediate/cel_extractor.go use of cel-go to evaluate
// template conditions against supplied variables.
func Computed(col Column, op string, expr string, vars map[string]any) Predicate {
	return computedPredicate{col: col, op: op, expr: expr, vars: vars}
}

type computedPredicate struct {
	col  Column
	op   string
	expr string
	vars map[string]any
}

func (p computedPredicate) render(pc *paramCollector) (string, error) {
	value, err := evalComputed(p.expr, p.vars)
	if err != nil {
		return "", fmt.Errorf("builder: evaluating computed predicate for %s: %w", p.col.name, err)
	}

	return fmt.Sprintf("%s %s %s", p.col.name, p.op, pc.bind(value)), nil
}

// evalComputed compiles and runs a CEL expression against a set of named
// variables, declaring each as a cel.DynType so callers can pass through
// any Go value (numbers, strings, sqlspec durations) without a fixed
// variable-type table.
func evalComputed(expr string, vars map[string]any) (any, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for name := range vars {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("building CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compiling %q: %w", expr, issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("planning program for %q: %w", expr, err)
	}

	activation := make(map[string]any, len(vars))
	for k, v := range vars {
		activation[k] = v
	}

	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", expr, err)
	}

	return out.Value(), nil
}

// And composes predicates with SQL AND, left to right.
func And(predicates ...Predicate) Predicate { return boolPredicate{op: "AND", terms: predicates} }

// Or composes predicates with SQL OR, left to right.
func Or(predicates ...Predicate) Predicate { return boolPredicate{op: "OR", terms: predicates} }

type boolPredicate struct {
	op    string
	terms []Predicate
}

func (p boolPredicate) render(pc *paramCollector) (string, error) {
	if len(p.terms) == 0 {
		return "1 = 1", nil
	}

	parts := make([]string, len(p.terms))

	for i, t := range p.terms {
		rendered, err := t.render(pc)
		if err != nil {
			return "", err
		}

		parts[i] = rendered
	}

	return "(" + strings.Join(parts, " "+p.op+" ") + ")", nil
}
