// Package sqlast parses SQL with the module's own tokenizer package plus
// small parsercombinator fragment grammars (no third-party SQL parser is
// involved), so the rest of SQLSpec
// sees one contract: parse raw SQL into a validated AST, render it for a
// target dialect and parameter style, and analyze it for tables/columns/
// aggregates. The multi-stage shape (parse -> validate -> render ->
// analyze) is grounded on the teacher's parserstep1..7 pipeline, collapsed
// from seven template-directive stages into four dialect-neutral ones.
package sqlast

import (
	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/tokenizer"
)

// StatementKind classifies the top-level statement an AST represents.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindMerge
	KindDDL
	KindOther
)

func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	case KindMerge:
		return "MERGE"
	case KindDDL:
		return "DDL"
	case KindOther:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// TableRef is one table reference found in a FROM, JOIN, INTO, or UPDATE
// clause.
type TableRef struct {
	Name  string
	Alias string
}

// JoinClause records one JOIN keyword occurrence and whether it carries a
// balancing ON/USING predicate.
type JoinClause struct {
	Kind    string // INNER, LEFT, RIGHT, FULL, CROSS
	Table   TableRef
	HasOn   bool
	HasUsing bool
}

// SelectItem is one projection expression in a SELECT list.
type SelectItem struct {
	Expression string
	Alias      string
	IsAggregate bool
}

// AST is the parsed, validated representation of one SQL statement. It is
// intentionally shallow: SQLSpec does not need a full relational-algebra
// tree, only enough structure to validate, render, and analyze per
// spec.md §4.2.
type AST struct {
	Raw       string
	Dialect   sqlspec.Dialect
	Kind      StatementKind
	Tables    []TableRef // FROM-list / INTO / UPDATE target
	Joins     []JoinClause
	Select    []SelectItem
	GroupBy   []string
	HasWhere  bool
	HasHaving bool
	HasReturning bool
	Tokens    []tokenizer.Token
}

// ParseError reports a failure to parse raw SQL, with the offending
// position when known.
type ParseError struct {
	Message  string
	Position tokenizer.Position
}

func (e *ParseError) Error() string {
	return e.Message
}

// Diagnostic is one validation finding. Severity "error" blocks
// compilation; "warning" does not.
type Diagnostic struct {
	Severity string // "error" | "warning"
	Message  string
}

// ValidationDiagnostics is the result of Validate: zero or more findings.
type ValidationDiagnostics struct {
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic has Severity "error".
func (d ValidationDiagnostics) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Severity == "error" {
			return true
		}
	}

	return false
}

// AnalysisReport is the optional output of Analyze: tables read/written,
// join shapes, aggregate use, and filter columns, consumed by
// observability and for cache-key precision (spec.md §4.2).
type AnalysisReport struct {
	TablesRead    []string
	TablesWritten []string
	Joins         []JoinClause
	Aggregates    []string
	FilterColumns []string
}
