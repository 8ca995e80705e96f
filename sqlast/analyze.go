package sqlast

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/sqlspec/sqlspec/tokenizer"
)

// Analyze reports tables read/written, join shapes, aggregate use, and
// filter columns from a parsed AST. It is optional: callers that only need
// compiled SQL skip it, per spec.md §4.2.
func Analyze(ast *AST) AnalysisReport {
	report := AnalysisReport{Joins: ast.Joins}

	switch ast.Kind {
	case KindSelect:
		for _, t := range ast.Tables {
			report.TablesRead = append(report.TablesRead, t.Name)
		}
		for _, j := range ast.Joins {
			report.TablesRead = append(report.TablesRead, j.Table.Name)
		}
	case KindInsert, KindUpdate, KindDelete, KindMerge:
		for _, t := range ast.Tables {
			report.TablesWritten = append(report.TablesWritten, t.Name)
		}
	}

	for _, item := range ast.Select {
		if item.IsAggregate {
			report.Aggregates = append(report.Aggregates, item.Expression)
		}
	}

	if ast.HasWhere {
		report.FilterColumns = whereColumns(ast.Tokens)
	}

	return report
}

// whereColumns returns the distinct bare identifiers that appear between
// WHERE and the next clause boundary (GROUP/HAVING/ORDER/UNION) or end of
// statement, immediately left of a comparison operator — a coarse column
// guess good enough for cache-key precision and observability, not a full
// expression parse.
func whereColumns(tokens []tokenizer.Token) []string {
	start := -1
	for i, t := range tokens {
		if t.Type == tokenizer.WHERE {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	seen := map[string]bool{}
	var cols []string

	for i := start; i < len(tokens); i++ {
		t := tokens[i]
		switch t.Type {
		case tokenizer.GROUP, tokenizer.HAVING, tokenizer.ORDER, tokenizer.UNION:
			return cols
		}

		if t.Type != tokenizer.WORD {
			continue
		}

		next := nextSignificant(tokens, i+1)
		if next == nil {
			continue
		}

		switch next.Type {
		case tokenizer.EQUAL, tokenizer.NOT_EQUAL, tokenizer.LESS_THAN, tokenizer.GREATER_THAN,
			tokenizer.LESS_EQUAL, tokenizer.GREATER_EQUAL, tokenizer.IN, tokenizer.LIKE, tokenizer.BETWEEN, tokenizer.IS:
			if !seen[t.Value] {
				seen[t.Value] = true
				cols = append(cols, t.Value)
			}
		}
	}

	return cols
}

func nextSignificant(tokens []tokenizer.Token, from int) *tokenizer.Token {
	for i := from; i < len(tokens); i++ {
		if tokens[i].Type == tokenizer.WHITESPACE || tokens[i].Type == tokenizer.LINE_COMMENT || tokens[i].Type == tokenizer.BLOCK_COMMENT {
			continue
		}
		return &tokens[i]
	}
	return nil
}

// ToXML renders an AnalysisReport as a small XML plan export, for tooling
// that wants a durable, diffable analysis artifact rather than the Go
// struct.
func (r AnalysisReport) ToXML() (string, error) {
	doc := etree.NewDocument()
	root := doc.CreateElement("analysis")

	reads := root.CreateElement("tables-read")
	for _, t := range r.TablesRead {
		reads.CreateElement("table").SetText(t)
	}

	writes := root.CreateElement("tables-written")
	for _, t := range r.TablesWritten {
		writes.CreateElement("table").SetText(t)
	}

	joins := root.CreateElement("joins")
	for _, j := range r.Joins {
		je := joins.CreateElement("join")
		je.CreateAttr("kind", j.Kind)
		je.CreateAttr("table", j.Table.Name)
	}

	aggs := root.CreateElement("aggregates")
	for _, a := range r.Aggregates {
		aggs.CreateElement("aggregate").SetText(a)
	}

	filters := root.CreateElement("filter-columns")
	for _, c := range r.FilterColumns {
		filters.CreateElement("column").SetText(c)
	}

	doc.Indent(2)

	s, err := doc.WriteToString()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(s), nil
}
