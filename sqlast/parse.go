package sqlast

import (
	"strings"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/tokenizer"
)

func dialectToTokenizer(d sqlspec.Dialect) tokenizer.SqlDialect {
	switch d {
	case sqlspec.DialectPostgres:
		return tokenizer.NewPostgresDialect()
	case sqlspec.DialectMySQL:
		return tokenizer.NewMySQLDialect()
	case sqlspec.DialectSQLite:
		return tokenizer.NewSQLiteDialect()
	case sqlspec.DialectDuckDB:
		return tokenizer.NewDuckDBDialect()
	default:
		return tokenizer.NewGenericDialect()
	}
}

// Parse tokenizes raw SQL and builds a shallow AST. dialectHint selects the
// tokenizer.SqlDialect handed to the lexer (whose quoting flags do not
// change the token stream) and becomes the AST's Dialect; pass
// sqlspec.DialectAuto to fall back to the generic dialect, per spec.md
// §4.2 "Dialect auto" policy.
func Parse(raw string, dialectHint sqlspec.Dialect) (*AST, error) {
	effective := dialectHint
	if effective == sqlspec.DialectAuto || effective == "" {
		effective = sqlspec.DialectGeneric
	}

	tz := tokenizer.NewSqlTokenizer(raw, dialectToTokenizer(effective))

	all, err := tz.AllTokens()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	ast := &AST{
		Raw:     raw,
		Dialect: effective,
		Kind:    KindOther,
		Tokens:  all,
	}

	significant := make([]tokenizer.Token, 0, len(all))
	for _, t := range all {
		if t.Type == tokenizer.WHITESPACE || t.Type == tokenizer.LINE_COMMENT || t.Type == tokenizer.BLOCK_COMMENT || t.Type == tokenizer.EOF {
			continue
		}
		significant = append(significant, t)
	}

	if len(significant) == 0 {
		return ast, nil
	}

	ast.Kind = classifyKind(significant[0])

	populateClauses(ast, significant)

	if ast.Kind == KindSelect {
		ast.Select = populateSelectList(significant)
	}

	return ast, nil
}

var aggregateFuncs = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

// populateSelectList extracts the SELECT projection list between SELECT
// (or DISTINCT/ALL) and FROM, splitting on top-level commas and detecting
// a trailing AS-alias and leading aggregate-function call per item. It is
// a lexical approximation, not a full expression parse — good enough for
// Validate's "aggregate outside GROUP BY" check and Analyze's aggregate
// report.
func populateSelectList(tokens []tokenizer.Token) []SelectItem {
	start := -1
	for i, t := range tokens {
		if t.Type == tokenizer.SELECT {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	for start < len(tokens) && (tokens[start].Type == tokenizer.DISTINCT || tokens[start].Type == tokenizer.ALL) {
		start++
	}

	end := len(tokens)
	for i := start; i < len(tokens); i++ {
		if tokens[i].Type == tokenizer.FROM {
			end = i
			break
		}
	}

	var items []SelectItem
	depth := 0
	itemStart := start

	flush := func(segEnd int) {
		seg := tokens[itemStart:segEnd]
		if len(seg) == 0 {
			return
		}
		items = append(items, buildSelectItem(seg))
	}

	for i := start; i < end; i++ {
		switch tokens[i].Type {
		case tokenizer.OPENED_PARENS:
			depth++
		case tokenizer.CLOSED_PARENS:
			depth--
		case tokenizer.COMMA:
			if depth == 0 {
				flush(i)
				itemStart = i + 1
			}
		}
	}
	flush(end)

	return items
}

func buildSelectItem(seg []tokenizer.Token) SelectItem {
	item := SelectItem{}

	var exprParts []string
	alias := ""

	for i := 0; i < len(seg); i++ {
		t := seg[i]
		if t.Type == tokenizer.AS {
			if i+1 < len(seg) {
				alias = seg[i+1].Value
			}
			break
		}
		if t.Type != tokenizer.WHITESPACE {
			exprParts = append(exprParts, t.Value)
		}
	}

	item.Expression = joinExpr(exprParts)
	item.Alias = alias

	if len(seg) >= 2 && seg[0].Type == tokenizer.WORD && seg[1].Type == tokenizer.OPENED_PARENS && aggregateFuncs[strings.ToUpper(seg[0].Value)] {
		item.IsAggregate = true
	}

	return item
}

func joinExpr(parts []string) string {
	return strings.Join(parts, " ")
}

func classifyKind(first tokenizer.Token) StatementKind {
	switch first.Type {
	case tokenizer.SELECT:
		return KindSelect
	case tokenizer.INSERT:
		return KindInsert
	case tokenizer.UPDATE:
		return KindUpdate
	case tokenizer.DELETE:
		return KindDelete
	case tokenizer.WITH:
		return KindSelect
	}

	switch strings.ToUpper(first.Value) {
	case "MERGE":
		return KindMerge
	case "CREATE", "ALTER", "DROP", "TRUNCATE":
		return KindDDL
	}

	return KindOther
}

// populateClauses walks the significant (non-whitespace, non-comment)
// token stream looking for clause-introducing keywords and hands the run
// of tokens up to the next clause boundary to the sqlast fragment grammars
// (table references) or simple counters (WHERE/HAVING/RETURNING presence,
// JOIN balance, GROUP BY columns).
func populateClauses(ast *AST, tokens []tokenizer.Token) {
	isBoundary := func(t tokenizer.Token) bool {
		switch t.Type {
		case tokenizer.WHERE, tokenizer.GROUP, tokenizer.HAVING, tokenizer.ORDER, tokenizer.UNION:
			return true
		}
		switch strings.ToUpper(t.Value) {
		case "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS", "ON", "USING", "SET", "VALUES", "RETURNING", "INTO":
			return true
		}
		return false
	}

	i := 0
	for i < len(tokens) {
		t := tokens[i]

		switch {
		case t.Type == tokenizer.WHERE:
			ast.HasWhere = true
			i++
		case t.Type == tokenizer.HAVING:
			ast.HasHaving = true
			i++
		case strings.EqualFold(t.Value, "RETURNING"):
			ast.HasReturning = true
			i++
		case t.Type == tokenizer.FROM, strings.EqualFold(t.Value, "INTO"), (ast.Kind == KindUpdate && t.Type == tokenizer.UPDATE):
			j := i + 1
			for j < len(tokens) && !isBoundary(tokens[j]) && tokens[j].Type != tokenizer.COMMA {
				j++
			}
			if ref, ok := parseTableRef(tokens[i+1 : j]); ok {
				ast.Tables = append(ast.Tables, ref)
			}
			i = j
		case isJoinKeyword(t):
			kind := strings.ToUpper(t.Value)
			j := i + 1
			for j < len(tokens) && strings.EqualFold(tokens[j].Value, "JOIN") {
				j++
			}
			tableStart := j
			for j < len(tokens) && !isBoundary(tokens[j]) {
				j++
			}
			ref, ok := parseTableRef(tokens[tableStart:j])
			join := JoinClause{Kind: kind, Table: ref}
			// ON/USING are clause boundaries, so the table scan above
			// stops right at the predicate keyword when one is present.
			if j < len(tokens) {
				switch strings.ToUpper(tokens[j].Value) {
				case "ON":
					join.HasOn = true
				case "USING":
					join.HasUsing = true
				}
			}
			if ok {
				ast.Joins = append(ast.Joins, join)
			}
			i = j
		case t.Type == tokenizer.GROUP:
			j := i + 1
			for j < len(tokens) && tokens[j].Type != tokenizer.BY {
				j++
			}
			j++ // skip BY
			for j < len(tokens) && !isBoundary(tokens[j]) {
				if tokens[j].Type == tokenizer.WORD {
					ast.GroupBy = append(ast.GroupBy, tokens[j].Value)
				}
				j++
			}
			i = j
		default:
			i++
		}
	}
}

func isJoinKeyword(t tokenizer.Token) bool {
	switch strings.ToUpper(t.Value) {
	case "JOIN", "INNER", "LEFT", "RIGHT", "FULL", "CROSS":
		return true
	}
	return false
}
