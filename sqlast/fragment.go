package sqlast

import (
	"strings"

	pc "github.com/shibukawa/parsercombinator"

	"github.com/sqlspec/sqlspec/tokenizer"
)

// toParserTokens adapts tokenizer.Token (the SQLSpec lexer's shape) into
// parsercombinator's generic token wrapper, mirroring the teacher's
// parsercommon.ToParserToken helper.
func toParserTokens(tokens []tokenizer.Token) []pc.Token[tokenizer.Token] {
	out := make([]pc.Token[tokenizer.Token], 0, len(tokens))

	for _, t := range tokens {
		out = append(out, pc.Token[tokenizer.Token]{
			Type: "raw",
			Pos: &pc.Pos{
				Line:  t.Position.Line,
				Col:   t.Position.Column,
				Index: t.Position.Offset,
			},
			Val: t,
			Raw: t.Value,
		})
	}

	return out
}

func word(pctx *pc.ParseContext[tokenizer.Token], tokens []pc.Token[tokenizer.Token]) (int, []pc.Token[tokenizer.Token], error) {
	if len(tokens) > 0 && tokens[0].Val.Type == tokenizer.WORD {
		return 1, tokens[:1], nil
	}

	return 0, nil, pc.ErrNotMatch
}

func keyword(kw string) pc.Parser[tokenizer.Token] {
	return func(pctx *pc.ParseContext[tokenizer.Token], tokens []pc.Token[tokenizer.Token]) (int, []pc.Token[tokenizer.Token], error) {
		if len(tokens) > 0 && strings.EqualFold(tokens[0].Val.Value, kw) {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

func tokenType(tt tokenizer.TokenType) pc.Parser[tokenizer.Token] {
	return func(pctx *pc.ParseContext[tokenizer.Token], tokens []pc.Token[tokenizer.Token]) (int, []pc.Token[tokenizer.Token], error) {
		if len(tokens) > 0 && tokens[0].Val.Type == tt {
			return 1, tokens[:1], nil
		}

		return 0, nil, pc.ErrNotMatch
	}
}

// dottedName matches "ident (. ident)*" qualified-name references, e.g.
// "schema.users".
var dottedName = pc.Seq(word, pc.ZeroOrMore("dotted", pc.Seq(tokenType(tokenizer.DOT), word)))

// tableRefGrammar matches "name (AS? alias)?" table references — the
// fragment grammar used when extracting FROM/JOIN/INTO/UPDATE table names,
// grounded on the teacher's parserstep4 from_clause.go table-name grammar.
var tableRefGrammar = pc.Seq(
	dottedName,
	pc.Optional(pc.Seq(pc.Optional(keyword("AS")), word)),
)

// parseTableRef runs tableRefGrammar over tokens (already filtered to
// non-whitespace, non-comment) and returns the TableRef it describes, or
// ok=false if tokens don't match a table reference shape.
func parseTableRef(tokens []tokenizer.Token) (TableRef, bool) {
	filtered := filterInsignificant(tokens)
	if len(filtered) == 0 {
		return TableRef{}, false
	}

	pctx := pc.NewParseContext[tokenizer.Token]()
	pTokens := toParserTokens(filtered)

	consumed, match, err := tableRefGrammar(pctx, pTokens)
	if err != nil || consumed == 0 {
		return TableRef{}, false
	}

	ref := TableRef{}

	// match holds every token the grammar consumed; the dotted-name
	// portion contributes the qualified name, any trailing identifier
	// (after an optional AS) contributes the alias.
	nameParts := make([]string, 0, len(match))
	lastIdent := ""

	for _, m := range match {
		if m.Val.Type == tokenizer.WORD {
			nameParts = append(nameParts, m.Val.Value)
			lastIdent = m.Val.Value
		}
	}

	if len(nameParts) == 0 {
		return TableRef{}, false
	}

	if len(nameParts) == 1 {
		ref.Name = nameParts[0]
	} else {
		ref.Name = strings.Join(nameParts[:len(nameParts)-1], ".")
		ref.Alias = lastIdent

		if aliasLooksLikeQualifier(filtered) {
			ref.Name = strings.Join(nameParts, ".")
			ref.Alias = ""
		}
	}

	return ref, true
}

// aliasLooksLikeQualifier guards against treating "schema.table" (two
// WORD tokens joined by a DOT, no AS, no alias) as "table AS alias": if
// every WORD is separated only by DOT tokens, it's a qualified name, not
// name+alias.
func aliasLooksLikeQualifier(tokens []tokenizer.Token) bool {
	for i, t := range tokens {
		if t.Type == tokenizer.WORD && i > 0 && tokens[i-1].Type != tokenizer.DOT {
			return false
		}
	}

	return true
}

func filterInsignificant(tokens []tokenizer.Token) []tokenizer.Token {
	out := make([]tokenizer.Token, 0, len(tokens))

	for _, t := range tokens {
		if t.Type == tokenizer.WHITESPACE || t.Type == tokenizer.LINE_COMMENT || t.Type == tokenizer.BLOCK_COMMENT {
			continue
		}

		out = append(out, t)
	}

	return out
}
