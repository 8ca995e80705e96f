package sqlast

import (
	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/tokenizer"
)

// ParseScript splits raw into an ordered list of ASTs at top-level
// semicolon boundaries and parses each, per spec.md §4.2 "multi-statement
// scripts". Semicolons inside string/quoted-identifier literals and
// comments are not boundaries; the tokenizer already excludes those from
// SEMICOLON classification.
func ParseScript(raw string, dialectHint sqlspec.Dialect) ([]*AST, error) {
	effective := dialectHint
	if effective == sqlspec.DialectAuto || effective == "" {
		effective = sqlspec.DialectGeneric
	}

	tz := tokenizer.NewSqlTokenizer(raw, dialectToTokenizer(effective))

	all, err := tz.AllTokens()
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	var asts []*AST
	segStart := 0

	flush := func(end int) error {
		if end <= segStart {
			return nil
		}

		segment := reconstruct(all[segStart:end])
		if isBlank(all[segStart:end]) {
			return nil
		}

		ast, err := Parse(segment, effective)
		if err != nil {
			return err
		}

		asts = append(asts, ast)

		return nil
	}

	for i, t := range all {
		if t.Type == tokenizer.SEMICOLON {
			if err := flush(i); err != nil {
				return nil, err
			}

			segStart = i + 1
		}
	}

	if err := flush(len(all)); err != nil {
		return nil, err
	}

	return asts, nil
}

func isBlank(tokens []tokenizer.Token) bool {
	for _, t := range tokens {
		switch t.Type {
		case tokenizer.WHITESPACE, tokenizer.LINE_COMMENT, tokenizer.BLOCK_COMMENT, tokenizer.EOF:
			continue
		default:
			return false
		}
	}

	return true
}

func reconstruct(tokens []tokenizer.Token) string {
	out := make([]byte, 0, 64)

	for _, t := range tokens {
		if t.Type == tokenizer.EOF {
			continue
		}

		out = append(out, t.Value...)
	}

	return string(out)
}
