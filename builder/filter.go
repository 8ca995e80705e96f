package builder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sqlspec/sqlspec"
)

// Pagination appends a LIMIT/OFFSET clause. Either bound may be omitted by
// passing a non-positive value; passing both non-positive is a no-op
// filter (Apply returns the Statement unchanged).
func Pagination(limit, offset int) sqlspec.Filter {
	seed := fmt.Sprintf("pagination:limit=%t,offset=%t", limit > 0, offset > 0)

	return sqlspec.NewFilter(seed, func(s sqlspec.Statement) sqlspec.Statement {
		if limit <= 0 && offset <= 0 {
			return s
		}

		var clause strings.Builder

		params := map[string]any{}

		if limit > 0 {
			clause.WriteString(" LIMIT :flt_limit")
			params["flt_limit"] = limit
		}

		if offset > 0 {
			clause.WriteString(" OFFSET :flt_offset")
			params["flt_offset"] = offset
		}

		return s.WithRaw(s.Raw() + clause.String()).MergeParams(params)
	})
}

// OrderByDirection appends a deterministic ORDER BY clause. col and dir are
// trusted identifiers supplied by the caller, not user input — callers
// building them from request input must allow-list col/dir first.
func OrderByDirection(col, dir string) sqlspec.Filter {
	direction := strings.ToUpper(dir)
	if direction == "" {
		direction = "ASC"
	}

	seed := fmt.Sprintf("order_by:%s %s", col, direction)

	return sqlspec.NewFilter(seed, func(s sqlspec.Statement) sqlspec.Statement {
		return s.WithRaw(fmt.Sprintf("%s ORDER BY %s %s", s.Raw(), col, direction))
	})
}

// Search appends a "col OPERATOR :value" predicate, joined to any existing
// WHERE clause with AND, or introducing one if the statement has none.
// operator is typically "LIKE", "=", or "ILIKE".
func Search(col, operator string, value any) sqlspec.Filter {
	seed := fmt.Sprintf("search:%s %s", col, operator)

	return sqlspec.NewFilter(seed, func(s sqlspec.Statement) sqlspec.Statement {
		paramName := "flt_search_" + sanitizeParamName(col)
		predicate := fmt.Sprintf("%s %s :%s", col, operator, paramName)

		return s.WithRaw(appendPredicate(s.Raw(), predicate)).MergeParams(map[string]any{paramName: value})
	})
}

// Tenant injects a mandatory "col = :value" predicate isolating rows to a
// single tenant, joined to any existing WHERE with AND. Unlike Search,
// this filter is meant to be non-optional — callers attach it once per
// session/request context rather than from raw user input.
func Tenant(col string, value any) sqlspec.Filter {
	seed := fmt.Sprintf("tenant:%s", col)

	return sqlspec.NewFilter(seed, func(s sqlspec.Statement) sqlspec.Statement {
		paramName := "flt_tenant_" + sanitizeParamName(col)
		predicate := fmt.Sprintf("%s = :%s", col, paramName)

		return s.WithRaw(appendPredicate(s.Raw(), predicate)).MergeParams(map[string]any{paramName: value})
	})
}

// WherePredicate appends an arbitrary Predicate, joined to any existing
// WHERE clause with AND.
func WherePredicate(p Predicate) sqlspec.Filter {
	return sqlspec.NewFilter("where_predicate", func(s sqlspec.Statement) sqlspec.Statement {
		pc := newParamCollector()

		rendered, err := p.render(pc)
		if err != nil {
			return s
		}

		return s.WithRaw(appendPredicate(s.Raw(), rendered)).MergeParams(pc.named)
	})
}

var whereRe = regexp.MustCompile(`(?i)\bwhere\b`)

// appendPredicate joins predicate to raw's WHERE clause with AND, or
// introduces a WHERE clause if raw has none. This is a lexical
// approximation (matching the same coarse-detection spirit as
// sqlast.Analyze's column guesses) good enough for filters that always
// append at the end of a simple SELECT/UPDATE/DELETE body; statements with
// a trailing ORDER BY/GROUP BY/LIMIT already attached should apply this
// filter before those via filter ordering, since composition is not
// commutative (spec.md §4.5).
func appendPredicate(raw, predicate string) string {
	if whereRe.MatchString(raw) {
		return fmt.Sprintf("%s AND %s", raw, predicate)
	}

	return fmt.Sprintf("%s WHERE %s", raw, predicate)
}

var nonIdentRe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func sanitizeParamName(col string) string {
	return nonIdentRe.ReplaceAllString(col, "_")
}
