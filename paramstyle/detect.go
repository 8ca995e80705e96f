package paramstyle

import (
	"fmt"

	"github.com/sqlspec/sqlspec"
)

// Detect scans raw and returns the set of placeholder styles it uses. A SQL
// string with no placeholders at all returns an empty, non-nil set.
func Detect(raw string) (map[sqlspec.ParamStyle]bool, error) {
	placeholders, err := Scan(raw)
	if err != nil {
		return nil, err
	}

	styles := make(map[sqlspec.ParamStyle]bool)
	for _, p := range placeholders {
		styles[p.Style] = true
	}

	return styles, nil
}

// RequireSingleStyle scans raw and fails unless every placeholder uses the
// same style, or the driver's capability record declares mixed-style
// support (spec.md §4.1 "incompatible mixing").
func RequireSingleStyle(raw string, cap sqlspec.DriverCapability) ([]Placeholder, error) {
	placeholders, err := Scan(raw)
	if err != nil {
		return nil, err
	}

	seen := make(map[sqlspec.ParamStyle]bool)
	for _, p := range placeholders {
		seen[p.Style] = true
	}

	if len(seen) > 1 && !cap.SupportsMixedStyle {
		return nil, sqlspec.NewError(sqlspec.KindParameterError,
			fmt.Sprintf("statement mixes parameter styles %v, which %s does not accept", styleList(seen), cap.Dialect),
			sqlspec.ErrMixedParamStyle)
	}

	for style := range seen {
		if !cap.SupportsStyle(style) {
			return nil, sqlspec.NewError(sqlspec.KindParameterError,
				fmt.Sprintf("parameter style %q is not supported by %s", style, cap.Dialect),
				sqlspec.ErrUnknownParamStyle)
		}
	}

	return placeholders, nil
}

func styleList(set map[sqlspec.ParamStyle]bool) []sqlspec.ParamStyle {
	out := make([]sqlspec.ParamStyle, 0, len(set))
	for s := range set {
		out = append(out, s)
	}

	return out
}
