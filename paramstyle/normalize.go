package paramstyle

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/explang"
)

// NormalizeOptions controls strictness when applying a binding descriptor.
type NormalizeOptions struct {
	// Strict, when true, rejects named parameters present in the caller's
	// map that no binding references (spec.md §4.1 "extra keys... strict
	// mode raises, lenient mode ignores").
	Strict bool
}

// Normalize applies bindings to the caller-supplied positional slice and/or
// named map, producing either a []any (positional target styles) or a
// map[string]any (named target styles) — whichever the bindings describe.
func Normalize(positional []any, named map[string]any, bindings []sqlspec.Binding, opts NormalizeOptions) (any, error) {
	if len(bindings) == 0 {
		return nil, nil
	}

	if bindings[0].TargetName != "" {
		return normalizeNamed(positional, named, bindings, opts)
	}

	return normalizePositional(positional, named, bindings)
}

func normalizePositional(positional []any, named map[string]any, bindings []sqlspec.Binding) ([]any, error) {
	maxIdx := 0
	for _, b := range bindings {
		if b.TargetIndex > maxIdx {
			maxIdx = b.TargetIndex
		}
	}

	out := make([]any, maxIdx)

	for _, b := range bindings {
		val, err := resolve(b, positional, named)
		if err != nil {
			return nil, err
		}

		out[b.TargetIndex-1] = val
	}

	return out, nil
}

func normalizeNamed(positional []any, named map[string]any, bindings []sqlspec.Binding, opts NormalizeOptions) (map[string]any, error) {
	out := make(map[string]any, len(bindings))

	for _, b := range bindings {
		val, err := resolve(b, positional, named)
		if err != nil {
			return nil, err
		}

		out[b.TargetName] = val
	}

	if opts.Strict {
		used := make(map[string]bool, len(bindings))
		for _, b := range bindings {
			if b.SourceName != "" {
				// Only the root identifier of a dotted reference
				// (e.g. "user" for "user.id") names an entry the
				// caller actually supplies in named; the dotted
				// remainder is a path into that entry, not a
				// top-level key.
				root, _, _ := strings.Cut(b.SourceName, ".")
				used[root] = true
			}
		}

		for k := range named {
			if !used[k] {
				return nil, sqlspec.NewError(sqlspec.KindParameterError,
					fmt.Sprintf("parameter %q was supplied but not referenced by the statement", k),
					nil)
			}
		}
	}

	return out, nil
}

func resolve(b sqlspec.Binding, positional []any, named map[string]any) (any, error) {
	if b.SourceName != "" {
		// A dotted reference (e.g. "user.id") walks into a nested
		// parameter the same way explang walks a template's path
		// expressions. Scan ends a placeholder name at the first '.',
		// so bindings produced by Rewrite never carry a dotted
		// SourceName; only a Binding built directly reaches this branch.
		if strings.Contains(b.SourceName, ".") {
			val, err := explang.ResolvePath(b.SourceName, named)
			if err != nil {
				return nil, sqlspec.NewError(sqlspec.KindParameterError,
					fmt.Sprintf("missing value for named parameter %q", b.SourceName),
					sqlspec.ErrUnresolvedParameter)
			}

			return val, nil
		}

		val, ok := named[b.SourceName]
		if !ok {
			return nil, sqlspec.NewError(sqlspec.KindParameterError,
				fmt.Sprintf("missing value for named parameter %q", b.SourceName),
				sqlspec.ErrUnresolvedParameter)
		}

		return val, nil
	}

	idx := b.SourceIndex - 1
	if idx < 0 || idx >= len(positional) {
		return nil, sqlspec.NewError(sqlspec.KindParameterError,
			fmt.Sprintf("positional parameter %d out of range (have %d)", b.SourceIndex, len(positional)),
			sqlspec.ErrUnresolvedParameter)
	}

	return positional[idx], nil
}
