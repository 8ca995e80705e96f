package paramstyle

import (
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

// occurrence is one placeholder occurrence tagged with the source key it
// resolves against: either a name (for named styles) or a 1-based
// positional index (for numeric/positional_colon/qmark/format styles).
type occurrence struct {
	placeholder Placeholder
	named       bool
	name        string
	index       int // 1-based
}

// Rewrite produces SQL targeting style and the ordered binding descriptor
// that lets Normalize permute the caller's parameter container into the
// driver's expected shape. When converting from named placeholders to a
// positional target style, the canonical order is the order of each name's
// first occurrence in raw, per spec.md §4.1.
func Rewrite(raw string, target sqlspec.ParamStyle) (string, []sqlspec.Binding, error) {
	placeholders, err := Scan(raw)
	if err != nil {
		return "", nil, err
	}

	occs := make([]occurrence, 0, len(placeholders))
	qmarkCounter := 0

	for _, p := range placeholders {
		switch p.Style {
		case sqlspec.StyleNamedColon, sqlspec.StyleNamedAt, sqlspec.StylePyformatNamed:
			occs = append(occs, occurrence{placeholder: p, named: true, name: p.Name})
		case sqlspec.StyleNumeric, sqlspec.StylePositionalColon:
			occs = append(occs, occurrence{placeholder: p, named: false, index: p.Index})
		case sqlspec.StyleQmark, sqlspec.StyleFormat:
			qmarkCounter++
			occs = append(occs, occurrence{placeholder: p, named: false, index: qmarkCounter})
		default:
			return "", nil, sqlspec.NewError(sqlspec.KindParameterError,
				fmt.Sprintf("unrecognized placeholder style in SQL: %q", p.Raw), sqlspec.ErrUnknownParamStyle)
		}
	}

	canonical := assignCanonicalOrder(occs)

	var b strings.Builder

	bindings := make([]sqlspec.Binding, 0, len(occs))
	cursor := 0

	for _, occ := range occs {
		b.WriteString(raw[cursor:occ.placeholder.Pos])

		key := sourceKey(occ)
		num := canonical[key]

		text, binding := renderOccurrence(occ, num, target)
		b.WriteString(text)
		bindings = append(bindings, binding)

		cursor = occ.placeholder.Pos + len(occ.placeholder.Raw)
	}

	b.WriteString(raw[cursor:])

	return b.String(), bindings, nil
}

func sourceKey(occ occurrence) string {
	if occ.named {
		return "n:" + occ.name
	}

	return fmt.Sprintf("p:%d", occ.index)
}

// assignCanonicalOrder numbers each distinct source key 1..N in the order
// it first appears in occs.
func assignCanonicalOrder(occs []occurrence) map[string]int {
	canonical := make(map[string]int)
	next := 1

	for _, occ := range occs {
		key := sourceKey(occ)
		if _, ok := canonical[key]; !ok {
			canonical[key] = next
			next++
		}
	}

	return canonical
}

func renderOccurrence(occ occurrence, canonicalIndex int, target sqlspec.ParamStyle) (string, sqlspec.Binding) {
	binding := sqlspec.Binding{}

	if occ.named {
		binding.SourceName = occ.name
	} else {
		binding.SourceIndex = occ.index
	}

	switch target {
	case sqlspec.StyleQmark:
		binding.TargetIndex = canonicalIndex

		return "?", binding
	case sqlspec.StyleFormat:
		binding.TargetIndex = canonicalIndex

		return "%s", binding
	case sqlspec.StyleNumeric:
		binding.TargetIndex = canonicalIndex

		return fmt.Sprintf("$%d", canonicalIndex), binding
	case sqlspec.StylePositionalColon:
		binding.TargetIndex = canonicalIndex

		return fmt.Sprintf(":%d", canonicalIndex), binding
	case sqlspec.StyleNamedColon:
		name := targetName(occ, canonicalIndex)
		binding.TargetName = name

		return ":" + name, binding
	case sqlspec.StyleNamedAt:
		name := targetName(occ, canonicalIndex)
		binding.TargetName = name

		return "@" + name, binding
	case sqlspec.StylePyformatNamed:
		name := targetName(occ, canonicalIndex)
		binding.TargetName = name

		return "%(" + name + ")s", binding
	default:
		binding.TargetIndex = canonicalIndex

		return "?", binding
	}
}

func targetName(occ occurrence, canonicalIndex int) string {
	if occ.named {
		return occ.name
	}

	return fmt.Sprintf("p%d", canonicalIndex)
}
