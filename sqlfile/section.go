package sqlfile

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/sqlspec/sqlspec"
)

// section is one `-- name: <identifier>` block parsed out of a .sql file,
// spec.md §4.9.
type section struct {
	Name    string
	Body    string
	Dialect sqlspec.Dialect
	Style   sqlspec.ParamStyle
	File    string
	Line    int
}

var nameHeaderPrefix = "-- name:"

// parseSections splits raw into its named sections. Text before the first
// `-- name:` header is ignored (a file may lead with a license header or
// general comment). A malformed header — `-- name:` with no identifier
// following — raises a *LoadError naming file and line, per spec.md §4.9
// "Failure".
func parseSections(path, raw string) ([]section, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		sections []section
		current  *section
		body     strings.Builder
		line     int
	)

	flush := func() {
		if current != nil {
			current.Body = strings.TrimSpace(body.String())
			sections = append(sections, *current)
		}

		body.Reset()
	}

	for scanner.Scan() {
		line++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)

		switch {
		case strings.HasPrefix(trimmed, nameHeaderPrefix):
			flush()

			name := strings.TrimSpace(trimmed[len(nameHeaderPrefix):])
			if name == "" {
				return nil, &LoadError{File: path, Line: line, Message: "malformed section header: `-- name:` with no identifier"}
			}

			current = &section{Name: name, File: path, Line: line}

		case strings.HasPrefix(trimmed, "-- dialect:"):
			if current != nil {
				current.Dialect = sqlspec.Dialect(strings.TrimSpace(trimmed[len("-- dialect:"):]))
			}

		case strings.HasPrefix(trimmed, "-- style:"):
			if current != nil {
				current.Style = sqlspec.ParamStyle(strings.TrimSpace(trimmed[len("-- style:"):]))
			}

		default:
			if current != nil {
				body.WriteString(text)
				body.WriteString("\n")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("sqlfile: reading %s: %w", path, err)
	}

	flush()

	return sections, nil
}

// LoadError reports a malformed section header, naming the offending file
// and line per spec.md §4.9.
type LoadError struct {
	File    string
	Line    int
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}
