// Package sqlfile implements the SQL File Loader (spec.md §4.9): directory
// scanning for named query sections, duplicate-name detection, and
// dialect/style override annotations. Directory scanning and section
// splitting are generalized from the teacher's extension-dispatching
// template loader; an optional `.md`-embedded variant lets named queries
// live alongside runbook documentation.
package sqlfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/sqlspec/sqlspec"
)

// Options configures a Loader's defaults and file recognition.
type Options struct {
	// DefaultDialect is applied to any section with no `-- dialect:`
	// override (or, for markdown, no `dialect` directive key).
	DefaultDialect sqlspec.Dialect
	// Extensions lists the file extensions scanned; defaults to
	// []string{".sql", ".md"}.
	Extensions []string
}

// Loader holds every named Statement template discovered across one or
// more load calls.
type Loader struct {
	opts Options

	mu    sync.RWMutex
	byName map[string]section
}

// New builds an empty Loader.
func New(opts Options) *Loader {
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".sql", ".md"}
	}

	return &Loader{opts: opts, byName: make(map[string]section)}
}

// Load scans path: a single file is parsed directly; a directory is
// walked recursively for files matching the Loader's recognized
// extensions. A name already registered from a previous Load call (same
// or different file) is a configuration error, per spec.md §4.9
// "duplicate names across files".
func (l *Loader) Load(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("sqlfile: %w", err)
	}

	if !info.IsDir() {
		return l.loadFile(path)
	}

	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		if !l.recognized(p) {
			return nil
		}

		return l.loadFile(p)
	})
}

func (l *Loader) recognized(path string) bool {
	ext := filepath.Ext(path)

	for _, want := range l.opts.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}

	return false
}

func (l *Loader) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("sqlfile: reading %s: %w", path, err)
	}

	var sections []section

	if strings.EqualFold(filepath.Ext(path), ".md") {
		sections, err = parseMarkdownSections(path, string(data))
	} else {
		sections, err = parseSections(path, string(data))
	}

	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sec := range sections {
		if existing, ok := l.byName[sec.Name]; ok {
			return &LoadError{
				File: sec.File, Line: sec.Line,
				Message: fmt.Sprintf("duplicate statement name %q (first defined in %s:%d)", sec.Name, existing.File, existing.Line),
			}
		}

		l.byName[sec.Name] = sec
	}

	return nil
}

// Get returns the named Statement, with its dialect hint set from the
// section's override (or the Loader's DefaultDialect), per spec.md §4.9.
func (l *Loader) Get(name string) (sqlspec.Statement, error) {
	l.mu.RLock()
	sec, ok := l.byName[name]
	l.mu.RUnlock()

	if !ok {
		return sqlspec.Statement{}, sqlspec.NewError(sqlspec.KindConfigError,
			fmt.Sprintf("no statement named %q loaded", name), sqlspec.ErrStatementNotFound)
	}

	stmt := sqlspec.NewStatement(sec.Body)

	dialect := sec.Dialect
	if dialect == "" {
		dialect = l.opts.DefaultDialect
	}

	if dialect != "" {
		stmt = stmt.WithDialect(dialect)
	}

	return stmt, nil
}

// Names returns every loaded statement name.
func (l *Loader) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, 0, len(l.byName))
	for name := range l.byName {
		out = append(out, name)
	}

	return out
}

// mdDirective is the YAML metadata a markdown-embedded query's fence info
// string carries, e.g. ```sql {name: get_user, dialect: postgres}```.
type mdDirective struct {
	Name    string `yaml:"name"`
	Dialect string `yaml:"dialect"`
	Style   string `yaml:"style"`
}

// parseMarkdownSections extracts named queries from fenced ```sql blocks
// in a markdown document, grounded on the teacher's markdownparser
// package: goldmark walks the document's AST, and each fenced code
// block's info string (the text after the language tag) is parsed as
// YAML into the query's name/dialect/style directives.
func parseMarkdownSections(path, raw string) ([]section, error) {
	src := []byte(raw)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var (
		sections []section
		walkErr  error
	)

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || walkErr != nil {
			return ast.WalkContinue, nil
		}

		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		if fence.Info == nil {
			return ast.WalkContinue, nil
		}

		segment := fence.Info.Segment
		infoLine := string(src[segment.Start:segment.Stop])

		lang, directiveText, _ := strings.Cut(infoLine, " ")
		if !strings.EqualFold(strings.TrimSpace(lang), "sql") {
			return ast.WalkContinue, nil
		}

		var directive mdDirective

		directiveText = strings.TrimSpace(directiveText)

		if directiveText != "" {
			if err := yaml.Unmarshal([]byte(directiveText), &directive); err != nil {
				walkErr = &LoadError{File: path, Line: 0, Message: fmt.Sprintf("malformed query directive: %v", err)}
				return ast.WalkStop, nil
			}
		}

		if directive.Name == "" {
			walkErr = &LoadError{File: path, Line: 0, Message: "markdown sql fence missing required `name` directive"}
			return ast.WalkStop, nil
		}

		var body strings.Builder

		if lines := fence.Lines(); lines != nil {
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				body.Write(src[line.Start:line.Stop])
			}
		}

		sections = append(sections, section{
			Name:    directive.Name,
			Body:    strings.TrimSpace(body.String()),
			Dialect: sqlspec.Dialect(directive.Dialect),
			Style:   sqlspec.ParamStyle(directive.Style),
			File:    path,
		})

		return ast.WalkContinue, nil
	})

	if walkErr != nil {
		return nil, walkErr
	}

	return sections, nil
}
