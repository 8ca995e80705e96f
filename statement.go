package sqlspec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Filter augments a Statement without caller string concatenation. Apply
// must be pure and deterministic; filters compose left-to-right and
// composition is not commutative.
type Filter interface {
	Apply(s Statement) Statement
	fingerprint() string
}

// Config carries the statement-level processing flags.
type Config struct {
	Validate bool
	Analyze  bool
	Transform bool
	Cache    bool
}

// DefaultStatementConfig enables caching and validation, matching the rest
// of the pipeline's "safe by default" posture.
func DefaultStatementConfig() Config {
	return Config{Validate: true, Cache: true}
}

// Statement is an immutable value binding raw SQL, parameters, a dialect
// hint, an ordered filter chain, and processing flags. Construction never
// performs I/O; compilation is lazy and happens in the cache package.
type Statement struct {
	raw       string
	positional []any
	named      map[string]any
	dialect    Dialect
	filters    []Filter
	config     Config
}

// NewStatement builds a Statement from raw SQL with no bound parameters,
// DialectAuto, and DefaultStatementConfig.
func NewStatement(raw string) Statement {
	return Statement{
		raw:    raw,
		dialect: DialectAuto,
		config:  DefaultStatementConfig(),
	}
}

// Raw returns the statement's immutable source text.
func (s Statement) Raw() string { return s.raw }

// Dialect returns the statement's dialect hint (DialectAuto if unset).
func (s Statement) Dialect() Dialect { return s.dialect }

// Config returns the statement's processing flags.
func (s Statement) Config() Config { return s.config }

// Filters returns the statement's filter chain in application order. The
// returned slice is a copy; callers must not rely on aliasing.
func (s Statement) Filters() []Filter {
	out := make([]Filter, len(s.filters))
	copy(out, s.filters)

	return out
}

// Positional returns a copy of the bound positional parameters.
func (s Statement) Positional() []any {
	out := make([]any, len(s.positional))
	copy(out, s.positional)

	return out
}

// Named returns a copy of the bound named parameters.
func (s Statement) Named() map[string]any {
	out := make(map[string]any, len(s.named))
	for k, v := range s.named {
		out[k] = v
	}

	return out
}

// WithParams returns a new Statement with positional and/or named
// parameters bound, replacing any previously bound set of the same kind.
// Binding both positional and named values is only meaningful when the raw
// SQL references placeholders of both kinds; the mismatch is surfaced at
// compile time, not here, since construction never inspects the SQL.
func (s Statement) WithParams(positional []any, named map[string]any) Statement {
	cp := s.clone()

	if positional != nil {
		cp.positional = append([]any(nil), positional...)
	}

	if named != nil {
		cp.named = make(map[string]any, len(named))
		for k, v := range named {
			cp.named[k] = v
		}
	}

	return cp
}

// WithRaw returns a new Statement with its raw SQL text replaced, every
// other attribute carried over unchanged. This is how a Filter rewrites a
// Statement's text (e.g. appending a LIMIT/OFFSET clause or an injected
// WHERE predicate) without reaching into private fields.
func (s Statement) WithRaw(raw string) Statement {
	cp := s.clone()
	cp.raw = raw

	return cp
}

// MergeParams returns a new Statement with extra named parameters merged
// into its existing set, without disturbing positional params. Filters
// that inject a bound predicate (e.g. a tenant filter's mandatory WHERE
// clause) use this to add the value they reference.
func (s Statement) MergeParams(extra map[string]any) Statement {
	cp := s.clone()

	if cp.named == nil {
		cp.named = make(map[string]any, len(extra))
	}

	for k, v := range extra {
		cp.named[k] = v
	}

	return cp
}

// WithFilter returns a new Statement with f appended to the filter chain.
func (s Statement) WithFilter(f Filter) Statement {
	cp := s.clone()
	cp.filters = append(cp.filters, f)

	return cp
}

// WithDialect returns a new Statement with its dialect hint replaced.
func (s Statement) WithDialect(d Dialect) Statement {
	cp := s.clone()
	cp.dialect = d

	return cp
}

// WithConfig returns a new Statement with its processing flags replaced.
func (s Statement) WithConfig(c Config) Statement {
	cp := s.clone()
	cp.config = c

	return cp
}

// Resolved applies every filter in the chain, left to right, returning the
// fully rewritten Statement ready for compilation.
func (s Statement) Resolved() Statement {
	cur := s
	for _, f := range s.filters {
		cur = f.Apply(cur)
	}

	return cur
}

func (s Statement) clone() Statement {
	cp := s
	cp.positional = append([]any(nil), s.positional...)

	if s.named != nil {
		cp.named = make(map[string]any, len(s.named))
		for k, v := range s.named {
			cp.named[k] = v
		}
	}

	cp.filters = append([]Filter(nil), s.filters...)

	return cp
}

// Fingerprint returns a stable key derived from (raw text, named-parameter
// key set, dialect, filter fingerprints, config) — NOT from parameter
// values. Equivalent statements produce identical fingerprints regardless
// of the concrete values bound, which is what lets the cache key on shape
// rather than data.
func (s Statement) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(s.raw))
	h.Write([]byte{0})
	h.Write([]byte(s.dialect))
	h.Write([]byte{0})
	fmt.Fprintf(h, "%d,%d", len(s.positional), len(s.named))

	keys := make([]string, 0, len(s.named))
	for k := range s.named {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		h.Write([]byte{0})
		h.Write([]byte(k))
	}

	for _, f := range s.filters {
		h.Write([]byte{0})
		h.Write([]byte(f.fingerprint()))
	}

	fmt.Fprintf(h, ";v=%t,a=%t,t=%t,c=%t", s.config.Validate, s.config.Analyze, s.config.Transform, s.config.Cache)

	return hex.EncodeToString(h.Sum(nil))
}

// CompiledStatement is the cache value produced by compiling a Statement:
// target SQL text, an ordered parameter binding descriptor, the resolved
// parameter style, column-name hints when derivable, and the fingerprint
// it was compiled from.
type CompiledStatement struct {
	SQL         string
	Bindings    []Binding
	Style       ParamStyle
	ColumnHints []string
	Fingerprint string
}

// Binding maps one placeholder in the compiled SQL back to the user's
// parameter container: either a source index (positional) or a source
// name (named), and the position/name it occupies in the target SQL.
type Binding struct {
	SourceName  string
	SourceIndex int
	TargetName  string
	TargetIndex int
}

func (s Statement) String() string {
	var b strings.Builder

	b.WriteString(s.raw)

	if s.dialect != "" && s.dialect != DialectAuto {
		fmt.Fprintf(&b, " [%s]", s.dialect)
	}

	return b.String()
}
