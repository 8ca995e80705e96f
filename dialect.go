package sqlspec

// Dialect identifies the SQL dialect a Statement targets.
type Dialect string

const (
	// DialectAuto defers dialect selection to the Session's configured
	// default, falling back to DialectGeneric when none is set.
	DialectAuto       Dialect = "auto"
	DialectGeneric    Dialect = "generic"
	DialectPostgres   Dialect = "postgres"
	DialectMySQL      Dialect = "mysql"
	DialectSQLite     Dialect = "sqlite"
	DialectDuckDB     Dialect = "duckdb"
	DialectClickHouse Dialect = "clickhouse"
	DialectOracle     Dialect = "oracle"
	DialectBigQuery   Dialect = "bigquery"
	DialectSpanner    Dialect = "spanner"
)

// ParamStyle is a placeholder convention recognized by the Parameter Model.
type ParamStyle string

const (
	StyleQmark           ParamStyle = "qmark"           // ?
	StyleNumeric         ParamStyle = "numeric"         // $1
	StyleFormat          ParamStyle = "format"          // %s
	StyleNamedColon      ParamStyle = "named_colon"      // :name
	StylePositionalColon ParamStyle = "positional_colon" // :1
	StyleNamedAt         ParamStyle = "named_at"         // @name
	StylePyformatNamed   ParamStyle = "pyformat_named"   // %(name)s
)

// Feature is a DB-specific SQL capability flag used by dialect rendering.
type Feature int

const (
	FeatureConcatOperator Feature = iota + 1 // ||
	FeatureConcatFunction                    // CONCAT()
	FeatureJSON
	FeatureArray
	FeatureReturning
	FeatureMerge
	FeatureNativePipeline
	FeatureArrowNative
)

// DriverCapability is the capability record every driver adapter declares
// explicitly at configuration time, replacing the inheritance-heavy driver
// hierarchies the source system used (see DESIGN.md Design Notes §9): a
// driver is described by a value, not a subclass.
type DriverCapability struct {
	Dialect            Dialect
	SupportedStyles    []ParamStyle
	PreferredStyle     ParamStyle
	SupportsMixedStyle bool
	Features           map[Feature]bool
	NativePipeline     bool
	Arrow              bool
}

// Supports reports whether the driver declares support for feature f.
func (c DriverCapability) Supports(f Feature) bool {
	return c.Features[f]
}

// SupportsStyle reports whether style s is among the driver's declared styles.
func (c DriverCapability) SupportsStyle(s ParamStyle) bool {
	for _, want := range c.SupportedStyles {
		if want == s {
			return true
		}
	}

	return false
}

// genericCapability is used when no dialect hint and no session default are
// available; it emits only portable syntax per spec.md §4.2 "dialect auto".
var genericCapability = DriverCapability{
	Dialect:         DialectGeneric,
	SupportedStyles: []ParamStyle{StyleQmark},
	PreferredStyle:  StyleQmark,
	Features:        map[Feature]bool{},
}
