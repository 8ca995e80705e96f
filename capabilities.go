package sqlspec

// capabilityByDialect is the built-in capability table consulted when a
// driver adapter does not override it with its own DriverCapability value.
// Adapters are expected to supply their own at registration time; these
// entries exist so dialect-only rendering (no live driver) still works.
var capabilityByDialect = map[Dialect]DriverCapability{
	DialectPostgres: {
		Dialect:            DialectPostgres,
		SupportedStyles:    []ParamStyle{StyleNumeric},
		PreferredStyle:     StyleNumeric,
		SupportsMixedStyle: false,
		Features: map[Feature]bool{
			FeatureConcatOperator: true,
			FeatureJSON:           true,
			FeatureArray:          true,
			FeatureReturning:      true,
			FeatureMerge:          true,
			FeatureNativePipeline: true,
		},
		NativePipeline: true,
	},
	DialectMySQL: {
		Dialect:            DialectMySQL,
		SupportedStyles:    []ParamStyle{StyleQmark},
		PreferredStyle:     StyleQmark,
		SupportsMixedStyle: false,
		Features: map[Feature]bool{
			FeatureConcatFunction: true,
			FeatureJSON:           true,
		},
	},
	DialectSQLite: {
		Dialect:            DialectSQLite,
		SupportedStyles:    []ParamStyle{StyleQmark, StyleNumeric, StyleNamedColon, StyleNamedAt},
		PreferredStyle:     StyleQmark,
		SupportsMixedStyle: true,
		Features: map[Feature]bool{
			FeatureConcatOperator: true,
		},
	},
	DialectDuckDB: {
		Dialect:            DialectDuckDB,
		SupportedStyles:    []ParamStyle{StyleQmark, StyleNumeric, StyleNamedColon},
		PreferredStyle:     StyleQmark,
		SupportsMixedStyle: false,
		Features: map[Feature]bool{
			FeatureConcatOperator: true,
			FeatureArray:          true,
			FeatureArrowNative:    true,
		},
		Arrow: true,
	},
	DialectClickHouse: {
		Dialect:            DialectClickHouse,
		SupportedStyles:    []ParamStyle{StyleNamedColon},
		PreferredStyle:     StyleNamedColon,
		SupportsMixedStyle: false,
		Features: map[Feature]bool{
			FeatureArray:          true,
			FeatureNativePipeline: true,
		},
		NativePipeline: true,
	},
	DialectGeneric: genericCapability,
}

// CapabilityFor returns the built-in capability record for d, falling back
// to the generic (qmark-only, no features) record for unknown dialects.
func CapabilityFor(d Dialect) DriverCapability {
	if cap, ok := capabilityByDialect[d]; ok {
		return cap
	}

	return genericCapability
}
