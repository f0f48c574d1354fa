package dialect

import "github.com/leapstack-labs/leaplineage/pkg/core"

// StandardAggregates are the aggregate functions every dialect knows.
var StandardAggregates = []string{
	"SUM", "AVG", "MIN", "MAX",
	"STDDEV", "STDDEV_POP", "STDDEV_SAMP",
	"VARIANCE", "VAR_POP", "VAR_SAMP",
	"ARRAY_AGG", "STRING_AGG", "EVERY", "BOOL_AND", "BOOL_OR",
	"CORR", "COVAR_POP", "COVAR_SAMP",
}

// StandardMaskingAggregates are aggregates whose result no longer carries the
// aggregated values.
var StandardMaskingAggregates = []string{"COUNT"}

// StandardMaskingFunctions are one-way hash and digest functions.
var StandardMaskingFunctions = []string{
	"MD5", "SHA1", "SHA2", "SHA224", "SHA256", "SHA384", "SHA512", "HASH",
}

// StandardGenerators produce values without reading columns.
var StandardGenerators = []string{
	"CURRENT_TIMESTAMP", "CURRENT_DATE", "CURRENT_TIME",
	"LOCALTIME", "LOCALTIMESTAMP", "NOW", "RANDOM",
	"CURRENT_USER", "CURRENT_SCHEMA",
}

// StandardWindows are the ranking and value window functions.
var StandardWindows = []string{
	"ROW_NUMBER", "RANK", "DENSE_RANK", "NTILE", "PERCENT_RANK", "CUME_DIST",
	"LAG", "LEAD", "FIRST_VALUE", "LAST_VALUE", "NTH_VALUE",
}

// ANSI is the standard SQL dialect and the registry default.
var ANSI = NewDialect("ansi").
	Identifiers(`"`, `"`, `""`, core.NormLowercase).
	Aggregates(StandardAggregates...).
	MaskingAggregates(StandardMaskingAggregates...).
	MaskingFunctions(StandardMaskingFunctions...).
	Generators(StandardGenerators...).
	Windows(StandardWindows...).
	Build()

func init() {
	Register(ANSI)
	SetDefault(ANSI)
}
