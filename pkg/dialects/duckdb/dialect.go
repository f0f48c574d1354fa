// Package duckdb provides the DuckDB SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package duckdb

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is the DuckDB dialect.
var DuckDB = dialect.NewDialect("duckdb").
	Identifiers(`"`, `"`, `""`, core.NormCaseInsensitive).
	DefaultSchema("main").
	Aggregates(dialect.StandardAggregates...).
	Aggregates(
		"LIST", "GROUP_CONCAT", "FIRST", "LAST", "ANY_VALUE", "ARBITRARY",
		"MEDIAN", "MODE", "QUANTILE", "QUANTILE_CONT", "QUANTILE_DISC",
		"HISTOGRAM", "ENTROPY", "KURTOSIS", "SKEWNESS",
		"BIT_AND", "BIT_OR", "BIT_XOR", "PRODUCT", "FSUM", "FAVG",
		"ARG_MIN", "ARG_MAX", "MAX_BY", "MIN_BY",
	).
	MaskingAggregates("COUNT", "APPROX_COUNT_DISTINCT", "COUNT_STAR", "COUNT_IF").
	MaskingFunctions(dialect.StandardMaskingFunctions...).
	Generators(dialect.StandardGenerators...).
	Generators("TODAY", "UUID", "GEN_RANDOM_UUID", "SETSEED", "PI", "VERSION").
	Windows(dialect.StandardWindows...).
	Aliases(map[string]string{
		"IFNULL":       "COALESCE",
		"NVL":          "COALESCE",
		"SUBSTR":       "SUBSTRING",
		"LEN":          "LENGTH",
		"UCASE":        "UPPER",
		"LCASE":        "LOWER",
		"COLLECT_LIST": "LIST",
		"ARRAY_AGG":    "LIST",
	}).
	AddKeyword("QUALIFY", token.QUALIFY).
	AddKeyword("ILIKE", token.ILIKE).
	AddOperator("::", token.DCOLON).
	Build()
