// Package databricks provides the Databricks SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package databricks

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

func init() {
	dialect.Register(Databricks)
}

// Databricks is the Databricks SQL dialect. Identifiers are quoted with backticks.
var Databricks = dialect.NewDialect("databricks").
	Identifiers("`", "`", "``", core.NormCaseInsensitive).
	DefaultSchema("default").
	Aggregates(dialect.StandardAggregates...).
	Aggregates("COLLECT_LIST", "COLLECT_SET", "FIRST", "LAST", "ANY_VALUE", "PERCENTILE", "MEDIAN", "MAX_BY", "MIN_BY").
	MaskingAggregates("COUNT", "COUNT_IF", "APPROX_COUNT_DISTINCT").
	MaskingFunctions(dialect.StandardMaskingFunctions...).
	MaskingFunctions("CRC32", "XXHASH64").
	Generators(dialect.StandardGenerators...).
	Generators("UUID", "RAND", "MONOTONICALLY_INCREASING_ID").
	Windows(dialect.StandardWindows...).
	Aliases(map[string]string{
		"NVL":    "COALESCE",
		"IFNULL": "COALESCE",
		"LEN":    "LENGTH",
		"UCASE":  "UPPER",
		"LCASE":  "LOWER",
	}).
	AddKeyword("QUALIFY", token.QUALIFY).
	AddKeyword("ILIKE", token.ILIKE).
	AddOperator("::", token.DCOLON).
	Build()
