// Package snowflake provides the Snowflake SQL dialect definition.
// This package is pure Go with no database driver dependencies.
package snowflake

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

func init() {
	dialect.Register(Snowflake)
}

// Snowflake is the Snowflake dialect. Unquoted identifiers normalize to uppercase.
var Snowflake = dialect.NewDialect("snowflake").
	Identifiers(`"`, `"`, `""`, core.NormUppercase).
	DefaultSchema("PUBLIC").
	Aggregates(dialect.StandardAggregates...).
	Aggregates("LISTAGG", "ARRAY_UNIQUE_AGG", "OBJECT_AGG", "MEDIAN", "MODE", "ANY_VALUE", "KURTOSIS", "SKEW").
	MaskingAggregates("COUNT", "COUNT_IF", "APPROX_COUNT_DISTINCT", "HLL").
	MaskingFunctions(dialect.StandardMaskingFunctions...).
	MaskingFunctions("SHA2_HEX", "SHA1_HEX", "MD5_HEX", "MD5_NUMBER_LOWER64", "HASH_AGG").
	Generators(dialect.StandardGenerators...).
	Generators("UUID_STRING", "SYSDATE", "SEQ4", "SEQ8").
	Windows(dialect.StandardWindows...).
	Windows("CONDITIONAL_TRUE_EVENT", "CONDITIONAL_CHANGE_EVENT").
	Aliases(map[string]string{
		"NVL":    "COALESCE",
		"IFNULL": "COALESCE",
		"LEN":    "LENGTH",
	}).
	AddKeyword("QUALIFY", token.QUALIFY).
	AddKeyword("ILIKE", token.ILIKE).
	AddOperator("::", token.DCOLON).
	Build()
