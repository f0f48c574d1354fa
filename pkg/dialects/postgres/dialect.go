// Package postgres provides the PostgreSQL dialect definition.
// This package is pure Go with no database driver dependencies,
// so it can be used without the overhead of database connections.
package postgres

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres is the PostgreSQL dialect.
var Postgres = dialect.NewDialect("postgres").
	Identifiers(`"`, `"`, `""`, core.NormLowercase).
	DefaultSchema("public").
	Aggregates(dialect.StandardAggregates...).
	Aggregates("JSON_AGG", "JSONB_AGG", "JSON_OBJECT_AGG", "BIT_AND", "BIT_OR", "PERCENTILE_CONT", "PERCENTILE_DISC", "MODE").
	MaskingAggregates("COUNT").
	MaskingFunctions("MD5", "SHA224", "SHA256", "SHA384", "SHA512", "DIGEST", "CRYPT", "HMAC").
	Generators(dialect.StandardGenerators...).
	Generators("GEN_RANDOM_UUID", "CLOCK_TIMESTAMP", "STATEMENT_TIMESTAMP", "TRANSACTION_TIMESTAMP").
	Windows(dialect.StandardWindows...).
	AddKeyword("ILIKE", token.ILIKE).
	AddOperator("::", token.DCOLON).
	Build()
