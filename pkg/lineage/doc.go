// Package lineage computes column-level lineage for a parsed SELECT statement.
//
// For every output column GetLineage reports the physical columns it is
// derived from and how each one is transformed on the way (IDENTITY,
// TRANSFORMATION or AGGREGATION, optionally masked). References are traced
// through CTEs, subqueries and set operations down to the tables of the
// supplied schema.
//
// The package works on the core AST only and never parses SQL itself.
package lineage
