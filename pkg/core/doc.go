// Package core defines the shared language of the leaplineage system.
//
// This package contains:
//   - The SQL AST consumed by the lineage resolver (SelectStmt, Expr, TableRef)
//   - The schema model (Schema, Table)
//   - Lineage value types (Transformation, InputField, FieldLineage)
//   - Identifier normalization settings shared by dialects
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
