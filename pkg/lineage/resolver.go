package lineage

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
)

// DefaultMaxDepth bounds how many derived tables a single column may be
// traced through.
const DefaultMaxDepth = 64

// ErrMaxDepthExceeded is returned when resolution nests deeper than the
// configured maximum.
var ErrMaxDepthExceeded = errors.New("maximum resolution depth exceeded")

// DepthError reports the depth at which resolution was abandoned.
type DepthError struct {
	Depth int
	Max   int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf("%s: depth %d (max %d)", ErrMaxDepthExceeded, e.Depth, e.Max)
}

func (e *DepthError) Unwrap() error {
	return ErrMaxDepthExceeded
}

// resolver holds the read-only inputs of one GetLineage call.
type resolver struct {
	schema   *core.Schema
	dialect  *dialect.Dialect
	maxDepth int
	logger   *slog.Logger
}

// query is one select core together with the CTEs visible to it.
type query struct {
	core    *core.SelectCore
	visible []*cteDef
}

// queries returns one query per branch of stmt, left to right.
func queries(stmt *core.SelectStmt, inherited []*cteDef) []query {
	if stmt == nil || stmt.Body == nil {
		return nil
	}
	visible := withScope(stmt, inherited)
	cores := stmt.Body.Cores()
	out := make([]query, 0, len(cores))
	for _, sc := range cores {
		out = append(out, query{core: sc, visible: visible})
	}
	return out
}

func (r *resolver) sameIdent(a, b string) bool {
	if r.dialect == nil {
		return strings.EqualFold(a, b)
	}
	return r.dialect.NormalizeName(a) == r.dialect.NormalizeName(b)
}

// columnLineage resolves the source columns of expr evaluated in q. context
// holds the transformations applied by the enclosing queries, nil at the
// top level.
func (r *resolver) columnLineage(q query, expr core.Expr, context *TransformationSet, depth int) ([]core.InputField, error) {
	if depth > r.maxDepth {
		return nil, &DepthError{Depth: depth, Max: r.maxDepth}
	}

	sets, err := r.classify(expr, nil)
	if err != nil {
		return nil, err
	}

	scope := r.tableExpressions(q.core, q.visible)

	var fields []core.InputField
	for pair := sets.Oldest(); pair != nil; pair = pair.Next() {
		set := pair.Value
		if context != nil {
			if set, err = mergeSets(context, set); err != nil {
				return nil, err
			}
		}

		qualifier, column := splitReference(pair.Key)

		if field, ok := r.resolveRegular(scope, qualifier, column, set); ok {
			fields = append(fields, field)
			continue
		}

		resolved, err := r.resolveDerived(scope, qualifier, column, set, depth)
		if err != nil {
			return nil, err
		}
		if len(resolved) == 0 {
			r.logger.Debug("unresolved column reference", "column", pair.Key, "depth", depth)
		}
		fields = append(fields, resolved...)
	}
	return fields, nil
}

// resolveRegular returns the first physical table in FROM order that
// declares column and matches qualifier.
func (r *resolver) resolveRegular(scope tableScope, qualifier, column string, set *TransformationSet) (core.InputField, bool) {
	for _, rt := range scope.regular {
		if !r.matchesQualifier(qualifier, rt.ref) {
			continue
		}
		table, ok := r.schemaTable(rt.ref)
		if !ok {
			continue
		}
		field, ok := r.declaredColumn(table, column)
		if !ok {
			continue
		}
		return core.InputField{
			Namespace:       r.schema.Namespace,
			Name:            table.Name,
			Field:           field,
			Transformations: set.Values(),
		}, true
	}
	return core.InputField{}, false
}

// resolveDerived traces column into every derived table matching
// qualifier, or into all of them when the reference is unqualified.
func (r *resolver) resolveDerived(scope tableScope, qualifier, column string, set *TransformationSet, depth int) ([]core.InputField, error) {
	var fields []core.InputField
	for _, dt := range scope.derived {
		if qualifier != "" && !r.sameIdent(qualifier, dt.alias) {
			continue
		}

		branches := queries(dt.stmt, dt.visible)
		if len(branches) == 0 {
			continue
		}

		index := r.projectionIndex(branches[0].core, column)
		for _, branch := range branches {
			expr := r.branchExpr(branch.core, index, column)
			resolved, err := r.columnLineage(branch, expr, set, depth+1)
			if err != nil {
				return nil, err
			}
			fields = append(fields, resolved...)
		}
	}
	return fields, nil
}

// projectionIndex returns the position of the projection named column, or
// -1 when no projection carries that name.
func (r *resolver) projectionIndex(sc *core.SelectCore, column string) int {
	for i, item := range sc.Columns {
		if item.IsStar() {
			continue
		}
		if name, ok := outputName(item); ok && r.sameIdent(name, column) {
			return i
		}
	}
	return -1
}

// branchExpr picks the expression to trace inside one branch of a derived
// table. Set operation branches are matched by position; an unmatched
// column is traced as a bare reference, which lets it pass through "*".
func (r *resolver) branchExpr(sc *core.SelectCore, index int, column string) core.Expr {
	if index >= 0 && index < len(sc.Columns) && !sc.Columns[index].IsStar() {
		return sc.Columns[index].Expr
	}
	return &core.ColumnRef{Column: column}
}

// splitReference splits "qualifier.column" on its last dot.
func splitReference(name string) (qualifier, column string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
