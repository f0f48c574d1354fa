package lineage

import "github.com/leapstack-labs/leaplineage/pkg/core"

// cteDef is a common table expression together with the CTEs visible to
// its own body: those of enclosing statements and those declared before it.
type cteDef struct {
	name    string
	stmt    *core.SelectStmt
	visible []*cteDef
}

// regularTable is a FROM reference to a physical table.
type regularTable struct {
	ref *core.TableName
}

// derivedTable is a FROM item backed by a nested select: a subquery or a
// reference to a CTE.
type derivedTable struct {
	alias   string
	stmt    *core.SelectStmt
	visible []*cteDef
}

// tableScope is everything a column reference in one select core can
// resolve against, in FROM order.
type tableScope struct {
	regular []regularTable
	derived []derivedTable
}

// withScope returns the CTEs visible to the body of stmt: the inherited
// ones followed by those stmt declares, in declaration order.
func withScope(stmt *core.SelectStmt, inherited []*cteDef) []*cteDef {
	if stmt.With == nil || len(stmt.With.CTEs) == 0 {
		return inherited
	}

	visible := make([]*cteDef, len(inherited), len(inherited)+len(stmt.With.CTEs))
	copy(visible, inherited)
	for _, cte := range stmt.With.CTEs {
		visible = append(visible, &cteDef{
			name:    cte.Name,
			stmt:    cte.Select,
			visible: visible[:len(visible):len(visible)],
		})
	}
	return visible
}

// findCTE returns the visible CTE named name. Later declarations shadow
// earlier ones, so inner WITH clauses win over enclosing ones.
func (r *resolver) findCTE(visible []*cteDef, name string) *cteDef {
	for i := len(visible) - 1; i >= 0; i-- {
		if r.sameIdent(visible[i].name, name) {
			return visible[i]
		}
	}
	return nil
}

// tableExpressions classifies the FROM items of sc. A table name matching a
// visible CTE becomes a derived table under the FROM alias, or under the
// CTE name when there is none.
func (r *resolver) tableExpressions(sc *core.SelectCore, visible []*cteDef) tableScope {
	var scope tableScope
	for _, item := range sc.From.Items() {
		switch ref := item.(type) {
		case *core.TableName:
			if ref.Schema == "" && ref.Catalog == "" {
				if cte := r.findCTE(visible, ref.Name); cte != nil {
					alias := ref.Alias
					if alias == "" {
						alias = cte.name
					}
					scope.derived = append(scope.derived, derivedTable{alias: alias, stmt: cte.stmt, visible: cte.visible})
					continue
				}
			}
			scope.regular = append(scope.regular, regularTable{ref: ref})

		case *core.DerivedTable:
			if ref.Select == nil {
				continue
			}
			scope.derived = append(scope.derived, derivedTable{alias: ref.Alias, stmt: ref.Select, visible: visible})
		}
	}
	return scope
}

// schemaTable finds the schema table a FROM reference points at. An exact
// match on the qualified name wins; otherwise unqualified names on either
// side match by their last segment.
func (r *resolver) schemaTable(ref *core.TableName) (core.Table, bool) {
	if r.schema == nil {
		return core.Table{}, false
	}
	qualified := ref.QualifiedName()
	for _, t := range r.schema.Tables {
		if r.sameIdent(t.Name, qualified) {
			return t, true
		}
	}
	for _, t := range r.schema.Tables {
		unqualified := ref.Schema == "" || t.BaseName() == t.Name
		if unqualified && r.sameIdent(t.BaseName(), ref.Name) {
			return t, true
		}
	}
	return core.Table{}, false
}

// matchesQualifier reports whether a column qualifier names the reference,
// by alias, bare name or qualified name. An empty qualifier matches.
func (r *resolver) matchesQualifier(qualifier string, ref *core.TableName) bool {
	if qualifier == "" {
		return true
	}
	return r.sameIdent(qualifier, ref.Alias) ||
		r.sameIdent(qualifier, ref.Name) ||
		r.sameIdent(qualifier, ref.QualifiedName())
}

// declaredColumn returns the column as spelled in the schema.
func (r *resolver) declaredColumn(t core.Table, column string) (string, bool) {
	for _, c := range t.Columns {
		if r.sameIdent(c, column) {
			return c, true
		}
	}
	return "", false
}

// outputName is the name a projection is visible under: its alias, else
// the bare column name of a column reference.
func outputName(item core.SelectItem) (string, bool) {
	if item.Alias != "" {
		return item.Alias, true
	}
	if ref, ok := item.Expr.(*core.ColumnRef); ok {
		return ref.Column, true
	}
	return "", false
}
