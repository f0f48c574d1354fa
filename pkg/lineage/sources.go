package lineage

import (
	"log/slog"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
)

// SourceTables returns the qualified names of the physical tables stmt
// reads in FROM clauses, in first-seen order. References to CTEs are
// followed into the CTE body instead of being listed. Only WithDialect
// and WithMaxDepth apply.
func SourceTables(stmt *core.SelectStmt, opts ...Option) []string {
	o := options{
		dialect:  dialect.Default(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &resolver{dialect: o.dialect, maxDepth: o.maxDepth, logger: o.logger}
	seen := make(map[string]struct{})
	var tables []string

	var walk func(stmt *core.SelectStmt, inherited []*cteDef, depth int)
	walk = func(stmt *core.SelectStmt, inherited []*cteDef, depth int) {
		if depth > r.maxDepth {
			return
		}
		for _, q := range queries(stmt, inherited) {
			scope := r.tableExpressions(q.core, q.visible)
			for _, t := range scope.regular {
				name := t.ref.QualifiedName()
				key := r.dialect.NormalizeName(name)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				tables = append(tables, name)
			}
			for _, d := range scope.derived {
				walk(d.stmt, d.visible, depth+1)
			}
		}
	}
	walk(stmt, nil, 0)

	return tables
}
