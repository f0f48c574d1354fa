package lineage

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// columnSets maps a qualified column reference ("t.col" or "col") to the
// transformations through which it reaches an expression's value.
type columnSets = orderedmap.OrderedMap[string, *TransformationSet]

func newColumnSets() *columnSets {
	return orderedmap.New[string, *TransformationSet]()
}

// classify walks expr and returns the columns it references, each with the
// transformations applied on the way to the value. parent is the
// transformation inherited from enclosing nodes, nil at the root.
func (r *resolver) classify(expr core.Expr, parent *core.Transformation) (*columnSets, error) {
	switch e := expr.(type) {
	case *core.ColumnRef:
		t, err := Merge(parent, core.DirectIdentity)
		if err != nil {
			return nil, err
		}
		out := newColumnSets()
		out.Set(e.QualifiedName(), NewTransformationSet(t))
		return out, nil

	case *core.ParenExpr:
		return r.classify(e.Expr, parent)

	case *core.BinaryExpr:
		return r.classifyOperands([]core.Expr{e.Left, e.Right}, parent, core.DirectTransformation)

	case *core.UnaryExpr:
		return r.classifyOperands([]core.Expr{e.Expr}, parent, core.DirectTransformation)

	case *core.CastExpr:
		return r.classifyOperands([]core.Expr{e.Expr}, parent, core.DirectTransformation)

	case *core.FuncCall:
		if e.Star {
			return newColumnSets(), nil
		}
		if r.dialect.IsAggregate(e.Name) {
			agg := core.DirectAggregation.Masked(r.dialect.IsMaskingAggregate(e.Name))
			return r.classifyOperands(e.Args, parent, agg)
		}
		fn := core.DirectTransformation.Masked(r.dialect.IsMaskingFunction(e.Name))
		return r.classifyOperands(e.Args, parent, fn)
	}

	return newColumnSets(), nil
}

// classifyOperands classifies each operand under merge(parent, local) and
// combines the results. A column reached through several operands keeps
// only the transformations common to all of them.
func (r *resolver) classifyOperands(operands []core.Expr, parent *core.Transformation, local core.Transformation) (*columnSets, error) {
	next, err := Merge(parent, local)
	if err != nil {
		return nil, err
	}

	out := newColumnSets()
	for _, operand := range operands {
		sets, err := r.classify(operand, &next)
		if err != nil {
			return nil, err
		}
		for pair := sets.Oldest(); pair != nil; pair = pair.Next() {
			if existing, ok := out.Get(pair.Key); ok {
				out.Set(pair.Key, existing.Intersection(pair.Value))
				continue
			}
			out.Set(pair.Key, pair.Value)
		}
	}
	return out, nil
}
