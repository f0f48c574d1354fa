package lineage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrNoSelect is returned for a statement without a select body.
var ErrNoSelect = errors.New("statement has no select body")

// Option configures a GetLineage call.
type Option func(*options)

type options struct {
	dialect  *dialect.Dialect
	maxDepth int
	logger   *slog.Logger
}

// WithDialect sets the dialect used to classify functions and compare
// identifiers. The registry default is used otherwise.
func WithDialect(d *dialect.Dialect) Option {
	return func(o *options) {
		if d != nil {
			o.dialect = d
		}
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithLogger sets the logger unresolved references are reported to at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Result maps each output column name to its lineage, in projection order.
type Result struct {
	fields *orderedmap.OrderedMap[string, core.FieldLineage]
}

func newResult() *Result {
	return &Result{fields: orderedmap.New[string, core.FieldLineage]()}
}

// NewResult builds a result from previously resolved columns, such as
// lineage read back from run history.
func NewResult(names []string, fields map[string]core.FieldLineage) *Result {
	r := newResult()
	for _, name := range names {
		r.fields.Set(name, fields[name])
	}
	return r
}

// Names returns the output column names in projection order.
func (r *Result) Names() []string {
	names := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Field returns the lineage of one output column.
func (r *Result) Field(name string) (core.FieldLineage, bool) {
	return r.fields.Get(name)
}

// Len returns the number of output columns.
func (r *Result) Len() int {
	return r.fields.Len()
}

// Each calls fn for every output column in projection order.
func (r *Result) Each(fn func(name string, field core.FieldLineage)) {
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON encodes the result as an object whose keys keep projection order.
func (r *Result) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes an object produced by MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	r.fields = orderedmap.New[string, core.FieldLineage]()
	return r.fields.UnmarshalJSON(data)
}

// GetLineage resolves the source columns of every output column of stmt
// against schema. Star projections are skipped; projections without a
// name are called unknown_0, unknown_1, ... and a repeated name keeps the
// lineage of its last occurrence.
func GetLineage(stmt *core.SelectStmt, schema *core.Schema, opts ...Option) (*Result, error) {
	o := options{
		dialect:  dialect.Default(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if stmt == nil || stmt.Body == nil || stmt.Body.Left == nil {
		return nil, ErrNoSelect
	}

	r := &resolver{
		schema:   schema,
		dialect:  o.dialect,
		maxDepth: o.maxDepth,
		logger:   o.logger,
	}

	branches := queries(stmt, nil)
	result := newResult()
	unknown := 0

	for i, item := range branches[0].core.Columns {
		if item.IsStar() {
			continue
		}

		name, ok := outputName(item)
		if !ok {
			name = fmt.Sprintf("unknown_%d", unknown)
			unknown++
		}

		var inputs []core.InputField
		for _, branch := range branches {
			expr := item.Expr
			if branch.core != branches[0].core {
				if i >= len(branch.core.Columns) || branch.core.Columns[i].IsStar() {
					continue
				}
				expr = branch.core.Columns[i].Expr
			}
			fields, err := r.columnLineage(branch, expr, nil, 0)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			inputs = append(inputs, fields...)
		}

		if inputs == nil {
			inputs = []core.InputField{}
		}
		result.fields.Set(name, core.FieldLineage{InputFields: inputs})
	}

	return result, nil
}
