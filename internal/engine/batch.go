package engine

// batch.go - Dependency-ordered lineage extraction for a directory of queries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leaplineage/internal/dag"
	"github.com/leapstack-labs/leaplineage/internal/loader"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// ErrDuplicateOutput is returned when two queries produce the same dataset.
var ErrDuplicateOutput = errors.New("duplicate output dataset")

// Plan is a set of queries ordered by the datasets they read and write.
// Nodes are keyed by output dataset.
type Plan struct {
	Dir   string
	Graph *dag.Graph[*loader.Query]
}

// Outputs returns the output datasets of the queries at paths.
func (p *Plan) Outputs(paths []string) []string {
	want := make(map[string]bool, len(paths))
	for _, path := range paths {
		want[filepath.Clean(path)] = true
	}
	var outputs []string
	for _, id := range p.Graph.IDs() {
		q, _ := p.Graph.Node(id)
		if want[filepath.Clean(q.Path)] {
			outputs = append(outputs, id)
		}
	}
	return outputs
}

// Batch is the outcome of executing a plan.
type Batch struct {
	// Analyses holds successful results in execution order.
	Analyses []*Analysis
	// Failed maps query paths to their extraction errors.
	Failed map[string]error
	// Skipped lists queries not run because an upstream query failed.
	Skipped []string
}

// Err joins the failures of the batch, or returns nil.
func (b *Batch) Err() error {
	if len(b.Failed) == 0 {
		return nil
	}
	paths := make([]string, 0, len(b.Failed))
	for path := range b.Failed {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	errs := make([]error, 0, len(paths))
	for _, path := range paths {
		errs = append(errs, b.Failed[path])
	}
	return fmt.Errorf("%d query(s) failed: %w", len(b.Failed), errors.Join(errs...))
}

// Analysis returns the analysis of the query producing output.
func (b *Batch) Analysis(output string) (*Analysis, bool) {
	for _, a := range b.Analyses {
		if a.Output() == output {
			return a, true
		}
	}
	return nil, false
}

// ExecuteOptions narrows a plan execution.
type ExecuteOptions struct {
	// Only limits extraction to these outputs. Empty runs every query.
	Only []string
	// Previous supplies results for queries outside Only. Reused results
	// feed later levels but are not reported again.
	Previous *Batch
}

// Plan loads every query under dir and links a query to the queries whose
// output datasets it reads. Files that fail to load abort planning.
func (e *Engine) Plan(dir string) (*Plan, error) {
	paths, err := loader.ScanDir(dir)
	if err != nil {
		return nil, err
	}

	graph := dag.New[*loader.Query]()
	var loadErrors []error
	for _, path := range paths {
		q, err := loader.LoadFile(path, dir)
		if err != nil {
			loadErrors = append(loadErrors, err)
			continue
		}
		if prev, ok := graph.Node(q.Config.Output); ok {
			loadErrors = append(loadErrors, fmt.Errorf("%w %s in %s and %s", ErrDuplicateOutput, q.Config.Output, prev.Path, q.Path))
			continue
		}
		graph.AddNode(q.Config.Output, q)
	}
	if len(loadErrors) > 0 {
		return nil, fmt.Errorf("%d file(s) failed to load: %w", len(loadErrors), errors.Join(loadErrors...))
	}

	outputs := graph.IDs()
	for _, id := range outputs {
		q, _ := graph.Node(id)
		d, err := e.DialectFor(q)
		if err != nil {
			return nil, err
		}
		stmt, err := parser.ParseWithDialect(q.SQL, d)
		if err != nil {
			// Reported when the query is analyzed.
			continue
		}
		for _, source := range lineage.SourceTables(stmt, lineage.WithDialect(d)) {
			if parent, ok := matchOutput(d, source, outputs); ok && parent != id {
				if err := graph.AddEdge(parent, id); err != nil {
					return nil, err
				}
			}
		}
	}

	e.logger.Debug("planned queries",
		slog.String("dir", dir),
		slog.Int("queries", graph.Len()),
		slog.Int("dependencies", graph.EdgeCount()))
	return &Plan{Dir: dir, Graph: graph}, nil
}

// RunDir plans and executes every query under dir.
func (e *Engine) RunDir(ctx context.Context, dir string) (*Batch, error) {
	plan, err := e.Plan(dir)
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, plan, ExecuteOptions{})
}

// Execute resolves the queries of plan level by level. Queries within a
// level run concurrently. After each level the outputs it produced are
// added to the schema seen by later levels, so downstream queries resolve
// the columns of datasets produced upstream.
func (e *Engine) Execute(ctx context.Context, plan *Plan, opts ExecuteOptions) (*Batch, error) {
	levels, err := plan.Graph.Levels()
	if err != nil {
		return nil, err
	}

	only := make(map[string]bool, len(opts.Only))
	for _, id := range opts.Only {
		only[id] = true
	}

	batch := &Batch{Failed: make(map[string]error)}
	unavailable := make(map[string]bool)
	schema := e.schema

	for i, level := range levels {
		e.logger.Debug("executing level", slog.Int("level", i), slog.Int("queries", len(level)))

		results := make([]*Analysis, len(level))
		reused := make([]bool, len(level))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.concurrency)
		for j, id := range level {
			q, _ := plan.Graph.Node(id)

			if upstreamUnavailable(plan.Graph.Parents(id), unavailable) {
				unavailable[id] = true
				batch.Skipped = append(batch.Skipped, q.Path)
				continue
			}

			if len(only) > 0 && !only[id] && opts.Previous != nil {
				if prev, ok := opts.Previous.Analysis(id); ok {
					results[j] = prev
					reused[j] = true
					continue
				}
			}

			levelSchema := schema
			g.Go(func() error {
				a, err := e.analyze(gctx, q, levelSchema)
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					mu.Lock()
					batch.Failed[q.Path] = err
					mu.Unlock()
					return nil
				}
				results[j] = a
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return batch, err
		}

		var produced []core.Table
		for j, id := range level {
			a := results[j]
			if a == nil {
				unavailable[id] = true
				continue
			}
			if !reused[j] {
				batch.Analyses = append(batch.Analyses, a)
			}
			produced = append(produced, core.Table{Name: id, Columns: a.Result.Names()})
		}
		schema = withTables(schema, produced)
	}

	e.logger.Info("batch finished",
		slog.Int("succeeded", len(batch.Analyses)),
		slog.Int("failed", len(batch.Failed)),
		slog.Int("skipped", len(batch.Skipped)))
	return batch, nil
}

func upstreamUnavailable(parents []string, unavailable map[string]bool) bool {
	for _, p := range parents {
		if unavailable[p] {
			return true
		}
	}
	return false
}

// withTables returns a copy of schema with tables added. A table replaces
// a schema table of the same name.
func withTables(schema *core.Schema, tables []core.Table) *core.Schema {
	if len(tables) == 0 {
		return schema
	}
	replaced := make(map[string]bool, len(tables))
	for _, t := range tables {
		replaced[t.Name] = true
	}

	out := &core.Schema{Namespace: schema.Namespace}
	for _, t := range schema.Tables {
		if !replaced[t.Name] {
			out.Tables = append(out.Tables, t)
		}
	}
	out.Tables = append(out.Tables, tables...)
	return out
}

// matchOutput finds the output dataset a table reference reads. A match
// on the qualified name wins; otherwise an unqualified name on either side
// matches by its last segment.
func matchOutput(d *dialect.Dialect, source string, outputs []string) (string, bool) {
	for _, out := range outputs {
		if d.NormalizeName(out) == d.NormalizeName(source) {
			return out, true
		}
	}
	sourceTable := core.Table{Name: source}
	for _, out := range outputs {
		outTable := core.Table{Name: out}
		unqualified := sourceTable.BaseName() == source || outTable.BaseName() == out
		if unqualified && d.NormalizeName(outTable.BaseName()) == d.NormalizeName(sourceTable.BaseName()) {
			return out, true
		}
	}
	return "", false
}
