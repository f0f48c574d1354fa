// Package engine ties schema, dialect, lineage extraction, run history and
// OpenLineage events together for the CLI.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leaplineage/internal/loader"
	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/extract"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/openlineage"
)

// defaultJobName names queries that carry neither a path nor frontmatter.
const defaultJobName = "query"

// Engine resolves lineage for query files against one schema.
type Engine struct {
	dialect     *dialect.Dialect
	schema      *core.Schema
	namespace   string
	producer    string
	maxDepth    int
	concurrency int

	// Structured logger
	logger *slog.Logger

	// store is nil when recording is disabled.
	store state.Store
}

// Config holds engine configuration.
type Config struct {
	// Dialect is the default dialect name; query frontmatter may override it.
	Dialect string
	// Schema is the schema queries are resolved against. Nil means empty.
	Schema *core.Schema
	// Namespace overrides the schema namespace for jobs and datasets.
	Namespace string
	// Producer is the URI stamped on OpenLineage events.
	Producer string
	// MaxDepth bounds derived-table recursion. Zero uses the library default.
	MaxDepth int
	// Concurrency bounds parallel extractions in batch runs.
	Concurrency int
	// StatePath is the run history database. Empty disables recording.
	StatePath string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Analysis is the outcome of resolving one query.
type Analysis struct {
	Query   *loader.Query
	Dialect *dialect.Dialect
	Result  *lineage.Result
	Run     *state.Run
	Event   *openlineage.RunEvent
}

// Output returns the dataset the query produces.
func (a *Analysis) Output() string {
	return a.Query.Config.Output
}

// New creates an engine. The state store is opened only when StatePath is set.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	d := dialect.Default()
	if cfg.Dialect != "" {
		resolved, err := dialect.Lookup(cfg.Dialect)
		if err != nil {
			return nil, err
		}
		d = resolved
	}

	schema := cfg.Schema
	if schema == nil {
		schema = &core.Schema{}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	e := &Engine{
		dialect:     d,
		schema:      schema,
		namespace:   cfg.Namespace,
		producer:    cfg.Producer,
		maxDepth:    cfg.MaxDepth,
		concurrency: concurrency,
		logger:      logger,
	}

	if cfg.StatePath != "" {
		store := state.NewSQLiteStore(logger)
		if err := store.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		e.store = store
	}

	logger.Debug("initializing engine",
		slog.String("dialect", d.Name),
		slog.Int("tables", len(schema.Tables)),
		slog.Bool("recording", e.store != nil))
	return e, nil
}

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			return fmt.Errorf("errors closing engine: %w", err)
		}
	}
	return nil
}

// --- Getters (public accessors) ---

// Store returns the run history store, or nil when recording is disabled.
func (e *Engine) Store() state.Store {
	return e.store
}

// Schema returns the schema queries are resolved against.
func (e *Engine) Schema() *core.Schema {
	return e.schema
}

// Dialect returns the default dialect.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// Namespace returns the namespace jobs and datasets are reported under.
func (e *Engine) Namespace() string {
	if e.namespace != "" {
		return e.namespace
	}
	if e.schema.Namespace != "" {
		return e.schema.Namespace
	}
	return "default"
}

// DialectFor returns the dialect a query is resolved with.
func (e *Engine) DialectFor(q *loader.Query) (*dialect.Dialect, error) {
	if q.Config == nil || q.Config.Dialect == "" {
		return e.dialect, nil
	}
	d, err := dialect.Lookup(q.Config.Dialect)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", q.Path, err)
	}
	return d, nil
}

// Analyze resolves the lineage of q against the engine schema and records
// the run. Failed extractions are recorded too and returned as errors.
func (e *Engine) Analyze(ctx context.Context, q *loader.Query) (*Analysis, error) {
	return e.analyze(ctx, q, e.schema)
}

func (e *Engine) analyze(ctx context.Context, q *loader.Query, schema *core.Schema) (*Analysis, error) {
	q = withConfig(q)
	d, err := e.DialectFor(q)
	if err != nil {
		return nil, err
	}

	ex := extract.New(d, schema, e.logger)
	if e.maxDepth > 0 {
		ex.MaxDepth = e.maxDepth
	}

	namespace := e.Namespace()
	if q.Config.Namespace != "" {
		namespace = q.Config.Namespace
	}

	runID := uuid.New()
	run := &state.Run{
		ID:        runID.String(),
		JobName:   q.Config.Name,
		Source:    q.Path,
		Dialect:   d.Name,
		Namespace: namespace,
		SQL:       q.SQL,
		Status:    state.RunStatusCompleted,
	}

	e.logger.Debug("analyzing query", slog.String("path", q.Path), slog.String("dialect", d.Name))
	result, extractErr := ex.Extract(ctx, q.SQL)
	if extractErr != nil {
		if errors.Is(extractErr, context.Canceled) || errors.Is(extractErr, context.DeadlineExceeded) {
			return nil, extractErr
		}
		run.Status = state.RunStatusFailed
		run.Error = extractErr.Error()
	}

	if err := e.record(ctx, run, result); err != nil {
		return nil, err
	}

	if extractErr != nil {
		e.logger.Info("lineage extraction failed", slog.String("path", q.Path), slog.String("error", extractErr.Error()))
		return nil, fmt.Errorf("%s: %w", q.Path, extractErr)
	}

	event := openlineage.NewRunEvent(e.producer, runID,
		openlineage.Job{Namespace: namespace, Name: q.Config.Name},
		openlineage.Dataset{Namespace: namespace, Name: q.Config.Output},
		result)

	return &Analysis{Query: q, Dialect: d, Result: result, Run: run, Event: event}, nil
}

// withConfig returns q with frontmatter defaults filled in when the query
// was built by hand without a Config. q itself is not modified.
func withConfig(q *loader.Query) *loader.Query {
	if q.Config != nil {
		return q
	}
	name := defaultJobName
	if q.Path != "" && q.Path != "-" {
		name = filepath.Base(q.Path)
	}
	cfg := &loader.FrontmatterConfig{}
	cfg.ApplyDefaults(name, "")
	return &loader.Query{Path: q.Path, Config: cfg, SQL: q.SQL}
}

func (e *Engine) record(ctx context.Context, run *state.Run, result *lineage.Result) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.RecordRun(ctx, run, result); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	e.logger.Debug("recorded run", slog.String("run_id", run.ID), slog.String("status", string(run.Status)))
	return nil
}
