package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaplineage/internal/loader"
	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/leapstack-labs/leaplineage/internal/testutil"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/openlineage"

	// Register dialects via init()
	_ "github.com/leapstack-labs/leaplineage/pkg/dialects/duckdb"
)

func testSchema() *core.Schema {
	return &core.Schema{
		Namespace: "warehouse",
		Tables: []core.Table{
			{Name: "raw.orders", Columns: []string{"id", "customer_id", "amount"}},
			{Name: "raw.customers", Columns: []string{"id", "name"}},
		},
	}
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Schema == nil {
		cfg.Schema = testSchema()
	}
	if cfg.Logger == nil {
		cfg.Logger = testutil.NewTestLogger(t)
	}
	e, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeQuery(t *testing.T, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		e := newTestEngine(t, Config{})
		assert.Nil(t, e.Store(), "recording disabled without a state path")
		assert.Equal(t, dialect.Default(), e.Dialect())
		assert.Equal(t, "warehouse", e.Namespace())
	})

	t.Run("namespace override", func(t *testing.T) {
		e := newTestEngine(t, Config{Namespace: "analytics"})
		assert.Equal(t, "analytics", e.Namespace())
	})

	t.Run("unknown dialect", func(t *testing.T) {
		_, err := New(Config{Dialect: "oracle"})
		assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
	})

	t.Run("state store", func(t *testing.T) {
		e := newTestEngine(t, Config{StatePath: filepath.Join(t.TempDir(), "state", "history.db")})
		assert.NotNil(t, e.Store())
	})
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{StatePath: ":memory:", Producer: "test://producer"})

	q, err := loader.ParseContent("models/order_totals.sql", "models", `/*---
name: order_totals
output: marts.order_totals
---*/
SELECT o.id, c.name AS customer, o.amount * 100 AS cents
FROM raw.orders o JOIN raw.customers c ON o.customer_id = c.id`)
	require.NoError(t, err)

	a, err := e.Analyze(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, "marts.order_totals", a.Output())
	assert.Equal(t, []string{"id", "customer", "cents"}, a.Result.Names())

	cents, ok := a.Result.Field("cents")
	require.True(t, ok)
	require.Len(t, cents.InputFields, 1)
	assert.Equal(t, core.InputField{
		Namespace:       "warehouse",
		Name:            "raw.orders",
		Field:           "amount",
		Transformations: []core.Transformation{core.DirectTransformation},
	}, cents.InputFields[0])

	require.NotNil(t, a.Event)
	assert.Equal(t, openlineage.EventComplete, a.Event.EventType)
	assert.Equal(t, "test://producer", a.Event.Producer)
	assert.Equal(t, openlineage.Job{Namespace: "warehouse", Name: "order_totals"}, a.Event.Job)
	assert.Equal(t, a.Run.ID, a.Event.Run.RunID.String())
	require.Len(t, a.Event.Outputs, 1)
	assert.Equal(t, "marts.order_totals", a.Event.Outputs[0].Name)
	assert.Len(t, a.Event.Inputs, 2)

	run, err := e.Store().GetRun(ctx, a.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, state.RunStatusCompleted, run.Status)
	assert.Equal(t, "order_totals", run.JobName)
	assert.Equal(t, 3, run.ColumnCount)

	runs, err := e.Store().FindBySource(ctx, "raw.orders", "amount")
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, a.Run.ID, runs[0].ID)
}

func TestAnalyzeWithoutConfig(t *testing.T) {
	e := newTestEngine(t, Config{})

	tests := []struct {
		name     string
		query    *loader.Query
		wantName string
	}{
		{name: "no path", query: &loader.Query{SQL: "SELECT id FROM raw.orders"}, wantName: "query"},
		{name: "path", query: &loader.Query{Path: "adhoc/totals.sql", SQL: "SELECT id FROM raw.orders"}, wantName: "totals"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.Analyze(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, a.Query.Config.Name)
			assert.Equal(t, tt.wantName, a.Output())
			assert.Equal(t, tt.wantName, a.Event.Job.Name)
			assert.Equal(t, []string{"id"}, a.Result.Names())
			assert.Nil(t, tt.query.Config, "the caller's query is left untouched")
		})
	}
}

func TestAnalyzeDialectOverride(t *testing.T) {
	e := newTestEngine(t, Config{})

	q, err := loader.ParseContent("q.sql", "", "/*---\ndialect: duckdb\n---*/\nSELECT amount::INTEGER AS amt FROM raw.orders")
	require.NoError(t, err)

	a, err := e.Analyze(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", a.Dialect.Name)
	assert.Equal(t, "duckdb", a.Run.Dialect)

	q.Config.Dialect = "oracle"
	_, err = e.Analyze(context.Background(), q)
	assert.ErrorIs(t, err, dialect.ErrUnknownDialect)
}

func TestAnalyzeRecordsFailures(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, Config{StatePath: ":memory:"})

	q, err := loader.ParseContent("broken.sql", "", "SELECT FROM")
	require.NoError(t, err)

	_, err = e.Analyze(ctx, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.sql")

	runs, err := e.Store().ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, state.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
	assert.Zero(t, runs[0].ColumnCount)
}

func TestAnalyzeCanceled(t *testing.T) {
	e := newTestEngine(t, Config{StatePath: ":memory:"})

	q, err := loader.ParseContent("q.sql", "", "SELECT id FROM raw.orders")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Analyze(ctx, q)
	assert.ErrorIs(t, err, context.Canceled)

	runs, err := e.Store().ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "canceled extractions are not recorded")
}
