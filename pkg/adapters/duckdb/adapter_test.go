package duckdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg adapter.Config) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Introspect(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{Type: "duckdb"})

	for _, stmt := range []string{
		"CREATE TABLE orders (id INTEGER, customer_id INTEGER, amount DECIMAL(10,2))",
		"CREATE SCHEMA staging",
		"CREATE TABLE staging.customers (id INTEGER, name VARCHAR)",
	} {
		_, err := adp.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	schema, err := adp.Introspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, "duckdb", schema.Namespace)

	orders, ok := schema.Table("main.orders")
	require.True(t, ok, "tables are qualified with their schema")
	assert.Equal(t, []string{"id", "customer_id", "amount"}, orders.Columns)

	customers, ok := schema.Table("staging.customers")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name"}, customers.Columns)
}

func TestAdapter_IntrospectSelectedSchemas(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, adapter.Config{Type: "duckdb", Schemas: []string{"staging"}})

	for _, stmt := range []string{
		"CREATE TABLE orders (id INTEGER)",
		"CREATE SCHEMA staging",
		"CREATE TABLE staging.customers (id INTEGER)",
	} {
		_, err := adp.DB.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	schema, err := adp.Introspect(ctx)
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)
	assert.Equal(t, "staging.customers", schema.Tables[0].Name)
}

func TestAdapter_Attach(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "warehouse.duckdb")

	src := New(nil)
	require.NoError(t, src.Connect(ctx, adapter.Config{Type: "duckdb", DSN: path}))
	_, err := src.DB.ExecContext(ctx, "CREATE TABLE events (id INTEGER, payload VARCHAR)")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	adp := connect(t, adapter.Config{
		Type: "duckdb",
		Params: map[string]any{
			"attach":   map[string]any{"wh": path},
			"settings": map[string]any{"threads": 2},
		},
	})

	schema, err := adp.Introspect(ctx)
	require.NoError(t, err)
	events, ok := schema.Table("main.events")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "payload"}, events.Columns)
}

func TestAdapter_NotConnected(t *testing.T) {
	_, err := New(nil).Introspect(context.Background())
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		expected Params
		errMsg   string
	}{
		{name: "empty", raw: nil},
		{
			name: "all fields",
			raw: map[string]any{
				"extensions": []any{"json"},
				"settings":   map[string]any{"memory_limit": "1GB"},
			},
			expected: Params{
				Extensions: []string{"json"},
				Settings:   map[string]string{"memory_limit": "1GB"},
			},
		},
		{
			name:     "weakly typed setting",
			raw:      map[string]any{"settings": map[string]any{"threads": 4}},
			expected: Params{Settings: map[string]string{"threads": "4"}},
		},
		{
			name:   "unknown key",
			raw:    map[string]any{"secrets": []any{}},
			errMsg: "invalid duckdb params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parseParams(tt.raw)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
		})
	}
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"memory_limit"`, quoteIdent("memory_limit"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	assert.Equal(t, `'it''s'`, quoteLiteral("it's"))
}
