package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialects/duckdb"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schema() *core.Schema {
	return &core.Schema{
		Namespace: "warehouse",
		Tables: []core.Table{
			{Name: "main.events", Columns: []string{"user_id", "kind", "ts"}},
		},
	}
}

func TestExtract(t *testing.T) {
	e := New(duckdb.DuckDB, schema(), nil)

	result, err := e.Extract(context.Background(), `
		SELECT user_id, COUNT_IF(kind = 'click') AS clicks, ts::DATE AS day
		FROM events
		QUALIFY ROW_NUMBER() OVER (PARTITION BY user_id ORDER BY ts) = 1`)
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "clicks", "day"}, result.Names())

	clicks, ok := result.Field("clicks")
	require.True(t, ok)
	require.Len(t, clicks.InputFields, 1)
	assert.Equal(t, "kind", clicks.InputFields[0].Field)
	assert.Equal(t, []core.Transformation{core.DirectAggregation.Masked(true)}, clicks.InputFields[0].Transformations)

	day, ok := result.Field("day")
	require.True(t, ok)
	require.Len(t, day.InputFields, 1)
	assert.Equal(t, "main.events", day.InputFields[0].Name)
	assert.Equal(t, []core.Transformation{core.DirectTransformation}, day.InputFields[0].Transformations)
}

func TestExtractErrors(t *testing.T) {
	e := New(nil, schema(), nil)

	_, err := e.Extract(context.Background(), "SELECT FROM")
	var pe *parser.ParseError
	assert.ErrorAs(t, err, &pe)

	e.MaxDepth = 1
	_, err = e.Extract(context.Background(), `
		WITH a AS (SELECT user_id FROM events), b AS (SELECT user_id FROM a)
		SELECT user_id FROM b`)
	assert.ErrorIs(t, err, lineage.ErrMaxDepthExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Extract(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT kind AS k FROM events"), 0o600))

	result, err := New(nil, schema(), nil).ExtractFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"k"}, result.Names())

	_, err = New(nil, schema(), nil).ExtractFile(context.Background(), filepath.Join(t.TempDir(), "missing.sql"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
