package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/cli/testutil"
)

const testSchema = `namespace: warehouse
tables:
  - name: raw.orders
    columns: [id, customer_id, amount, status]
  - name: raw.customers
    columns: [id, name, email]
`

// project is a temporary directory holding a schema, a state database
// location and a models/ tree.
type project struct {
	dir    string
	schema string
	state  string
}

func newProject(t *testing.T) *project {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	p := &project{
		dir:    dir,
		schema: filepath.Join(dir, "schema.yaml"),
		state:  filepath.Join(dir, ".leaplineage", "state.db"),
	}
	require.NoError(t, os.WriteFile(p.schema, []byte(testSchema), 0o600))
	return p
}

func (p *project) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (p *project) args(args ...string) []string {
	return append(args, "--schema", p.schema, "--state", p.state)
}

func execute(t *testing.T, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

type inputField struct {
	Namespace       string `json:"namespace"`
	Name            string `json:"name"`
	Field           string `json:"field"`
	Transformations []struct {
		Type    string `json:"type"`
		Subtype string `json:"subtype"`
		Masking bool   `json:"masking"`
	} `json:"transformations"`
}

type columns map[string]struct {
	InputFields []inputField `json:"inputFields"`
}

func TestLineageCommand(t *testing.T) {
	p := newProject(t)
	query := p.write(t, "models/order_totals.sql", `/*---
name: order_totals
output: marts.order_totals
---*/
SELECT c.name, SUM(o.amount) AS total, COUNT(o.id) AS orders
FROM raw.orders o JOIN raw.customers c ON o.customer_id = c.id
WHERE o.status = 'paid'
GROUP BY c.name`)

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, nil, p.args("lineage", query, "-o", "json")...)
		require.NoError(t, err)

		var got columns
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Contains(t, got, "total")

		var direct *inputField
		for i, in := range got["total"].InputFields {
			if in.Field == "amount" {
				direct = &got["total"].InputFields[i]
			}
		}
		require.NotNil(t, direct, "total is derived from raw.orders.amount")
		assert.Equal(t, "warehouse", direct.Namespace)
		assert.Equal(t, "raw.orders", direct.Name)

		assert.Less(t, strings.Index(out, `"name"`), strings.Index(out, `"total"`), "columns keep projection order")
	})

	t.Run("markdown", func(t *testing.T) {
		out, _, err := execute(t, nil, p.args("lineage", query, "--no-record")...)
		require.NoError(t, err)
		testutil.AssertNoANSI(t, out)
		testutil.AssertValidMarkdown(t, out)
		assert.Contains(t, out, "# Lineage: order_totals")
		assert.Contains(t, out, "warehouse/raw.orders.amount")
		assert.Contains(t, out, "marts.order_totals")
	})

	t.Run("openlineage from stdin", func(t *testing.T) {
		stdin := strings.NewReader("SELECT id, UPPER(email) AS email FROM raw.customers")
		out, _, err := execute(t, stdin, p.args("lineage", "-o", "openlineage", "--job-name", "adhoc")...)
		require.NoError(t, err)

		var event struct {
			EventType string `json:"eventType"`
			Job       struct {
				Namespace string `json:"namespace"`
				Name      string `json:"name"`
			} `json:"job"`
			Inputs  []struct{ Name string } `json:"inputs"`
			Outputs []struct {
				Name   string         `json:"name"`
				Facets map[string]any `json:"facets"`
			} `json:"outputs"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &event))
		assert.Equal(t, "COMPLETE", event.EventType)
		assert.Equal(t, "adhoc", event.Job.Name)
		assert.Equal(t, "warehouse", event.Job.Namespace)
		require.Len(t, event.Inputs, 1)
		assert.Equal(t, "raw.customers", event.Inputs[0].Name)
		require.Len(t, event.Outputs, 1)
		assert.Equal(t, "stdin", event.Outputs[0].Name)
		assert.Contains(t, event.Outputs[0].Facets, "columnLineage")
	})

	t.Run("parse error", func(t *testing.T) {
		bad := p.write(t, "bad.sql", "SELECT FROM WHERE")
		_, _, err := execute(t, nil, p.args("lineage", bad, "--no-record")...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad.sql")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := execute(t, nil, p.args("lineage", filepath.Join(p.dir, "nope.sql"))...)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestLineageWithoutSchema(t *testing.T) {
	t.Chdir(t.TempDir())

	stdin := strings.NewReader("SELECT id FROM orders")
	out, errOut, err := execute(t, stdin, "lineage", "--no-record", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, errOut, "no schema configured")

	var got columns
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Contains(t, got, "id")
	assert.Empty(t, got["id"].InputFields)
}

func TestBatchCommand(t *testing.T) {
	p := newProject(t)
	p.write(t, "models/staging/orders.sql", "SELECT id, customer_id, amount * 100 AS cents FROM raw.orders")
	p.write(t, "models/marts/revenue.sql", "SELECT customer_id, SUM(cents) AS revenue FROM staging.orders GROUP BY customer_id")

	out, _, err := execute(t, nil, p.args("batch", filepath.Join(p.dir, "models"), "-o", "json")...)
	require.NoError(t, err)

	var got struct {
		Queries []struct {
			Dataset string  `json:"dataset"`
			Columns columns `json:"columns"`
		} `json:"queries"`
		Issues []struct {
			Source string `json:"source"`
			Status string `json:"status"`
		} `json:"issues"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Queries, 2)
	assert.Equal(t, "staging.orders", got.Queries[0].Dataset)
	assert.Equal(t, "marts.revenue", got.Queries[1].Dataset)
	assert.Empty(t, got.Issues)

	revenue := got.Queries[1].Columns["revenue"].InputFields
	require.Len(t, revenue, 1)
	assert.Equal(t, "staging.orders", revenue[0].Name)
	assert.Equal(t, "cents", revenue[0].Field)

	t.Run("failures set the exit status", func(t *testing.T) {
		p.write(t, "models/broken.sql", "SELECT FROM")
		out, _, err := execute(t, nil, p.args("batch", filepath.Join(p.dir, "models"), "--no-record")...)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 query(s) failed")
		assert.Contains(t, out, "2 succeeded, 1 failed, 0 skipped")
	})
}

func TestHistoryCommand(t *testing.T) {
	p := newProject(t)
	query := p.write(t, "q.sql", "/*---\nname: first\n---*/\nSELECT id, 1 AS one FROM raw.orders")

	_, _, err := execute(t, nil, p.args("lineage", query, "-o", "json")...)
	require.NoError(t, err)

	out, _, err := execute(t, nil, p.args("history", "-o", "json")...)
	require.NoError(t, err)

	var runs []struct {
		ID      string `json:"id"`
		Job     string `json:"job"`
		Status  string `json:"status"`
		Columns int    `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "first", runs[0].Job)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 2, runs[0].Columns)

	t.Run("show by prefix", func(t *testing.T) {
		out, _, err := execute(t, nil, p.args("history", "show", runs[0].ID[:8], "-o", "json")...)
		require.NoError(t, err)

		var run struct {
			ID      string  `json:"id"`
			SQL     string  `json:"sql"`
			Lineage columns `json:"lineage"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &run))
		assert.Equal(t, runs[0].ID, run.ID)
		assert.Contains(t, run.SQL, "SELECT id")
		assert.Contains(t, run.Lineage, "one", "columns without inputs are recorded")
		require.Len(t, run.Lineage["id"].InputFields, 1)
	})

	t.Run("by source", func(t *testing.T) {
		out, _, err := execute(t, nil, p.args("history", "--source", "raw.orders.id", "-o", "json")...)
		require.NoError(t, err)
		assert.Contains(t, out, runs[0].ID)

		out, _, err = execute(t, nil, p.args("history", "--source", "raw.orders.amount", "-o", "json")...)
		require.NoError(t, err)
		assert.Equal(t, "[]", strings.TrimSpace(out))

		_, _, err = execute(t, nil, p.args("history", "--source", "amount")...)
		assert.Error(t, err)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, _, err := execute(t, nil, p.args("history", "show", "00000000-0000-0000-0000-000000000000")...)
		assert.Error(t, err)
	})
}

func TestDialectsCommand(t *testing.T) {
	t.Chdir(t.TempDir())

	out, _, err := execute(t, nil, "dialects", "-o", "json")
	require.NoError(t, err)

	var dialects []struct {
		Name    string `json:"name"`
		Default bool   `json:"default"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &dialects))

	names := make([]string, 0, len(dialects))
	for _, d := range dialects {
		names = append(names, d.Name)
		if d.Name == config.DefaultDialect {
			assert.True(t, d.Default)
		}
	}
	assert.Subset(t, names, []string{"ansi", "databricks", "duckdb", "postgres", "snowflake"})
}

func TestSchemaCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	dbPath := filepath.Join(dir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE orders (id INTEGER, amount REAL)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	out, _, err := execute(t, nil, "schema", "--schema-driver", "sqlite", "--schema-dsn", dbPath, "--namespace", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace: shop")
	assert.Contains(t, out, "name: orders")
	assert.Contains(t, out, "- amount")

	_, _, err = execute(t, nil, "schema")
	assert.Error(t, err, "no schema source configured")
}

func TestInvalidConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	_, _, err := execute(t, strings.NewReader("SELECT 1"), "lineage", "--dialect", "oracle")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersionAndCompletion(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "leaplineage v"+Version)

	out, _, err = execute(t, nil, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "leaplineage")
}
