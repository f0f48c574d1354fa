package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/openlineage"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func testLineage(t *testing.T) *lineage.Result {
	t.Helper()
	stmt, err := parser.ParseWithDialect(
		"SELECT name, SUM(amount) AS total, COUNT(id) AS n, 1 AS one FROM orders GROUP BY name",
		dialect.ANSI)
	require.NoError(t, err)
	result, err := lineage.GetLineage(stmt, &core.Schema{
		Namespace: "warehouse",
		Tables:    []core.Table{{Name: "orders", Columns: []string{"id", "name", "amount"}}},
	})
	require.NoError(t, err)
	return result
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode     Mode
		isTTY    bool
		expected Mode
	}{
		{ModeAuto, true, ModeText},
		{ModeAuto, false, ModeMarkdown},
		{"", false, ModeMarkdown},
		{ModeJSON, true, ModeJSON},
		{ModeText, false, ModeText},
		{ModeOpenLineage, false, ModeOpenLineage},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.expected, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestIsMachine(t *testing.T) {
	assert.True(t, ModeJSON.IsMachine())
	assert.True(t, ModeOpenLineage.IsMachine())
	assert.False(t, ModeText.IsMachine())
	assert.False(t, ModeMarkdown.IsMachine())
}

func TestTransformationLabel(t *testing.T) {
	tests := []struct {
		in       core.Transformation
		expected string
	}{
		{core.DirectIdentity, "Direct Identity"},
		{core.DirectTransformation.Masked(true), "Direct Transformation (masked)"},
		{core.DirectAggregation, "Direct Aggregation"},
		{core.Transformation{Type: core.Indirect, Subtype: core.SubtypeGroupBy}, "Indirect Group By"},
		{core.Transformation{Type: core.Direct}, "Direct"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, TransformationLabel(tt.in))
		})
	}
}

func TestQualifiedInput(t *testing.T) {
	assert.Equal(t, "ns/orders.id", QualifiedInput(core.InputField{Namespace: "ns", Name: "orders", Field: "id"}))
	assert.Equal(t, "orders.id", QualifiedInput(core.InputField{Name: "orders", Field: "id"}))
}

func TestLineageMarkdown(t *testing.T) {
	r, out, _ := newTestRenderer(ModeAuto, false)
	require.NoError(t, r.Lineage(LineageOutput{Job: "orders_summary", Source: "q.sql", Dialect: "ansi", Result: testLineage(t)}))

	got := out.String()
	assert.Contains(t, got, "# Lineage: orders_summary")
	assert.Contains(t, got, "- **Source**: q.sql")
	assert.Contains(t, got, "- **Summary**: 4 columns, 1 source tables")
	assert.Contains(t, got, "| Output | Source | Transformation |")
	assert.Contains(t, got, "warehouse/orders.amount")
	assert.Contains(t, got, "Direct Aggregation (masked)")
	assert.Contains(t, got, "(no inputs)")
	assert.NotContains(t, got, "\x1b[", "markdown is never styled")
}

func TestLineageText(t *testing.T) {
	r, out, _ := newTestRenderer(ModeText, false)
	require.NoError(t, r.Lineage(LineageOutput{Job: "orders_summary", Result: testLineage(t)}))

	got := out.String()
	assert.Contains(t, got, "Lineage: orders_summary")
	assert.Contains(t, got, "┌", "light table style")
	assert.Contains(t, got, "Direct Identity")
	assert.Contains(t, got, "4 columns, 1 source tables")
	assert.NotContains(t, got, "\x1b[", "no escape codes without a TTY")
}

func TestLineageJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)
	require.NoError(t, r.Lineage(LineageOutput{Result: testLineage(t)}))

	var decoded map[string]core.FieldLineage
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Len(t, decoded, 4)
	assert.Equal(t, "amount", decoded["total"].InputFields[0].Field)

	// Keys keep projection order
	assert.Less(t, strings.Index(out.String(), `"name"`), strings.Index(out.String(), `"total"`))
}

func TestLineageOpenLineage(t *testing.T) {
	result := testLineage(t)

	r, _, _ := newTestRenderer(ModeOpenLineage, false)
	assert.ErrorIs(t, r.Lineage(LineageOutput{Result: result}), ErrNoEvent)

	event := openlineage.NewRunEvent("test", uuid.Nil,
		openlineage.Job{Namespace: "jobs", Name: "orders_summary"},
		openlineage.Dataset{Namespace: "warehouse", Name: "summary"}, result)

	r, out, _ := newTestRenderer(ModeOpenLineage, false)
	require.NoError(t, r.Lineage(LineageOutput{Result: result, Event: event}))
	assert.Contains(t, out.String(), `"eventType": "COMPLETE"`)
	assert.Contains(t, out.String(), `"columnLineage"`)
}

func TestRuns(t *testing.T) {
	runs := []RunInfo{
		{ID: "0123456789abcdef", Job: "daily", Status: "completed", Dialect: "duckdb", Columns: 3, CreatedAt: time.Now()},
		{ID: "fedcba9876543210", Job: "broken", Status: "failed", Error: "parse error", CreatedAt: time.Now()},
	}

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown, false)
		require.NoError(t, r.Runs(runs))
		assert.Contains(t, out.String(), "# Run History")
		assert.Contains(t, out.String(), "| 01234567 | daily | completed |")
	})

	t.Run("json", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		require.NoError(t, r.Runs(runs))
		var decoded []RunInfo
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Len(t, decoded, 2)
		assert.Equal(t, "parse error", decoded[1].Error)
	})

	t.Run("empty json is an array", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeJSON, false)
		require.NoError(t, r.Runs(nil))
		assert.Equal(t, "[]\n", out.String())
	})

	t.Run("empty text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText, false)
		require.NoError(t, r.Runs(nil))
		assert.Contains(t, out.String(), "No recorded runs")
	})
}

func TestMessages(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, false)
	r.Success("done")
	r.Warning("careful")
	r.Error("broken")
	r.StatusLine("a.sql", "success", "3 columns")
	r.StatusLine("b.sql", "failed", "")

	assert.Contains(t, out.String(), "✓ done")
	assert.Contains(t, out.String(), "✓ a.sql 3 columns")
	assert.Contains(t, out.String(), "✗ b.sql")
	assert.Contains(t, errOut.String(), "! careful")
	assert.Contains(t, errOut.String(), "✗ broken")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "## Summary", FormatHeader(2, "Summary"))
	assert.Equal(t, "# Top", FormatHeader(0, "Top"))
	assert.Equal(t, "- **Key**: value", FormatKeyValue("Key", "value"))
	assert.Equal(t, "```sql\nSELECT 1\n```", FormatCodeBlock("sql", "SELECT 1\n"))
}
