package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watchReport struct {
	batch *Batch
	err   error
}

func nextReport(t *testing.T, reports <-chan watchReport) watchReport {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch report")
		return watchReport{}
	}
}

func TestWatch(t *testing.T) {
	e := newTestEngine(t, Config{})
	dir := writeProject(t)

	ctx, cancel := context.WithCancel(context.Background())
	reports := make(chan watchReport, 4)
	done := make(chan error, 1)
	go func() {
		done <- e.Watch(ctx, dir, 50*time.Millisecond, func(b *Batch, err error) {
			reports <- watchReport{b, err}
		})
	}()

	initial := nextReport(t, reports)
	require.NoError(t, initial.err)
	assert.Len(t, initial.batch.Analyses, 3)

	// Changing the staging query re-runs it and its downstream query only
	require.NoError(t, os.WriteFile(filepath.Join(dir, "staging", "orders.sql"),
		[]byte("SELECT id, customer_id, amount AS cents FROM raw.orders"), 0o600))

	changed := nextReport(t, reports)
	require.NoError(t, changed.err)
	var outputs []string
	for _, a := range changed.batch.Analyses {
		outputs = append(outputs, a.Output())
	}
	assert.Equal(t, []string{"staging.orders", "marts.revenue"}, outputs)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestMergeBatches(t *testing.T) {
	e := newTestEngine(t, Config{})
	batch, err := e.RunDir(context.Background(), writeProject(t))
	require.NoError(t, err)

	revenue, ok := batch.Analysis("marts.revenue")
	require.True(t, ok)
	customers, ok := batch.Analysis("marts.customers")
	require.True(t, ok)

	next := &Batch{
		Analyses: []*Analysis{revenue},
		Failed:   map[string]error{customers.Query.Path: assert.AnError},
	}
	merged := mergeBatches(batch, next)

	var outputs []string
	for _, a := range merged.Analyses {
		outputs = append(outputs, a.Output())
	}
	assert.Equal(t, []string{"staging.orders", "marts.revenue"}, outputs)
	assert.Same(t, next, mergeBatches(nil, next))
}
