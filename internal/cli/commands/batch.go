package commands

import (
	"sort"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/engine"
	"github.com/spf13/cobra"
)

// BatchOptions holds options for the batch command.
type BatchOptions struct {
	NoRecord bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Resolve lineage for every query in a directory",
		Long: `Resolve lineage for every .sql file under a directory.

Queries are ordered by the datasets they read and write: a query reading
the output of another query runs after it and sees that output's columns
as a table. Independent queries run concurrently (see --concurrency).
A failed query skips every query downstream of it.`,
		Example: `  # Resolve every query under models/
  leaplineage batch models

  # Emit one OpenLineage RunEvent per query
  leaplineage batch models -o openlineage`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "Do not record the runs in history")

	return cmd
}

func runBatch(cmd *cobra.Command, dir string, opts *BatchOptions) error {
	cc, cleanup, err := NewCommandContext(cmd, EngineOptions{NoRecord: opts.NoRecord})
	if err != nil {
		return err
	}
	defer cleanup()

	batch, err := cc.Engine.RunDir(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if err := renderBatch(cc.Renderer, batch); err != nil {
		return err
	}
	return batch.Err()
}

func renderBatch(r *output.Renderer, b *engine.Batch) error {
	outs := make([]output.LineageOutput, 0, len(b.Analyses))
	for _, a := range b.Analyses {
		outs = append(outs, lineageOutput(a))
	}
	return r.Batch(outs, batchIssues(b))
}

// batchIssues lists the failed and skipped queries of b, failures first.
func batchIssues(b *engine.Batch) []output.BatchIssue {
	failed := make([]string, 0, len(b.Failed))
	for source := range b.Failed {
		failed = append(failed, source)
	}
	sort.Strings(failed)

	issues := make([]output.BatchIssue, 0, len(failed)+len(b.Skipped))
	for _, source := range failed {
		issues = append(issues, output.BatchIssue{Source: source, Status: output.BatchFailed, Error: b.Failed[source].Error()})
	}
	for _, source := range b.Skipped {
		issues = append(issues, output.BatchIssue{Source: source, Status: output.BatchSkipped, Error: "upstream query failed"})
	}
	return issues
}
