package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/engine"
	"github.com/leapstack-labs/leaplineage/internal/loader"
	"github.com/spf13/cobra"
)

// stdinSource names queries read from standard input.
const stdinSource = "-"

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	JobName  string
	Dataset  string
	NoRecord bool
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage [file|-]",
		Short: "Show column lineage for a query",
		Long: `Resolve, for every output column of a SELECT query, the source table
columns it is derived from and how each one is transformed.

The query is read from a file, or from standard input when the argument is
"-" or omitted. Frontmatter at the top of a file may set the job name, the
output dataset and the dialect:

  /*---
  name: order_totals
  output: marts.order_totals
  dialect: duckdb
  ---*/`,
		Example: `  # Lineage of a query file
  leaplineage lineage models/order_totals.sql

  # Read the query from standard input
  echo "SELECT id, amount * 2 AS doubled FROM orders" | leaplineage lineage

  # Emit an OpenLineage RunEvent with the columnLineage facet
  leaplineage lineage models/order_totals.sql -o openlineage

  # Skip recording the run in history
  leaplineage lineage models/order_totals.sql --no-record`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := stdinSource
			if len(args) == 1 {
				source = args[0]
			}
			return runLineage(cmd, source, opts)
		},
	}

	cmd.Flags().StringVar(&opts.JobName, "job-name", "", "Job name (default: frontmatter name or file name)")
	cmd.Flags().StringVar(&opts.Dataset, "dataset", "", "Output dataset (default: frontmatter output or file name)")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "Do not record the run in history")

	return cmd
}

func runLineage(cmd *cobra.Command, source string, opts *LineageOptions) error {
	q, err := readQuery(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}
	if opts.JobName != "" {
		q.Config.Name = opts.JobName
	}
	if opts.Dataset != "" {
		q.Config.Output = opts.Dataset
	}

	cc, cleanup, err := NewCommandContext(cmd, EngineOptions{NoRecord: opts.NoRecord})
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := cc.Engine.Analyze(cmd.Context(), q)
	if err != nil {
		return err
	}
	return renderAnalysis(cc.Renderer, a)
}

// readQuery loads a query file, or standard input when source is "-".
func readQuery(stdin io.Reader, source string) (*loader.Query, error) {
	if source != stdinSource {
		return loader.LoadFile(source, filepath.Dir(source))
	}

	content, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read standard input: %w", err)
	}
	q, err := loader.ParseContent(stdinSource, "", string(content))
	if err != nil {
		return nil, err
	}
	// ApplyDefaults derives names from the file name, which stdin lacks
	if q.Config.Name == stdinSource {
		q.Config.Name = "stdin"
	}
	if q.Config.Output == stdinSource {
		q.Config.Output = "stdin"
	}
	return q, nil
}

func lineageOutput(a *engine.Analysis) output.LineageOutput {
	return output.LineageOutput{
		Job:     a.Query.Config.Name,
		Dataset: a.Output(),
		Source:  a.Query.Path,
		Dialect: a.Dialect.Name,
		Result:  a.Result,
		Event:   a.Event,
	}
}

func renderAnalysis(r *output.Renderer, a *engine.Analysis) error {
	return r.Lineage(lineageOutput(a))
}
