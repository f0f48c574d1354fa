package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/leaplineage/internal/config"
	"github.com/leapstack-labs/leaplineage/internal/state"
	"github.com/spf13/cobra"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Source string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded lineage runs",
		Long: `List the lineage runs recorded in the state database, newest first.

With --source, only runs in which the given table column feeds an output
column are listed.`,
		Example: `  # Recent runs
  leaplineage history

  # Runs reading raw.orders.amount
  leaplineage history --source raw.orders.amount

  # Show the lineage recorded by one run (a unique ID prefix is enough)
  leaplineage history show 3f2a9c`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", sharedcfg.DefaultHistorySize, "Maximum number of runs to list")
	cmd.Flags().StringVar(&opts.Source, "source", "", "Only runs reading this table.column")

	cmd.AddCommand(newHistoryShowCommand())
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the lineage recorded by a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, args[0])
		},
	}
}

// openStore opens the configured state database for reading.
func openStore(cc *CommandContext) (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cc := NewCommandContextWithoutEngine(cmd)
	store, err := openStore(cc)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var runs []*state.Run
	if opts.Source != "" {
		table, column, err := splitSource(opts.Source)
		if err != nil {
			return err
		}
		runs, err = store.FindBySource(cmd.Context(), table, column)
		if err != nil {
			return err
		}
		if opts.Limit > 0 && len(runs) > opts.Limit {
			runs = runs[:opts.Limit]
		}
	} else {
		runs, err = store.ListRuns(cmd.Context(), opts.Limit)
		if err != nil {
			return err
		}
	}

	infos := make([]output.RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, runInfo(run))
	}
	return cc.Renderer.Runs(infos)
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	cc := NewCommandContextWithoutEngine(cmd)
	store, err := openStore(cc)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	result, err := store.RunResult(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	r := cc.Renderer
	if r.EffectiveMode().IsMachine() {
		return r.JSON(struct {
			output.RunInfo
			SQL     string `json:"sql"`
			Lineage any    `json:"lineage"`
		}{runInfo(run), run.SQL, result})
	}

	r.RunHeader(runInfo(run))
	if run.Status == state.RunStatusFailed {
		return nil
	}
	return r.Lineage(output.LineageOutput{
		Job:     run.JobName,
		Source:  run.Source,
		Dialect: run.Dialect,
		Result:  result,
	})
}

// splitSource splits "schema.table.column" at the last dot.
func splitSource(source string) (table, column string, err error) {
	i := strings.LastIndexByte(source, '.')
	if i <= 0 || i == len(source)-1 {
		return "", "", fmt.Errorf("invalid --source %q: expected table.column", source)
	}
	return source[:i], source[i+1:], nil
}

func runInfo(run *state.Run) output.RunInfo {
	return output.RunInfo{
		ID:        run.ID,
		Job:       run.JobName,
		Source:    run.Source,
		Dialect:   run.Dialect,
		Status:    string(run.Status),
		Error:     run.Error,
		Columns:   run.ColumnCount,
		CreatedAt: run.CreatedAt,
	}
}
