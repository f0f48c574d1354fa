package commands

import (
	"time"

	"github.com/leapstack-labs/leaplineage/internal/engine"
	"github.com/spf13/cobra"
)

// WatchOptions holds options for the watch command.
type WatchOptions struct {
	Debounce time.Duration
	NoRecord bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-resolve lineage as query files change",
		Long: `Resolve lineage for every query under a directory, then watch it.

When a query file changes, that query and every query downstream of it are
resolved again. Adding, removing or renaming a file re-runs the whole
directory. Stop with Ctrl+C.`,
		Example: `  # Watch models/ and print lineage on every change
  leaplineage watch models

  # Wait longer for editors that write in several steps
  leaplineage watch models --debounce 500ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], opts)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", engine.DefaultDebounce, "Delay before re-running after a change")
	cmd.Flags().BoolVar(&opts.NoRecord, "no-record", false, "Do not record the runs in history")

	return cmd
}

func runWatch(cmd *cobra.Command, dir string, opts *WatchOptions) error {
	cc, cleanup, err := NewCommandContext(cmd, EngineOptions{NoRecord: opts.NoRecord})
	if err != nil {
		return err
	}
	defer cleanup()

	r := cc.Renderer
	if !r.EffectiveMode().IsMachine() {
		r.Muted("Watching " + dir + " (Ctrl+C to stop)")
	}

	return cc.Engine.Watch(cmd.Context(), dir, opts.Debounce, func(b *engine.Batch, err error) {
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := renderBatch(r, b); err != nil {
			r.Error(err.Error())
		}
	})
}
