package commands

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leaplineage/internal/cli/config"
	"github.com/leapstack-labs/leaplineage/internal/cli/output"
	"github.com/leapstack-labs/leaplineage/internal/engine"
	"github.com/leapstack-labs/leaplineage/internal/schema"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// EngineOptions tune the engine a command creates.
type EngineOptions struct {
	// NoRecord disables run history for this invocation.
	NoRecord bool
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, opts EngineOptions) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	s, err := loadSchema(cmd, cc)
	if err != nil {
		return nil, nil, err
	}

	statePath := cc.Cfg.StatePath
	if opts.NoRecord {
		statePath = ""
	}

	eng, err := engine.New(engine.Config{
		Dialect:     cc.Cfg.Dialect,
		Schema:      s,
		Namespace:   cc.Cfg.Namespace,
		Producer:    cc.Cfg.Producer,
		MaxDepth:    cc.Cfg.MaxDepth,
		Concurrency: cc.Cfg.Concurrency,
		StatePath:   statePath,
		Logger:      cc.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	cc.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't resolve lineage.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	ctx := cmd.Context()
	return &CommandContext{
		Cfg:      config.FromContext(ctx),
		Logger:   config.GetLogger(ctx),
		Renderer: output.FromContext(ctx),
	}
}

// loadSchema loads the configured schema. Without a schema source lineage
// still resolves, but no column can be traced to a table.
func loadSchema(cmd *cobra.Command, cc *CommandContext) (*core.Schema, error) {
	s, err := schema.Load(cmd.Context(), cc.Cfg.SchemaSource(), cc.Logger)
	if errors.Is(err, schema.ErrNoSource) {
		cc.Renderer.Warning("no schema configured (set schema or schema_driver); columns will have no inputs")
		return &core.Schema{Namespace: cc.Cfg.Namespace}, nil
	}
	return s, err
}
