package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/leapstack-labs/leaplineage/pkg/adapter"
	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// systemSchemas are never introspected.
var systemSchemas = []string{"pg_catalog", "information_schema", "pg_toast"}

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL. The DSN may be a URL or
// a key=value connection string.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	connConfig, err := pgx.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("invalid postgres dsn: %w", err)
	}

	a.Logger.Debug("connecting to postgres",
		slog.String("host", connConfig.Host),
		slog.String("database", connConfig.Database))

	db := stdlib.OpenDB(*connConfig)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Introspect reads information_schema.columns. Table names are qualified
// with their schema.
func (a *Adapter) Introspect(ctx context.Context) (*core.Schema, error) {
	query, args := catalogQuery(a.Cfg.Schemas)
	return a.QueryCatalog(ctx, query, args...)
}

func catalogQuery(schemas []string) (string, []any) {
	placeholder := func(i int) string { return fmt.Sprintf("$%d", i) }

	filter := "table_schema NOT IN (" + adapter.Placeholders(len(systemSchemas), placeholder) + ")"
	args := adapter.StringArgs(systemSchemas)
	if len(schemas) > 0 {
		filter = "table_schema IN (" + adapter.Placeholders(len(schemas), placeholder) + ")"
		args = adapter.StringArgs(schemas)
	}

	//nolint:gosec // Placeholders only, values are bound
	query := `
		SELECT table_schema, table_name, column_name
		FROM information_schema.columns
		WHERE ` + filter + `
		ORDER BY table_schema, table_name, ordinal_position`
	return query, args
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
