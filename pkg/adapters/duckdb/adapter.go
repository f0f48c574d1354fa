package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/adapter"
	"github.com/leapstack-labs/leaplineage/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params Params
}

// New creates a new DuckDB adapter instance.
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
	return "duckdb"
}

// Connect opens the database file named by the DSN.
// An empty DSN or ":memory:" opens an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.DSN
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params

	if err := a.setup(ctx); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

// setup applies extensions, settings and attachments in a stable order.
func (a *Adapter) setup(ctx context.Context) error {
	for _, ext := range a.params.Extensions {
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if _, err := a.DB.ExecContext(ctx, "LOAD "+quoteIdent(ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for _, key := range sortedKeys(a.params.Settings) {
		stmt := fmt.Sprintf("SET %s = %s", quoteIdent(key), quoteLiteral(a.params.Settings[key]))
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", key, err)
		}
	}

	for _, alias := range sortedKeys(a.params.Attach) {
		stmt := fmt.Sprintf("ATTACH %s AS %s (READ_ONLY)", quoteLiteral(a.params.Attach[alias]), quoteIdent(alias))
		if _, err := a.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to attach %s: %w", alias, err)
		}
	}
	return nil
}

// Introspect reads information_schema.columns across every attached
// catalog. Tables are named "schema.table".
func (a *Adapter) Introspect(ctx context.Context) (*core.Schema, error) {
	filter := "table_schema NOT IN ('information_schema', 'pg_catalog')"
	var args []any
	if len(a.Cfg.Schemas) > 0 {
		filter = "table_schema IN (" + adapter.Placeholders(len(a.Cfg.Schemas), func(int) string { return "?" }) + ")"
		args = adapter.StringArgs(a.Cfg.Schemas)
	}

	//nolint:gosec // Placeholders only, values are bound
	query := `
		SELECT table_schema, table_name, column_name
		FROM information_schema.columns
		WHERE ` + filter + `
		ORDER BY table_catalog, table_schema, table_name, ordinal_position`
	return a.QueryCatalog(ctx, query, args...)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
