package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaplineage/pkg/adapter"
	"github.com/leapstack-labs/leaplineage/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// catalogQuery lists user tables and views with their columns in
// declaration order. SQLite has no schemas, so table_schema is empty.
const catalogQuery = `
	SELECT '' AS table_schema, m.name AS table_name, p.name AS column_name
	FROM sqlite_master AS m
	JOIN pragma_table_info(m.name) AS p
	WHERE m.type IN ('table', 'view') AND m.name NOT LIKE 'sqlite_%'
	ORDER BY m.name, p.cid`

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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
	return "ansi"
}

// Connect opens the database file named by the DSN read-only.
// An empty DSN or ":memory:" opens a private in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := cfg.DSN
	if dsn == "" || dsn == ":memory:" {
		dsn = ":memory:"
	} else {
		dsn = "file:" + dsn + "?mode=ro"
	}

	a.Logger.Debug("opening sqlite catalog", slog.String("dsn", dsn))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection keeps an in-memory database alive and shared
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// Introspect reads sqlite_master joined with pragma_table_info.
// Config.Schemas is ignored.
func (a *Adapter) Introspect(ctx context.Context) (*core.Schema, error) {
	return a.QueryCatalog(ctx, catalogQuery)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
