package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close and catalog scanning.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// Namespace returns the configured namespace, falling back to the adapter type.
func (b *BaseSQLAdapter) Namespace() string {
	if b.Cfg.Namespace != "" {
		return b.Cfg.Namespace
	}
	return b.Cfg.Type
}

// QueryCatalog runs a catalog query returning (table_schema, table_name,
// column_name) rows and folds them into a schema. Rows must arrive grouped
// by table, columns in ordinal order. Tables in a non-empty table_schema
// are named "schema.table".
func (b *BaseSQLAdapter) QueryCatalog(ctx context.Context, query string, args ...any) (*core.Schema, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()

	schema := &core.Schema{Namespace: b.Namespace()}
	for rows.Next() {
		var tableSchema, tableName, columnName string
		if err := rows.Scan(&tableSchema, &tableName, &columnName); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}

		name := tableName
		if tableSchema != "" {
			name = tableSchema + "." + tableName
		}
		if n := len(schema.Tables); n == 0 || schema.Tables[n-1].Name != name {
			schema.Tables = append(schema.Tables, core.Table{Name: name})
		}
		last := &schema.Tables[len(schema.Tables)-1]
		last.Columns = append(last.Columns, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}

	if b.Logger != nil {
		b.Logger.Debug("introspected catalog",
			slog.String("namespace", schema.Namespace),
			slog.Int("tables", len(schema.Tables)),
			slog.Int("columns", schema.ColumnCount()))
	}
	return schema, nil
}

// Placeholders returns n placeholders produced by format, joined by commas.
func Placeholders(n int, format func(i int) string) string {
	out := make([]byte, 0, n*4)
	for i := 1; i <= n; i++ {
		if i > 1 {
			out = append(out, ", "...)
		}
		out = append(out, format(i)...)
	}
	return string(out)
}

// StringArgs converts a string slice to query arguments.
func StringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
