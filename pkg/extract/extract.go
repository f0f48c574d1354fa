// Package extract parses SQL text and resolves its column lineage.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/lineage"
	"github.com/leapstack-labs/leaplineage/pkg/parser"
)

// Extractor resolves lineage for SQL text against a fixed schema.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	Dialect  *dialect.Dialect
	Schema   *core.Schema
	MaxDepth int
	Logger   *slog.Logger
}

// New creates an Extractor for the given dialect and schema.
func New(d *dialect.Dialect, schema *core.Schema, logger *slog.Logger) *Extractor {
	if d == nil {
		d = dialect.Default()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{Dialect: d, Schema: schema, MaxDepth: lineage.DefaultMaxDepth, Logger: logger}
}

// Extract parses sql and resolves the lineage of its output columns.
func (e *Extractor) Extract(ctx context.Context, sql string) (*lineage.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stmt, err := parser.ParseWithDialect(sql, e.Dialect)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	result, err := lineage.GetLineage(stmt, e.Schema,
		lineage.WithDialect(e.Dialect),
		lineage.WithMaxDepth(e.MaxDepth),
		lineage.WithLogger(e.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("lineage: %w", err)
	}
	return result, nil
}

// ExtractFile reads path and resolves the lineage of the query it holds.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*lineage.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	e.Logger.Debug("extracting lineage", "path", path)
	return e.Extract(ctx, string(data))
}
