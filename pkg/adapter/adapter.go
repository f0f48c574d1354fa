// Package adapter introspects database catalogs into lineage schemas.
//
// This package contains the contract every catalog adapter implements.
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init().
package adapter

import (
	"context"

	"github.com/leapstack-labs/leaplineage/pkg/core"
)

// Config describes the catalog to introspect.
type Config struct {
	// Type selects the registered adapter (postgres, sqlite, duckdb).
	Type string `json:"type" yaml:"type"`

	// DSN is the driver-specific connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// Namespace is stamped on the resulting schema. Empty uses the adapter type.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`

	// Schemas limits introspection to these database schemas.
	// Empty means every non-system schema.
	Schemas []string `json:"schemas,omitempty" yaml:"schemas,omitempty"`

	// Params holds adapter-specific settings, decoded by each adapter.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Adapter defines the interface that all catalog adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Introspect reads every visible table and its columns, in catalog order.
	Introspect(ctx context.Context) (*core.Schema, error)

	// DialectName returns the SQL dialect queries against this database use.
	DialectName() string
}
