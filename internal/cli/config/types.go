// Package config provides configuration management for the leaplineage CLI.
//
// Configuration is layered, highest precedence first: command-line flags,
// LEAPLINEAGE_* environment variables, leaplineage.yaml, built-in defaults.
package config

import (
	sharedcfg "github.com/leapstack-labs/leaplineage/internal/config"
	"github.com/leapstack-labs/leaplineage/internal/schema"
)

// Config holds all CLI configuration options.
type Config struct {
	Dialect      string `koanf:"dialect"`
	Namespace    string `koanf:"namespace"`
	SchemaPath   string `koanf:"schema"`
	SchemaDSN    string `koanf:"schema_dsn"`
	SchemaDriver string `koanf:"schema_driver"`
	OutputFormat string `koanf:"output"`
	MaxDepth     int    `koanf:"max_depth"`
	StatePath    string `koanf:"state_path"`
	Producer     string `koanf:"producer"`
	Concurrency  int    `koanf:"concurrency"`
	LogLevel     string `koanf:"log_level"`
	Verbose      bool   `koanf:"verbose"`
	NoColor      bool   `koanf:"no_color"`

	// SchemaInclude limits database introspection to these schemas.
	SchemaInclude []string `koanf:"schema_include"`
	// SchemaParams holds driver-specific settings (duckdb extensions, attachments).
	SchemaParams map[string]any `koanf:"schema_params"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the config file that was loaded, if any.
	ConfigFile string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultDialect     = sharedcfg.DefaultDialect
	DefaultOutput      = sharedcfg.DefaultOutput
	DefaultStateFile   = sharedcfg.DefaultStateFile
	DefaultProducer    = sharedcfg.DefaultProducer
	DefaultConcurrency = sharedcfg.DefaultConcurrency
	DefaultLogLevel    = sharedcfg.DefaultLogLevel
)

// Default returns the configuration used when nothing is loaded.
func Default() *Config {
	return &Config{
		Dialect:      DefaultDialect,
		OutputFormat: DefaultOutput,
		StatePath:    DefaultStateFile,
		Producer:     DefaultProducer,
		Concurrency:  DefaultConcurrency,
		LogLevel:     DefaultLogLevel,
	}
}

// SchemaSource returns where the schema is loaded from.
func (c *Config) SchemaSource() schema.Source {
	return schema.Source{
		Path:      c.SchemaPath,
		Driver:    c.SchemaDriver,
		DSN:       c.SchemaDSN,
		Namespace: c.Namespace,
		Schemas:   c.SchemaInclude,
		Params:    c.SchemaParams,
	}
}
