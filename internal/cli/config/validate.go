package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	sharedcfg "github.com/leapstack-labs/leaplineage/internal/config"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return fmt.Errorf("%w: %w\nHint: set dialect in %s", ErrInvalidConfig, err, sharedcfg.ConfigFileName)
	}
	if !slices.Contains(sharedcfg.OutputFormats, c.OutputFormat) {
		return fmt.Errorf("%w: unknown output format %q (available: %s)",
			ErrInvalidConfig, c.OutputFormat, strings.Join(sharedcfg.OutputFormats, ", "))
	}
	if c.SchemaDriver != "" && !slices.Contains(sharedcfg.SchemaDrivers, c.SchemaDriver) {
		return fmt.Errorf("%w: unknown schema driver %q (available: %s)",
			ErrInvalidConfig, c.SchemaDriver, strings.Join(sharedcfg.SchemaDrivers, ", "))
	}
	if c.SchemaDSN != "" && c.SchemaDriver == "" {
		return fmt.Errorf("%w: schema_dsn requires schema_driver", ErrInvalidConfig)
	}
	if !slices.Contains(sharedcfg.LogLevels, c.LogLevel) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.LogLevel)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth must not be negative", ErrInvalidConfig)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1", ErrInvalidConfig)
	}
	return nil
}
