// Package config holds the configuration defaults and project discovery
// shared by the CLI and the library wiring.
package config

import (
	"os"
	"path/filepath"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "leaplineage.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "leaplineage.yml"

// Default configuration values.
const (
	DefaultDialect     = "ansi"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultStateFile   = ".leaplineage/state.db"
	DefaultProducer    = "https://github.com/leapstack-labs/leaplineage"
	DefaultConcurrency = 4
	DefaultLogLevel    = "warn"
	DefaultHistorySize = 20
)

// Output formats accepted by the output setting.
var OutputFormats = []string{"auto", "text", "markdown", "json", "openlineage"}

// SchemaDrivers are the database drivers a schema can be introspected from.
var SchemaDrivers = []string{"duckdb", "postgres", "sqlite"}

// LogLevels are the accepted log_level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file. Returns "" if none is found.
func FindProjectRoot(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// ResolvePath resolves path relative to baseDir unless it is empty,
// absolute or the in-memory database name.
func ResolvePath(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
