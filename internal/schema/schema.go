// Package schema loads the table catalog lineage is resolved against,
// either from a YAML/JSON file or by introspecting a live database.
package schema

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaplineage/pkg/adapter"
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrNoSource is returned when neither a file nor a database is configured.
var ErrNoSource = errors.New("no schema source configured")

// Source describes where a schema comes from. Path takes precedence over
// a database connection.
type Source struct {
	Path      string
	Driver    string
	DSN       string
	Namespace string // overrides the namespace from the file or the database
	Schemas   []string
	Params    map[string]any
}

// IsZero reports whether no source is configured.
func (s Source) IsZero() bool {
	return s.Path == "" && s.Driver == ""
}

// Load resolves the source into a validated schema.
func Load(ctx context.Context, src Source, logger *slog.Logger) (*core.Schema, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		s   *core.Schema
		err error
	)
	switch {
	case src.Path != "":
		s, err = LoadFile(src.Path)
	case src.Driver != "":
		s, err = Introspect(ctx, src, logger)
	default:
		return nil, ErrNoSource
	}
	if err != nil {
		return nil, err
	}

	if src.Namespace != "" {
		s.Namespace = src.Namespace
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	logger.Debug("schema loaded",
		slog.String("namespace", s.Namespace),
		slog.Int("tables", len(s.Tables)),
		slog.Int("columns", s.ColumnCount()))
	return s, nil
}

// LoadFile reads a schema file. JSON is accepted as a subset of YAML.
func LoadFile(path string) (*core.Schema, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from user config
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode reads a schema document, rejecting unknown fields.
func Decode(r io.Reader) (*core.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var s core.Schema
	if len(bytes.TrimSpace(data)) == 0 {
		return &s, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return &s, nil
}

// Encode writes the schema as YAML.
func Encode(w io.Writer, s *core.Schema) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Introspect connects through the registered adapter for src.Driver and
// reads its catalog.
func Introspect(ctx context.Context, src Source, logger *slog.Logger) (*core.Schema, error) {
	cfg := adapter.Config{
		Type:      src.Driver,
		DSN:       src.DSN,
		Namespace: src.Namespace,
		Schemas:   src.Schemas,
		Params:    src.Params,
	}

	adp, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		return nil, err
	}
	defer func() { _ = adp.Close() }()

	s, err := adp.Introspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to introspect %s: %w", src.Driver, err)
	}
	return s, nil
}
