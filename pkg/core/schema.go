package core

import (
	"errors"
	"fmt"
	"strings"
)

// Schema errors.
var (
	ErrEmptyTableName = errors.New("table name is empty")
	ErrDuplicateTable = errors.New("duplicate table")
)

// Schema is the set of physical tables lineage is resolved against.
// It is supplied by the caller and never mutated by the resolver.
type Schema struct {
	Namespace string  `json:"namespace" yaml:"namespace"`
	Tables    []Table `json:"tables" yaml:"tables"`
}

// Table is a physical table and the authoritative list of its columns.
// Name may be schema-qualified (e.g. "public.users").
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

// HasColumn reports whether the table declares the column (exact match).
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// BaseName returns the last dot-separated segment of the table name.
func (t Table) BaseName() string {
	if i := strings.LastIndexByte(t.Name, '.'); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// Table returns the table with the given name.
func (s *Schema) Table(name string) (Table, bool) {
	if s == nil {
		return Table{}, false
	}
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// Validate checks that every table has a name and that names are unique.
func (s *Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Tables))
	for i, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("table #%d: %w", i, ErrEmptyTableName)
		}
		if _, ok := seen[t.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateTable, t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}

// ColumnCount returns the total number of declared columns.
func (s *Schema) ColumnCount() int {
	n := 0
	for _, t := range s.Tables {
		n += len(t.Columns)
	}
	return n
}
