package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Query is a SQL file ready for lineage extraction.
type Query struct {
	Path   string // path as given or found by ScanDir
	Config *FrontmatterConfig
	SQL    string
}

// LoadFile reads a query file. The file's path relative to baseDir names
// the output dataset when frontmatter does not.
func LoadFile(path, baseDir string) (*Query, error) {
	content, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseContent(path, baseDir, string(content))
}

// ParseContent builds a Query from file content.
func ParseContent(path, baseDir, content string) (*Query, error) {
	result, err := ExtractFrontmatter(content)
	if err != nil {
		var parseErr *FrontmatterParseError
		var fieldErr *UnknownFieldError
		switch {
		case errors.As(err, &parseErr):
			parseErr.File = path
		case errors.As(err, &fieldErr):
			fieldErr.File = path
		}
		return nil, err
	}

	dir := ""
	if baseDir != "" {
		if rel, err := filepath.Rel(baseDir, filepath.Dir(path)); err == nil && !strings.HasPrefix(rel, "..") {
			dir = filepath.ToSlash(rel)
		}
	}
	result.Config.ApplyDefaults(filepath.Base(path), dir)

	return &Query{Path: path, Config: result.Config, SQL: result.SQL}, nil
}

// ScanDir recursively finds .sql files under dir, skipping hidden files and
// directories. Paths are returned sorted.
func ScanDir(dir string) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}
