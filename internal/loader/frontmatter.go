// Package loader reads SQL query files and their YAML frontmatter.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontmatterConfig represents parsed YAML frontmatter.
// Unknown fields cause parse errors (use Meta for extensions).
type FrontmatterConfig struct {
	// Name is the job name recorded in history and run events.
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Dialect overrides the configured dialect for this file.
	Dialect string `yaml:"dialect"`
	// Output is the dataset the query produces.
	Output    string         `yaml:"output"`
	Namespace string         `yaml:"namespace"`
	Owner     string         `yaml:"owner"`
	Tags      []string       `yaml:"tags"`
	Meta      map[string]any `yaml:"meta"` // Extension point for custom fields
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	SQL     string // SQL content after frontmatter
	HasYAML bool   // Whether frontmatter was found
}

// frontmatterPattern matches /*--- ... ---*/ blocks
// The pattern allows optional content between the delimiters
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// ExtractFrontmatter extracts YAML frontmatter from SQL content.
// Returns the parsed config, remaining SQL, and any error.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config:  &FrontmatterConfig{},
		SQL:     strings.TrimSpace(content),
		HasYAML: false,
	}

	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) < 2 {
		// No frontmatter found, return content as-is
		return result, nil
	}

	result.HasYAML = true
	result.SQL = strings.TrimSpace(frontmatterPattern.ReplaceAllString(content, ""))

	config, err := parseFrontmatterYAML(matches[1])
	if err != nil {
		return nil, err
	}

	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*FrontmatterConfig, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(yamlContent), &node); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	var config FrontmatterConfig
	if len(node.Content) == 0 {
		return &config, nil
	}

	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &FrontmatterParseError{
			Line:    root.Line,
			Message: "frontmatter must be a mapping",
		}
	}

	knownFields := map[string]bool{
		"name":        true,
		"description": true,
		"dialect":     true,
		"output":      true,
		"namespace":   true,
		"owner":       true,
		"tags":        true,
		"meta":        true,
	}
	for i := 0; i < len(root.Content); i += 2 {
		key := root.Content[i]
		if !knownFields[key.Value] {
			return nil, &UnknownFieldError{Field: key.Value, Line: key.Line}
		}
	}

	if err := root.Decode(&config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}
	return &config, nil
}

// ApplyDefaults applies default values to a FrontmatterConfig based on file context.
func (c *FrontmatterConfig) ApplyDefaults(filename string, dirPath string) {
	// Default name from filename (without .sql extension)
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filename, ".sql")
	}

	// Default output dataset from directory path and name
	if c.Output == "" {
		c.Output = c.Name
		if dirPath != "" && dirPath != "." {
			c.Output = strings.ReplaceAll(dirPath, "/", ".") + "." + c.Name
		}
	}
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Line  int
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
