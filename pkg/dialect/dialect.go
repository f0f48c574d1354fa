// Package dialect provides SQL dialect configuration and function classification.
//
// This package contains the public contract for dialect definitions used by the
// parser and the lineage resolver. Concrete dialect implementations are
// registered from pkg/dialects/*/ packages.
package dialect

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Type classifies how a function affects lineage.
type Type int

const (
	// LineagePassthrough means input columns flow through a scalar transformation (default for unknown functions).
	LineagePassthrough Type = iota
	// LineageAggregate means many rows aggregate to one value (SUM, COUNT, etc.).
	LineageAggregate
	// LineageGenerator means function generates values with no upstream columns (NOW, UUID, etc.).
	LineageGenerator
	// LineageWindow means function requires OVER clause (ROW_NUMBER, LAG, etc.).
	LineageWindow
)

// String returns the string representation of Type.
func (t Type) String() string {
	switch t {
	case LineagePassthrough:
		return "passthrough"
	case LineageAggregate:
		return "aggregate"
	case LineageGenerator:
		return "generator"
	case LineageWindow:
		return "window"
	default:
		return "unknown"
	}
}

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig

	// DefaultSchema is the schema unqualified table names live in ("main" for DuckDB, "public" for Postgres).
	DefaultSchema string

	// Function classifications (normalized to dialect's normalization strategy)
	aggregates        map[string]struct{}
	maskingAggregates map[string]struct{} // aggregates whose result no longer reveals the input (COUNT)
	maskingFunctions  map[string]struct{} // one-way scalar functions (MD5, SHA256)
	generators        map[string]struct{}
	windows           map[string]struct{}
	aliases           map[string]string // IFNULL -> COALESCE

	// Lexer extensions
	symbols   map[string]token.TokenType // "::" -> DCOLON
	dynamicKw map[string]token.TokenType // "qualify" -> QUALIFY
}

// FunctionLineageType returns the lineage classification for a function.
// Aliases resolve to their canonical function first.
func (d *Dialect) FunctionLineageType(name string) Type {
	normalized := d.Canonical(name)

	if _, ok := d.aggregates[normalized]; ok {
		return LineageAggregate
	}
	if _, ok := d.generators[normalized]; ok {
		return LineageGenerator
	}
	if _, ok := d.windows[normalized]; ok {
		return LineageWindow
	}
	return LineagePassthrough
}

// NormalizeName normalizes an identifier according to dialect rules.
func (d *Dialect) NormalizeName(name string) string {
	switch d.Identifiers.Normalization {
	case core.NormUppercase:
		return strings.ToUpper(name)
	case core.NormLowercase, core.NormCaseInsensitive:
		return strings.ToLower(name)
	default: // NormCaseSensitive
		return name
	}
}

// Canonical returns the normalized canonical name of a function, following aliases.
func (d *Dialect) Canonical(name string) string {
	normalized := d.NormalizeName(name)
	if target, ok := d.aliases[normalized]; ok {
		return target
	}
	return normalized
}

// IsAggregate returns true if the function is an aggregate function.
func (d *Dialect) IsAggregate(name string) bool {
	return d.FunctionLineageType(name) == LineageAggregate
}

// IsMaskingAggregate returns true if the aggregate destroys the original values (COUNT-like).
func (d *Dialect) IsMaskingAggregate(name string) bool {
	_, ok := d.maskingAggregates[d.Canonical(name)]
	return ok
}

// IsMaskingFunction returns true if the scalar function is a one-way hash or digest.
func (d *Dialect) IsMaskingFunction(name string) bool {
	_, ok := d.maskingFunctions[d.Canonical(name)]
	return ok
}

// IsGenerator returns true if the function generates values without input columns.
func (d *Dialect) IsGenerator(name string) bool {
	return d.FunctionLineageType(name) == LineageGenerator
}

// IsWindow returns true if the function is a window-only function.
func (d *Dialect) IsWindow(name string) bool {
	return d.FunctionLineageType(name) == LineageWindow
}

// GetName returns the dialect name.
func (d *Dialect) GetName() string {
	return d.Name
}

// Symbols returns the dialect-specific operator symbols.
func (d *Dialect) Symbols() map[string]token.TokenType {
	return d.symbols
}

// LookupKeyword returns the token type for a dialect keyword.
func (d *Dialect) LookupKeyword(name string) (token.TokenType, bool) {
	t, ok := d.dynamicKw[strings.ToLower(name)]
	return t, ok
}

// Stats summarizes the function classifications of the dialect.
type Stats struct {
	Aggregates        int
	MaskingAggregates int
	MaskingFunctions  int
	Generators        int
	Windows           int
	Aliases           int
}

// Stats returns the number of classified functions per category.
func (d *Dialect) Stats() Stats {
	return Stats{
		Aggregates:        len(d.aggregates),
		MaskingAggregates: len(d.maskingAggregates),
		MaskingFunctions:  len(d.maskingFunctions),
		Generators:        len(d.generators),
		Windows:           len(d.windows),
		Aliases:           len(d.aliases),
	}
}

// AllFunctions returns all known function names, sorted.
func (d *Dialect) AllFunctions() []string {
	seen := make(map[string]struct{})
	for _, set := range []map[string]struct{}{d.aggregates, d.maskingFunctions, d.generators, d.windows} {
		for f := range set {
			seen[f] = struct{}{}
		}
	}
	for f := range d.aliases {
		seen[f] = struct{}{}
	}

	funcs := make([]string, 0, len(seen))
	for f := range seen {
		funcs = append(funcs, f)
	}
	sort.Strings(funcs)
	return funcs
}

// ---------- Builder ----------

// Builder provides a fluent API for constructing dialects.
//
// Identifiers must be configured before any function list, because function
// names are normalized as they are added.
type Builder struct {
	dialect *Dialect
}

// NewDialect creates a new dialect builder with the given name.
func NewDialect(name string) *Builder {
	return &Builder{
		dialect: &Dialect{
			Name: name,
			Identifiers: core.IdentifierConfig{
				Quote:         `"`,
				QuoteEnd:      `"`,
				Escape:        `""`,
				Normalization: core.NormLowercase,
			},
			aggregates:        make(map[string]struct{}),
			maskingAggregates: make(map[string]struct{}),
			maskingFunctions:  make(map[string]struct{}),
			generators:        make(map[string]struct{}),
			windows:           make(map[string]struct{}),
			aliases:           make(map[string]string),
			symbols:           make(map[string]token.TokenType),
			dynamicKw:         make(map[string]token.TokenType),
		},
	}
}

// Extend creates a builder seeded with a copy of an existing dialect.
func Extend(name string, base *Dialect) *Builder {
	b := NewDialect(name)
	b.dialect.Identifiers = base.Identifiers
	b.dialect.DefaultSchema = base.DefaultSchema
	copySet(b.dialect.aggregates, base.aggregates)
	copySet(b.dialect.maskingAggregates, base.maskingAggregates)
	copySet(b.dialect.maskingFunctions, base.maskingFunctions)
	copySet(b.dialect.generators, base.generators)
	copySet(b.dialect.windows, base.windows)
	for k, v := range base.aliases {
		b.dialect.aliases[k] = v
	}
	for k, v := range base.symbols {
		b.dialect.symbols[k] = v
	}
	for k, v := range base.dynamicKw {
		b.dialect.dynamicKw[k] = v
	}
	return b
}

func copySet(dst, src map[string]struct{}) {
	for k := range src {
		dst[k] = struct{}{}
	}
}

// Identifiers configures identifier quoting and normalization.
func (b *Builder) Identifiers(quote, quoteEnd, escape string, norm core.NormalizationStrategy) *Builder {
	b.dialect.Identifiers = core.IdentifierConfig{
		Quote:         quote,
		QuoteEnd:      quoteEnd,
		Escape:        escape,
		Normalization: norm,
	}
	return b
}

// DefaultSchema sets the default schema name.
func (b *Builder) DefaultSchema(schema string) *Builder {
	b.dialect.DefaultSchema = schema
	return b
}

// Aggregates adds aggregate functions to the dialect.
func (b *Builder) Aggregates(funcs ...string) *Builder {
	b.add(b.dialect.aggregates, funcs)
	return b
}

// MaskingAggregates adds aggregates whose output masks the input values.
// They are also registered as aggregates.
func (b *Builder) MaskingAggregates(funcs ...string) *Builder {
	b.add(b.dialect.aggregates, funcs)
	b.add(b.dialect.maskingAggregates, funcs)
	return b
}

// MaskingFunctions adds one-way scalar functions (hashes, digests).
func (b *Builder) MaskingFunctions(funcs ...string) *Builder {
	b.add(b.dialect.maskingFunctions, funcs)
	return b
}

// Generators adds generator functions (no input columns) to the dialect.
func (b *Builder) Generators(funcs ...string) *Builder {
	b.add(b.dialect.generators, funcs)
	return b
}

// Windows adds window-only functions to the dialect.
func (b *Builder) Windows(funcs ...string) *Builder {
	b.add(b.dialect.windows, funcs)
	return b
}

// Aliases maps alternative function names onto canonical ones.
func (b *Builder) Aliases(aliases map[string]string) *Builder {
	for from, to := range aliases {
		b.dialect.aliases[b.dialect.NormalizeName(from)] = b.dialect.NormalizeName(to)
	}
	return b
}

// AddOperator registers a custom operator symbol.
func (b *Builder) AddOperator(symbol string, t token.TokenType) *Builder {
	b.dialect.symbols[symbol] = t
	return b
}

// AddKeyword registers a dialect keyword.
func (b *Builder) AddKeyword(name string, t token.TokenType) *Builder {
	b.dialect.dynamicKw[strings.ToLower(name)] = t
	return b
}

// Build returns the constructed dialect.
func (b *Builder) Build() *Dialect {
	return b.dialect
}

func (b *Builder) add(set map[string]struct{}, funcs []string) {
	for _, f := range funcs {
		set[b.dialect.NormalizeName(f)] = struct{}{}
	}
}
