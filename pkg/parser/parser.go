// Package parser provides SQL parsing with dialect-aware lexing.
//
// # Usage
//
//	stmt, err := parser.ParseWithDialect("SELECT a, b FROM t", myDialect)
//	if err != nil {
//	    // handle error
//	}
//
// Use the dialect registry to get a dialect by name:
//
//	d, ok := dialect.Get("duckdb")
//	stmt, err := parser.ParseWithDialect(sql, d)
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the SELECT subset of SQL:
//
//	statement     → [WITH cte_list] select_body [";"]
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [QUALIFY expr] [ORDER BY order_list] [LIMIT expr] [OFFSET expr]
//
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/dialect"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Parser parses SQL into an AST.
type Parser struct {
	lexer   *Lexer
	token   token.Token // current token
	peek    token.Token // lookahead token
	peek2   token.Token // second lookahead token
	errors  []error
	dialect *dialect.Dialect // required
}

// NewParser creates a new parser for the given SQL input with dialect support.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	p := &Parser{
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// ParseWithDialect parses a single SELECT statement with a specific dialect.
func ParseWithDialect(sql string, d *dialect.Dialect) (*core.SelectStmt, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	p := NewParser(sql, d)
	stmt := p.parseTopLevel()
	if errs := p.lexer.Errors(); len(errs) > 0 {
		return nil, errs[0]
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return stmt, nil
}

// Parse parses a single SELECT statement with the default dialect.
func Parse(sql string) (*core.SelectStmt, error) {
	return ParseWithDialect(sql, dialect.Default())
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// parseTopLevel parses a statement and rejects anything after it.
func (p *Parser) parseTopLevel() *core.SelectStmt {
	if !p.check(token.SELECT) && !p.check(token.WITH) {
		p.errors = append(p.errors, &ParseError{
			Pos:     p.token.Pos,
			Message: fmt.Sprintf("%s, got %s", ErrNotSelect, describe(p.token)),
		})
		return nil
	}

	stmt := p.parseStatement()
	for p.check(token.SEMI) {
		p.nextToken()
	}
	if !p.check(token.EOF) {
		p.addError(fmt.Sprintf(ErrTrailingInput, describe(p.token)))
	}
	return stmt
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
}

// check returns true if the current token is of the given type.
func (p *Parser) check(t token.TokenType) bool {
	return p.token.Type == t
}

// checkPeek returns true if the peek token is of the given type.
func (p *Parser) checkPeek(t token.TokenType) bool {
	return p.peek.Type == t
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise adds an error.
func (p *Parser) expect(t token.TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), t))
	return false
}

// addError adds a parse error. Only the first error per position is kept so
// that a single mistake does not cascade.
func (p *Parser) addError(msg string) {
	if n := len(p.errors); n > 0 {
		if pe, ok := p.errors[n-1].(*ParseError); ok && pe.Pos == p.token.Pos {
			return
		}
	}
	p.errors = append(p.errors, &ParseError{
		Pos:     p.token.Pos,
		Message: msg,
	})
}

func (p *Parser) failed() bool {
	return len(p.errors) > 0
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", tok.Type, tok.Literal)
	case token.STRING:
		return "string literal"
	default:
		return tok.Type.String()
	}
}

// ---------- Alias Helpers ----------

// parseAlias parses an optional [AS] alias.
func (p *Parser) parseAlias() string {
	if p.match(token.AS) {
		if p.check(token.IDENT) || p.check(token.STRING) {
			alias := p.token.Literal
			p.nextToken()
			return alias
		}
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "alias"))
		return ""
	}
	// Keywords never lex as IDENT, so a bare identifier here is always an alias.
	if p.check(token.IDENT) {
		alias := p.token.Literal
		p.nextToken()
		return alias
	}
	return ""
}
