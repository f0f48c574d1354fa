package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Primary expression parsing: literals, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | column_ref | func_call | paren_expr | case_expr | cast_expr | exists_expr
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL
//	column_ref    → [[schema "."] table "."] column
//	func_call     → identifier "(" [DISTINCT] [expr_list | "*"] ")" [FILTER "(" WHERE expr ")"] [OVER window_spec]
//	window_spec   → identifier | "(" [PARTITION BY expr_list] [ORDER BY order_list] ")"

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() core.Expr {
	pos := p.token.Pos
	info := core.NodeInfo{Start: pos}

	switch p.token.Type {
	case token.NUMBER:
		lit := &core.Literal{NodeInfo: info, Type: core.LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.STRING:
		lit := &core.Literal{NodeInfo: info, Type: core.LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit

	case token.TRUE, token.FALSE:
		lit := &core.Literal{NodeInfo: info, Type: core.LiteralBool, Value: strings.ToLower(p.token.Literal)}
		p.nextToken()
		return lit

	case token.NULL:
		p.nextToken()
		return &core.Literal{NodeInfo: info, Type: core.LiteralNull, Value: "null"}

	case token.CASE:
		return p.parseCaseExpr()

	case token.CAST:
		return p.parseCastExpr()

	case token.EXISTS:
		return p.parseExistsExpr(pos, false)

	case token.IDENT:
		return p.parseIdentifierExpr()

	case token.LEFT, token.RIGHT, token.FIRST, token.LAST:
		// Keywords that double as function names: LEFT(s, 3), FIRST(x)
		if p.checkPeek(token.LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(pos, name)
		}

	case token.LPAREN:
		return p.parseParenExpr()

	case token.STAR:
		p.nextToken()
		return &core.StarExpr{NodeInfo: info}
	}

	p.addError(fmt.Sprintf(ErrUnexpectedInExpr, describe(p.token)))
	return nil
}

// parseIdentifierExpr parses an identifier which could be a column ref or function call.
func (p *Parser) parseIdentifierExpr() core.Expr {
	pos := p.token.Pos
	name := p.token.Literal
	p.nextToken()

	if p.check(token.LPAREN) {
		return p.parseFuncCall(pos, name)
	}

	if p.check(token.DOT) {
		return p.parseQualifiedColumnRef(pos, name)
	}

	return &core.ColumnRef{NodeInfo: core.NodeInfo{Start: pos}, Column: name}
}

// parseQualifiedColumnRef parses table.column, schema.table.column or table.*.
// Every segment but the last becomes the (dotted) table qualifier.
func (p *Parser) parseQualifiedColumnRef(pos token.Position, firstPart string) core.Expr {
	parts := []string{firstPart}

	for p.match(token.DOT) {
		if p.check(token.STAR) {
			p.nextToken()
			return &core.StarExpr{NodeInfo: core.NodeInfo{Start: pos}, Table: strings.Join(parts, ".")}
		}
		if !p.check(token.IDENT) {
			p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "column name"))
			return nil
		}
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	return &core.ColumnRef{
		NodeInfo: core.NodeInfo{Start: pos},
		Table:    strings.Join(parts[:len(parts)-1], "."),
		Column:   parts[len(parts)-1],
	}
}

// parseFuncCall parses a function call. The current token is "(".
func (p *Parser) parseFuncCall(pos token.Position, name string) core.Expr {
	fn := &core.FuncCall{NodeInfo: core.NodeInfo{Start: pos}, Name: strings.ToUpper(name)}

	p.expect(token.LPAREN)

	if p.check(token.STAR) {
		fn.Star = true
		p.nextToken()
	} else if !p.check(token.RPAREN) {
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		}
		fn.Args = p.parseExpressionList()
		// ORDER BY inside aggregates (STRING_AGG(x, ',' ORDER BY y)) does not affect lineage
		if p.check(token.ORDER) {
			p.nextToken()
			p.expect(token.BY)
			p.parseOrderByList()
		}
	}

	p.expect(token.RPAREN)

	// WITHIN GROUP is not supported; FILTER clause is
	if p.match(token.FILTER) {
		p.expect(token.LPAREN)
		p.expect(token.WHERE)
		fn.Filter = p.parseExpression()
		p.expect(token.RPAREN)
	}

	if p.match(token.OVER) {
		fn.Window = p.parseWindowSpec()
	}

	return fn
}

// parseWindowSpec parses the window after OVER.
func (p *Parser) parseWindowSpec() *core.WindowSpec {
	spec := &core.WindowSpec{}

	if p.check(token.IDENT) {
		spec.Name = p.token.Literal
		p.nextToken()
		return spec
	}

	p.expect(token.LPAREN)
	if p.check(token.PARTITION) {
		p.nextToken()
		p.expect(token.BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		spec.OrderBy = p.parseOrderByList()
	}
	// Frame clauses (ROWS BETWEEN ...) are skipped up to the closing parenthesis.
	for depth := 0; !p.check(token.EOF); p.nextToken() {
		if p.check(token.LPAREN) {
			depth++
		}
		if p.check(token.RPAREN) {
			if depth == 0 {
				break
			}
			depth--
		}
	}
	p.expect(token.RPAREN)

	return spec
}

// parseParenExpr parses a parenthesized expression or scalar subquery.
func (p *Parser) parseParenExpr() core.Expr {
	pos := p.token.Pos
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		sub := &core.SubqueryExpr{NodeInfo: core.NodeInfo{Start: pos}, Select: p.parseStatement()}
		p.expect(token.RPAREN)
		return sub
	}

	inner := p.parseExpression()
	p.expect(token.RPAREN)
	if inner == nil {
		return nil
	}
	return &core.ParenExpr{NodeInfo: core.NodeInfo{Start: pos}, Expr: inner}
}

// parseCaseExpr parses CASE [operand] WHEN ... THEN ... [ELSE ...] END.
func (p *Parser) parseCaseExpr() core.Expr {
	c := &core.CaseExpr{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	p.expect(token.CASE)

	if !p.check(token.WHEN) {
		c.Operand = p.parseExpression()
	}

	for p.match(token.WHEN) {
		when := core.WhenClause{Condition: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		c.Whens = append(c.Whens, when)
	}
	if len(c.Whens) == 0 {
		p.addError("CASE requires at least one WHEN")
	}

	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}

	p.expect(token.END)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() core.Expr {
	c := &core.CastExpr{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	p.expect(token.CAST)
	p.expect(token.LPAREN)
	c.Expr = p.parseExpression()
	p.expect(token.AS)
	c.TypeName = p.parseTypeName()
	p.expect(token.RPAREN)
	return c
}

// parseTypeName parses a type name such as VARCHAR, DECIMAL(10, 2) or DOUBLE PRECISION.
func (p *Parser) parseTypeName() string {
	var parts []string
	for p.check(token.IDENT) {
		parts = append(parts, strings.ToUpper(p.token.Literal))
		p.nextToken()
	}
	if len(parts) == 0 {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, describe(p.token), "type name"))
		return ""
	}

	name := strings.Join(parts, " ")
	if p.match(token.LPAREN) {
		var args []string
		for p.check(token.NUMBER) {
			args = append(args, p.token.Literal)
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
		name += "(" + strings.Join(args, ", ") + ")"
	}
	for p.check(token.LBRACKET) && p.peek.Type == token.RBRACKET {
		p.nextToken()
		p.nextToken()
		name += "[]"
	}
	return name
}

// parseExistsExpr parses EXISTS (subquery). The current token is EXISTS.
func (p *Parser) parseExistsExpr(pos token.Position, not bool) core.Expr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	e := &core.ExistsExpr{NodeInfo: core.NodeInfo{Start: pos}, Not: not, Select: p.parseStatement()}
	p.expect(token.RPAREN)
	return e
}
