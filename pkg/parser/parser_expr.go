package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precedenceOr         = 1
//	precedenceAnd        = 2
//	precedenceNot        = 3
//	precedenceComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precedenceAddition   = 5  (+, -, ||)
//	precedenceMultiply   = 6  (*, /, %)
//	precedenceUnary      = 7  (-, +)
//	precedencePostfix    = 8  (::)
//
// ILIKE and :: only lex as operators when the dialect registers them.
const (
	precedenceNone = iota
	precedenceOr
	precedenceAnd
	precedenceNot
	precedenceComparison
	precedenceAddition
	precedenceMultiply
	precedenceUnary
	precedencePostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() core.Expr {
	return p.parseExpressionWithPrecedence(precedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) core.Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for !p.failed() {
		prec := infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}
		left = p.parseInfixExpr(left, prec)
	}

	return left
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() core.Expr {
	pos := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		if p.checkPeek(token.EXISTS) {
			p.nextToken()
			return p.parseExistsExpr(pos, true)
		}
		p.nextToken()
		return &core.UnaryExpr{NodeInfo: core.NodeInfo{Start: pos}, Op: token.NOT, Expr: p.parseExpressionWithPrecedence(precedenceNot)}

	case token.MINUS, token.PLUS:
		op := p.token.Type
		p.nextToken()
		return &core.UnaryExpr{NodeInfo: core.NodeInfo{Start: pos}, Op: op, Expr: p.parseExpressionWithPrecedence(precedenceUnary)}

	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of a token as an infix operator,
// or precedenceNone if it is not one.
func infixPrecedence(t token.TokenType) int {
	switch t {
	case token.OR:
		return precedenceOr
	case token.AND:
		return precedenceAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE, token.NOT:
		// NOT as infix covers NOT IN, NOT BETWEEN, NOT LIKE
		return precedenceComparison
	case token.PLUS, token.MINUS, token.DPIPE:
		return precedenceAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precedenceMultiply
	case token.DCOLON:
		return precedencePostfix
	default:
		return precedenceNone
	}
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left core.Expr, prec int) core.Expr {
	pos := left.Pos()

	switch p.token.Type {
	case token.NOT:
		return p.parseNotInfixExpr(left)
	case token.IS:
		return p.parseIsExpr(left)
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, false)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, false)
	case token.LIKE, token.ILIKE:
		ilike := p.check(token.ILIKE)
		p.nextToken()
		return p.parseLikeExpr(left, false, ilike)
	case token.DCOLON:
		p.nextToken()
		return &core.CastExpr{NodeInfo: core.NodeInfo{Start: pos}, Expr: left, TypeName: p.parseTypeName()}
	}

	op := p.token.Type
	p.nextToken()

	// Parse right operand with higher precedence (left-associative)
	right := p.parseExpressionWithPrecedence(prec + 1)
	if right == nil {
		return left
	}

	return &core.BinaryExpr{NodeInfo: core.NodeInfo{Start: pos}, Left: left, Op: op, Right: right}
}

// parseNotInfixExpr handles NOT as an infix modifier (NOT IN, NOT BETWEEN, NOT LIKE).
func (p *Parser) parseNotInfixExpr(left core.Expr) core.Expr {
	p.nextToken() // consume NOT

	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, true)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, true)
	case token.LIKE, token.ILIKE:
		ilike := p.check(token.ILIKE)
		p.nextToken()
		return p.parseLikeExpr(left, true, ilike)
	default:
		p.addError("expected IN, BETWEEN, LIKE, or ILIKE after NOT")
		return left
	}
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left core.Expr) core.Expr {
	p.nextToken() // consume IS
	isNot := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL:
		p.nextToken()
		return &core.IsNullExpr{NodeInfo: core.NodeInfo{Start: left.Pos()}, Expr: left, Not: isNot}
	case token.TRUE, token.FALSE:
		// IS TRUE compares against a boolean literal
		lit := &core.Literal{NodeInfo: core.NodeInfo{Start: p.token.Pos}, Type: core.LiteralBool, Value: p.token.Literal}
		p.nextToken()
		op := token.EQ
		if isNot {
			op = token.NE
		}
		return &core.BinaryExpr{NodeInfo: core.NodeInfo{Start: left.Pos()}, Left: left, Op: op, Right: lit}
	default:
		p.addError("expected NULL, TRUE, or FALSE after IS")
		return left
	}
}

// parseInExpr parses an IN expression.
func (p *Parser) parseInExpr(left core.Expr, not bool) core.Expr {
	in := &core.InExpr{NodeInfo: core.NodeInfo{Start: left.Pos()}, Expr: left, Not: not}
	p.expect(token.LPAREN)

	if p.check(token.SELECT) || p.check(token.WITH) {
		in.Query = p.parseStatement()
	} else {
		in.Values = p.parseExpressionList()
	}

	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left core.Expr, not bool) core.Expr {
	between := &core.BetweenExpr{NodeInfo: core.NodeInfo{Start: left.Pos()}, Expr: left, Not: not}
	// Bounds are parsed at addition precedence to avoid capturing AND
	between.Low = p.parseExpressionWithPrecedence(precedenceAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precedenceAddition)
	return between
}

// parseLikeExpr parses a LIKE/ILIKE expression.
func (p *Parser) parseLikeExpr(left core.Expr, not, ilike bool) core.Expr {
	like := &core.LikeExpr{NodeInfo: core.NodeInfo{Start: left.Pos()}, Expr: left, Not: not, ILike: ilike}
	like.Pattern = p.parseExpressionWithPrecedence(precedenceAddition)
	return like
}
