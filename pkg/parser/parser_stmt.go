package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// Statement parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	statement     → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" statement ")"
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause] clauses
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | table "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseStatement parses a complete SELECT statement.
func (p *Parser) parseStatement() *core.SelectStmt {
	stmt := &core.SelectStmt{NodeInfo: core.NodeInfo{Start: p.token.Pos}}

	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}

	stmt.Body = p.parseSelectBody()
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *core.WithClause {
	with := &core.WithClause{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	p.expect(token.WITH)

	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}

	for !p.failed() {
		with.CTEs = append(with.CTEs, p.parseCTE())
		if !p.match(token.COMMA) {
			break
		}
	}

	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *core.CTE {
	cte := &core.CTE{NodeInfo: core.NodeInfo{Start: p.token.Pos}}

	if !p.check(token.IDENT) {
		p.addError("expected CTE name")
		return cte
	}
	cte.Name = p.token.Literal
	p.nextToken()

	// Column list is accepted but not used: output names come from the body.
	if p.match(token.LPAREN) {
		for p.check(token.IDENT) {
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Select = p.parseStatement()
	p.expect(token.RPAREN)

	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
func (p *Parser) parseSelectBody() *core.SelectBody {
	body := &core.SelectBody{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	body.Left = p.parseSelectCore()

	switch p.token.Type {
	case token.UNION:
		body.Op = core.SetOpUnion
	case token.INTERSECT:
		body.Op = core.SetOpIntersect
	case token.EXCEPT:
		body.Op = core.SetOpExcept
	default:
		return body
	}
	p.nextToken()

	if p.match(token.ALL) {
		body.All = true
	} else {
		p.match(token.DISTINCT) // optional
	}

	body.Right = p.parseSelectBody()
	return body
}

// parseSelectCore parses a single SELECT clause.
func (p *Parser) parseSelectCore() *core.SelectCore {
	sc := &core.SelectCore{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	if !p.expect(token.SELECT) {
		return sc
	}

	if p.match(token.DISTINCT) {
		sc.Distinct = true
	} else {
		p.match(token.ALL)
	}

	sc.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		sc.From = p.parseFromClause()
	}

	if p.match(token.WHERE) {
		sc.Where = p.parseExpression()
	}

	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		sc.GroupBy = p.parseExpressionList()
	}

	if p.match(token.HAVING) {
		sc.Having = p.parseExpression()
	}

	if p.match(token.QUALIFY) {
		sc.Qualify = p.parseExpression()
	}

	if p.check(token.ORDER) {
		p.nextToken()
		p.expect(token.BY)
		sc.OrderBy = p.parseOrderByList()
	}

	if p.match(token.LIMIT) {
		sc.Limit = p.parseExpression()
	}

	if p.match(token.OFFSET) {
		sc.Offset = p.parseExpression()
	}

	return sc
}

// parseSelectList parses the SELECT list.
func (p *Parser) parseSelectList() []core.SelectItem {
	var items []core.SelectItem

	for !p.failed() {
		items = append(items, p.parseSelectItem())
		if !p.match(token.COMMA) {
			break
		}
	}

	return items
}

// parseSelectItem parses a single SELECT item.
func (p *Parser) parseSelectItem() core.SelectItem {
	// SELECT *
	if p.match(token.STAR) {
		return core.SelectItem{Star: true}
	}

	// SELECT t.*
	if p.check(token.IDENT) && p.checkPeek(token.DOT) && p.peek2.Type == token.STAR {
		table := p.token.Literal
		p.nextToken() // table
		p.nextToken() // .
		p.nextToken() // *
		return core.SelectItem{TableStar: table}
	}

	item := core.SelectItem{Expr: p.parseExpression()}
	item.Alias = p.parseAlias()
	return item
}

// parseExpressionList parses a comma-separated list of expressions.
func (p *Parser) parseExpressionList() []core.Expr {
	var exprs []core.Expr

	for !p.failed() {
		exprs = append(exprs, p.parseExpression())
		if !p.match(token.COMMA) {
			break
		}
	}

	return exprs
}

// parseOrderByList parses an ORDER BY list.
func (p *Parser) parseOrderByList() []core.OrderByItem {
	var items []core.OrderByItem

	for !p.failed() {
		item := core.OrderByItem{Expr: p.parseExpression()}

		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}

		if p.match(token.NULLS) {
			first := p.check(token.FIRST)
			if first || p.check(token.LAST) {
				p.nextToken()
				item.NullsFirst = &first
			} else {
				p.addError("expected FIRST or LAST after NULLS")
			}
		}

		items = append(items, item)
		if !p.match(token.COMMA) {
			break
		}
	}

	return items
}
