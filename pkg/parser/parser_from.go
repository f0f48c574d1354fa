package parser

import (
	"github.com/leapstack-labs/leaplineage/pkg/core"
	"github.com/leapstack-labs/leaplineage/pkg/token"
)

// FROM clause parsing: table references, derived tables, joins.
//
// Grammar:
//
//	from_clause   → table_ref (join_clause | "," table_ref)*
//	table_ref     → table_name [[AS] alias] | [LATERAL] "(" statement ")" [AS] alias
//	table_name    → identifier ["." identifier ["." identifier]]
//	join_clause   → [join_type] JOIN table_ref [ON expr | USING "(" ident_list ")"]
//	join_type     → INNER | LEFT [OUTER] | RIGHT [OUTER] | FULL [OUTER] | CROSS

// parseFromClause parses the FROM clause.
func (p *Parser) parseFromClause() *core.FromClause {
	from := &core.FromClause{NodeInfo: core.NodeInfo{Start: p.token.Pos}}
	from.Source = p.parseTableRef()

	for !p.failed() {
		if p.check(token.COMMA) {
			join := &core.Join{NodeInfo: core.NodeInfo{Start: p.token.Pos}, Type: core.JoinComma}
			p.nextToken()
			join.Right = p.parseTableRef()
			from.Joins = append(from.Joins, join)
			continue
		}

		join := p.parseJoin()
		if join == nil {
			break
		}
		from.Joins = append(from.Joins, join)
	}

	return from
}

// parseJoin parses a single join clause, or returns nil when none follows.
func (p *Parser) parseJoin() *core.Join {
	join := &core.Join{NodeInfo: core.NodeInfo{Start: p.token.Pos}}

	switch p.token.Type {
	case token.JOIN:
		join.Type = core.JoinInner
	case token.INNER:
		join.Type = core.JoinInner
		p.nextToken()
	case token.LEFT:
		join.Type = core.JoinLeft
		p.nextToken()
		p.match(token.OUTER)
	case token.RIGHT:
		join.Type = core.JoinRight
		p.nextToken()
		p.match(token.OUTER)
	case token.FULL:
		join.Type = core.JoinFull
		p.nextToken()
		p.match(token.OUTER)
	case token.CROSS:
		join.Type = core.JoinCross
		p.nextToken()
	default:
		return nil
	}

	p.expect(token.JOIN)
	join.Right = p.parseTableRef()

	switch {
	case p.match(token.ON):
		join.Condition = p.parseExpression()
	case p.match(token.USING):
		p.expect(token.LPAREN)
		for p.check(token.IDENT) {
			join.Using = append(join.Using, p.token.Literal)
			p.nextToken()
			if !p.match(token.COMMA) {
				break
			}
		}
		p.expect(token.RPAREN)
	}

	return join
}

// parseTableRef parses a table name or a derived table.
func (p *Parser) parseTableRef() core.TableRef {
	start := p.token.Pos
	p.match(token.LATERAL)

	if p.check(token.LPAREN) {
		p.nextToken()
		derived := &core.DerivedTable{NodeInfo: core.NodeInfo{Start: start}}
		derived.Select = p.parseStatement()
		p.expect(token.RPAREN)
		derived.Alias = p.parseAlias()
		return derived
	}

	if !p.check(token.IDENT) {
		p.addError("expected table name or subquery, got " + describe(p.token))
		return &core.TableName{NodeInfo: core.NodeInfo{Start: start}}
	}

	parts := []string{p.token.Literal}
	p.nextToken()
	for p.check(token.DOT) && p.checkPeek(token.IDENT) {
		p.nextToken()
		parts = append(parts, p.token.Literal)
		p.nextToken()
	}

	table := &core.TableName{NodeInfo: core.NodeInfo{Start: start}}
	switch len(parts) {
	case 1:
		table.Name = parts[0]
	case 2:
		table.Schema, table.Name = parts[0], parts[1]
	default:
		table.Catalog, table.Schema, table.Name = parts[len(parts)-3], parts[len(parts)-2], parts[len(parts)-1]
	}

	table.Alias = p.parseAlias()
	return table
}
