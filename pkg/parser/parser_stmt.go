package parser

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/token"
)

// SELECT parsing: WITH clause, CTEs, SELECT body, SELECT list, ORDER BY.
//
// Grammar:
//
//	select        → [WITH [RECURSIVE] cte_list] select_body
//	cte_list      → cte ("," cte)*
//	cte           → identifier ["(" ident_list ")"] AS "(" select ")"
//	select_body   → (select_core | "(" select ")")
//	                [(UNION|INTERSECT|EXCEPT) [ALL|DISTINCT] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list
//	                [FROM from_clause] [WHERE expr]
//	                [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr [(OFFSET|",") expr]] [OFFSET expr]
//	select_list   → select_item ("," select_item)*
//	select_item   → "*" | qualifier "." "*" | expr [[AS] identifier]
//	order_list    → order_item ("," order_item)*
//	order_item    → expr [ASC|DESC] [NULLS FIRST|LAST]

// parseSelect parses a complete SELECT statement.
func (p *Parser) parseSelect() *SelectStmt {
	p.enter()
	defer p.leave()

	stmt := &SelectStmt{Start: p.token.Pos}
	if p.check(token.WITH) {
		stmt.With = p.parseWithClause()
	}
	stmt.Body = p.parseSelectBody(stmt)
	return stmt
}

// parseWithClause parses a WITH clause with CTEs.
func (p *Parser) parseWithClause() *WithClause {
	p.expect(token.WITH)
	with := &WithClause{}
	if p.match(token.RECURSIVE) {
		with.Recursive = true
	}
	for {
		with.CTEs = append(with.CTEs, p.parseCTE())
		if !p.match(token.COMMA) {
			break
		}
	}
	return with
}

// parseCTE parses a single CTE.
func (p *Parser) parseCTE() *CTE {
	cte := &CTE{}
	cte.Name, cte.NameQuoted = p.parseName()
	if p.check(token.LPAREN) {
		cte.Columns = p.parseParenIdentList()
	}
	p.expect(token.AS)
	p.expect(token.LPAREN)
	cte.Select = p.parseSelect()
	p.expect(token.RPAREN)
	return cte
}

// parseSelectBody parses a SELECT body with possible set operations.
// A parenthesized leading operand is flattened into the chain; its WITH
// clause, if any, is hoisted into stmt.
func (p *Parser) parseSelectBody(stmt *SelectStmt) *SelectBody {
	var body, tail *SelectBody
	if p.check(token.LPAREN) && p.peekIsQuery() {
		p.nextToken()
		inner := p.parseSelect()
		p.expect(token.RPAREN)
		if stmt.With == nil {
			stmt.With = inner.With
		}
		body = inner.Body
		tail = body
		for tail.Right != nil {
			tail = tail.Right
		}
	} else {
		body = &SelectBody{Left: p.parseSelectCore()}
		tail = body
	}

	switch p.token.Type {
	case token.UNION:
		tail.Op = SetOpUnion
	case token.INTERSECT:
		tail.Op = SetOpIntersect
	case token.EXCEPT:
		tail.Op = SetOpExcept
	default:
		return body
	}
	p.nextToken()
	if p.match(token.ALL) {
		tail.All = true
	} else {
		p.match(token.DISTINCT)
	}
	tail.Right = p.parseSelectBody(stmt)
	return body
}

// parseSelectCore parses a single SELECT block.
func (p *Parser) parseSelectCore() *SelectCore {
	p.expect(token.SELECT)
	core := &SelectCore{}

	if p.match(token.DISTINCT) {
		core.Distinct = true
	} else {
		p.match(token.ALL)
	}

	core.Columns = p.parseSelectList()

	if p.match(token.FROM) {
		core.From = p.parseFromClause()
	}
	if p.match(token.WHERE) {
		core.Where = p.parseExpression()
	}
	if p.check(token.GROUP) {
		p.nextToken()
		p.expect(token.BY)
		core.GroupBy = p.parseExpressionList()
	}
	if p.match(token.HAVING) {
		core.Having = p.parseExpression()
	}
	if p.check(token.ORDER) {
		core.OrderBy = p.parseOrderBy()
	}
	p.parseLimitOffset(core)
	return core
}

// parseLimitOffset handles LIMIT n, LIMIT n OFFSET m, LIMIT m, n and OFFSET m.
func (p *Parser) parseLimitOffset(core *SelectCore) {
	if p.match(token.LIMIT) {
		core.Limit = p.parseExpression()
		if p.match(token.COMMA) {
			// LIMIT offset, count
			core.Offset = core.Limit
			core.Limit = p.parseExpression()
			return
		}
	}
	if p.match(token.OFFSET) {
		core.Offset = p.parseExpression()
	}
}

// parseSelectList parses the projection list.
func (p *Parser) parseSelectList() []SelectItem {
	if p.check(token.FROM) || p.check(token.EOF) || p.check(token.SEMICOLON) {
		p.fail(ErrEmptySelectList)
	}
	items := []SelectItem{p.parseSelectItem()}
	for p.match(token.COMMA) {
		items = append(items, p.parseSelectItem())
	}
	return items
}

// parseSelectItem parses a single projection item.
func (p *Parser) parseSelectItem() SelectItem {
	item := SelectItem{Start: p.token.Pos}

	if p.match(token.STAR) {
		item.Star = true
		return item
	}

	// qualifier(.qualifier)*.*
	if isIdent(p.token) && p.checkPeek(token.DOT) {
		if parts, quoted, ok := p.tryTableStar(); ok {
			item.TableStar, item.TableStarQuoted = parts, quoted
			return item
		}
	}

	item.Expr = p.parseExpression()
	item.Alias = p.parseSelectAlias()
	return item
}

// tryTableStar consumes "a.b.*" when the dotted chain ends in a star.
// Nothing is consumed when the chain is a column reference.
func (p *Parser) tryTableStar() ([]string, []bool, bool) {
	l := NewLexer(p.input[p.token.Pos.Offset:], p.dialect)
	tok := l.NextToken()
	n := 0
	for isIdent(tok) && n < 3 {
		n++
		if l.NextToken().Type != token.DOT {
			return nil, nil, false
		}
		tok = l.NextToken()
		if tok.Type != token.STAR {
			continue
		}
		parts := make([]string, 0, n)
		quoted := make([]bool, 0, n)
		for range n {
			name, q := p.parseName()
			parts = append(parts, name)
			quoted = append(quoted, q)
			p.expect(token.DOT)
		}
		p.expect(token.STAR)
		return parts, quoted, true
	}
	return nil, nil, false
}

// parseSelectAlias parses an optional projection alias. String literals are
// accepted after AS for dialects that allow 'alias'.
func (p *Parser) parseSelectAlias() string {
	if p.match(token.AS) {
		if p.check(token.STRING) {
			lit := p.token.Literal
			p.nextToken()
			return lit
		}
		return p.parseIdent()
	}
	if p.check(token.IDENT) {
		return p.parseIdent()
	}
	return ""
}

// parseOrderBy parses ORDER BY order_list.
func (p *Parser) parseOrderBy() []OrderByItem {
	p.expect(token.ORDER)
	p.expect(token.BY)
	items := []OrderByItem{p.parseOrderItem()}
	for p.match(token.COMMA) {
		items = append(items, p.parseOrderItem())
	}
	return items
}

func (p *Parser) parseOrderItem() OrderByItem {
	item := OrderByItem{Expr: p.parseExpression()}
	if p.match(token.DESC) {
		item.Desc = true
	} else {
		p.match(token.ASC)
	}
	// NULLS is not a keyword; match it by spelling.
	if p.check(token.IDENT) && strings.EqualFold(p.token.Literal, "nulls") {
		p.nextToken()
		if !p.check(token.IDENT) {
			p.fail("expected FIRST or LAST after NULLS")
		}
		switch {
		case strings.EqualFold(p.token.Literal, "first"):
			item.Nulls = "FIRST"
		case strings.EqualFold(p.token.Literal, "last"):
			item.Nulls = "LAST"
		default:
			p.fail("expected FIRST or LAST after NULLS")
		}
		p.nextToken()
	}
	return item
}
