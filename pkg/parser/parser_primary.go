package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/token"
)

// Primary expression parsing: literals, placeholders, column refs, function calls.
//
// Grammar:
//
//	primary       → literal | placeholder | column_ref | func_call | paren_expr
//	              | case_expr | cast_expr | exists_expr | typed_literal
//	literal       → NUMBER | STRING | TRUE | FALSE | NULL
//	column_ref    → identifier ("." identifier){0,3}
//	func_call     → identifier "(" [DISTINCT] [expr_list [ORDER BY order_list] | "*"] ")"
//	                [FILTER "(" WHERE expr ")"] [OVER (identifier | window_spec)]
//	paren_expr    → "(" select ")" | "(" expr_list ")"
//	typed_literal → (DATE|TIME|TIMESTAMP|INTERVAL) STRING

// typedLiteralPrefixes are type names that may precede a string literal.
var typedLiteralPrefixes = map[string]bool{
	"date": true, "time": true, "timestamp": true, "interval": true,
}

// parsePrimary parses primary expressions.
func (p *Parser) parsePrimary() Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.NUMBER:
		lit := &Literal{Start: start, Type: LiteralNumber, Value: p.token.Literal}
		p.nextToken()
		return lit
	case token.STRING:
		lit := &Literal{Start: start, Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return lit
	case token.TRUE:
		p.nextToken()
		return &Literal{Start: start, Type: LiteralBool, Value: "true"}
	case token.FALSE:
		p.nextToken()
		return &Literal{Start: start, Type: LiteralBool, Value: "false"}
	case token.NULL:
		p.nextToken()
		return &Literal{Start: start, Type: LiteralNull, Value: "NULL"}
	case token.PLACEHOLDER:
		return p.parsePlaceholder()
	case token.CASE:
		return p.parseCaseExpr()
	case token.CAST:
		return p.parseCastExpr()
	case token.EXISTS:
		return p.parseExists(start)
	case token.LPAREN:
		return p.parseParenExpr()
	case token.LEFT, token.RIGHT:
		// LEFT(s, n) and RIGHT(s, n) are functions despite being keywords.
		if p.checkPeek(token.LPAREN) {
			name := p.token.Literal
			p.nextToken()
			return p.parseFuncCall(name, start)
		}
	}

	if isIdent(p.token) {
		return p.parseIdentifierExpr()
	}

	p.fail(fmt.Sprintf(ErrUnexpectedInExpr, describe(p.token)))
	return nil
}

// parsePlaceholder classifies the placeholder spelling.
func (p *Parser) parsePlaceholder() Expr {
	ph := &Placeholder{Start: p.token.Pos, Text: p.token.Literal}
	switch {
	case ph.Text == "?":
		ph.Kind = PlaceholderPositional
	case isNumbered(ph.Text):
		ph.Kind = PlaceholderNumbered
	default:
		ph.Kind = PlaceholderNamed
	}
	p.nextToken()
	return ph
}

// isNumbered reports whether text is "?NNN" or "$NNN".
func isNumbered(text string) bool {
	if len(text) < 2 || (text[0] != '?' && text[0] != '$') {
		return false
	}
	for i := 1; i < len(text); i++ {
		if !isDigit(text[i]) {
			return false
		}
	}
	return true
}

// parseIdentifierExpr parses an identifier which could be a column ref,
// function call or typed literal.
func (p *Parser) parseIdentifierExpr() Expr {
	start := p.token.Pos
	name, quoted := p.parseName()

	if p.check(token.LPAREN) {
		return p.parseFuncCall(name, start)
	}

	if !quoted && p.check(token.STRING) && typedLiteralPrefixes[strings.ToLower(name)] {
		lit := &Literal{Start: p.token.Pos, Type: LiteralString, Value: p.token.Literal}
		p.nextToken()
		return &CastExpr{Start: start, Expr: lit, TypeName: strings.ToUpper(name), Typed: true}
	}

	ref := &ColumnRef{Start: start, Parts: []string{name}}
	flags := []bool{quoted}
	anyQuoted := quoted
	for p.check(token.DOT) && !p.checkPeek(token.STAR) {
		p.nextToken()
		part, q := p.parseName()
		ref.Parts = append(ref.Parts, part)
		flags = append(flags, q)
		anyQuoted = anyQuoted || q
		if len(ref.Parts) > 4 {
			p.failAt(KindSyntax, start, fmt.Sprintf("column reference has too many parts: %d", len(ref.Parts)))
		}
	}
	if anyQuoted {
		ref.Quoted = flags
	}
	return ref
}

// parseFuncCall parses a function call; name has been consumed.
func (p *Parser) parseFuncCall(name string, start token.Position) *FuncCall {
	fn := &FuncCall{Start: start, Name: name}

	p.expect(token.LPAREN)
	switch {
	case p.check(token.STAR):
		fn.Star = true
		p.nextToken()
	case !p.check(token.RPAREN):
		if p.match(token.DISTINCT) {
			fn.Distinct = true
		} else {
			p.match(token.ALL)
		}
		fn.Args = p.parseExpressionList()
		// Ordered-set aggregates: string_agg(x, ',' ORDER BY y)
		if p.check(token.ORDER) {
			p.parseOrderBy()
		}
	}
	p.expect(token.RPAREN)

	if p.check(token.FILTER) && p.checkPeek(token.LPAREN) {
		p.nextToken()
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

// parseWindowSpec parses "name" or "( [PARTITION BY ...] [ORDER BY ...] [frame] )".
func (p *Parser) parseWindowSpec() *WindowSpec {
	spec := &WindowSpec{}
	if isIdent(p.token) {
		spec.Name = p.parseIdent()
		return spec
	}

	p.expect(token.LPAREN)
	if isIdent(p.token) && !p.check(token.PARTITION) {
		// Frame keywords (ROWS, RANGE, GROUPS) are plain identifiers.
		if !isFrameStart(p.token.Literal) {
			spec.Name = p.parseIdent()
		}
	}
	if p.check(token.PARTITION) {
		p.nextToken()
		p.expect(token.BY)
		spec.PartitionBy = p.parseExpressionList()
	}
	if p.check(token.ORDER) {
		spec.OrderBy = p.parseOrderBy()
	}
	if p.check(token.IDENT) && isFrameStart(p.token.Literal) {
		start := p.token.Pos.Offset
		depth := 0
		for !p.check(token.EOF) && (depth > 0 || !p.check(token.RPAREN)) {
			switch p.token.Type {
			case token.LPAREN:
				depth++
			case token.RPAREN:
				depth--
			}
			p.nextToken()
		}
		spec.Frame = collapseSpace(p.input[start:p.prevEnd])
	}
	p.expect(token.RPAREN)
	return spec
}

func isFrameStart(word string) bool {
	switch strings.ToLower(word) {
	case "rows", "range", "groups":
		return true
	}
	return false
}

// parseCaseExpr parses CASE [operand] WHEN ... THEN ... [ELSE ...] END.
func (p *Parser) parseCaseExpr() Expr {
	c := &CaseExpr{Start: p.token.Pos}
	p.expect(token.CASE)
	if !p.check(token.WHEN) {
		c.Operand = p.parseExpression()
	}
	for p.match(token.WHEN) {
		when := WhenClause{Condition: p.parseExpression()}
		p.expect(token.THEN)
		when.Result = p.parseExpression()
		c.Whens = append(c.Whens, when)
	}
	if len(c.Whens) == 0 {
		p.fail(fmt.Sprintf(ErrUnexpectedToken, "WHEN", describe(p.token)))
	}
	if p.match(token.ELSE) {
		c.Else = p.parseExpression()
	}
	p.expect(token.END)
	return c
}

// parseCastExpr parses CAST(expr AS type).
func (p *Parser) parseCastExpr() Expr {
	c := &CastExpr{Start: p.token.Pos}
	p.expect(token.CAST)
	p.expect(token.LPAREN)
	c.Expr = p.parseExpression()
	p.expect(token.AS)
	c.TypeName = p.parseTypeName()
	p.expect(token.RPAREN)
	return c
}

// typeContinuations are words that extend a multi-word type name.
var typeContinuations = map[string]bool{
	"precision": true, "varying": true, "unsigned": true, "signed": true,
	"without": true, "time": true, "zone": true,
}

// parseTypeName parses a type such as "INTEGER", "VARCHAR(20)",
// "double precision", "timestamp with time zone" or "int[]".
// The text is returned as written, whitespace-collapsed.
func (p *Parser) parseTypeName() string {
	start := p.token.Pos.Offset
	p.parseIdent()

words:
	for {
		switch {
		case p.check(token.IDENT) && typeContinuations[strings.ToLower(p.token.Literal)]:
			p.nextToken()
		case p.check(token.WITH) && p.checkPeek(token.IDENT) && strings.EqualFold(p.peek.Literal, "time"):
			p.nextToken()
		default:
			break words
		}
	}

	if p.check(token.LPAREN) {
		p.nextToken()
		for !p.check(token.RPAREN) {
			if p.check(token.EOF) {
				p.fail(fmt.Sprintf(ErrUnexpectedToken, ")", describe(p.token)))
			}
			p.nextToken()
		}
		p.nextToken()
	}
	for p.check(token.LBRACKET) {
		p.nextToken()
		if p.check(token.NUMBER) {
			p.nextToken()
		}
		p.expect(token.RBRACKET)
	}
	return collapseSpace(p.input[start:p.prevEnd])
}

// parseExists parses EXISTS (select).
func (p *Parser) parseExists(start token.Position) *ExistsExpr {
	p.expect(token.EXISTS)
	p.expect(token.LPAREN)
	e := &ExistsExpr{Start: start, Select: p.parseSelect()}
	p.expect(token.RPAREN)
	return e
}

// parseParenExpr parses a scalar subquery, a parenthesized expression or a row.
func (p *Parser) parseParenExpr() Expr {
	start := p.token.Pos
	if p.peekIsQuery() {
		p.nextToken()
		sub := &SubqueryExpr{Start: start, Select: p.parseSelect()}
		p.expect(token.RPAREN)
		return sub
	}

	p.expect(token.LPAREN)
	exprs := p.parseExpressionList()
	p.expect(token.RPAREN)
	if len(exprs) == 1 {
		return &ParenExpr{Start: start, Expr: exprs[0]}
	}
	return &RowExpr{Start: start, Exprs: exprs}
}

// collapseSpace joins whitespace-separated fields with single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
