package parser

import (
	"fmt"

	"github.com/leapstack-labs/butter/pkg/token"
)

// Expression precedence parsing using a Pratt parser.
//
// Precedence levels:
//
//	precNone       = 0
//	precOr         = 1
//	precAnd        = 2
//	precNot        = 3
//	precComparison = 4  (=, !=, <, >, <=, >=, IS, IN, BETWEEN, LIKE, ILIKE)
//	precAddition   = 5  (+, -, ||)
//	precMultiply   = 6  (*, /, %)
//	precUnary      = 7  (-, +)
//	precPostfix    = 8  (::, [])
const (
	precNone = iota
	precOr
	precAnd
	precNot
	precComparison
	precAddition
	precMultiply
	precUnary
	precPostfix
)

// parseExpression parses an expression using precedence climbing.
func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(precNone + 1)
}

// parseExpressionList parses "expr (, expr)*".
func (p *Parser) parseExpressionList() []Expr {
	exprs := []Expr{p.parseExpression()}
	for p.match(token.COMMA) {
		exprs = append(exprs, p.parseExpression())
	}
	return exprs
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	p.enter()
	defer p.leave()

	left := p.parsePrefixExpr()
	for {
		prec := p.infixPrecedence()
		if prec < minPrecedence {
			return left
		}
		left = p.parseInfixExpr(left, prec)
	}
}

// parsePrefixExpr parses prefix expressions (unary operators and primary expressions).
func (p *Parser) parsePrefixExpr() Expr {
	start := p.token.Pos
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		if p.check(token.EXISTS) {
			exists := p.parseExists(start)
			exists.Not = true
			return exists
		}
		return &UnaryExpr{Start: start, Op: token.NOT, Expr: p.parseExpressionWithPrecedence(precNot)}
	case token.MINUS, token.PLUS:
		op := p.token.Type
		p.nextToken()
		return &UnaryExpr{Start: start, Op: op, Expr: p.parseExpressionWithPrecedence(precUnary)}
	default:
		return p.parsePrimary()
	}
}

// infixPrecedence returns the precedence of the current token as an infix
// operator, or precNone.
func (p *Parser) infixPrecedence() int {
	switch p.token.Type {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE,
		token.IS, token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
		return precComparison
	case token.NOT:
		// NOT IN, NOT BETWEEN, NOT LIKE, NOT ILIKE
		switch p.peek.Type {
		case token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
			return precComparison
		}
		return precNone
	case token.PLUS, token.MINUS, token.DPIPE:
		return precAddition
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiply
	case token.DCOLON, token.LBRACKET:
		return precPostfix
	}
	return precNone
}

// parseInfixExpr parses an infix expression given the left operand and current precedence.
func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	switch p.token.Type {
	case token.NOT:
		p.nextToken()
		return p.parseNegatableInfix(left, true)
	case token.IN, token.BETWEEN, token.LIKE, token.ILIKE:
		return p.parseNegatableInfix(left, false)
	case token.IS:
		return p.parseIsExpr(left)
	case token.DCOLON:
		if !p.dialect.CastOperator {
			p.fail(fmt.Sprintf(ErrUnsupportedCast, p.dialect.Name))
		}
		p.nextToken()
		return &CastExpr{Start: left.Pos(), Expr: left, TypeName: p.parseTypeName(), Operator: true}
	case token.LBRACKET:
		p.nextToken()
		index := p.parseExpression()
		p.expect(token.RBRACKET)
		return &BinaryExpr{Left: left, Op: token.LBRACKET, Right: index}
	}

	op := p.token.Type
	p.nextToken()
	// Left-associative: the right operand binds tighter.
	right := p.parseExpressionWithPrecedence(prec + 1)
	return &BinaryExpr{Left: left, Op: op, Right: right}
}

// parseNegatableInfix handles IN, BETWEEN, LIKE and ILIKE with NOT already consumed.
func (p *Parser) parseNegatableInfix(left Expr, not bool) Expr {
	switch p.token.Type {
	case token.IN:
		p.nextToken()
		return p.parseInExpr(left, not)
	case token.BETWEEN:
		p.nextToken()
		return p.parseBetweenExpr(left, not)
	case token.LIKE, token.ILIKE:
		op := p.token.Type
		p.nextToken()
		return &LikeExpr{Expr: left, Not: not, Op: op, Pattern: p.parseExpressionWithPrecedence(precAddition)}
	}
	p.fail(fmt.Sprintf(ErrUnexpectedToken, "IN, BETWEEN, LIKE or ILIKE", describe(p.token)))
	return nil
}

// parseIsExpr parses IS [NOT] NULL / IS [NOT] TRUE / IS [NOT] FALSE.
func (p *Parser) parseIsExpr(left Expr) Expr {
	p.expect(token.IS)
	not := p.match(token.NOT)

	switch p.token.Type {
	case token.NULL:
		p.nextToken()
		return &IsNullExpr{Expr: left, Not: not}
	case token.TRUE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: not, Value: true}
	case token.FALSE:
		p.nextToken()
		return &IsBoolExpr{Expr: left, Not: not, Value: false}
	}
	p.fail(fmt.Sprintf(ErrUnexpectedToken, "NULL, TRUE or FALSE", describe(p.token)))
	return nil
}

// parseInExpr parses the parenthesized part of an IN expression.
func (p *Parser) parseInExpr(left Expr, not bool) Expr {
	in := &InExpr{Expr: left, Not: not}
	p.expect(token.LPAREN)
	switch {
	case p.check(token.SELECT) || p.check(token.WITH):
		in.Query = p.parseSelect()
	case p.check(token.RPAREN):
		// IN () is accepted by sqlite
	default:
		in.Values = p.parseExpressionList()
	}
	p.expect(token.RPAREN)
	return in
}

// parseBetweenExpr parses the bounds of a BETWEEN expression.
func (p *Parser) parseBetweenExpr(left Expr, not bool) Expr {
	between := &BetweenExpr{Expr: left, Not: not}
	// Bounds bind tighter than AND so the separator is not captured.
	between.Low = p.parseExpressionWithPrecedence(precAddition)
	p.expect(token.AND)
	between.High = p.parseExpressionWithPrecedence(precAddition)
	return between
}
