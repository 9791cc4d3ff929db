// Package parser provides SQL parsing with dialect-aware tokenization.
//
// # Usage
//
//	stmts, err := parser.Parse("SELECT a, b FROM t WHERE id = ?", d)
//	if err != nil {
//	    // handle error; see *ParseError for position information
//	}
//
// The parser requires a dialect. Use the dialect registry to get one by name:
//
//	d, err := dialect.Lookup("sqlite")
//	stmts, err := parser.Parse(sql, d)
//
// # Grammar Overview
//
// The parser implements a recursive descent parser for the statements the
// analyzer models:
//
//	script        → statement (';' statement)* [';']
//	statement     → select | insert | update | delete | create_table | other
//	select        → [WITH [RECURSIVE] cte_list] select_body
//	select_body   → select_core [(UNION|INTERSECT|EXCEPT) [ALL] select_body]
//	select_core   → SELECT [DISTINCT|ALL] select_list [FROM from_clause]
//	                [WHERE expr] [GROUP BY expr_list] [HAVING expr]
//	                [ORDER BY order_list] [LIMIT expr [OFFSET expr]]
//
// Statements the analyzer does not model are captured as *OtherStmt.
// See each file for detailed grammar rules for that section.
package parser

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/token"
)

// MaxDepth bounds expression and subquery nesting.
const MaxDepth = 128

// bailout is the panic value used to unwind on the first error.
type bailout struct{}

// Parser parses SQL into an AST.
type Parser struct {
	input   string
	lexer   *Lexer
	token   token.Token      // current token
	peek    token.Token      // lookahead token
	peek2   token.Token      // second lookahead token
	prevEnd int              // end offset of the last consumed token
	err     *ParseError      // first error
	depth   int              // current nesting depth
	dialect *dialect.Dialect // required
}

// NewParser creates a new parser for the given SQL input with dialect support.
func NewParser(sql string, d *dialect.Dialect) *Parser {
	p := &Parser{
		input:   sql,
		lexer:   NewLexer(sql, d),
		dialect: d,
	}
	// Read three tokens to initialize current, peek, and peek2
	p.nextToken()
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses every statement in sql. Empty statements are skipped.
// The first error aborts parsing and is returned as a *ParseError.
func Parse(sql string, d *dialect.Dialect) ([]Statement, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	p := NewParser(sql, d)
	return p.ParseScript()
}

// ParseStatement parses sql and returns its first statement.
func ParseStatement(sql string, d *dialect.Dialect) (Statement, error) {
	stmts, err := Parse(sql, d)
	if err != nil {
		return nil, err
	}
	if len(stmts) == 0 {
		return nil, &ParseError{Kind: KindSyntax, Message: "empty input"}
	}
	return stmts[0], nil
}

// ParseScript parses all statements until EOF.
func (p *Parser) ParseScript() (stmts []Statement, err error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			stmts, err = nil, p.err
		}
	}()

	for !p.check(token.EOF) {
		if p.match(token.SEMICOLON) {
			continue
		}
		stmts = append(stmts, p.parseStatement())
		if !p.check(token.SEMICOLON) && !p.check(token.EOF) {
			p.fail(fmt.Sprintf(ErrMissingStatements, describe(p.token)))
		}
	}
	if p.lexer.err != nil {
		return nil, p.lexer.err
	}
	return stmts, nil
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() *dialect.Dialect {
	return p.dialect
}

// ---------- Token Helpers ----------

// nextToken advances to the next token.
func (p *Parser) nextToken() {
	p.prevEnd = p.token.End.Offset
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

// expect consumes the current token if it matches, otherwise fails.
func (p *Parser) expect(t token.TokenType) token.Token {
	tok := p.token
	if !p.check(t) {
		p.fail(fmt.Sprintf(ErrUnexpectedToken, t, describe(p.token)))
	}
	p.nextToken()
	return tok
}

// fail records a syntax error at the current token and unwinds.
func (p *Parser) fail(msg string) {
	p.failAt(KindSyntax, p.token.Pos, msg)
}

func (p *Parser) failAt(kind ErrorKind, pos token.Position, msg string) {
	// A lexical failure under the cursor outranks the grammar error it caused.
	if p.err == nil && p.lexer.err != nil && (p.check(token.ILLEGAL) || p.check(token.EOF)) {
		p.err = p.lexer.err
	}
	if p.err == nil {
		p.err = &ParseError{Kind: kind, Message: msg, Pos: pos}
	}
	panic(bailout{})
}

// enter guards recursion; callers defer p.leave().
func (p *Parser) enter() {
	p.depth++
	if p.depth > MaxDepth {
		p.failAt(KindRecursionLimit, p.token.Pos,
			fmt.Sprintf("nesting deeper than %d", MaxDepth))
	}
}

func (p *Parser) leave() {
	p.depth--
}

// describe renders a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case token.NUMBER, token.PLACEHOLDER:
		return fmt.Sprintf("%s %s", tok.Type, tok.Literal)
	case token.STRING:
		return fmt.Sprintf("string '%s'", tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Type.String())
}

// ---------- Keyword Helpers ----------

// softKeywords may be used as identifiers.
var softKeywords = map[token.TokenType]bool{
	token.CONFLICT:  true,
	token.DO:        true,
	token.NOTHING:   true,
	token.TEMP:      true,
	token.TEMPORARY: true,
	token.IF:        true,
	token.FILTER:    true,
	token.PARTITION: true,
	token.RECURSIVE: true,
}

// isIdent reports whether tok can name a table, column or alias.
func isIdent(tok token.Token) bool {
	return tok.Type == token.IDENT || softKeywords[tok.Type]
}

// parseIdent consumes an identifier and returns its text.
func (p *Parser) parseIdent() string {
	name, _ := p.parseName()
	return name
}

// parseName consumes an identifier and reports whether it was quoted.
func (p *Parser) parseName() (string, bool) {
	if !isIdent(p.token) {
		p.fail(fmt.Sprintf(ErrUnexpectedToken, "identifier", describe(p.token)))
	}
	lit, quoted := p.token.Literal, p.token.Quoted
	p.nextToken()
	return lit, quoted
}

// parseNameList parses "ident (, ident)*" with per-name quotedness.
func (p *Parser) parseNameList() ([]string, []bool) {
	var names []string
	var quoted []bool
	for {
		name, q := p.parseName()
		names = append(names, name)
		quoted = append(quoted, q)
		if !p.match(token.COMMA) {
			return names, quoted
		}
	}
}

// parseParenIdentList parses "( ident (, ident)* )".
func (p *Parser) parseParenIdentList() []string {
	idents, _ := p.parseParenNameList()
	return idents
}

func (p *Parser) parseParenNameList() ([]string, []bool) {
	p.expect(token.LPAREN)
	names, quoted := p.parseNameList()
	p.expect(token.RPAREN)
	return names, quoted
}

// parseAlias parses "[AS] alias". Without AS only a plain identifier qualifies.
func (p *Parser) parseAlias() (string, bool) {
	if p.match(token.AS) {
		return p.parseName()
	}
	if p.check(token.IDENT) {
		return p.parseName()
	}
	return "", false
}

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() Statement {
	switch p.token.Type {
	case token.SELECT, token.WITH:
		return p.parseSelect()
	case token.LPAREN:
		if p.peekIsQuery() {
			return p.parseSelect()
		}
	case token.INSERT:
		return p.parseInsert()
	case token.UPDATE:
		return p.parseUpdate()
	case token.DELETE:
		return p.parseDelete()
	case token.CREATE:
		if p.checkPeek(token.TABLE) ||
			((p.checkPeek(token.TEMP) || p.checkPeek(token.TEMPORARY)) && p.peek2.Type == token.TABLE) {
			return p.parseCreateTable()
		}
		return p.parseOther()
	case token.IDENT:
		if strings.EqualFold(p.token.Literal, "replace") && p.checkPeek(token.INTO) {
			return p.parseInsert()
		}
		return p.parseOther()
	}
	if token.IsKeyword(p.token.Type) {
		return p.parseOther()
	}
	p.fail(fmt.Sprintf(ErrInvalidStatement, describe(p.token)))
	return nil
}

// peekIsQuery reports whether a "(" starts a parenthesized query.
func (p *Parser) peekIsQuery() bool {
	return p.checkPeek(token.SELECT) || p.checkPeek(token.WITH)
}

// parseOther skips an unmodeled statement up to ';' at paren depth 0.
func (p *Parser) parseOther() Statement {
	stmt := &OtherStmt{Start: p.token.Pos, Keyword: p.token.Type.String()}
	if p.check(token.IDENT) {
		stmt.Keyword = p.token.Literal
	}
	start := p.token.Pos.Offset
	depth := 0
	for !p.check(token.EOF) {
		if depth == 0 && p.check(token.SEMICOLON) {
			break
		}
		switch p.token.Type {
		case token.ILLEGAL:
			p.fail("unexpected input")
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth > 0 {
				depth--
			}
		}
		p.nextToken()
	}
	stmt.Text = p.input[start:p.prevEnd]
	return stmt
}
