package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/token"
)

// Lexer tokenizes SQL input for a dialect.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int  // current line number (1-based)
	col     int  // current column number (1-based)

	dialect *dialect.Dialect

	// err holds the first tokenize failure; the offending token is ILLEGAL.
	err *ParseError
}

// NewLexer creates a dialect-aware Lexer for the given input.
func NewLexer(input string, d *dialect.Dialect) *Lexer {
	l := &Lexer{
		input:   input,
		line:    1,
		dialect: d,
	}
	l.readChar()
	return l
}

// Err returns the first tokenize error, if any.
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0 // ASCII NUL = EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) currentPos() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken returns the next token.
func (l *Lexer) NextToken() token.Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	tok := l.scan(pos)
	tok.Pos = pos
	tok.End = l.currentPos()
	return tok
}

func (l *Lexer) scan(pos token.Position) token.Token {
	if l.atEOF() {
		return token.Token{Type: token.EOF}
	}

	if closing, ok := l.dialect.IsQuoteOpen(l.ch); ok {
		return l.readQuotedIdentifier(pos, closing)
	}

	switch l.ch {
	case '+':
		return l.single(token.PLUS)
	case '-':
		return l.single(token.MINUS)
	case '*':
		return l.single(token.STAR)
	case '/':
		return l.single(token.SLASH)
	case '%':
		return l.single(token.PERCENT)
	case '=':
		if l.peekChar() == '=' {
			return l.double(token.EQ)
		}
		return l.single(token.EQ)
	case '<':
		switch l.peekChar() {
		case '=':
			return l.double(token.LE)
		case '>':
			return l.double(token.NE)
		}
		return l.single(token.LT)
	case '>':
		if l.peekChar() == '=' {
			return l.double(token.GE)
		}
		return l.single(token.GT)
	case '!':
		if l.peekChar() == '=' {
			return l.double(token.NE)
		}
	case '|':
		if l.peekChar() == '|' {
			return l.double(token.DPIPE)
		}
	case '.':
		return l.single(token.DOT)
	case ',':
		return l.single(token.COMMA)
	case ';':
		return l.single(token.SEMICOLON)
	case '(':
		return l.single(token.LPAREN)
	case ')':
		return l.single(token.RPAREN)
	case '[':
		return l.single(token.LBRACKET)
	case ']':
		return l.single(token.RBRACKET)
	case ':':
		if l.peekChar() == ':' {
			return l.double(token.DCOLON)
		}
		if isIdentStart(l.peekChar()) {
			return l.readPlaceholder()
		}
	case '?':
		return l.readPlaceholder()
	case '$', '@':
		next := l.peekChar()
		if isDigit(next) || isIdentStart(next) {
			return l.readPlaceholder()
		}
	case '\'':
		return l.readString(pos, '\'')
	case '"':
		// Dialects that do not quote identifiers with " treat it as a string.
		return l.readString(pos, '"')
	}

	switch {
	case isIdentStart(l.ch):
		lit := l.readIdentifier()
		return token.Token{Type: token.LookupIdent(strings.ToLower(lit)), Literal: lit}
	case isDigit(l.ch):
		return token.Token{Type: token.NUMBER, Literal: l.readNumber()}
	}

	ch := l.ch
	l.readChar()
	l.fail(pos, fmt.Sprintf("unexpected character %q", ch))
	return token.Token{Type: token.ILLEGAL, Literal: string(ch)}
}

func (l *Lexer) fail(pos token.Position, msg string) {
	if l.err == nil {
		l.err = &ParseError{Kind: KindTokenize, Message: msg, Pos: pos}
	}
}

func (l *Lexer) single(t token.TokenType) token.Token {
	lit := string(l.ch)
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

func (l *Lexer) double(t token.TokenType) token.Token {
	lit := l.input[l.pos : l.pos+2]
	l.readChar()
	l.readChar()
	return token.Token{Type: t, Literal: lit}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		switch {
		case l.ch == '-' && l.peekChar() == '-':
			l.skipLineComment()
		case l.ch == '#' && l.dialect.HashComments:
			l.skipLineComment()
		case l.ch == '/' && l.peekChar() == '*':
			l.skipBlockComment()
		default:
			return
		}
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && !l.atEOF() {
		l.readChar()
	}
}

func (l *Lexer) skipBlockComment() {
	pos := l.currentPos()
	l.readChar() // skip '/'
	l.readChar() // skip '*'
	for !l.atEOF() {
		if l.ch == '*' && l.peekChar() == '/' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
	l.fail(pos, "unterminated block comment")
}

// readString reads a quoted string literal. A doubled quote is an escape.
func (l *Lexer) readString(pos token.Position, quote byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.atEOF() {
			l.fail(pos, "unterminated string literal")
			return token.Token{Type: token.ILLEGAL, Literal: result.String()}
		}
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return token.Token{Type: token.STRING, Literal: result.String()}
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
}

// readQuotedIdentifier reads a quoted identifier. A doubled closing quote is an escape.
func (l *Lexer) readQuotedIdentifier(pos token.Position, closing byte) token.Token {
	l.readChar() // skip opening quote

	var result strings.Builder
	for {
		if l.atEOF() {
			l.fail(pos, "unterminated quoted identifier")
			return token.Token{Type: token.ILLEGAL, Literal: result.String()}
		}
		if l.ch == closing {
			if l.peekChar() == closing {
				result.WriteByte(closing)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar()
			return token.Token{Type: token.IDENT, Literal: result.String(), Quoted: true}
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
}

// readPlaceholder reads ?, ?NNN, $NNN, :name, @name and $name.
func (l *Lexer) readPlaceholder() token.Token {
	start := l.pos
	l.readChar() // sigil
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return token.Token{Type: token.PLACEHOLDER, Literal: l.input[start:l.pos]}
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber reads a numeric literal (integer, decimal, or scientific).
func (l *Lexer) readNumber() string {
	start := l.pos

	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '+' || next == '-' {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	return l.input[start:l.pos]
}

func isIdentStart(ch byte) bool {
	return ch == '_' || unicode.IsLetter(rune(ch)) || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all tokens from the input, ending with EOF.
func Tokenize(input string, d *dialect.Dialect) ([]token.Token, error) {
	if d == nil {
		return nil, dialect.ErrDialectRequired
	}
	l := NewLexer(input, d)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF || tok.Type == token.ILLEGAL {
			break
		}
	}
	return tokens, l.Err()
}
