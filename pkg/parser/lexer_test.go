package parser_test

import (
	"testing"

	"github.com/leapstack-labs/butter/pkg/dialects/generic"
	"github.com/leapstack-labs/butter/pkg/dialects/mysql"
	"github.com/leapstack-labs/butter/pkg/dialects/postgres"
	"github.com/leapstack-labs/butter/pkg/dialects/sqlite"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(toks []token.Token) []token.TokenType {
	types := make([]token.TokenType, len(toks))
	for i, t := range toks {
		types[i] = t.Type
	}
	return types
}

func TestLexerBasicStatement(t *testing.T) {
	toks, err := parser.Tokenize("SELECT a, b FROM t WHERE id >= ?", generic.Generic)
	require.NoError(t, err)
	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.COMMA, token.IDENT, token.FROM, token.IDENT,
		token.WHERE, token.IDENT, token.GE, token.PLACEHOLDER, token.EOF,
	}, tokenTypes(toks))
}

func TestLexerPlaceholders(t *testing.T) {
	toks, err := parser.Tokenize("? ?2 $1 :name @id $tag", generic.Generic)
	require.NoError(t, err)

	var lits []string
	for _, tok := range toks {
		if tok.Type == token.PLACEHOLDER {
			lits = append(lits, tok.Literal)
		}
	}
	assert.Equal(t, []string{"?", "?2", "$1", ":name", "@id", "$tag"}, lits)
}

func TestLexerOperators(t *testing.T) {
	toks, err := parser.Tokenize("a <> b != c || d :: e <= f == g", postgres.Postgres)
	require.NoError(t, err)
	assert.Equal(t, []token.TokenType{
		token.IDENT, token.NE, token.IDENT, token.NE, token.IDENT, token.DPIPE,
		token.IDENT, token.DCOLON, token.IDENT, token.LE, token.IDENT, token.EQ,
		token.IDENT, token.EOF,
	}, tokenTypes(toks))
}

func TestLexerQuotedIdentifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double quotes", `"first name"`, "first name"},
		{"escaped double quote", `"a""b"`, `a"b`},
		{"backtick", "`order`", "order"},
		{"brackets", "[my col]", "my col"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := parser.Tokenize(tt.input, sqlite.SQLite)
			require.NoError(t, err)
			require.Len(t, toks, 2)
			assert.Equal(t, token.IDENT, toks[0].Type)
			assert.True(t, toks[0].Quoted)
			assert.Equal(t, tt.want, toks[0].Literal)
		})
	}
}

func TestLexerMySQLDoubleQuoteIsString(t *testing.T) {
	toks, err := parser.Tokenize(`"hello"`, mysql.MySQL)
	require.NoError(t, err)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, "hello", toks[0].Literal)
}

func TestLexerComments(t *testing.T) {
	sql := "SELECT -- trailing\n a /* block\n comment */ FROM t"
	toks, err := parser.Tokenize(sql, generic.Generic)
	require.NoError(t, err)
	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF,
	}, tokenTypes(toks))

	toks, err = parser.Tokenize("SELECT a # note\nFROM t", mysql.MySQL)
	require.NoError(t, err)
	assert.Equal(t, []token.TokenType{
		token.SELECT, token.IDENT, token.FROM, token.IDENT, token.EOF,
	}, tokenTypes(toks))
}

func TestLexerPositions(t *testing.T) {
	toks, err := parser.Tokenize("SELECT\n  a", generic.Generic)
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, token.Position{Line: 1, Column: 1, Offset: 0}, toks[0].Pos)
	assert.Equal(t, token.Position{Line: 2, Column: 3, Offset: 9}, toks[1].Pos)
	assert.Equal(t, 10, toks[1].End.Offset)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		line    int
	}{
		{"unexpected character", "SELECT # x", "unexpected character '#'", 1},
		{"unterminated string", "SELECT\n'abc", "unterminated string literal", 2},
		{"unterminated quoted identifier", `SELECT "abc`, "unterminated quoted identifier", 1},
		{"unterminated comment", "SELECT 1 /* open", "unterminated block comment", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Tokenize(tt.input, generic.Generic)
			require.Error(t, err)

			pe, ok := parser.AsParseError(err)
			require.True(t, ok)
			assert.Equal(t, parser.KindTokenize, pe.Kind)
			assert.Contains(t, pe.Message, tt.message)

			line, ok := pe.Line()
			assert.True(t, ok)
			assert.Equal(t, tt.line, line)
		})
	}
}
