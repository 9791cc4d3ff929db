package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenType
	}{
		{"select", SELECT},
		{"returning", RETURNING},
		{"users", IDENT},
		{"SELECT", IDENT}, // lookup expects lowercase input
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupIdent(tt.ident))
		})
	}
}

func TestTokenTypeString(t *testing.T) {
	assert.Equal(t, "SELECT", SELECT.String())
	assert.Equal(t, "ON", ON.String())
	assert.Equal(t, "::", DCOLON.String())
	assert.Equal(t, "PLACEHOLDER", PLACEHOLDER.String())
	assert.Equal(t, "TOKEN(100000)", TokenType(100000).String())
}

func TestClassification(t *testing.T) {
	assert.True(t, IsKeyword(SELECT))
	assert.True(t, IsKeyword(WITH))
	assert.False(t, IsKeyword(IDENT))
	assert.False(t, IsKeyword(keywordEnd))

	assert.True(t, IsOperator(EQ))
	assert.False(t, IsOperator(SELECT))

	assert.True(t, IsComparison(LE))
	assert.True(t, IsComparison(ILIKE))
	assert.False(t, IsComparison(PLUS))
}

func TestPosition(t *testing.T) {
	assert.False(t, Position{}.IsValid())
	assert.Equal(t, "-", Position{}.String())
	assert.Equal(t, "3:7", Position{Line: 3, Column: 7}.String())

	span := Span{Start: Position{Offset: 2}, End: Position{Offset: 5}}
	assert.True(t, span.Contains(2))
	assert.False(t, span.Contains(5))
}
