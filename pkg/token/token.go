// Package token defines the lexical tokens produced by the SQL lexer.
//
// Keywords are a closed set of constants so the parser can switch on them.
// Dialect-specific spellings (quote characters, comment styles, the "::"
// cast) are handled by the lexer, not by additional token types.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType reads better at call sites than token.Type
type TokenType int32

//nolint:revive // SQL keyword tokens are spelled in capitals
const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT       // identifier, possibly quoted
	NUMBER      // 123, 45.67, 1e10
	STRING      // 'hello'
	PLACEHOLDER // ?, ?1, $1, :name, @name, $name

	// Operators
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	PERCENT   // %
	DPIPE     // ||
	EQ        // =
	NE        // != or <>
	LT        // <
	GT        // >
	LE        // <=
	GE        // >=
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	DCOLON    // ::

	// Keywords (alphabetical)
	ALL
	AND
	AS
	ASC
	BETWEEN
	BY
	CASE
	CAST
	CONFLICT
	CREATE
	CROSS
	DELETE
	DESC
	DISTINCT
	DO
	ELSE
	END
	EXCEPT
	EXISTS
	FALSE
	FILTER
	FROM
	FULL
	GROUP
	HAVING
	IF
	ILIKE
	IN
	INNER
	INSERT
	INTERSECT
	INTO
	IS
	JOIN
	LATERAL
	LEFT
	LIKE
	LIMIT
	NATURAL
	NOT
	NOTHING
	NULL
	OFFSET
	ON
	OR
	ORDER
	OUTER
	OVER
	PARTITION
	RECURSIVE
	RETURNING
	RIGHT
	SELECT
	SET
	TABLE
	TEMP
	TEMPORARY
	THEN
	TRUE
	UNION
	UPDATE
	USING
	VALUES
	WHEN
	WHERE
	WITH

	keywordEnd
)

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

var tokenNames = map[TokenType]string{
	EOF:         "EOF",
	ILLEGAL:     "ILLEGAL",
	IDENT:       "IDENT",
	NUMBER:      "NUMBER",
	STRING:      "STRING",
	PLACEHOLDER: "PLACEHOLDER",

	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	PERCENT:   "%",
	DPIPE:     "||",
	EQ:        "=",
	NE:        "!=",
	LT:        "<",
	GT:        ">",
	LE:        "<=",
	GE:        ">=",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	DCOLON:    "::",
}

// keywords maps lowercase keyword strings to their token types.
var keywords = map[string]TokenType{
	"all":       ALL,
	"and":       AND,
	"as":        AS,
	"asc":       ASC,
	"between":   BETWEEN,
	"by":        BY,
	"case":      CASE,
	"cast":      CAST,
	"conflict":  CONFLICT,
	"create":    CREATE,
	"cross":     CROSS,
	"delete":    DELETE,
	"desc":      DESC,
	"distinct":  DISTINCT,
	"do":        DO,
	"else":      ELSE,
	"end":       END,
	"except":    EXCEPT,
	"exists":    EXISTS,
	"false":     FALSE,
	"filter":    FILTER,
	"from":      FROM,
	"full":      FULL,
	"group":     GROUP,
	"having":    HAVING,
	"if":        IF,
	"ilike":     ILIKE,
	"in":        IN,
	"inner":     INNER,
	"insert":    INSERT,
	"intersect": INTERSECT,
	"into":      INTO,
	"is":        IS,
	"join":      JOIN,
	"lateral":   LATERAL,
	"left":      LEFT,
	"like":      LIKE,
	"limit":     LIMIT,
	"natural":   NATURAL,
	"not":       NOT,
	"nothing":   NOTHING,
	"null":      NULL,
	"offset":    OFFSET,
	"on":        ON,
	"or":        OR,
	"order":     ORDER,
	"outer":     OUTER,
	"over":      OVER,
	"partition": PARTITION,
	"recursive": RECURSIVE,
	"returning": RETURNING,
	"right":     RIGHT,
	"select":    SELECT,
	"set":       SET,
	"table":     TABLE,
	"temp":      TEMP,
	"temporary": TEMPORARY,
	"then":      THEN,
	"true":      TRUE,
	"union":     UNION,
	"update":    UPDATE,
	"using":     USING,
	"values":    VALUES,
	"when":      WHEN,
	"where":     WHERE,
	"with":      WITH,
}

func init() {
	for word, t := range keywords {
		tokenNames[t] = strings.ToUpper(word)
	}
}

// LookupIdent returns the keyword token for a lowercase identifier,
// or IDENT if the word is not a keyword.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword returns true if the token type is a keyword.
func IsKeyword(t TokenType) bool {
	return t >= ALL && t < keywordEnd
}

// IsOperator returns true if the token type is an operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= DCOLON
}

// IsComparison reports whether t compares two operands.
func IsComparison(t TokenType) bool {
	switch t {
	case EQ, NE, LT, GT, LE, GE, LIKE, ILIKE:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	End     Position // position just past the token

	// Quoted is set for identifiers written with quote characters.
	Quoted bool
}
