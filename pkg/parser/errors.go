package parser

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/butter/pkg/token"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// KindSyntax is a grammar violation.
	KindSyntax ErrorKind = iota
	// KindTokenize is a lexical failure (bad character, unterminated literal).
	KindTokenize
	// KindRecursionLimit means the input nested deeper than MaxDepth.
	KindRecursionLimit
)

// String returns the kind as it appears in error messages.
func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax error"
	case KindTokenize:
		return "tokenize error"
	case KindRecursionLimit:
		return "recursion limit exceeded"
	default:
		return "parse error"
	}
}

// ParseError represents a parsing error with position information.
type ParseError struct {
	Kind    ErrorKind
	Message string
	Pos     token.Position
}

// Error renders "<kind>: <message> at Line: <n>, Column: <m>".
func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Pos.IsValid() {
		msg += fmt.Sprintf(" at Line: %d, Column: %d", e.Pos.Line, e.Pos.Column)
	}
	return msg
}

// Line returns the 1-based line of the failure, if known.
func (e *ParseError) Line() (int, bool) {
	return e.Pos.Line, e.Pos.IsValid()
}

// AsParseError unwraps err to a *ParseError.
func AsParseError(err error) (*ParseError, bool) {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// Common error messages
const (
	ErrUnexpectedToken   = "expected %s, found %s"
	ErrUnexpectedInExpr  = "unexpected %s in expression"
	ErrUnsupportedCast   = "cast operator :: is not supported in %s dialect"
	ErrEmptySelectList   = "expected select list"
	ErrInvalidStatement  = "expected a statement, found %s"
	ErrMissingStatements = "expected ';' between statements, found %s"
)
