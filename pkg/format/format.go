package format

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/parser"
)

// Format formats a parsed SQL statement with one clause per line.
func Format(stmt parser.Statement, d *dialect.Dialect) string {
	p := newPrinter(d, false)
	p.formatStatement(stmt)
	return p.String()
}

// Script formats statements separated by ";" and a blank line.
func Script(stmts []parser.Statement, d *dialect.Dialect) string {
	parts := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		parts = append(parts, strings.TrimRight(Format(stmt, d), "\n")+";\n")
	}
	return strings.Join(parts, "\n")
}

// Inline renders a statement on a single line.
func Inline(stmt parser.Statement, d *dialect.Dialect) string {
	p := newPrinter(d, true)
	p.formatStatement(stmt)
	return p.String()
}

// Expr renders an expression on a single line, e.g. "count(*)" or "a + b".
func Expr(e parser.Expr, d *dialect.Dialect) string {
	p := newPrinter(d, true)
	p.formatExpr(e)
	return p.String()
}
