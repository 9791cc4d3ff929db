package format

import (
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
)

const complexityThreshold = 5

func (p *Printer) formatExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch expr := e.(type) {
	case *parser.Literal:
		p.formatLiteral(expr)
	case *parser.ColumnRef:
		p.columnRef(expr)
	case *parser.Placeholder:
		p.write(expr.Text)
	case *parser.BinaryExpr:
		p.formatBinaryExpr(expr)
	case *parser.UnaryExpr:
		p.formatUnaryExpr(expr)
	case *parser.FuncCall:
		p.formatFuncCall(expr)
	case *parser.CaseExpr:
		p.formatCaseExpr(expr)
	case *parser.CastExpr:
		p.formatCastExpr(expr)
	case *parser.InExpr:
		p.formatInExpr(expr)
	case *parser.BetweenExpr:
		p.formatBetweenExpr(expr)
	case *parser.IsNullExpr:
		p.formatIsNullExpr(expr)
	case *parser.IsBoolExpr:
		p.formatIsBoolExpr(expr)
	case *parser.LikeExpr:
		p.formatLikeExpr(expr)
	case *parser.ParenExpr:
		p.write("(")
		p.formatExpr(expr.Expr)
		p.write(")")
	case *parser.RowExpr:
		p.write("(")
		p.formatList(len(expr.Exprs), func(i int) { p.formatExpr(expr.Exprs[i]) }, ",", false)
		p.write(")")
	case *parser.SubqueryExpr:
		p.formatSubquery(expr.Select)
	case *parser.ExistsExpr:
		if expr.Not {
			p.kw(token.NOT)
			p.space()
		}
		p.kw(token.EXISTS)
		p.space()
		p.formatSubquery(expr.Select)
	}
}

func (p *Printer) exprComplexity(e parser.Expr) int {
	if e == nil {
		return 0
	}

	switch expr := e.(type) {
	case *parser.BinaryExpr:
		return 1 + p.exprComplexity(expr.Left) + p.exprComplexity(expr.Right)
	case *parser.UnaryExpr:
		return 1 + p.exprComplexity(expr.Expr)
	case *parser.FuncCall:
		score := 2
		for _, arg := range expr.Args {
			score += p.exprComplexity(arg)
		}
		return score
	case *parser.ParenExpr:
		return p.exprComplexity(expr.Expr)
	case *parser.CaseExpr:
		score := 2
		for _, w := range expr.Whens {
			score += p.exprComplexity(w.Condition) + p.exprComplexity(w.Result)
		}
		return score
	default:
		return 1
	}
}

func isLogicalOp(op token.TokenType) bool {
	return op == token.AND || op == token.OR
}

func (p *Printer) formatLiteral(lit *parser.Literal) {
	switch lit.Type {
	case parser.LiteralString:
		p.write("'")
		p.write(escapeString(lit.Value))
		p.write("'")
	case parser.LiteralBool:
		if lit.Value == "true" {
			p.kw(token.TRUE)
		} else {
			p.kw(token.FALSE)
		}
	case parser.LiteralNull:
		p.kw(token.NULL)
	default:
		p.write(lit.Value)
	}
}

func escapeString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(out)
}

func (p *Printer) formatBinaryExpr(expr *parser.BinaryExpr) {
	if expr.Op == token.LBRACKET {
		p.formatExpr(expr.Left)
		p.write("[")
		p.formatExpr(expr.Right)
		p.write("]")
		return
	}

	shouldBreak := !p.inline && p.exprComplexity(expr) > complexityThreshold && isLogicalOp(expr.Op)

	p.formatExpr(expr.Left)
	if shouldBreak {
		p.writeln()
	} else {
		p.space()
	}
	p.kw(expr.Op)
	p.space()
	p.formatExpr(expr.Right)
}

func (p *Printer) formatUnaryExpr(expr *parser.UnaryExpr) {
	p.kw(expr.Op)
	if expr.Op == token.NOT {
		p.space()
	}
	p.formatExpr(expr.Expr)
}

func (p *Printer) formatFuncCall(fn *parser.FuncCall) {
	p.write(fn.Name)
	p.write("(")

	if fn.Distinct {
		p.kw(token.DISTINCT)
		p.space()
	}

	if fn.Star {
		p.write("*")
	} else {
		p.formatList(len(fn.Args), func(i int) { p.formatExpr(fn.Args[i]) }, ",", false)
	}

	p.write(")")

	if fn.Filter != nil {
		p.space()
		p.kw(token.FILTER)
		p.write(" (")
		p.kw(token.WHERE)
		p.space()
		p.formatExpr(fn.Filter)
		p.write(")")
	}

	if fn.Window != nil {
		p.space()
		p.formatWindowSpec(fn.Window)
	}
}

func (p *Printer) formatWindowSpec(w *parser.WindowSpec) {
	p.kw(token.OVER)
	p.space()
	if w.Name != "" && len(w.PartitionBy) == 0 && len(w.OrderBy) == 0 && w.Frame == "" {
		p.ident(w.Name)
		return
	}

	p.write("(")
	parts := 0
	sep := func() {
		if parts > 0 {
			p.space()
		}
		parts++
	}
	if w.Name != "" {
		sep()
		p.ident(w.Name)
	}
	if len(w.PartitionBy) > 0 {
		sep()
		p.kw(token.PARTITION, token.BY)
		p.space()
		p.formatList(len(w.PartitionBy), func(i int) { p.formatExpr(w.PartitionBy[i]) }, ",", false)
	}
	if len(w.OrderBy) > 0 {
		sep()
		p.kw(token.ORDER, token.BY)
		p.space()
		p.formatList(len(w.OrderBy), func(i int) { p.formatOrderByItem(w.OrderBy[i]) }, ",", false)
	}
	if w.Frame != "" {
		sep()
		p.write(w.Frame)
	}
	p.write(")")
}

func (p *Printer) formatCaseExpr(c *parser.CaseExpr) {
	p.kw(token.CASE)

	if c.Operand != nil {
		p.space()
		p.formatExpr(c.Operand)
	}

	p.writeln()
	p.indent()

	for _, w := range c.Whens {
		p.kw(token.WHEN)
		p.space()
		p.formatExpr(w.Condition)
		p.space()
		p.kw(token.THEN)
		p.space()
		p.formatExpr(w.Result)
		p.writeln()
	}

	if c.Else != nil {
		p.kw(token.ELSE)
		p.space()
		p.formatExpr(c.Else)
		p.writeln()
	}

	p.dedent()
	p.kw(token.END)
}

func (p *Printer) formatCastExpr(c *parser.CastExpr) {
	if c.Operator {
		p.formatExpr(c.Expr)
		p.write("::")
		p.write(c.TypeName)
		return
	}
	if c.Typed {
		p.write(c.TypeName)
		p.space()
		p.formatExpr(c.Expr)
		return
	}
	p.kw(token.CAST)
	p.write("(")
	p.formatExpr(c.Expr)
	p.space()
	p.kw(token.AS)
	p.space()
	p.write(c.TypeName)
	p.write(")")
}

func (p *Printer) formatInExpr(in *parser.InExpr) {
	p.formatExpr(in.Expr)
	if in.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.IN)
	p.space()

	if in.Query != nil {
		p.formatSubquery(in.Query)
		return
	}
	p.write("(")
	p.formatList(len(in.Values), func(i int) { p.formatExpr(in.Values[i]) }, ",", false)
	p.write(")")
}

func (p *Printer) formatBetweenExpr(b *parser.BetweenExpr) {
	p.formatExpr(b.Expr)
	if b.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.BETWEEN)
	p.space()
	p.formatExpr(b.Low)
	p.space()
	p.kw(token.AND)
	p.space()
	p.formatExpr(b.High)
}

func (p *Printer) formatIsNullExpr(is *parser.IsNullExpr) {
	p.formatExpr(is.Expr)
	p.space()
	p.kw(token.IS)
	if is.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(token.NULL)
}

func (p *Printer) formatIsBoolExpr(is *parser.IsBoolExpr) {
	p.formatExpr(is.Expr)
	p.space()
	p.kw(token.IS)
	if is.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	if is.Value {
		p.kw(token.TRUE)
	} else {
		p.kw(token.FALSE)
	}
}

func (p *Printer) formatLikeExpr(like *parser.LikeExpr) {
	p.formatExpr(like.Expr)
	if like.Not {
		p.space()
		p.kw(token.NOT)
	}
	p.space()
	p.kw(like.Op)
	p.space()
	p.formatExpr(like.Pattern)
}

func (p *Printer) formatSubquery(stmt *parser.SelectStmt) {
	p.write("(")
	p.writeln()
	p.indent()
	p.formatSelectStmt(stmt)
	p.dedent()
	p.write(")")
}
