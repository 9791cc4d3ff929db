package resolver

import (
	"fmt"

	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
)

// params collects input fields in order of first occurrence.
type params struct {
	fields     []InputField
	index      map[string]int // label -> field
	positional int
}

func newParams() *params {
	return &params{index: make(map[string]int)}
}

// add records a placeholder. The n-th bare "?" is labelled "$n"; other
// spellings are labelled by their text. Fields are shared by label, so a
// "?" and a "$n" naming the same position are one field. A later
// occurrence may supply the type an earlier one lacked.
func (p *params) add(ph *parser.Placeholder, typ string) {
	name := ph.Text
	if ph.Kind == parser.PlaceholderPositional {
		p.positional++
		name = fmt.Sprintf("$%d", p.positional)
	}
	if i, ok := p.index[name]; ok {
		if p.fields[i].Type == "" {
			p.fields[i].Type = typ
		}
		return
	}
	p.index[name] = len(p.fields)
	p.fields = append(p.fields, InputField{
		Name:    name,
		Type:    typ,
		Ordinal: len(p.fields) + 1,
		Pos:     ph.Start,
	})
}

// expr walks e in source order, recording placeholders. hint is the type
// the surrounding context gives e itself.
func (a *analyzer) expr(e parser.Expr, s *Scope, hint string) {
	switch e := e.(type) {
	case nil:
	case *parser.Placeholder:
		a.params.add(e, hint)
	case *parser.BinaryExpr:
		a.binary(e, s, hint)
	case *parser.UnaryExpr:
		if e.Op == token.NOT {
			hint = ""
		}
		a.expr(e.Expr, s, hint)
	case *parser.ParenExpr:
		a.expr(e.Expr, s, hint)
	case *parser.LikeExpr:
		a.compare(e.Expr, e.Pattern, s)
	case *parser.InExpr:
		a.in(e, s)
	case *parser.BetweenExpr:
		bound := a.typeOf(e.Low, s)
		if bound == "" {
			bound = a.typeOf(e.High, s)
		}
		typ := a.typeOf(e.Expr, s)
		a.expr(e.Expr, s, bound)
		a.expr(e.Low, s, typ)
		a.expr(e.High, s, typ)
	case *parser.IsNullExpr:
		a.expr(e.Expr, s, "")
	case *parser.IsBoolExpr:
		a.expr(e.Expr, s, "")
	case *parser.CastExpr:
		a.expr(e.Expr, s, e.TypeName)
	case *parser.FuncCall:
		a.funcCall(e, s)
	case *parser.CaseExpr:
		a.caseExpr(e, s, hint)
	case *parser.RowExpr:
		for _, x := range e.Exprs {
			a.expr(x, s, "")
		}
	case *parser.SubqueryExpr:
		a.selectStmt(e.Select, s, nil)
	case *parser.ExistsExpr:
		a.selectStmt(e.Select, s, nil)
	case *parser.ColumnRef, *parser.Literal:
	}
}

func (a *analyzer) binary(e *parser.BinaryExpr, s *Scope, hint string) {
	switch e.Op {
	case token.AND, token.OR, token.LBRACKET:
		a.expr(e.Left, s, "")
		a.expr(e.Right, s, "")
	case token.EQ, token.NE, token.LT, token.GT, token.LE, token.GE:
		a.compare(e.Left, e.Right, s)
	default:
		// Arithmetic and concatenation: each side takes the other's type,
		// or the enclosing hint when the other side is untyped.
		lt, rt := a.typeOf(e.Left, s), a.typeOf(e.Right, s)
		a.expr(e.Left, s, or(rt, hint))
		a.expr(e.Right, s, or(lt, hint))
	}
}

// compare types each side of a comparison from the other.
func (a *analyzer) compare(left, right parser.Expr, s *Scope) {
	a.against(left, right, s)
	a.against(right, left, s)
}

// against walks x using partner's type as the hint. Row values of equal
// arity are paired element by element.
func (a *analyzer) against(x, partner parser.Expr, s *Scope) {
	xr, ok := unparen(x).(*parser.RowExpr)
	pr, ok2 := unparen(partner).(*parser.RowExpr)
	if ok && ok2 && len(xr.Exprs) == len(pr.Exprs) {
		for i := range xr.Exprs {
			a.against(xr.Exprs[i], pr.Exprs[i], s)
		}
		return
	}
	a.expr(x, s, a.typeOf(partner, s))
}

func (a *analyzer) in(e *parser.InExpr, s *Scope) {
	var partner parser.Expr
	for _, v := range e.Values {
		if a.typeOf(v, s) != "" {
			partner = v
			break
		}
	}
	if partner != nil {
		a.against(e.Expr, partner, s)
	} else {
		a.expr(e.Expr, s, "")
	}
	for _, v := range e.Values {
		a.against(v, e.Expr, s)
	}
	a.selectStmt(e.Query, s, nil)
}

func (a *analyzer) funcCall(f *parser.FuncCall, s *Scope) {
	for _, arg := range f.Args {
		a.expr(arg, s, "")
	}
	a.expr(f.Filter, s, "")
	if w := f.Window; w != nil {
		for _, p := range w.PartitionBy {
			a.expr(p, s, "")
		}
		a.orderBy(w.OrderBy, s)
	}
}

// caseExpr types WHEN values from the operand and results from hint.
func (a *analyzer) caseExpr(c *parser.CaseExpr, s *Scope, hint string) {
	operand := ""
	if c.Operand != nil {
		operand = a.typeOf(c.Operand, s)
		whenType := ""
		for _, w := range c.Whens {
			if whenType = a.typeOf(w.Condition, s); whenType != "" {
				break
			}
		}
		a.expr(c.Operand, s, whenType)
	}
	for _, w := range c.Whens {
		a.expr(w.Condition, s, operand)
		a.expr(w.Result, s, hint)
	}
	a.expr(c.Else, s, hint)
}

// typeOf returns the static type of e when it is a column, a cast, or a
// wrapper around one. It has no side effects.
func (a *analyzer) typeOf(e parser.Expr, s *Scope) string {
	switch e := e.(type) {
	case *parser.ColumnRef:
		src, typ, _ := a.lookupColumn(e, s)
		if _, bad := src.(Unresolved); bad && len(e.Parts) == 1 {
			return a.uniqueColumnType(column{name: e.Column(), quoted: e.ColumnQuoted()}, s)
		}
		return typ
	case *parser.ParenExpr:
		return a.typeOf(e.Expr, s)
	case *parser.CastExpr:
		return e.TypeName
	case *parser.UnaryExpr:
		if e.Op != token.NOT {
			return a.typeOf(e.Expr, s)
		}
	}
	return ""
}

// uniqueColumnType types a bare column that several tables could own when
// exactly one of them declares it.
func (a *analyzer) uniqueColumnType(col column, s *Scope) string {
	typ, found := "", 0
	for _, b := range s.tables() {
		t, ok := a.model.Lookup(b.Ref)
		if !ok {
			continue
		}
		if c, ok := t.LookupColumn(a.dialect, col.name, col.quoted); ok {
			typ = c.Type
			found++
		}
	}
	if found != 1 {
		return ""
	}
	return typ
}

func unparen(e parser.Expr) parser.Expr {
	for {
		p, ok := e.(*parser.ParenExpr)
		if !ok {
			return e
		}
		e = p.Expr
	}
}

func or(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
