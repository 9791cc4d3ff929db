package format

import (
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/token"
)

func (p *Printer) formatStatement(stmt parser.Statement) {
	switch s := stmt.(type) {
	case *parser.SelectStmt:
		p.formatSelectStmt(s)
	case *parser.InsertStmt:
		p.formatInsert(s)
	case *parser.UpdateStmt:
		p.formatUpdate(s)
	case *parser.DeleteStmt:
		p.formatDelete(s)
	case *parser.CreateTableStmt:
		p.formatCreateTable(s)
	case *parser.OtherStmt:
		p.write(s.Text)
	}
}

func (p *Printer) formatSelectStmt(stmt *parser.SelectStmt) {
	if stmt == nil {
		return
	}
	if stmt.With != nil {
		p.formatWithClause(stmt.With)
	}
	p.formatSelectBody(stmt.Body)
}

func (p *Printer) formatWithClause(with *parser.WithClause) {
	p.kw(token.WITH)
	if with.Recursive {
		p.space()
		p.kw(token.RECURSIVE)
	}
	p.writeln()

	p.indent()
	p.formatList(len(with.CTEs), func(i int) {
		cte := with.CTEs[i]
		p.ident(cte.Name)
		if len(cte.Columns) > 0 {
			p.write("(")
			p.formatList(len(cte.Columns), func(j int) { p.ident(cte.Columns[j]) }, ",", false)
			p.write(")")
		}
		p.space()
		p.kw(token.AS)
		p.space()
		p.formatSubquery(cte.Select)
	}, ",", true)
	p.writeln()
	p.dedent()
}

func (p *Printer) formatSelectBody(body *parser.SelectBody) {
	if body == nil {
		return
	}

	p.formatSelectCore(body.Left)

	if body.Op == parser.SetOpNone {
		return
	}
	p.keyword(string(body.Op))
	if body.All {
		p.space()
		p.kw(token.ALL)
	}
	p.writeln()
	p.formatSelectBody(body.Right)
}

func (p *Printer) formatSelectCore(sc *parser.SelectCore) {
	if sc == nil {
		return
	}

	p.kw(token.SELECT)
	if sc.Distinct {
		p.space()
		p.kw(token.DISTINCT)
	}
	p.writeln()

	p.indent()
	p.formatSelectItems(sc.Columns)
	p.writeln()
	p.dedent()

	if sc.From != nil {
		p.kw(token.FROM)
		p.space()
		p.formatFromClause(sc.From)
		p.writeln()
	}
	p.formatExprClause(sc.Where, token.WHERE)
	if len(sc.GroupBy) > 0 {
		p.kw(token.GROUP, token.BY)
		p.writeln()
		p.indent()
		p.formatList(len(sc.GroupBy), func(i int) { p.formatExpr(sc.GroupBy[i]) }, ",", true)
		p.dedent()
		p.writeln()
	}
	p.formatExprClause(sc.Having, token.HAVING)
	p.formatOrderBy(sc.OrderBy)
	p.formatInlineClause(sc.Limit, token.LIMIT)
	p.formatInlineClause(sc.Offset, token.OFFSET)
}

// formatExprClause prints "KEYWORD\n  expr\n" when expr is set.
func (p *Printer) formatExprClause(expr parser.Expr, kw token.TokenType) {
	if expr == nil {
		return
	}
	p.kw(kw)
	p.writeln()
	p.indent()
	p.formatExpr(expr)
	p.dedent()
	p.writeln()
}

// formatInlineClause prints "KEYWORD expr\n" when expr is set.
func (p *Printer) formatInlineClause(expr parser.Expr, kw token.TokenType) {
	if expr == nil {
		return
	}
	p.kw(kw)
	p.space()
	p.formatExpr(expr)
	p.writeln()
}

func (p *Printer) formatOrderBy(items []parser.OrderByItem) {
	if len(items) == 0 {
		return
	}
	p.kw(token.ORDER, token.BY)
	p.writeln()
	p.indent()
	p.formatList(len(items), func(i int) { p.formatOrderByItem(items[i]) }, ",", true)
	p.dedent()
	p.writeln()
}

func (p *Printer) formatSelectItems(items []parser.SelectItem) {
	p.formatList(len(items), func(i int) { p.formatSelectItem(items[i]) }, ",", true)
}

func (p *Printer) formatSelectItem(item parser.SelectItem) {
	if item.Star {
		p.write("*")
		return
	}
	if len(item.TableStar) > 0 {
		p.identPath(item.TableStar...)
		p.write(".*")
		return
	}

	p.formatExpr(item.Expr)
	if item.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.space()
		p.ident(item.Alias)
	}
}

func (p *Printer) formatFromClause(from *parser.FromClause) {
	if from == nil {
		return
	}

	p.formatTableRef(from.Source)
	for _, join := range from.Joins {
		if join.Type != parser.JoinComma {
			p.writeln()
		}
		p.formatJoin(join)
	}
}

func (p *Printer) formatTableRef(ref parser.TableRef) {
	switch t := ref.(type) {
	case *parser.TableName:
		p.formatTableName(t)
		p.formatAlias(t.Alias)
	case *parser.DerivedTable:
		if t.Lateral {
			p.kw(token.LATERAL)
			p.space()
		}
		p.formatSubquery(t.Select)
		p.formatAlias(t.Alias)
	case *parser.TableFunction:
		p.formatFuncCall(t.Func)
		p.formatAlias(t.Alias)
	}
}

func (p *Printer) formatTableName(t *parser.TableName) {
	p.identPath(t.Catalog, t.Schema, t.Name)
}

func (p *Printer) formatAlias(alias string) {
	if alias != "" {
		p.space()
		p.ident(alias)
	}
}

func (p *Printer) formatJoin(join *parser.Join) {
	if join.Type == parser.JoinComma {
		p.write(",")
		p.space()
		p.formatTableRef(join.Right)
		return
	}

	if join.Natural {
		p.kw(token.NATURAL)
		p.space()
	}

	if join.Type == parser.JoinInner {
		p.kw(token.JOIN)
	} else {
		p.keyword(string(join.Type))
		p.space()
		p.kw(token.JOIN)
	}
	p.space()
	p.formatTableRef(join.Right)

	switch {
	case len(join.Using) > 0:
		p.writeln()
		p.indent()
		p.kw(token.USING)
		p.write(" (")
		p.formatList(len(join.Using), func(i int) { p.ident(join.Using[i]) }, ",", false)
		p.write(")")
		p.dedent()
	case join.Condition != nil:
		p.writeln()
		p.indent()
		p.kw(token.ON)
		p.space()
		p.formatExpr(join.Condition)
		p.dedent()
	}
}

func (p *Printer) formatOrderByItem(item parser.OrderByItem) {
	p.formatExpr(item.Expr)
	if item.Desc {
		p.space()
		p.kw(token.DESC)
	}
	if item.Nulls != "" {
		p.space()
		p.keyword("NULLS " + item.Nulls)
	}
}

// ---------- DML and DDL ----------

func (p *Printer) formatInsert(s *parser.InsertStmt) {
	if s.Replace {
		p.keyword("REPLACE")
	} else {
		p.kw(token.INSERT)
		if s.Or != "" {
			p.space()
			p.kw(token.OR)
			p.space()
			p.keyword(s.Or)
		}
	}
	p.space()
	p.kw(token.INTO)
	p.space()
	p.formatTableName(s.Table)
	if s.Table.Alias != "" {
		p.space()
		p.kw(token.AS)
		p.formatAlias(s.Table.Alias)
	}
	if len(s.Columns) > 0 {
		p.write(" (")
		p.formatList(len(s.Columns), func(i int) { p.ident(s.Columns[i]) }, ",", false)
		p.write(")")
	}
	p.writeln()

	switch {
	case s.DefaultValues:
		p.keyword("DEFAULT")
		p.space()
		p.kw(token.VALUES)
		p.writeln()
	case s.Select != nil:
		p.formatSelectStmt(s.Select)
	default:
		p.kw(token.VALUES)
		p.writeln()
		p.indent()
		p.formatList(len(s.Values), func(i int) {
			row := s.Values[i]
			p.write("(")
			p.formatList(len(row), func(j int) { p.formatExpr(row[j]) }, ",", false)
			p.write(")")
		}, ",", true)
		p.dedent()
		p.writeln()
	}

	if oc := s.OnConflict; oc != nil {
		p.kw(token.ON, token.CONFLICT)
		if len(oc.Target) > 0 {
			p.write(" (")
			p.formatList(len(oc.Target), func(i int) { p.ident(oc.Target[i]) }, ",", false)
			p.write(")")
		}
		p.space()
		p.kw(token.DO)
		p.space()
		if oc.DoNothing {
			p.kw(token.NOTHING)
		} else {
			p.kw(token.UPDATE, token.SET)
			p.space()
			p.formatAssignments(oc.Set)
			if oc.Where != nil {
				p.space()
				p.kw(token.WHERE)
				p.space()
				p.formatExpr(oc.Where)
			}
		}
		p.writeln()
	}
	p.formatReturning(s.Returning)
}

func (p *Printer) formatAssignments(set []*parser.Assignment) {
	p.formatList(len(set), func(i int) {
		p.identPath(set[i].Column.Parts...)
		p.write(" = ")
		p.formatExpr(set[i].Value)
	}, ",", false)
}

func (p *Printer) formatReturning(items []parser.SelectItem) {
	if len(items) == 0 {
		return
	}
	p.kw(token.RETURNING)
	p.space()
	p.formatList(len(items), func(i int) { p.formatSelectItem(items[i]) }, ",", false)
	p.writeln()
}

func (p *Printer) formatUpdate(s *parser.UpdateStmt) {
	p.kw(token.UPDATE)
	p.space()
	p.formatTableName(s.Table)
	p.formatAlias(s.Table.Alias)
	p.writeln()
	p.kw(token.SET)
	p.writeln()
	p.indent()
	p.formatList(len(s.Set), func(i int) {
		p.identPath(s.Set[i].Column.Parts...)
		p.write(" = ")
		p.formatExpr(s.Set[i].Value)
	}, ",", true)
	p.dedent()
	p.writeln()
	if s.From != nil {
		p.kw(token.FROM)
		p.space()
		p.formatFromClause(s.From)
		p.writeln()
	}
	p.formatExprClause(s.Where, token.WHERE)
	p.formatOrderBy(s.OrderBy)
	p.formatInlineClause(s.Limit, token.LIMIT)
	p.formatReturning(s.Returning)
}

func (p *Printer) formatDelete(s *parser.DeleteStmt) {
	p.kw(token.DELETE, token.FROM)
	p.space()
	p.formatTableName(s.Table)
	p.formatAlias(s.Table.Alias)
	p.writeln()
	if s.Using != nil {
		p.kw(token.USING)
		p.space()
		p.formatFromClause(s.Using)
		p.writeln()
	}
	p.formatExprClause(s.Where, token.WHERE)
	p.formatOrderBy(s.OrderBy)
	p.formatInlineClause(s.Limit, token.LIMIT)
	p.formatReturning(s.Returning)
}

func (p *Printer) formatCreateTable(s *parser.CreateTableStmt) {
	p.kw(token.CREATE)
	if s.Temporary {
		p.space()
		p.kw(token.TEMP)
	}
	p.space()
	p.kw(token.TABLE)
	if s.IfNotExists {
		p.space()
		p.kw(token.IF, token.NOT, token.EXISTS)
	}
	p.space()
	p.formatTableName(s.Name)

	if s.AsSelect != nil {
		p.space()
		p.kw(token.AS)
		p.writeln()
		p.formatSelectStmt(s.AsSelect)
		return
	}

	p.write(" (")
	p.writeln()
	p.indent()
	p.formatList(len(s.Columns), func(i int) {
		col := s.Columns[i]
		p.ident(col.Name)
		if col.Type != "" {
			p.space()
			p.write(col.Type)
		}
	}, ",", true)
	p.dedent()
	p.writeln()
	p.write(")")
}
