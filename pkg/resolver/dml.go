package resolver

import (
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/schema"
)

// insert types VALUES and INSERT ... SELECT placeholders by target column
// position. Without a column list the target's declared columns are used.
func (a *analyzer) insert(st *parser.InsertStmt) []OutputField {
	target := schema.RefOf(st.Table)
	var columns []column
	for i, name := range st.Columns {
		columns = append(columns, column{name: name, quoted: i < len(st.ColumnsQuoted) && st.ColumnsQuoted[i]})
	}
	if len(columns) == 0 {
		if t, ok := a.model.Lookup(target); ok {
			for _, c := range t.Columns {
				columns = append(columns, column{name: c.Name, quoted: c.Quoted})
			}
		}
	}
	hints := make([]string, len(columns))
	for i, c := range columns {
		hints[i], _ = a.model.ColumnTypeOf(target, c.name, c.quoted)
	}

	values := NewScope(nil, a.dialect)
	for _, row := range st.Values {
		for i, v := range row {
			hint := ""
			if i < len(hints) {
				hint = hints[i]
			}
			a.expr(v, values, hint)
		}
	}
	a.selectStmt(st.Select, nil, hints)

	if oc := st.OnConflict; oc != nil {
		s := a.targetScope(st.Table)
		// ON CONFLICT DO UPDATE may read the proposed row as "excluded".
		if b, ok := s.LookupIdent(st.Table.Name, st.Table.NameQuoted); ok {
			s.Alias("excluded", b)
		}
		a.assignments(oc.Set, target, s)
		a.expr(oc.Where, s, "")
	}
	return a.projection(st.Returning, a.targetScope(st.Table), nil)
}

func (a *analyzer) update(st *parser.UpdateStmt) []OutputField {
	s := a.targetScope(st.Table)
	s.AddFrom(st.From)

	a.assignments(st.Set, schema.RefOf(st.Table), s)
	a.from(st.From, s)
	a.expr(st.Where, s, "")
	a.orderBy(st.OrderBy, s)
	a.expr(st.Limit, s, "")
	return a.projection(st.Returning, s, nil)
}

func (a *analyzer) delete(st *parser.DeleteStmt) []OutputField {
	s := a.targetScope(st.Table)
	s.AddFrom(st.Using)

	a.from(st.Using, s)
	a.expr(st.Where, s, "")
	a.orderBy(st.OrderBy, s)
	a.expr(st.Limit, s, "")
	return a.projection(st.Returning, s, nil)
}

// targetScope binds only the statement's target table.
func (a *analyzer) targetScope(t *parser.TableName) *Scope {
	s := NewScope(nil, a.dialect)
	s.AddTable(t)
	return s
}

// assignments types each SET value from the assigned column. Unqualified
// columns always belong to the target table.
func (a *analyzer) assignments(set []*parser.Assignment, target schema.TableRef, s *Scope) {
	for _, as := range set {
		typ := ""
		switch {
		case as.Column == nil:
		case len(as.Column.Parts) == 1:
			typ, _ = a.model.ColumnTypeOf(target, as.Column.Column(), as.Column.ColumnQuoted())
		default:
			_, typ, _ = a.lookupColumn(as.Column, s)
		}
		a.expr(as.Value, s, typ)
	}
}
