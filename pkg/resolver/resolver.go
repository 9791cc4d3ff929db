// Package resolver determines where each output column of a statement comes
// from and what type each bound parameter must have.
//
// A Resolver is built from a schema.Model and resolves parsed statements one
// at a time:
//
//	model, _ := schema.FromSQL(schemaSQL, d)
//	r := resolver.New(model, d)
//	analyses, err := r.ResolveSQL("SELECT o.id, o.total FROM orders o WHERE o.user_id = ?")
//
// Every statement gets a fresh Scope, so resolving one statement never
// affects another, and resolving the same statement twice yields the same
// result. References that cannot be matched are reported as Unresolved
// output fields or untyped input fields rather than errors.
package resolver

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/format"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/leapstack-labs/butter/pkg/token"
)

// Resolver resolves statements against a schema model. It keeps no
// per-statement state and may be shared between goroutines.
type Resolver struct {
	model   *schema.Model
	dialect *dialect.Dialect
}

// New creates a resolver. A nil dialect defaults to the model's.
func New(model *schema.Model, d *dialect.Dialect) *Resolver {
	if d == nil {
		d = model.Dialect()
	}
	return &Resolver{model: model, dialect: d}
}

// Model returns the schema the resolver reads.
func (r *Resolver) Model() *schema.Model {
	return r.model
}

// ResolveSQL parses sql and resolves every statement in it.
func (r *Resolver) ResolveSQL(sql string) ([]*QueryAnalysis, error) {
	stmts, err := parser.Parse(sql, r.dialect)
	if err != nil {
		return nil, err
	}
	out := make([]*QueryAnalysis, 0, len(stmts))
	for _, stmt := range stmts {
		out = append(out, r.Resolve(stmt))
	}
	return out, nil
}

// Resolve analyzes a single statement.
func (r *Resolver) Resolve(stmt parser.Statement) *QueryAnalysis {
	a := &analyzer{Resolver: r, params: newParams(), noticed: make(map[string]bool)}
	res := &QueryAnalysis{Kind: KindOther, Pos: stmt.Pos()}

	switch s := stmt.(type) {
	case *parser.SelectStmt:
		res.Kind = KindSelect
		res.Outputs = a.selectStmt(s, nil, nil)
	case *parser.InsertStmt:
		res.Kind = KindInsert
		res.Outputs = a.insert(s)
	case *parser.UpdateStmt:
		res.Kind = KindUpdate
		res.Outputs = a.update(s)
	case *parser.DeleteStmt:
		res.Kind = KindDelete
		res.Outputs = a.delete(s)
	case *parser.CreateTableStmt, *parser.OtherStmt:
	}

	res.Inputs = a.params.fields
	res.Notices = a.notices
	return res
}

// analyzer carries the state of one Resolve call.
type analyzer struct {
	*Resolver
	params  *params
	notices []Notice
	noticed map[string]bool
}

func (a *analyzer) notice(pos token.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	key := fmt.Sprintf("%d:%s", pos.Offset, msg)
	if a.noticed[key] {
		return
	}
	a.noticed[key] = true
	a.notices = append(a.notices, Notice{Message: msg, Pos: pos})
}

func (a *analyzer) scopeIn(outer *Scope) *Scope {
	if outer == nil {
		return NewScope(nil, a.dialect)
	}
	return outer.Child()
}

// ---------- SELECT ----------

// selectStmt walks a query and returns the outputs of its leftmost SELECT.
// hints type projected placeholders by position.
func (a *analyzer) selectStmt(stmt *parser.SelectStmt, outer *Scope, hints []string) []OutputField {
	if stmt == nil {
		return nil
	}
	s := a.scopeIn(outer)
	if stmt.With != nil {
		for _, cte := range stmt.With.CTEs {
			if stmt.With.Recursive {
				s.DefineCTE(cte.Name, cte.NameQuoted)
			}
			a.selectStmt(cte.Select, s, nil)
			s.DefineCTE(cte.Name, cte.NameQuoted)
		}
	}

	var outputs []OutputField
	for body, first := stmt.Body, true; body != nil; body, first = body.Right, false {
		out := a.selectCore(body.Left, s, hints)
		if first {
			outputs = out
		}
	}
	return outputs
}

func (a *analyzer) selectCore(core *parser.SelectCore, outer *Scope, hints []string) []OutputField {
	if core == nil {
		return nil
	}
	s := outer.Child()
	s.AddFrom(core.From)

	outputs := a.projection(core.Columns, s, hints)
	a.from(core.From, s)
	a.expr(core.Where, s, "")
	for _, g := range core.GroupBy {
		a.expr(g, s, "")
	}
	a.expr(core.Having, s, "")
	a.orderBy(core.OrderBy, s)
	a.expr(core.Limit, s, "")
	a.expr(core.Offset, s, "")
	return outputs
}

func (a *analyzer) from(from *parser.FromClause, s *Scope) {
	if from == nil {
		return
	}
	a.tableRef(from.Source, s)
	for _, j := range from.Joins {
		a.tableRef(j.Right, s)
		a.expr(j.Condition, s, "")
	}
}

func (a *analyzer) tableRef(ref parser.TableRef, s *Scope) {
	switch t := ref.(type) {
	case *parser.DerivedTable:
		a.selectStmt(t.Select, s, nil)
	case *parser.TableFunction:
		if t.Func != nil {
			a.expr(t.Func, s, "")
		}
	}
}

func (a *analyzer) orderBy(items []parser.OrderByItem, s *Scope) {
	for _, item := range items {
		a.expr(item.Expr, s, "")
	}
}

// ---------- Projection ----------

func (a *analyzer) projection(items []parser.SelectItem, s *Scope, hints []string) []OutputField {
	var out []OutputField
	positional := true
	for i, item := range items {
		switch {
		case item.Star:
			out = append(out, a.expandStar(s, item.Start)...)
			positional = false
		case len(item.TableStar) > 0:
			out = append(out, a.expandTableStar(item, s)...)
			positional = false
		default:
			hint := ""
			if positional && i < len(hints) {
				hint = hints[i]
			}
			out = append(out, a.outputField(item, s, hint))
		}
	}
	return out
}

func (a *analyzer) outputField(item parser.SelectItem, s *Scope, hint string) OutputField {
	f := OutputField{Pos: item.Start}
	if ref, ok := item.Expr.(*parser.ColumnRef); ok {
		var b *Binding
		f.Name = ref.Column()
		f.Source, f.Type, b = a.lookupColumn(ref, s)
		if b != nil && !b.Bound {
			a.notice(ref.Start, "cannot resolve %s: %s", strings.Join(ref.Parts, "."), b.Reason)
		}
	} else {
		text := format.Expr(item.Expr, a.dialect)
		f.Name = text
		f.Source = Computed{Expression: text}
		a.expr(item.Expr, s, hint)
	}
	if item.Alias != "" {
		f.Name = item.Alias
	}
	return f
}

// lookupColumn resolves a column reference without side effects. The
// binding is returned when the qualifier matched a FROM item.
func (a *analyzer) lookupColumn(ref *parser.ColumnRef, s *Scope) (Source, string, *Binding) {
	parts := ref.Parts
	col := column{name: ref.Column(), quoted: ref.ColumnQuoted()}
	switch len(parts) {
	case 1:
		b, ok := s.Single()
		if !ok {
			return Unresolved{Reason: ReasonAmbiguous}, "", nil
		}
		src, typ := a.fromBinding(b, col)
		return src, typ, b
	case 2:
		if b, ok := s.LookupIdent(parts[0], ref.IsQuoted(0)); ok {
			src, typ := a.fromBinding(b, col)
			return src, typ, b
		}
		// Not in scope: take the qualifier as a table name.
		tref := qualifiedRef(parts[:1], ref.IsQuoted)
		if _, ok := a.model.Lookup(tref); !ok {
			return Unresolved{Reason: fmt.Sprintf("unknown table or alias %q", parts[0])}, "", nil
		}
		src, typ := a.tableColumn(tref, col)
		return src, typ, nil
	default:
		src, typ := a.tableColumn(qualifiedRef(ref.Qualifier(), ref.IsQuoted), col)
		return src, typ, nil
	}
}

// column is a column name with its quoting.
type column struct {
	name   string
	quoted bool
}

// qualifiedRef builds a TableRef from one to three qualifier parts, the
// last of which is the table. quoted reports the quoting of part i.
func qualifiedRef(parts []string, quoted func(int) bool) schema.TableRef {
	var ref schema.TableRef
	flags := []schema.Quoting{schema.QuotedDatabase, schema.QuotedSchema, schema.QuotedTable}
	names := []*string{&ref.Database, &ref.Schema, &ref.Table}
	offset := len(names) - len(parts)
	for i, p := range parts {
		*names[offset+i] = p
		if quoted(i) {
			ref.Quoted |= flags[offset+i]
		}
	}
	return ref
}

func (a *analyzer) fromBinding(b *Binding, col column) (Source, string) {
	if !b.Bound {
		return Unresolved{Reason: b.Reason}, ""
	}
	return a.tableColumn(b.Ref, col)
}

func (a *analyzer) tableColumn(ref schema.TableRef, col column) (Source, string) {
	typ, _ := a.model.ColumnTypeOf(ref, col.name, col.quoted)
	return TableColumn{Database: ref.Database, Schema: ref.Schema, Table: ref.Table, Column: col.name}, typ
}

// ---------- Wildcards ----------

func (a *analyzer) expandStar(s *Scope, pos token.Position) []OutputField {
	sources := s.Sources()
	if len(sources) == 0 {
		return []OutputField{{Name: "*", Source: Unresolved{Reason: "no table in scope"}, Pos: pos}}
	}
	var out []OutputField
	for _, b := range sources {
		out = append(out, a.expandBinding(b, pos)...)
	}
	return out
}

func (a *analyzer) expandTableStar(item parser.SelectItem, s *Scope) []OutputField {
	parts := item.TableStar
	quoted := func(i int) bool { return i < len(item.TableStarQuoted) && item.TableStarQuoted[i] }
	if len(parts) == 1 {
		if b, ok := s.LookupIdent(parts[0], quoted(0)); ok {
			return a.expandBinding(b, item.Start)
		}
	}
	return a.expandTable(qualifiedRef(parts, quoted), item.Start)
}

func (a *analyzer) expandBinding(b *Binding, pos token.Position) []OutputField {
	if !b.Bound {
		name := "*"
		if b.Name != "" {
			name = b.Name + ".*"
		}
		a.notice(pos, "cannot expand %s: %s", name, b.Reason)
		return []OutputField{{Name: name, Source: Unresolved{Reason: b.Reason}, Pos: pos}}
	}
	return a.expandTable(b.Ref, pos)
}

// expandTable lists ref's columns in declaration order.
func (a *analyzer) expandTable(ref schema.TableRef, pos token.Position) []OutputField {
	t, ok := a.model.Lookup(ref)
	if !ok {
		return []OutputField{{
			Name:   ref.String() + ".*",
			Source: Unresolved{Reason: fmt.Sprintf("table %q not found in schema", ref.String())},
			Pos:    pos,
		}}
	}
	out := make([]OutputField, 0, len(t.Columns))
	for _, c := range t.Columns {
		out = append(out, OutputField{
			Name:   c.Name,
			Source: TableColumn{Database: ref.Database, Schema: ref.Schema, Table: ref.Table, Column: c.Name},
			Type:   c.Type,
			Pos:    pos,
		})
	}
	return out
}
