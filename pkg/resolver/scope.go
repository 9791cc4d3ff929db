package resolver

import (
	"fmt"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/leapstack-labs/butter/pkg/token"
)

// ReasonAmbiguous is reported for a bare column when the scope does not
// hold exactly one table.
const ReasonAmbiguous = "ambiguous or no table in scope"

// Binding is one FROM item visible in a scope.
type Binding struct {
	Name   string          // alias, or the table name when unaliased
	Ref    schema.TableRef // set when Bound
	Bound  bool            // false for derived tables, table functions and CTEs
	Reason string          // why an unbound item cannot be resolved
	Pos    token.Position
}

// Scope maps the names usable as column qualifiers in one query block to
// the tables they denote. Scopes nest for subqueries; lookups fall back to
// the enclosing scope.
type Scope struct {
	parent  *Scope
	dialect *dialect.Dialect
	names   map[string]*Binding
	sources []*Binding
	ctes    map[string]struct{}
}

// NewScope returns an empty scope nested in parent, which may be nil.
func NewScope(parent *Scope, d *dialect.Dialect) *Scope {
	return &Scope{
		parent:  parent,
		dialect: d,
		names:   make(map[string]*Binding),
		ctes:    make(map[string]struct{}),
	}
}

// Child returns a nested scope.
func (s *Scope) Child() *Scope {
	return NewScope(s, s.dialect)
}

// key normalizes a qualifier; quoted names are exact where the dialect
// folds unquoted ones.
func (s *Scope) key(name string, quoted bool) string {
	return s.dialect.NormalizeIdent(name, quoted)
}

// DefineCTE makes a WITH name visible to this scope and its children.
func (s *Scope) DefineCTE(name string, quoted bool) {
	s.ctes[s.key(name, quoted)] = struct{}{}
}

func (s *Scope) isCTE(name string, quoted bool) bool {
	key := s.key(name, quoted)
	for sc := s; sc != nil; sc = sc.parent {
		if _, ok := sc.ctes[key]; ok {
			return true
		}
	}
	return false
}

// AddFrom binds the FROM item and then each joined item, in source order.
func (s *Scope) AddFrom(from *parser.FromClause) {
	if from == nil {
		return
	}
	s.AddRef(from.Source)
	for _, j := range from.Joins {
		s.AddRef(j.Right)
	}
}

// AddRef binds a single FROM item. Only plain table names are bound to a
// table; other items are recorded as unbound so that references to them
// resolve as Unresolved.
func (s *Scope) AddRef(ref parser.TableRef) {
	switch t := ref.(type) {
	case *parser.TableName:
		s.AddTable(t)
	case *parser.DerivedTable:
		b := &Binding{Name: t.Alias, Pos: t.Start, Reason: "derived table has no schema columns"}
		if t.Alias != "" {
			b.Reason = fmt.Sprintf("derived table %q has no schema columns", t.Alias)
		}
		s.add(b, s.key(t.Alias, t.AliasQuoted))
	case *parser.TableFunction:
		name, quoted := t.Alias, t.AliasQuoted
		if name == "" && t.Func != nil {
			name, quoted = t.Func.Name, false
		}
		s.add(&Binding{
			Name:   name,
			Pos:    t.Start,
			Reason: fmt.Sprintf("table function %q has no schema columns", name),
		}, s.key(name, quoted))
	}
}

// AddTable binds a table name and its alias. The table's own name is
// bound as well, so both "o.id" and "orders.id" work for "orders AS o".
func (s *Scope) AddTable(t *parser.TableName) {
	name, quoted := t.Name, t.NameQuoted
	if t.Alias != "" {
		name, quoted = t.Alias, t.AliasQuoted
	}
	keys := []string{s.key(name, quoted), s.key(t.Name, t.NameQuoted)}

	if t.Catalog == "" && t.Schema == "" && s.isCTE(t.Name, t.NameQuoted) {
		s.add(&Binding{
			Name:   name,
			Pos:    t.Start,
			Reason: fmt.Sprintf("common table expression %q has no schema columns", t.Name),
		}, keys...)
		return
	}

	s.add(&Binding{Name: name, Ref: schema.RefOf(t), Bound: true, Pos: t.Start}, keys...)
}

// add records b as a FROM item reachable under the normalized keys.
func (s *Scope) add(b *Binding, keys ...string) {
	s.sources = append(s.sources, b)
	for _, k := range keys {
		if k != "" {
			s.names[k] = b
		}
	}
}

// Alias makes name refer to an existing binding without adding a FROM item.
func (s *Scope) Alias(name string, b *Binding) {
	s.names[s.key(name, false)] = b
}

// Lookup finds the binding for an unquoted qualifier, searching enclosing
// scopes.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	return s.LookupIdent(name, false)
}

// LookupIdent is Lookup for a qualifier that may have been quoted.
func (s *Scope) LookupIdent(name string, quoted bool) (*Binding, bool) {
	key := s.key(name, quoted)
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.names[key]; ok {
			return b, true
		}
	}
	return nil, false
}

// Sources returns the FROM items of this scope in source order.
func (s *Scope) Sources() []*Binding {
	return s.sources
}

// Single returns the only item a bare column can belong to. The nearest
// scope with any FROM items decides; it must hold exactly one distinct
// item. Self-joins of one table count once.
func (s *Scope) Single() (*Binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if len(sc.sources) == 0 {
			continue
		}
		distinct := sc.distinct()
		if len(distinct) == 1 {
			return distinct[0], true
		}
		return nil, false
	}
	return nil, false
}

// distinct collapses bindings that denote the same table.
func (s *Scope) distinct() []*Binding {
	var out []*Binding
	seen := make(map[string]bool)
	for _, b := range s.sources {
		if !b.Bound {
			out = append(out, b)
			continue
		}
		key := s.refKey(b.Ref)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

// refKey identifies the table ref denotes. Parts are joined with a byte
// that cannot appear in a normalized name.
func (s *Scope) refKey(ref schema.TableRef) string {
	return s.key(ref.Database, ref.Quoted&schema.QuotedDatabase != 0) + "\x00" +
		s.key(ref.Schema, ref.Quoted&schema.QuotedSchema != 0) + "\x00" +
		s.key(ref.Table, ref.Quoted&schema.QuotedTable != 0)
}

// tables returns the distinct bound tables of the nearest non-empty scope.
func (s *Scope) tables() []*Binding {
	for sc := s; sc != nil; sc = sc.parent {
		if len(sc.sources) == 0 {
			continue
		}
		var out []*Binding
		for _, b := range sc.distinct() {
			if b.Bound {
				out = append(out, b)
			}
		}
		return out
	}
	return nil
}
