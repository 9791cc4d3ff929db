// Package schema holds the table and column model that queries are resolved
// against.
//
// A Model is built once per run, either from CREATE TABLE statements (Build,
// FromSQL) or from a live database catalog, and is read-only afterwards. It is
// safe to share between goroutines once construction is finished.
package schema

import (
	"strings"

	"github.com/leapstack-labs/butter/pkg/dialect"
)

// Quoting marks the parts of a TableRef that are exact names. Exact names
// are not case folded by dialects that fold unquoted identifiers.
type Quoting uint8

// Quoted parts.
const (
	QuotedTable Quoting = 1 << iota
	QuotedSchema
	QuotedDatabase
)

// TableRef names a table with optional database and schema qualifiers.
type TableRef struct {
	Database string  `json:"database,omitempty" yaml:"database,omitempty"`
	Schema   string  `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table    string  `json:"table" yaml:"table"`
	Quoted   Quoting `json:"-" yaml:"-"`
}

// String renders the reference as database.schema.table without empty parts.
func (r TableRef) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Database, r.Schema, r.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ".")
}

// Column is a declared column. Type is the type expression as written, and
// empty when the declaration carries none. Quoted columns keep their case.
type Column struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Quoted bool   `json:"-" yaml:"-"`
}

// Table is a declared table with columns in declaration order.
type Table struct {
	TableRef `yaml:",inline"`
	Columns  []Column `json:"columns" yaml:"columns"`

	index map[string]int // normalized column name -> position
}

// Column returns the named column. name is taken as unquoted.
func (t *Table) Column(d *dialect.Dialect, name string) (Column, bool) {
	return t.LookupColumn(d, name, false)
}

// LookupColumn returns the named column, comparing quoted names exactly.
func (t *Table) LookupColumn(d *dialect.Dialect, name string, quoted bool) (Column, bool) {
	i, ok := t.index[d.NormalizeIdent(name, quoted)]
	if !ok {
		return Column{}, false
	}
	return t.Columns[i], true
}

// Model maps tables to their columns.
type Model struct {
	dialect *dialect.Dialect
	tables  []*Table
}

// New returns an empty model whose names compare under d's rules.
func New(d *dialect.Dialect) *Model {
	return &Model{dialect: d}
}

// Dialect returns the dialect used for name comparison.
func (m *Model) Dialect() *dialect.Dialect {
	return m.dialect
}

// Define adds a table. A table with the same qualified name is replaced
// entirely, keeping its original position. Duplicate column names keep the
// last declaration.
func (m *Model) Define(ref TableRef, columns []Column) *Table {
	t := &Table{TableRef: ref, index: make(map[string]int, len(columns))}
	for _, c := range columns {
		key := m.dialect.NormalizeIdent(c.Name, c.Quoted)
		if i, ok := t.index[key]; ok {
			t.Columns[i] = c
			continue
		}
		t.index[key] = len(t.Columns)
		t.Columns = append(t.Columns, c)
	}

	for i, existing := range m.tables {
		if m.sameTable(existing.TableRef, ref) {
			m.tables[i] = t
			return t
		}
	}
	m.tables = append(m.tables, t)
	return t
}

// Lookup finds a table. Qualifiers are compared only when both ref and the
// declared table carry them; the first matching declaration wins.
func (m *Model) Lookup(ref TableRef) (*Table, bool) {
	for _, t := range m.tables {
		if m.matches(t.TableRef, ref) {
			return t, true
		}
	}
	return nil, false
}

// ColumnType returns the declared type of ref's column, if both exist.
func (m *Model) ColumnType(ref TableRef, column string) (string, bool) {
	return m.ColumnTypeOf(ref, column, false)
}

// ColumnTypeOf is ColumnType for a column name that may have been quoted.
func (m *Model) ColumnTypeOf(ref TableRef, column string, quoted bool) (string, bool) {
	t, ok := m.Lookup(ref)
	if !ok {
		return "", false
	}
	c, ok := t.LookupColumn(m.dialect, column, quoted)
	if !ok {
		return "", false
	}
	return c.Type, true
}

// Tables returns every table in declaration order.
func (m *Model) Tables() []*Table {
	out := make([]*Table, len(m.tables))
	copy(out, m.tables)
	return out
}

// Len returns the number of tables.
func (m *Model) Len() int {
	return len(m.tables)
}

// key returns the comparison key of one part of r.
func (m *Model) key(r TableRef, part Quoting) string {
	var name string
	switch part {
	case QuotedTable:
		name = r.Table
	case QuotedSchema:
		name = r.Schema
	case QuotedDatabase:
		name = r.Database
	}
	return m.dialect.NormalizeIdent(name, r.Quoted&part != 0)
}

func (m *Model) sameTable(a, b TableRef) bool {
	return m.key(a, QuotedTable) == m.key(b, QuotedTable) &&
		m.key(a, QuotedSchema) == m.key(b, QuotedSchema) &&
		m.key(a, QuotedDatabase) == m.key(b, QuotedDatabase)
}

func (m *Model) matches(declared, ref TableRef) bool {
	if m.key(declared, QuotedTable) != m.key(ref, QuotedTable) {
		return false
	}
	if declared.Schema != "" && ref.Schema != "" && m.key(declared, QuotedSchema) != m.key(ref, QuotedSchema) {
		return false
	}
	if declared.Database != "" && ref.Database != "" && m.key(declared, QuotedDatabase) != m.key(ref, QuotedDatabase) {
		return false
	}
	return true
}
