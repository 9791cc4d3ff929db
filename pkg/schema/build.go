package schema

import (
	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/parser"
)

// Build collects every CREATE TABLE with a column list into a model.
// Other statements, including CREATE TABLE ... AS SELECT, are ignored.
func Build(stmts []parser.Statement, d *dialect.Dialect) *Model {
	m := New(d)
	for _, stmt := range stmts {
		ct, ok := stmt.(*parser.CreateTableStmt)
		if !ok || ct.AsSelect != nil || ct.Name == nil {
			continue
		}
		columns := make([]Column, 0, len(ct.Columns))
		for _, def := range ct.Columns {
			if def == nil || def.Name == "" {
				continue
			}
			columns = append(columns, Column{Name: def.Name, Type: def.Type, Quoted: def.Quoted})
		}
		m.Define(RefOf(ct.Name), columns)
	}
	return m
}

// FromSQL parses a schema script and builds its model.
func FromSQL(sql string, d *dialect.Dialect) (*Model, error) {
	stmts, err := parser.Parse(sql, d)
	if err != nil {
		return nil, err
	}
	return Build(stmts, d), nil
}

// RefOf converts a parsed table name into a TableRef.
func RefOf(t *parser.TableName) TableRef {
	ref := TableRef{Database: t.Catalog, Schema: t.Schema, Table: t.Name}
	if t.NameQuoted {
		ref.Quoted |= QuotedTable
	}
	if t.SchemaQuoted {
		ref.Quoted |= QuotedSchema
	}
	if t.CatalogQuoted {
		ref.Quoted |= QuotedDatabase
	}
	return ref
}
