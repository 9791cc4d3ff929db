package schema_test

import (
	"testing"

	"github.com/leapstack-labs/butter/pkg/dialects/generic"
	"github.com/leapstack-labs/butter/pkg/dialects/postgres"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSQL(t *testing.T) {
	sql := `
CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    email TEXT UNIQUE
);
CREATE INDEX users_email ON users (email);
CREATE TABLE orders (id INTEGER, user_id INTEGER REFERENCES users(id), total DECIMAL(10,2));
`
	m, err := schema.FromSQL(sql, generic.Generic)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	tables := m.Tables()
	assert.Equal(t, "users", tables[0].Table)
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "INTEGER"},
		{Name: "name", Type: "VARCHAR(255)"},
		{Name: "email", Type: "TEXT"},
	}, tables[0].Columns)

	assert.Equal(t, "orders", tables[1].Table)
	typ, ok := m.ColumnType(schema.TableRef{Table: "orders"}, "total")
	require.True(t, ok)
	assert.Equal(t, "DECIMAL(10,2)", typ)
}

func TestFromSQL_ParseError(t *testing.T) {
	_, err := schema.FromSQL("CREATE TABLE (", generic.Generic)
	require.Error(t, err)
	_, ok := parser.AsParseError(err)
	assert.True(t, ok)
}

func TestBuild_Redeclaration(t *testing.T) {
	sql := `
CREATE TABLE a (x INTEGER);
CREATE TABLE b (y TEXT);
CREATE TABLE a (z BOOLEAN, w TEXT);
`
	m, err := schema.FromSQL(sql, generic.Generic)
	require.NoError(t, err)

	tables := m.Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "a", tables[0].Table, "replacement keeps position")
	assert.Equal(t, []schema.Column{{Name: "z", Type: "BOOLEAN"}, {Name: "w", Type: "TEXT"}}, tables[0].Columns)

	_, ok := m.ColumnType(schema.TableRef{Table: "a"}, "x")
	assert.False(t, ok, "earlier definition is discarded")
}

func TestBuild_IgnoresNonTables(t *testing.T) {
	sql := `
PRAGMA foreign_keys = ON;
CREATE TABLE src (id INTEGER);
CREATE TABLE copy AS SELECT * FROM src;
CREATE VIEW v AS SELECT id FROM src;
INSERT INTO src VALUES (1);
`
	m, err := schema.FromSQL(sql, generic.Generic)
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())
	_, ok := m.Lookup(schema.TableRef{Table: "copy"})
	assert.False(t, ok)
}

func TestBuild_DuplicateColumns(t *testing.T) {
	m, err := schema.FromSQL("CREATE TABLE t (a INTEGER, b TEXT, a BIGINT)", generic.Generic)
	require.NoError(t, err)
	tbl, ok := m.Lookup(schema.TableRef{Table: "t"})
	require.True(t, ok)
	assert.Equal(t, []schema.Column{{Name: "a", Type: "BIGINT"}, {Name: "b", Type: "TEXT"}}, tbl.Columns)
}

func TestBuild_TypelessColumn(t *testing.T) {
	m, err := schema.FromSQL("CREATE TABLE t (a, b INTEGER)", generic.Generic)
	require.NoError(t, err)
	typ, ok := m.ColumnType(schema.TableRef{Table: "t"}, "a")
	require.True(t, ok)
	assert.Empty(t, typ)
}

func TestLookup_Qualifiers(t *testing.T) {
	sql := `
CREATE TABLE public.users (id INTEGER);
CREATE TABLE auth.users (id UUID);
CREATE TABLE prod.sales.orders (id BIGINT);
`
	m, err := schema.FromSQL(sql, postgres.Postgres)
	require.NoError(t, err)

	tests := []struct {
		name     string
		ref      schema.TableRef
		wantType string
		found    bool
	}{
		{"unqualified takes first", schema.TableRef{Table: "users"}, "INTEGER", true},
		{"schema selects", schema.TableRef{Schema: "auth", Table: "users"}, "UUID", true},
		{"wrong schema", schema.TableRef{Schema: "billing", Table: "users"}, "", false},
		{"database and schema", schema.TableRef{Database: "prod", Schema: "sales", Table: "orders"}, "BIGINT", true},
		{"schema only", schema.TableRef{Schema: "sales", Table: "orders"}, "BIGINT", true},
		{"wrong database", schema.TableRef{Database: "dev", Schema: "sales", Table: "orders"}, "", false},
		{"case folded", schema.TableRef{Table: "USERS"}, "INTEGER", true},
		{"missing", schema.TableRef{Table: "nope"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := m.ColumnType(tt.ref, "ID")
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

func TestLookup_QuotedNames(t *testing.T) {
	m, err := schema.FromSQL(`CREATE TABLE "Users" ("Id" UUID); CREATE TABLE users (id INTEGER);`, postgres.Postgres)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	tests := []struct {
		name     string
		ref      schema.TableRef
		column   string
		quoted   bool
		wantType string
		found    bool
	}{
		{"quoted table and column", schema.TableRef{Table: "Users", Quoted: schema.QuotedTable}, "Id", true, "UUID", true},
		{"unquoted folds to lowercase", schema.TableRef{Table: "Users"}, "ID", false, "INTEGER", true},
		{"quoted lowercase equals unquoted", schema.TableRef{Table: "users", Quoted: schema.QuotedTable}, "id", true, "INTEGER", true},
		{"unquoted column misses quoted one", schema.TableRef{Table: "Users", Quoted: schema.QuotedTable}, "Id", false, "", false},
		{"quoted case must match", schema.TableRef{Table: "USERS", Quoted: schema.QuotedTable}, "id", false, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ, ok := m.ColumnTypeOf(tt.ref, tt.column, tt.quoted)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantType, typ)
		})
	}

	t.Run("case-insensitive dialect ignores quoting", func(t *testing.T) {
		m, err := schema.FromSQL(`CREATE TABLE "Users" ("Id" UUID); CREATE TABLE users (id INTEGER);`, generic.Generic)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Len())
	})
}

func TestDefine(t *testing.T) {
	m := schema.New(generic.Generic)
	m.Define(schema.TableRef{Schema: "main", Table: "kv"}, []schema.Column{{Name: "k", Type: "TEXT"}, {Name: "v"}})

	tbl, ok := m.Lookup(schema.TableRef{Table: "KV"})
	require.True(t, ok)
	assert.Equal(t, "main.kv", tbl.String())

	c, ok := tbl.Column(generic.Generic, "K")
	require.True(t, ok)
	assert.Equal(t, "TEXT", c.Type)
}

func TestTableRef_String(t *testing.T) {
	assert.Equal(t, "t", schema.TableRef{Table: "t"}.String())
	assert.Equal(t, "s.t", schema.TableRef{Schema: "s", Table: "t"}.String())
	assert.Equal(t, "d.s.t", schema.TableRef{Database: "d", Schema: "s", Table: "t"}.String())
}
