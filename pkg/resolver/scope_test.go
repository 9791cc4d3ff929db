package resolver

import (
	"testing"

	"github.com/leapstack-labs/butter/pkg/dialects/generic"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromOf(t *testing.T, sql string) *parser.FromClause {
	t.Helper()
	stmt, err := parser.ParseStatement(sql, generic.Generic)
	require.NoError(t, err)
	return stmt.(*parser.SelectStmt).Body.Left.From
}

func TestScope_Bindings(t *testing.T) {
	s := NewScope(nil, generic.Generic)
	s.AddFrom(fromOf(t, "SELECT 1 FROM main.orders AS o JOIN users ON users.id = o.user_id"))

	b, ok := s.Lookup("o")
	require.True(t, ok)
	assert.Equal(t, schema.TableRef{Schema: "main", Table: "orders"}, b.Ref)

	b2, ok := s.Lookup("ORDERS")
	require.True(t, ok, "table name is bound alongside its alias")
	assert.Same(t, b, b2)

	b, ok = s.Lookup("users")
	require.True(t, ok)
	assert.Equal(t, "users", b.Name)

	_, ok = s.Lookup("x")
	assert.False(t, ok)
	assert.Len(t, s.Sources(), 2)
}

func TestScope_LastWriteWins(t *testing.T) {
	s := NewScope(nil, generic.Generic)
	s.AddFrom(fromOf(t, "SELECT 1 FROM users a, orders a"))

	b, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "orders", b.Ref.Table)
}

func TestScope_Single(t *testing.T) {
	tests := []struct {
		sql   string
		table string
		ok    bool
	}{
		{"SELECT 1 FROM users", "users", true},
		{"SELECT 1 FROM users u", "users", true},
		{"SELECT 1 FROM users a JOIN users b ON a.id = b.id", "users", true},
		{"SELECT 1 FROM users JOIN orders ON 1 = 1", "", false},
		{"SELECT 1 FROM users, (SELECT 1) d", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			s := NewScope(nil, generic.Generic)
			s.AddFrom(fromOf(t, tt.sql))
			b, ok := s.Single()
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.table, b.Ref.Table)
			}
		})
	}
}

func TestScope_Nesting(t *testing.T) {
	outer := NewScope(nil, generic.Generic)
	outer.AddFrom(fromOf(t, "SELECT 1 FROM users u"))
	outer.DefineCTE("recent", false)

	inner := outer.Child()
	b, ok := inner.Single()
	require.True(t, ok, "an empty scope defers to its parent")
	assert.Equal(t, "users", b.Ref.Table)

	inner.AddFrom(fromOf(t, "SELECT 1 FROM recent r"))
	b, ok = inner.Lookup("r")
	require.True(t, ok)
	assert.False(t, b.Bound)
	assert.Equal(t, `common table expression "recent" has no schema columns`, b.Reason)

	b, ok = inner.Lookup("u")
	require.True(t, ok, "outer aliases stay visible")
	assert.True(t, b.Bound)
}

func TestScope_UnboundItems(t *testing.T) {
	s := NewScope(nil, generic.Generic)
	s.AddFrom(fromOf(t, "SELECT 1 FROM (SELECT 1) AS d, json_each(?) j"))

	d, ok := s.Lookup("d")
	require.True(t, ok)
	assert.False(t, d.Bound)
	assert.Equal(t, `derived table "d" has no schema columns`, d.Reason)

	j, ok := s.Lookup("j")
	require.True(t, ok)
	assert.Equal(t, `table function "j" has no schema columns`, j.Reason)
}
