package format

import (
	"testing"

	"github.com/leapstack-labs/butter/pkg/dialects/generic"
	"github.com/leapstack-labs/butter/pkg/dialects/postgres"
	"github.com/leapstack-labs/butter/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) parser.Statement {
	t.Helper()
	stmt, err := parser.ParseStatement(sql, generic.Generic)
	require.NoError(t, err)
	return stmt
}

func TestFormat_BasicSelect(t *testing.T) {
	d := generic.Generic
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "simple select",
			input: "SELECT a, b FROM t",
			expected: `SELECT
  a,
  b
FROM t
`,
		},
		{
			name:  "select with where",
			input: "SELECT a FROM t WHERE x = 1",
			expected: `SELECT
  a
FROM t
WHERE
  x = 1
`,
		},
		{
			name:  "select with alias",
			input: "SELECT a AS col1, b col2 FROM t",
			expected: `SELECT
  a AS col1,
  b AS col2
FROM t
`,
		},
		{
			name:  "select table star",
			input: "SELECT t.* FROM t",
			expected: `SELECT
  t.*
FROM t
`,
		},
		{
			name:  "group order limit",
			input: "select dept, count(*) from emp group by dept order by dept desc limit ?",
			expected: `SELECT
  dept,
  count(*)
FROM emp
GROUP BY
  dept
ORDER BY
  dept DESC
LIMIT ?
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(parseOne(t, tt.input), d))
		})
	}
}

func TestFormat_Joins(t *testing.T) {
	d := generic.Generic
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "inner join",
			input: "SELECT * FROM a JOIN b ON a.id = b.id",
			expected: `SELECT
  *
FROM a
JOIN b
  ON a.id = b.id
`,
		},
		{
			name:  "left join",
			input: "SELECT * FROM a LEFT JOIN b ON a.id = b.id",
			expected: `SELECT
  *
FROM a
LEFT JOIN b
  ON a.id = b.id
`,
		},
		{
			name:  "comma join",
			input: "SELECT * FROM a, b",
			expected: `SELECT
  *
FROM a, b
`,
		},
		{
			name:  "using",
			input: "SELECT * FROM a JOIN b USING (id)",
			expected: `SELECT
  *
FROM a
JOIN b
  USING (id)
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(parseOne(t, tt.input), d))
		})
	}
}

func TestFormat_CTE(t *testing.T) {
	input := "WITH cte AS (SELECT a FROM t) SELECT * FROM cte"
	expected := `WITH
  cte AS (
    SELECT
      a
    FROM t
  )
SELECT
  *
FROM cte
`
	assert.Equal(t, expected, Format(parseOne(t, input), generic.Generic))
}

func TestFormat_CaseExpression(t *testing.T) {
	input := "SELECT CASE WHEN x = 1 THEN 'a' ELSE 'b' END FROM t"
	expected := `SELECT
  CASE
    WHEN x = 1 THEN 'a'
    ELSE 'b'
  END
FROM t
`
	assert.Equal(t, expected, Format(parseOne(t, input), generic.Generic))
}

func TestFormat_DML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "insert values",
			input: "insert into users (id, name) values (?, ?), (?, ?) returning id",
			expected: `INSERT INTO users (id, name)
VALUES
  (?, ?),
  (?, ?)
RETURNING id
`,
		},
		{
			name:  "upsert",
			input: "INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT (k) DO UPDATE SET v = ?",
			expected: `INSERT INTO kv (k, v)
VALUES
  (?, ?)
ON CONFLICT (k) DO UPDATE SET v = ?
`,
		},
		{
			name:  "update",
			input: "UPDATE users SET name = ?, age = age + 1 WHERE id = ?",
			expected: `UPDATE users
SET
  name = ?,
  age = age + 1
WHERE
  id = ?
`,
		},
		{
			name:  "delete",
			input: "DELETE FROM users WHERE id = ?",
			expected: `DELETE FROM users
WHERE
  id = ?
`,
		},
		{
			name:  "create table",
			input: "CREATE TABLE users (id INTEGER PRIMARY KEY, name VARCHAR(20) NOT NULL)",
			expected: `CREATE TABLE users (
  id INTEGER,
  name VARCHAR(20)
)
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(parseOne(t, tt.input), generic.Generic))
		})
	}
}

func TestScript(t *testing.T) {
	stmts, err := parser.Parse("SELECT 1; PRAGMA x", generic.Generic)
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  1;\n\nPRAGMA x;\n", Script(stmts, generic.Generic))
}

func TestExpr_Inline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"count(*)", "count(*)"},
		{"COALESCE(a,b,  ?)", "COALESCE(a, b, ?)"},
		{"a+b*2", "a + b * 2"},
		{"u.first_name || ' ' || u.last_name", "u.first_name || ' ' || u.last_name"},
		{"CASE WHEN a > 0 THEN 'pos' ELSE 'neg' END", "CASE WHEN a > 0 THEN 'pos' ELSE 'neg' END"},
		{"cast(a as varchar(10))", "CAST(a AS varchar(10))"},
		{"(SELECT max(id) FROM u)", "(SELECT max(id) FROM u)"},
		{"a not in (1, 2)", "a NOT IN (1, 2)"},
		{"x is not null", "x IS NOT NULL"},
		{"count(distinct a)", "count(DISTINCT a)"},
		{"'it''s'", "'it''s'"},
		{"date '2024-01-01'", "DATE '2024-01-01'"},
		{"row_number() over (partition by a order by b desc)", "row_number() OVER (PARTITION BY a ORDER BY b DESC)"},
		{"-price", "-price"},
		{`"select"`, `"select"`},
		{`"first name"`, `"first name"`},
		{`u."Total" + 1`, `u."Total" + 1`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			stmt := parseOne(t, "SELECT "+tt.input+" FROM t").(*parser.SelectStmt)
			assert.Equal(t, tt.expected, Expr(stmt.Body.Left.Columns[0].Expr, generic.Generic))
		})
	}
}

func TestExpr_CastOperator(t *testing.T) {
	stmt, err := parser.ParseStatement("SELECT amount::numeric(10,2) FROM t", postgres.Postgres)
	require.NoError(t, err)
	expr := stmt.(*parser.SelectStmt).Body.Left.Columns[0].Expr
	assert.Equal(t, "amount::numeric(10,2)", Expr(expr, postgres.Postgres))
}

func TestInline(t *testing.T) {
	stmt := parseOne(t, "select a , b from t where x = ? and y in (select id from u)")
	assert.Equal(t, "SELECT a, b FROM t WHERE x = ? AND y IN (SELECT id FROM u)", Inline(stmt, generic.Generic))
}
