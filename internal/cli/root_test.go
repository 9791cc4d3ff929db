package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/butter/internal/cli/commands"
	"github.com/leapstack-labs/butter/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE users (id INTEGER, name TEXT, email VARCHAR(255));
CREATE TABLE orders (id INTEGER, user_id INTEGER, total DECIMAL(10,2));
`

func setupProject(t *testing.T, queries map[string]string) string {
	t.Helper()
	files := map[string]string{
		"butter.yaml": "generate:\n  dialect: sqlite\n",
		"schema.sql":  testSchema,
	}
	for name, sql := range queries {
		files["queries/"+name] = sql
	}
	return testutil.WriteProject(t, files)
}

// run executes the root command with args and returns stdout, stderr and
// the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := execute(cmd, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := NewRootCmd()

	want := []string{"generate", "schema", "check", "repl", "serve", "init", "dialects", "version", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	cmd, _, err := root.Find([]string{"analyze"})
	require.NoError(t, err)
	assert.Equal(t, "generate", cmd.Name())
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "butter v"+Version)
}

func TestGenerate_JSON(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"users.sql": "SELECT id, email FROM users WHERE name = ?;",
	})

	stdout, _, err := run(t, "-C", dir, "-o", "json", "generate")
	require.NoError(t, err)

	var got struct {
		Dialect string `json:"dialect"`
		Files   []struct {
			Path       string `json:"path"`
			Statements []struct {
				Kind    string `json:"kind"`
				Outputs []struct {
					Name string `json:"name"`
					Type string `json:"type"`
				} `json:"outputs"`
				Inputs []struct {
					Type string `json:"type"`
				} `json:"inputs"`
			} `json:"statements"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))

	assert.Equal(t, "sqlite", got.Dialect)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "queries/users.sql", got.Files[0].Path)
	require.Len(t, got.Files[0].Statements, 1)
	stmt := got.Files[0].Statements[0]
	require.Len(t, stmt.Outputs, 2)
	assert.Equal(t, "email", stmt.Outputs[1].Name)
	assert.Equal(t, "VARCHAR(255)", stmt.Outputs[1].Type)
	require.Len(t, stmt.Inputs, 1)
	assert.Equal(t, "TEXT", stmt.Inputs[0].Type)
}

func TestGenerate_Markdown(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"totals.sql": "SELECT o.total, count(*) AS n FROM orders o GROUP BY o.total;",
	})

	stdout, _, err := run(t, "-C", dir, "-o", "markdown", "generate")
	require.NoError(t, err)

	assert.Contains(t, stdout, "# Schema")
	assert.Contains(t, stdout, "# Queries")
	assert.Contains(t, stdout, "## queries/totals.sql")
	assert.Contains(t, stdout, "DECIMAL(10,2)")
	assert.Contains(t, stdout, "= count(*)")
	assert.Contains(t, stdout, "Statements: 1")
}

func TestGenerate_SchemaError(t *testing.T) {
	dir := testutil.WriteProject(t, map[string]string{
		"schema.sql":        "CREATE TABLE (",
		"queries/users.sql": "SELECT 1;",
	})

	_, stderr, err := run(t, "-C", dir, "generate")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error:")
}

func TestGenerate_DialectFlag(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"users.sql": "SELECT id FROM users WHERE email = $1;",
	})

	stdout, _, err := run(t, "-C", dir, "--dialect", "pg", "-o", "json", "generate")
	require.NoError(t, err)
	assert.Contains(t, stdout, `"dialect": "postgresql"`)
}

func TestSchema(t *testing.T) {
	dir := setupProject(t, nil)

	t.Run("all tables", func(t *testing.T) {
		stdout, _, err := run(t, "-C", dir, "-o", "markdown", "schema")
		require.NoError(t, err)
		assert.Contains(t, stdout, "2 tables")
		assert.Contains(t, stdout, "users")
		assert.Contains(t, stdout, "orders")
	})

	t.Run("one table", func(t *testing.T) {
		stdout, _, err := run(t, "-C", dir, "-o", "json", "schema", "orders")
		require.NoError(t, err)

		var got struct {
			Tables []struct {
				Table   string `json:"table"`
				Columns []struct {
					Name string `json:"name"`
				} `json:"columns"`
			} `json:"tables"`
		}
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		require.Len(t, got.Tables, 1)
		assert.Equal(t, "orders", got.Tables[0].Table)
		assert.Len(t, got.Tables[0].Columns, 3)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, _, err := run(t, "-C", dir, "schema", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"nope"`)
	})
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		queries map[string]string
		args    []string
		wantErr bool
	}{
		{
			name:    "clean",
			queries: map[string]string{"ok.sql": "SELECT id FROM users;"},
		},
		{
			name:    "parse error fails",
			queries: map[string]string{"bad.sql": "SELECT FROM WHERE;"},
			wantErr: true,
		},
		{
			name:    "warning passes",
			queries: map[string]string{"warn.sql": "SELECT z.id FROM users;"},
		},
		{
			name:    "warning fails when strict",
			queries: map[string]string{"warn.sql": "SELECT z.id FROM users;"},
			args:    []string{"--strict"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupProject(t, tt.queries)
			args := append([]string{"-C", dir, "-o", "json", "check"}, tt.args...)

			stdout, _, err := run(t, args...)
			if tt.wantErr {
				require.ErrorIs(t, err, commands.ErrCheckFailed)
			} else {
				require.NoError(t, err)
			}

			var got struct {
				Files int `json:"files"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &got))
			assert.Equal(t, 1, got.Files)
		})
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")

	stdout, _, err := run(t, "init", dir, "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, stdout, "butter.yaml")

	data, err := os.ReadFile(filepath.Join(dir, "butter.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "dialect: postgresql")

	_, _, err = run(t, "init", dir)
	require.Error(t, err)

	// The starter project analyzes cleanly.
	_, _, err = run(t, "-C", dir, "-o", "json", "check", "--strict")
	require.NoError(t, err)
}

func TestDialects(t *testing.T) {
	stdout, _, err := run(t, "-o", "json", "dialects")
	require.NoError(t, err)

	var got []struct {
		Name        string `json:"name"`
		Placeholder string `json:"placeholder"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))

	placeholders := map[string]string{}
	for _, d := range got {
		placeholders[d.Name] = d.Placeholder
	}
	assert.Equal(t, "$1", placeholders["postgresql"])
	assert.Equal(t, "?", placeholders["mysql"])
}

func TestCompletion(t *testing.T) {
	stdout, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "butter")

	_, _, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestInvalidOutputFlag(t *testing.T) {
	dir := setupProject(t, nil)
	_, stderr, err := run(t, "-C", dir, "-o", "xml", "schema")
	require.Error(t, err)
	assert.Contains(t, stderr, "Error:")
}
