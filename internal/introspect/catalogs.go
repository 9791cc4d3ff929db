package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (registers "pgx")
	_ "modernc.org/sqlite"             // SQLite driver (pure Go)
)

func init() {
	Register("sqlite", sqliteCatalog{})
	Register("pgx", postgresCatalog{})
	Register("mysql", mysqlCatalog{})
}

// sqliteCatalog reads sqlite_master joined with pragma_table_info.
type sqliteCatalog struct{}

const sqliteColumnsQuery = `
	SELECT '', m.name, p.name, p.type
	FROM sqlite_master AS m
	JOIN pragma_table_info(m.name) AS p
	WHERE m.type IN ('table', 'view')
	AND m.name NOT LIKE 'sqlite_%'
	ORDER BY m.rowid, p.cid
`

func (sqliteCatalog) Driver() string { return "sqlite" }

func (sqliteCatalog) Columns(ctx context.Context, db *sql.DB) ([]ColumnRow, error) {
	rows, err := db.QueryContext(ctx, sqliteColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	return scanColumns(rows)
}

// checkURL refuses to create a database file that does not exist.
func (sqliteCatalog) checkURL(url string) error {
	if url == "" || url == ":memory:" || strings.HasPrefix(url, "file:") {
		return nil
	}
	if _, err := os.Stat(url); err != nil {
		return fmt.Errorf("sqlite database %s: %w", url, err)
	}
	return nil
}

// postgresCatalog reads information_schema.columns outside the system schemas.
type postgresCatalog struct{}

const postgresColumnsQuery = `
	SELECT table_schema, table_name, column_name, data_type
	FROM information_schema.columns
	WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY table_schema, table_name, ordinal_position
`

func (postgresCatalog) Driver() string { return "pgx" }

func (postgresCatalog) Columns(ctx context.Context, db *sql.DB) ([]ColumnRow, error) {
	rows, err := db.QueryContext(ctx, postgresColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query information_schema: %w", err)
	}
	return scanColumns(rows)
}

// mysqlCatalog reads information_schema.columns of the connected database.
// column_type keeps length and precision, e.g. varchar(255).
type mysqlCatalog struct{}

const mysqlColumnsQuery = `
	SELECT table_schema, table_name, column_name, column_type
	FROM information_schema.columns
	WHERE table_schema = DATABASE()
	ORDER BY table_name, ordinal_position
`

func (mysqlCatalog) Driver() string { return "mysql" }

func (mysqlCatalog) Columns(ctx context.Context, db *sql.DB) ([]ColumnRow, error) {
	rows, err := db.QueryContext(ctx, mysqlColumnsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query information_schema: %w", err)
	}
	return scanColumns(rows)
}
