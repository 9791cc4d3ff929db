package introspect

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/butter/internal/testutil"
	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/dialects/mysql"
	"github.com/leapstack-labs/butter/pkg/dialects/postgres"
	"github.com/leapstack-labs/butter/pkg/dialects/sqlite"
	"github.com/leapstack-labs/butter/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var catalogColumns = []string{"table_schema", "table_name", "column_name", "data_type"}

func TestRead_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.columns`).WillReturnRows(
		sqlmock.NewRows(catalogColumns).
			AddRow("auth", "users", "id", "uuid").
			AddRow("public", "orders", "id", "integer").
			AddRow("public", "orders", "total", "numeric").
			AddRow("public", "users", "id", "bigint").
			AddRow("public", "users", "email", "character varying"),
	)

	model, err := Read(context.Background(), db, postgresCatalog{}, postgres.Postgres)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Equal(t, 3, model.Len())
	typ, ok := model.ColumnType(schema.TableRef{Schema: "public", Table: "users"}, "email")
	require.True(t, ok)
	assert.Equal(t, "character varying", typ)

	typ, ok = model.ColumnType(schema.TableRef{Schema: "auth", Table: "users"}, "id")
	require.True(t, ok)
	assert.Equal(t, "uuid", typ)

	tables := model.Tables()
	assert.Equal(t, "auth.users", tables[0].String())
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "integer", Quoted: true},
		{Name: "total", Type: "numeric", Quoted: true},
	}, tables[1].Columns)
}

func TestRead_PostgresStoredCase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.columns`).WillReturnRows(
		sqlmock.NewRows(catalogColumns).
			AddRow("public", "Users", "Id", "uuid").
			AddRow("public", "users", "id", "integer"),
	)

	model, err := Read(context.Background(), db, postgresCatalog{}, postgres.Postgres)
	require.NoError(t, err)
	require.Equal(t, 2, model.Len())

	typ, ok := model.ColumnTypeOf(schema.TableRef{Table: "Users", Quoted: schema.QuotedTable}, "Id", true)
	require.True(t, ok)
	assert.Equal(t, "uuid", typ)

	typ, ok = model.ColumnType(schema.TableRef{Table: "USERS"}, "ID")
	require.True(t, ok, "unquoted names fold to the lowercase table")
	assert.Equal(t, "integer", typ)
}

func TestRead_MySQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`WHERE table_schema = DATABASE\(\)`).WillReturnRows(
		sqlmock.NewRows(catalogColumns).
			AddRow("shop", "products", "id", "int").
			AddRow("shop", "products", "name", "varchar(255)"),
	)

	model, err := Read(context.Background(), db, mysqlCatalog{}, mysql.MySQL)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	typ, ok := model.ColumnType(schema.TableRef{Table: "PRODUCTS"}, "Name")
	require.True(t, ok, "mysql names are case-insensitive")
	assert.Equal(t, "varchar(255)", typ)
}

func TestRead_NullType(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM sqlite_master`).WillReturnRows(
		sqlmock.NewRows(catalogColumns).AddRow("", "v", "x", nil),
	)

	model, err := Read(context.Background(), db, sqliteCatalog{}, sqlite.SQLite)
	require.NoError(t, err)
	typ, ok := model.ColumnType(schema.TableRef{Table: "v"}, "x")
	require.True(t, ok)
	assert.Empty(t, typ)
}

func TestRead_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.columns`).WillReturnError(assert.AnError)

	_, err = Read(context.Background(), db, postgresCatalog{}, postgres.Postgres)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "failed to read catalog")
}

func TestRead_ScanError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM information_schema.columns`).WillReturnRows(
		sqlmock.NewRows([]string{"table_name"}).AddRow("users"),
	)

	_, err = Read(context.Background(), db, postgresCatalog{}, postgres.Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to scan column metadata")
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email VARCHAR(255));
		CREATE TABLE orders (id INTEGER, user_id INTEGER REFERENCES users(id), total DECIMAL(10,2));
		CREATE INDEX orders_user ON orders(user_id);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	model, err := Load(context.Background(), Options{
		Driver:  "sqlite",
		URL:     path,
		Dialect: sqlite.SQLite,
		Logger:  testutil.NewTestLogger(t),
	})
	require.NoError(t, err)

	require.Equal(t, 2, model.Len())
	tables := model.Tables()
	assert.Equal(t, "users", tables[0].Table)
	assert.Equal(t, []schema.Column{
		{Name: "id", Type: "INTEGER", Quoted: true},
		{Name: "user_id", Type: "INTEGER", Quoted: true},
		{Name: "total", Type: "DECIMAL(10,2)", Quoted: true},
	}, tables[1].Columns)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown driver",
			opts: Options{Driver: "oci8", URL: "x", Dialect: postgres.Postgres},
			check: func(t *testing.T, err error) {
				var ude *UnknownDriverError
				require.True(t, errors.As(err, &ude))
				assert.Equal(t, []string{"mysql", "pgx", "sqlite"}, ude.Available)
			},
		},
		{
			name: "missing sqlite file",
			opts: Options{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "missing.db"), Dialect: sqlite.SQLite},
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "missing.db")
			},
		},
		{
			name: "no dialect",
			opts: Options{Driver: "sqlite", URL: ":memory:"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, dialect.ErrDialectRequired)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), tt.opts)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestList(t *testing.T) {
	assert.Equal(t, []string{"mysql", "pgx", "sqlite"}, List())
}
