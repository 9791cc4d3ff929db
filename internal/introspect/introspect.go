// Package introspect builds a schema model from a live database catalog,
// as an alternative to parsing a schema file.
//
// Each supported driver registers a Catalog that knows how to list the
// database's columns. Columns are read in catalog order and grouped into
// tables, so the resulting model has the same shape as one built from
// CREATE TABLE statements.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/schema"
)

// ColumnRow is one column as reported by a catalog.
type ColumnRow struct {
	Schema string
	Table  string
	Column string
	Type   string
}

// Catalog lists the columns of a database.
type Catalog interface {
	// Driver is the database/sql driver name used to open connections.
	Driver() string
	// Columns returns every user column ordered by table, then position.
	Columns(ctx context.Context, db *sql.DB) ([]ColumnRow, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Catalog)
)

// Register adds a catalog under name.
// Called by catalog implementations in their init() functions.
func Register(name string, c Catalog) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = c
}

// Get retrieves a catalog by name.
func Get(name string) (Catalog, error) {
	registryMu.RLock()
	c, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownDriverError{Driver: name, Available: List()}
	}
	return c, nil
}

// List returns all registered catalog names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// urlChecker is implemented by catalogs that can reject a URL before
// connecting.
type urlChecker interface {
	checkURL(url string) error
}

// UnknownDriverError is returned when an unknown driver is requested.
type UnknownDriverError struct {
	Driver    string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown introspect driver %q (available: %v)", e.Driver, e.Available)
}

// Options configures Load.
type Options struct {
	Driver  string
	URL     string
	Dialect *dialect.Dialect
	Logger  *slog.Logger
}

// Load connects to the database described by opts and reads its schema.
func Load(ctx context.Context, opts Options) (*schema.Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Dialect == nil {
		return nil, dialect.ErrDialectRequired
	}
	c, err := Get(opts.Driver)
	if err != nil {
		return nil, err
	}
	if uc, ok := c.(urlChecker); ok {
		if err := uc.checkURL(opts.URL); err != nil {
			return nil, err
		}
	}

	logger.Debug("connecting for introspection", slog.String("driver", opts.Driver))
	db, err := sql.Open(c.Driver(), opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", opts.Driver, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", opts.Driver, err)
	}

	model, err := Read(ctx, db, c, opts.Dialect)
	if err != nil {
		return nil, err
	}
	logger.Debug("introspected schema", slog.String("driver", opts.Driver), slog.Int("tables", model.Len()))
	return model, nil
}

// Read builds a model from the columns c reports for db. Catalog names
// are stored names, so they are compared as if quoted.
func Read(ctx context.Context, db *sql.DB, c Catalog, d *dialect.Dialect) (*schema.Model, error) {
	rows, err := c.Columns(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	model := schema.New(d)
	var (
		ref     schema.TableRef
		columns []schema.Column
	)
	flush := func() {
		if ref.Table != "" {
			model.Define(ref, columns)
		}
	}
	for _, r := range rows {
		next := schema.TableRef{Schema: r.Schema, Table: r.Table, Quoted: schema.QuotedSchema | schema.QuotedTable}
		if next != ref {
			flush()
			ref, columns = next, nil
		}
		columns = append(columns, schema.Column{Name: r.Column, Type: r.Type, Quoted: true})
	}
	flush()
	return model, nil
}

// scanColumns drains rows of (schema, table, column, type).
func scanColumns(rows *sql.Rows) ([]ColumnRow, error) {
	defer func() { _ = rows.Close() }()

	var out []ColumnRow
	for rows.Next() {
		var r ColumnRow
		var typ sql.NullString
		if err := rows.Scan(&r.Schema, &r.Table, &r.Column, &typ); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		r.Type = typ.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return out, nil
}
