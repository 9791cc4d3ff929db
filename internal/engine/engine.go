// Package engine runs the analysis over a project: it loads the schema once,
// discovers the query files and resolves every statement in them.
//
// A failing schema aborts the run. A query file that cannot be read or parsed
// only produces a diagnostic for that file, and the rest of the batch
// continues.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/butter/internal/config"
	"github.com/leapstack-labs/butter/internal/introspect"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/dialect"
	"github.com/leapstack-labs/butter/pkg/resolver"
	"github.com/leapstack-labs/butter/pkg/schema"
	"golang.org/x/sync/errgroup"
)

// ErrSchemaParse is returned when the schema file cannot be read or parsed.
var ErrSchemaParse = errors.New("schema parse failed")

// Engine analyzes the query files of one project.
type Engine struct {
	dialect    *dialect.Dialect
	root       string
	queriesDir string
	schemaFile string
	introspect introspect.Options
	jobs       int
	logger     *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Dialect is required.
	Dialect *dialect.Dialect
	// Root is the directory report paths are made relative to (optional).
	Root string
	// QueriesDir is searched recursively for *.sql files.
	QueriesDir string
	// SchemaFile holds the CREATE TABLE statements. Ignored when
	// IntrospectURL is set.
	SchemaFile string
	// IntrospectDriver and IntrospectURL read the schema from a database.
	IntrospectDriver string
	IntrospectURL    string
	// Jobs bounds how many files are analyzed at once. Values below 1 mean 1.
	Jobs int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Dialect == nil {
		return nil, dialect.ErrDialectRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	jobs := max(cfg.Jobs, 1)

	logger.Debug("initializing engine",
		"dialect", cfg.Dialect.Name,
		"queries_dir", cfg.QueriesDir,
		"jobs", jobs)

	return &Engine{
		dialect:    cfg.Dialect,
		root:       cfg.Root,
		queriesDir: cfg.QueriesDir,
		schemaFile: cfg.SchemaFile,
		introspect: introspect.Options{
			Driver:  cfg.IntrospectDriver,
			URL:     cfg.IntrospectURL,
			Dialect: cfg.Dialect,
			Logger:  logger,
		},
		jobs:   jobs,
		logger: logger,
	}, nil
}

// FromConfig creates an engine from project configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	d, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	return New(Config{
		Dialect:          d,
		Root:             cfg.ProjectRoot,
		QueriesDir:       cfg.Generate.QueriesDir,
		SchemaFile:       cfg.Generate.SchemaFile,
		IntrospectDriver: cfg.Introspect.Driver,
		IntrospectURL:    cfg.Introspect.URL,
		Jobs:             cfg.Jobs,
		Logger:           logger,
	})
}

// Dialect returns the dialect queries are parsed with.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// QueriesDir returns the directory searched for query files.
func (e *Engine) QueriesDir() string {
	return e.queriesDir
}

// LoadSchema builds the schema model from the database, when one is
// configured, or from the schema file. Schema file failures wrap
// ErrSchemaParse and a *diagnostic.Diagnostic locating the problem.
func (e *Engine) LoadSchema(ctx context.Context) (*schema.Model, error) {
	if e.introspect.URL != "" {
		model, err := introspect.Load(ctx, e.introspect)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect schema: %w", err)
		}
		return model, nil
	}

	path := e.display(e.schemaFile)
	content, err := os.ReadFile(e.schemaFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaParse, diagnostic.FromError(path, "", err))
	}
	source := string(content)
	model, err := schema.FromSQL(source, e.dialect)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaParse, diagnostic.FromError(path, source, err))
	}
	e.logger.Debug("loaded schema", "path", path, "tables", model.Len())
	return model, nil
}

// Run loads the schema and analyzes every query file.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With("run_id", runID)

	model, err := e.LoadSchema(ctx)
	if err != nil {
		return nil, err
	}

	files, err := e.Discover()
	if err != nil {
		return nil, err
	}
	logger.Info("analyzing queries", "files", len(files), "tables", model.Len())

	r := resolver.New(model, e.dialect)
	results := make([]*FileResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.analyzeFile(r, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   runID,
		Dialect: e.dialect.Name,
		Model:   model,
		Schema:  model.Tables(),
		Files:   results,
	}
	for _, f := range results {
		report.Diagnostics = append(report.Diagnostics, f.Diagnostics...)
	}
	report.Duration = time.Since(start)

	logger.Info("analysis completed",
		"files", len(results),
		"statements", report.Statements(),
		"skipped", report.Skipped(),
		"errors", report.Diagnostics.Count(diagnostic.SeverityError),
		"warnings", report.Diagnostics.Count(diagnostic.SeverityWarning),
		"duration_ms", report.Duration.Milliseconds())

	return report, nil
}

// analyzeFile resolves every statement of one query file.
func (e *Engine) analyzeFile(r *resolver.Resolver, path string) *FileResult {
	res := &FileResult{Path: e.display(path)}

	content, err := os.ReadFile(path)
	if err != nil {
		e.logger.Warn("skipping unreadable query file", "path", res.Path, "error", err)
		res.Skipped = true
		res.Diagnostics = append(res.Diagnostics, diagnostic.FromError(res.Path, "", err))
		return res
	}
	source := string(content)

	analyses, err := r.ResolveSQL(source)
	if err != nil {
		e.logger.Warn("skipping query file", "path", res.Path, "error", err)
		res.Skipped = true
		res.Diagnostics = append(res.Diagnostics, diagnostic.FromError(res.Path, source, err))
		return res
	}

	res.Statements = analyses
	res.Diagnostics = append(res.Diagnostics, Findings(res.Path, source, analyses)...)
	e.logger.Debug("analyzed query file", "path", res.Path, "statements", len(analyses))
	return res
}

// Findings reports unresolved output fields as warnings and resolver
// notices as infos.
func Findings(path, source string, analyses []*resolver.QueryAnalysis) diagnostic.List {
	var out diagnostic.List
	for _, a := range analyses {
		for _, f := range a.Unresolved() {
			reason := f.Source.(resolver.Unresolved).Reason
			msg := fmt.Sprintf("output field %q is unresolved: %s", f.Name, reason)
			out = append(out, diagnostic.New(path, diagnostic.SeverityWarning, f.Pos, msg, source))
		}
		for _, n := range a.Notices {
			out = append(out, diagnostic.New(path, diagnostic.SeverityInfo, n.Pos, n.Message, source))
		}
	}
	return out
}

// display returns path relative to the project root, slash-separated.
func (e *Engine) display(path string) string {
	if e.root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(e.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
