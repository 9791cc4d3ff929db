package engine

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/resolver"
	"github.com/leapstack-labs/butter/pkg/schema"
)

// FileResult is the analysis of one query file.
type FileResult struct {
	Path        string                    `json:"path" yaml:"path"`
	Skipped     bool                      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Statements  []*resolver.QueryAnalysis `json:"statements" yaml:"statements"`
	Diagnostics diagnostic.List           `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// Report is the result of one run.
type Report struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	Dialect     string          `json:"dialect" yaml:"dialect"`
	Model       *schema.Model   `json:"-" yaml:"-"`
	Schema      []*schema.Table `json:"schema" yaml:"schema"`
	Files       []*FileResult   `json:"files" yaml:"files"`
	Diagnostics diagnostic.List `json:"-" yaml:"-"`
	Duration    time.Duration   `json:"-" yaml:"-"`
}

// Statements returns the number of analyzed statements.
func (r *Report) Statements() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Statements)
	}
	return n
}

// Skipped returns the number of files that could not be analyzed.
func (r *Report) Skipped() int {
	n := 0
	for _, f := range r.Files {
		if f.Skipped {
			n++
		}
	}
	return n
}

// HasErrors reports whether any file failed.
func (r *Report) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Summary returns a human-readable summary.
func (r *Report) Summary() string {
	return fmt.Sprintf(
		"Files: %d (%d skipped) | Statements: %d | Errors: %d | Warnings: %d | Duration: %s",
		len(r.Files), r.Skipped(), r.Statements(),
		r.Diagnostics.Count(diagnostic.SeverityError),
		r.Diagnostics.Count(diagnostic.SeverityWarning),
		r.Duration.Round(time.Millisecond),
	)
}
