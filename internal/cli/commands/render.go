package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/butter/internal/cli/output"
	"github.com/leapstack-labs/butter/internal/engine"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/resolver"
	"github.com/leapstack-labs/butter/pkg/schema"
)

// schemaOutput is the structured form of "butter schema".
type schemaOutput struct {
	Dialect string          `json:"dialect" yaml:"dialect"`
	Tables  []*schema.Table `json:"tables" yaml:"tables"`
}

// checkOutput is the structured form of "butter check".
type checkOutput struct {
	Files       int             `json:"files" yaml:"files"`
	Errors      int             `json:"errors" yaml:"errors"`
	Warnings    int             `json:"warnings" yaml:"warnings"`
	Diagnostics diagnostic.List `json:"diagnostics" yaml:"diagnostics"`
}

func renderTables(r *output.Renderer, tables []*schema.Table) {
	if len(tables) == 0 {
		r.Println(r.Muted("(no tables)"))
		return
	}
	for _, t := range tables {
		r.Header(3, t.String())
		rows := make([][]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			rows = append(rows, []string{c.Name, orUnknown(c.Type)})
		}
		r.Table([]string{"Column", "Type"}, rows)
	}
}

// renderReport prints the schema and every analyzed statement, the way
// "butter generate" shows a run.
func renderReport(r *output.Renderer, report *engine.Report) error {
	if ok, err := r.Encode(report); ok {
		return err
	}

	r.Header(1, "Schema")
	renderTables(r, report.Schema)
	r.Println()

	r.Header(1, "Queries")
	if len(report.Files) == 0 {
		r.Println(r.Muted("(no query files)"))
	}
	for _, f := range report.Files {
		renderFile(r, f)
	}

	if len(report.Diagnostics) > 0 {
		r.Header(1, "Diagnostics")
		renderDiagnostics(r, report.Diagnostics)
	}
	r.Println(r.Muted(report.Summary()))
	return nil
}

func renderFile(r *output.Renderer, f *engine.FileResult) {
	r.Header(2, f.Path)
	if f.Skipped {
		r.StatusLine(f.Path, "error", "skipped")
		r.Println()
		return
	}
	if len(f.Statements) == 0 {
		r.Println(r.Muted("(no statements)"))
		r.Println()
		return
	}
	for i, a := range f.Statements {
		renderAnalysis(r, i+1, a)
	}
}

func renderAnalysis(r *output.Renderer, n int, a *resolver.QueryAnalysis) {
	title := fmt.Sprintf("Statement %d: %s", n, a.Kind)
	if a.Pos.Line > 0 {
		title += fmt.Sprintf(" (line %d)", a.Pos.Line)
	}
	r.Header(4, title)

	if len(a.Outputs) > 0 {
		rows := make([][]string, 0, len(a.Outputs))
		for _, f := range a.Outputs {
			rows = append(rows, []string{f.Name, orUnknown(f.Type), describeSource(f.Source)})
		}
		r.Println(r.Styles().Bold.Render("Outputs"))
		r.Table([]string{"Name", "Type", "Source"}, rows)
	}

	if len(a.Inputs) > 0 {
		rows := make([][]string, 0, len(a.Inputs))
		for _, f := range a.Inputs {
			rows = append(rows, []string{strconv.Itoa(f.Ordinal), f.Name, orUnknown(f.Type)})
		}
		r.Println(r.Styles().Bold.Render("Inputs"))
		r.Table([]string{"#", "Name", "Type"}, rows)
	}

	if len(a.Outputs) == 0 && len(a.Inputs) == 0 {
		r.Println(r.Muted("(no fields)"))
	}
	r.Println()
}

func renderDiagnostics(r *output.Renderer, diags diagnostic.List) {
	for _, d := range diags {
		r.Printf("%s %s\n", severityLabel(r, d.Severity), d.Error())
		if d.Excerpt != "" {
			r.CodeBlock("sql", d.Excerpt)
		}
	}
	r.Println()
}

func severityLabel(r *output.Renderer, sev diagnostic.Severity) string {
	if r.EffectiveMode() == output.ModeMarkdown {
		return "-"
	}
	switch sev {
	case diagnostic.SeverityError:
		return r.Styles().Error.Render("✗")
	case diagnostic.SeverityWarning:
		return r.Styles().Warning.Render("!")
	default:
		return r.Styles().Info.Render("i")
	}
}

// describeSource renders a provenance for tables: "users.email" for a
// column, "= expr" for a computed field and "? reason" when unresolved.
func describeSource(src resolver.Source) string {
	switch s := src.(type) {
	case resolver.TableColumn:
		return s.Ref().String() + "." + s.Column
	case resolver.Computed:
		return "= " + s.Expression
	case resolver.Unresolved:
		return "? " + s.Reason
	}
	return ""
}

func orUnknown(typ string) string {
	if strings.TrimSpace(typ) == "" {
		return "?"
	}
	return typ
}
