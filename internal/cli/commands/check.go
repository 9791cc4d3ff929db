package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/spf13/cobra"
)

// ErrCheckFailed is returned when check finds problems.
var ErrCheckFailed = errors.New("check failed")

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report problems in query files",
		Long: `Analyze every query file and print only the diagnostics.

Exits with status 1 when a file could not be parsed. With --strict,
unresolved output fields (warnings) fail the check too.`,
		Example: `  # Use in CI
  butter check --strict -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			report, err := cc.Engine.Run(cmd.Context())
			if err != nil {
				return err
			}

			diags := report.Diagnostics
			if diags == nil {
				diags = diagnostic.List{}
			}
			errs := diags.Count(diagnostic.SeverityError)
			warns := diags.Count(diagnostic.SeverityWarning)

			r := cc.Renderer
			ok, err := r.Encode(checkOutput{Files: len(report.Files), Errors: errs, Warnings: warns, Diagnostics: diags})
			if err != nil {
				return err
			}
			if !ok {
				if len(diags) == 0 {
					r.Success(fmt.Sprintf("%d files, no problems found", len(report.Files)))
				} else {
					renderDiagnostics(r, diags)
					r.Println(r.Muted(report.Summary()))
				}
			}

			if errs > 0 || (strict && warns > 0) {
				return fmt.Errorf("%w: %d errors, %d warnings", ErrCheckFailed, errs, warns)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}
