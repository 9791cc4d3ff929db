package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/butter/internal/engine"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/spf13/cobra"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"analyze"},
		Short:   "Analyze all query files against the schema",
		Long: `Load the schema, then resolve every statement in the queries directory.

For each statement the output fields (name, type, source column or
expression) and the input parameters (name, inferred type) are printed.
Query files that fail to parse are reported and skipped; a schema that
fails to parse stops the run.`,
		Example: `  # Analyze the project in the current directory
  butter generate

  # Machine-readable output
  butter generate -o json

  # Re-run on every change
  butter generate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if watch {
				return runWatch(cmd.Context(), cc)
			}

			report, err := cc.Engine.Run(cmd.Context())
			if err != nil {
				return err
			}
			return renderReport(cc.Renderer, report)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run when query, schema or project files change")

	return cmd
}

func runWatch(ctx context.Context, cc *CommandContext) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cc.Renderer
	r.Println(r.Muted("Watching " + cc.Engine.QueriesDir() + " (Ctrl+C to stop)"))

	return cc.Engine.Watch(ctx, func(report *engine.Report, err error) {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			var d *diagnostic.Diagnostic
			if errors.As(err, &d) {
				r.Warning(d.Long())
				return
			}
			r.Warning(err.Error())
			return
		}
		if err := renderReport(r, report); err != nil {
			cc.Logger.Error("failed to render report", "error", err)
		}
	})
}
