package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/butter/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis over HTTP",
		Long: `Analyze the project and serve the result as JSON.

Endpoints:
  GET  /healthz          status of the last run
  GET  /schema           tables and columns
  GET  /queries          every analyzed query file
  GET  /queries/<path>   one query file
  POST /analyze          resolve {"sql": "..."} against the schema
  GET  /events           server-sent events after each run`,
		Example: `  butter serve --addr :9000 --watch
  curl -s localhost:9000/analyze -d '{"sql": "SELECT id FROM users WHERE email = ?"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = cc.Cfg.Serve.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cc.Renderer.Println(cc.Renderer.Muted("Serving on " + addr + " (Ctrl+C to stop)"))

			srv := server.New(server.Config{
				Engine: cc.Engine,
				Addr:   addr,
				Watch:  watch,
				Logger: cc.Logger,
			})
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from serve.addr)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload when query, schema or project files change")

	return cmd
}
