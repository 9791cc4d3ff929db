// Package cli provides the command-line interface for butter.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/butter/internal/cli/commands"
	"github.com/leapstack-labs/butter/internal/cli/output"
	"github.com/leapstack-labs/butter/internal/config"
	"github.com/leapstack-labs/butter/pkg/diagnostic"
	"github.com/leapstack-labs/butter/pkg/dialect"
	_ "github.com/leapstack-labs/butter/pkg/dialects/all" // register dialects
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// skipConfig marks commands that run without loading the project file.
const skipConfig = "butter/skip-config"

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "butter",
		Short: "butter - typed fields for SQL queries",
		Long: `butter reads a SQL schema and a directory of queries, and reports for
every statement where each output column comes from, what type it has,
and what type each bound parameter must have.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "__complete" || cmd.Annotations[skipConfig] == "true" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = config.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)

			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			logger.Debug("project", "root", cfg.ProjectRoot, "dialect", cfg.Generate.Dialect)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: ./butter.yaml, butter.yml or butter.toml, searched upward)")
	pf.StringP("project-dir", "C", "", "Project root directory")
	pf.String("dialect", "", "SQL dialect (generic|sqlite|postgresql|mysql)")
	pf.String("queries-dir", "", "Path to queries directory")
	pf.String("schema-file", "", "Path to schema file")
	pf.StringP("output", "o", "", "Output format (auto|text|markdown|json|yaml)")
	pf.BoolP("verbose", "v", false, "Verbose output")
	pf.Int("jobs", 0, "Number of query files analyzed in parallel")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		modes := make([]string, 0, len(output.Modes))
		for _, m := range output.Modes {
			modes = append(modes, string(m))
		}
		return modes, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return dialect.List(), cobra.ShellCompDirectiveNoFileComp
	})

	noConfig := map[string]string{skipConfig: "true"}
	withoutConfig := func(c *cobra.Command) *cobra.Command {
		c.Annotations = noConfig
		return c
	}

	rootCmd.AddCommand(withoutConfig(commands.NewVersionCommand(Version)))
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewReplCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(withoutConfig(commands.NewInitCommand()))
	rootCmd.AddCommand(withoutConfig(commands.NewDialectsCommand()))
	rootCmd.AddCommand(withoutConfig(NewCompletionCommand()))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return execute(NewRootCmd(), os.Stderr)
}

func execute(rootCmd *cobra.Command, stderr io.Writer) error {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		var d *diagnostic.Diagnostic
		if errors.As(err, &d) && d.Excerpt != "" {
			for _, line := range strings.Split(d.Excerpt, "\n") {
				_, _ = fmt.Fprintf(stderr, "    %s\n", line)
			}
		}
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for butter.

To load completions:

Bash:
  $ source <(butter completion bash)

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  $ butter completion zsh > "${fpath[1]}/_butter"

Fish:
  $ butter completion fish | source

PowerShell:
  PS> butter completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
