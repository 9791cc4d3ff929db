// Package commands implements the butter subcommands.
package commands

import (
	"log/slog"

	"github.com/leapstack-labs/butter/internal/cli/output"
	"github.com/leapstack-labs/butter/internal/config"
	"github.com/leapstack-labs/butter/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cc := NewCommandContextWithoutEngine(cmd)

	eng, err := engine.FromConfig(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}
	cc.Engine = eng
	return cc, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't read the project.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	// Validated by config.Load; an unknown value falls back to auto.
	mode, _ := output.ParseMode(cfg.Output)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}
