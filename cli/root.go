package cli

import (
	"github.com/spf13/cobra"
	"github.com/xiaoyuanzhu-com/todo-api/config"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFiles []string
}

// NewRootCommand creates the root command for the todo API. Running it with
// no subcommand serves HTTP.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	serve := NewServeCommand(opts)

	cmd := &cobra.Command{
		Use:           "todo-api",
		Short:         "Minimal to-do HTTP service",
		Long:          "A to-do HTTP service that waits for its database to become ready before serving.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "env files to load before reading the environment")

	cmd.AddCommand(serve)
	cmd.AddCommand(NewCheckDBCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadConfig reads configuration and configures the global logger from it.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.EnvFiles...)
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.IsDevelopment(), cfg.LogLevel)
	return cfg, nil
}
