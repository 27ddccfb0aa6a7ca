package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xiaoyuanzhu-com/todo-api/config"
	"github.com/xiaoyuanzhu-com/todo-api/db"
	"github.com/xiaoyuanzhu-com/todo-api/server"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Wait for the database and apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}

			version, err := migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", version)
			return nil
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config) (int, error) {
	dbCfg := server.DBConfig(cfg)
	dbCfg.AutoMigrate = true

	d, err := db.Open(ctx, dbCfg)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	return d.CurrentVersion(ctx)
}
