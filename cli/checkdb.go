package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/xiaoyuanzhu-com/todo-api/config"
	"github.com/xiaoyuanzhu-com/todo-api/db"
	"github.com/xiaoyuanzhu-com/todo-api/log"
)

// NewCheckDBCommand creates the check-db command.
func NewCheckDBCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-db",
		Short: "Run the startup readiness gate against DATABASE_URL and exit",
		Long: `Run the same connect-and-probe retry loop the server uses at startup,
without migrating or serving. Exits 0 once the database answers and 1 when
the retry budget is exhausted. Useful as a container init step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			msg, err := checkDB(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func checkDB(ctx context.Context, cfg *config.Config) (string, error) {
	target, err := db.ParseTarget(cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("database target is invalid")
		return "", &db.StartupError{Target: "<invalid>", Err: err}
	}
	if target.IsMemory() {
		return "memory store selected; nothing to check", nil
	}

	gate := db.NewGate(cfg.DBConnectRetries, cfg.DBConnectDelay)
	conn, err := gate.Wait(ctx, target, db.Connect(target, cfg.DBConnectTimeout))
	if err != nil {
		return "", err
	}
	conn.Close()

	return fmt.Sprintf("database %s is ready", target.Redacted()), nil
}
