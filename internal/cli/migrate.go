package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := sqlite.Migrate(cfg.Database.Path); err != nil {
			return err
		}
		slog.Info("Migrations applied", "database", cfg.Database.Path)
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}
