package cmd

import (
	"fmt"

	"dharmaverse/database"
	"dharmaverse/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the database schema.

Examples:
  dharmaverse migrate
  dharmaverse migrate --seed
  DHARMA_DATABASE_DRIVER=mysql DHARMA_DATABASE_DSN='user:pass@tcp(localhost:3306)/dharma' dharmaverse migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(true)
			if err != nil {
				return err
			}

			if err := database.Initialize(cfg.Database.Driver, cfg.Database.DSN); err != nil {
				return err
			}
			defer database.Close()

			if seed {
				if err := database.Seed(cmd.Context(), database.DB); err != nil {
					return fmt.Errorf("seed database: %w", err)
				}
				logger.Info("Seed data loaded")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Database migrated (%s)\n", cfg.Database.Driver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "load sample challenges and the achievement catalog")
	return cmd
}
