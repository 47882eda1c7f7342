package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/config"
	"github.com/garyjia/expense-workflow/pkg/database"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := utils.NewCLILogger(opts.verbose)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer logger.Sync()

			db, err := database.New(database.Config{
				Path:            cfg.Database.Path,
				MaxOpenConns:    cfg.Database.MaxOpenConns,
				MaxIdleConns:    cfg.Database.MaxIdleConns,
				ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Warn("closing database", zap.Error(err))
				}
			}()

			migrator := database.NewMigrator(db, database.Migrations(), logger)
			out := cmd.OutOrStdout()

			if !statusOnly {
				applied, err := migrator.Run(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "applied %d migration(s)\n", applied)
			}

			statuses, err := migrator.Status(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(out, "%03d %-30s %s\n", s.Version, s.Name, state)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "only list migrations")

	return cmd
}
