// Package commands implements the expensectl administration CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/config"
	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	"github.com/garyjia/expense-workflow/pkg/utils"
)

// Version is set at build time
var Version = "dev"

type globalOptions struct {
	configPath string
	verbose    bool
	actorID    string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:     "expensectl",
		Short:   "Administer expense claims, fuel settings and statements",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			_ = gotenv.Load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml (defaults and environment when empty)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&opts.actorID, "as", "expensectl", "manager id recorded for changes")

	rootCmd.AddCommand(newQuoteCommand())
	rootCmd.AddCommand(newSettingsCommand(opts))
	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newNotifyCommand(opts))

	return rootCmd
}

// managerView is the identity the CLI acts with
func (o *globalOptions) managerView() policy.ViewContext {
	return policy.ViewContext{ViewerRole: policy.RoleManager, ViewerID: o.actorID}
}

// withContainer starts the application container for the duration of fn
func (o *globalOptions) withContainer(ctx context.Context, fn func(c *container.Container) error) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewCLILogger(o.verbose)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("closing container", zap.Error(err))
		}
	}()

	return fn(c)
}
