package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

func newSettingsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the monthly fuel settings",
	}
	cmd.AddCommand(newSettingsShowCommand(opts))
	cmd.AddCommand(newSettingsSetFuelCommand(opts))
	return cmd
}

func newSettingsShowCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <period>",
		Short: "Print the fuel settings of a period (YYYY-MM)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := entity.ParsePeriod(args[0])
			if err != nil {
				return err
			}
			return opts.withContainer(cmd.Context(), func(c *container.Container) error {
				settings, err := c.Services().Settings.GetFuelSettings(cmd.Context(), period)
				if err != nil {
					return err
				}
				printFuelSettings(cmd.OutOrStdout(), settings)
				return nil
			})
		},
	}
}

func newSettingsSetFuelCommand(opts *globalOptions) *cobra.Command {
	var gasoline, diesel, lpg, baseEfficiency, maintenanceRate string

	cmd := &cobra.Command{
		Use:   "set-fuel <period>",
		Short: "Store the fuel prices and reference values of a period (YYYY-MM)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := entity.ParsePeriod(args[0])
			if err != nil {
				return err
			}

			settings := &entity.FuelSettings{Period: period}
			fields := []struct {
				flag  string
				value string
				dst   *decimal.Decimal
			}{
				{"gasoline", gasoline, &settings.GasolinePrice},
				{"diesel", diesel, &settings.DieselPrice},
				{"lpg", lpg, &settings.LPGPrice},
				{"base-efficiency", baseEfficiency, &settings.BaseEfficiency},
				{"maintenance-rate", maintenanceRate, &settings.MaintenanceRate},
			}
			for _, f := range fields {
				d, err := decimal.NewFromString(f.value)
				if err != nil {
					return fmt.Errorf("invalid --%s %q: %w", f.flag, f.value, err)
				}
				*f.dst = d
			}

			return opts.withContainer(cmd.Context(), func(c *container.Container) error {
				if err := c.Services().Settings.UpdateFuelSettings(cmd.Context(), opts.managerView(), settings); err != nil {
					return err
				}
				printFuelSettings(cmd.OutOrStdout(), settings)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&gasoline, "gasoline", "0", "gasoline unit price")
	cmd.Flags().StringVar(&diesel, "diesel", "0", "diesel unit price")
	cmd.Flags().StringVar(&lpg, "lpg", "0", "LPG unit price")
	cmd.Flags().StringVar(&baseEfficiency, "base-efficiency", "0", "reference efficiency in km per unit")
	cmd.Flags().StringVar(&maintenanceRate, "maintenance-rate", "1", "maintenance multiplier")

	return cmd
}

func printFuelSettings(out io.Writer, s *entity.FuelSettings) {
	fmt.Fprintf(out, "period:           %s\n", s.Period)
	fmt.Fprintf(out, "gasoline:         %s\n", s.GasolinePrice)
	fmt.Fprintf(out, "diesel:           %s\n", s.DieselPrice)
	fmt.Fprintf(out, "lpg:              %s\n", s.LPGPrice)
	fmt.Fprintf(out, "base efficiency:  %s\n", s.BaseEfficiency)
	fmt.Fprintf(out, "maintenance rate: %s\n", s.MaintenanceRate)
}
