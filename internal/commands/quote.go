package commands

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
)

type fuelQuoteOptions struct {
	fuelType          string
	unitPrice         string
	distance          string
	baseEfficiency    string
	vehicleEfficiency string
	maintenanceRate   string
	tollFee           string
}

func newQuoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price reimbursements without touching stored claims",
	}
	cmd.AddCommand(newQuoteFuelCommand())
	return cmd
}

func newQuoteFuelCommand() *cobra.Command {
	opts := &fuelQuoteOptions{}

	cmd := &cobra.Command{
		Use:   "fuel",
		Short: "Compute the fuel reimbursement of one trip",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuoteFuel(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.fuelType, "fuel", entity.FuelGasoline, "fuel type (gasoline, diesel, lpg, none)")
	cmd.Flags().StringVar(&opts.unitPrice, "price", "", "fuel unit price (required)")
	_ = cmd.MarkFlagRequired("price")
	cmd.Flags().StringVar(&opts.distance, "distance", "0", "distance in km")
	cmd.Flags().StringVar(&opts.baseEfficiency, "base-efficiency", "", "base efficiency in km per unit")
	cmd.Flags().StringVar(&opts.vehicleEfficiency, "vehicle-efficiency", "", "reported vehicle efficiency; derives the base efficiency")
	cmd.Flags().StringVar(&opts.maintenanceRate, "maintenance-rate", "1", "maintenance multiplier")
	cmd.Flags().StringVar(&opts.tollFee, "toll", "0", "toll fee")

	return cmd
}

func runQuoteFuel(out io.Writer, opts *fuelQuoteOptions) error {
	calc := payment.NewCalculator(payment.DefaultRules())

	price, err := decimal.NewFromString(opts.unitPrice)
	if err != nil {
		return fmt.Errorf("invalid --price %q: %w", opts.unitPrice, err)
	}

	base := money.ParseDecimal(opts.baseEfficiency)
	if opts.vehicleEfficiency != "" {
		base = calc.DeriveBaseEfficiency(money.ParseDecimal(opts.vehicleEfficiency))
	}
	if !base.IsPositive() && opts.fuelType != entity.FuelNone {
		return fmt.Errorf("a positive --base-efficiency or --vehicle-efficiency is required")
	}

	fuel := entity.FuelType{Name: opts.fuelType, UnitPrice: price, BaseEfficiency: base}
	cost := calc.FuelCost(fuel, money.ParseDecimal(opts.distance), base, money.ParseDecimal(opts.maintenanceRate))
	toll := money.Parse(opts.tollFee)

	fmt.Fprintf(out, "base efficiency: %s\n", base.String())
	fmt.Fprintf(out, "fuel cost:       %s\n", money.Format(cost))
	fmt.Fprintf(out, "toll fee:        %s\n", money.Format(toll))
	fmt.Fprintf(out, "total:           %s\n", money.Format(cost+toll))
	return nil
}
