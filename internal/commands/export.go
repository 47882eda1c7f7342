package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

func newExportCommand(opts *globalOptions) *cobra.Command {
	var claimID int64
	var output string

	cmd := &cobra.Command{
		Use:   "export [period]",
		Short: "Write the pay statements of a period, or of one claim, to a workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (claimID > 0) == (len(args) == 1) {
				return fmt.Errorf("give either a period or --claim")
			}

			var period entity.Period
			if len(args) == 1 {
				p, err := entity.ParsePeriod(args[0])
				if err != nil {
					return err
				}
				period = p
			}

			return opts.withContainer(cmd.Context(), func(c *container.Container) error {
				exports := c.Services().Export
				if output == "" {
					name := period.String()
					if claimID > 0 {
						name = fmt.Sprintf("claim-%d", claimID)
					}
					output = "expense-" + name + exports.Extension()
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}

				if claimID > 0 {
					err = exports.ExportClaim(cmd.Context(), opts.managerView(), claimID, f)
				} else {
					err = exports.ExportPeriod(cmd.Context(), opts.managerView(), period, f)
				}
				if closeErr := f.Close(); err == nil {
					err = closeErr
				}
				if err != nil {
					_ = os.Remove(output)
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&claimID, "claim", 0, "export a single claim by id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")

	return cmd
}
