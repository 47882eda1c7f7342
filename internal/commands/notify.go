package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/garyjia/expense-workflow/internal/application/service"
	"github.com/garyjia/expense-workflow/internal/container"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/event"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
)

func newNotifyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "notify <claim-id>",
		Short: "Send the notification for a claim's current status again",
		Long: `Rebuilds the submitted, approved or rejected notification of a claim from its
stored state and delivers it synchronously, so delivery errors are reported here.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid claim id %q", args[0])
			}

			return opts.withContainer(cmd.Context(), func(c *container.Container) error {
				evt, err := claimEvent(cmd.Context(), c.Services().Claim, opts.managerView(), id)
				if err != nil {
					return err
				}

				d := c.Dispatcher()
				if d.HandlerCount(evt.Type) == 0 {
					return fmt.Errorf("no notification target is configured (lark.enabled is false)")
				}
				if err := d.Dispatch(cmd.Context(), evt); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "sent %s for claim %d\n", evt.Type, id)
				return nil
			})
		},
	}
}

// claimEvent builds the event announcing the claim's current status.
// The reason of a rejection is the one recorded by the latest rejection.
func claimEvent(ctx context.Context, claims service.ClaimService, view policy.ViewContext, id int64) (*event.Event, error) {
	view.ClaimSelection = policy.ClaimSelection{ClaimID: id}
	cv, err := claims.Load(ctx, view, service.DraftAsk)
	if err != nil {
		return nil, err
	}

	claim := cv.Claim
	switch claim.Status {
	case entity.StatusSubmitted, entity.StatusModify:
		return event.NewEvent(event.TypeClaimSubmitted, claim, map[string]interface{}{
			event.KeyTotal: cv.Summary.Total,
		}), nil
	case entity.StatusApproved:
		return event.NewEvent(event.TypeClaimApproved, claim, nil), nil
	case entity.StatusRejected:
		history, err := claims.History(ctx, view, id)
		if err != nil {
			return nil, err
		}
		reason := ""
		for _, h := range history {
			if h.ToStatus == entity.StatusRejected {
				reason = h.Reason
			}
		}
		if reason == "" {
			return nil, fmt.Errorf("claim %d has no recorded rejection reason", id)
		}
		return event.NewEvent(event.TypeClaimRejected, claim, map[string]interface{}{
			event.KeyReason: reason,
		}), nil
	default:
		return nil, fmt.Errorf("claim %d is %s; there is nothing to notify", id, claim.Status)
	}
}
