package service

import (
	"context"
	"fmt"
	"strings"

	appwf "github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	"github.com/garyjia/expense-workflow/internal/domain/validation"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

var noGuards = appwf.Guards{}

// Submit validates and persists the claim as SUBMITTED. The cached draft is cleared only after the server accepted it.
func (s *claimServiceImpl) Submit(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error) {
	merged, _, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}
	if err := policy.AuthorizeTrigger(merged, view, domainwf.TriggerSubmit); err != nil {
		return nil, err
	}
	if !policy.CanEdit(merged, view) {
		return nil, entity.ErrNotEditable
	}

	settings, err := s.fuelSettings(ctx, merged.Period)
	if err != nil {
		return nil, err
	}
	catalog := settings.Catalog()

	machine, err := machineFor(merged, appwf.Guards{
		Submit: func(context.Context) error {
			return validation.ValidateClaim(merged, catalog)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, domainwf.TriggerSubmit); err != nil {
		return nil, unwrapGuard("submit claim", err)
	}
	target := appwf.StatusOf(machine.State())

	pricing := payment.NewPricing(settings, merged)
	stamped := s.calc.Stamp(merged, payment.NewContext(merged, false), pricing)

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.saveClaim(txCtx, stamped, target); err != nil {
			return err
		}
		return s.recordHistory(txCtx, stamped.ID, merged.Status, target, view.ViewerID, "")
	}); err != nil {
		s.logger.Error("Failed to submit claim", "claim_id", merged.ID, "owner_id", merged.OwnerID, "error", err)
		return nil, entity.NewTransportError("submit claim", err)
	}

	stamped.Status = target
	stamped.DeletedRowIDs = nil
	s.clearDraft(ctx, draft.KeyFor(stamped))

	total := s.calc.Total(stamped.Rows, payment.NewContext(stamped, false), pricing)
	if err := s.notifier.ClaimSubmitted(ctx, stamped, total); err != nil {
		s.logger.Error("Failed to send submit notification", "claim_id", stamped.ID, "error", err)
	}

	s.logger.Info("Claim submitted", "claim_id", stamped.ID, "owner_id", stamped.OwnerID, "total", total)
	return s.buildView(ctx, view, stamped)
}

// Approve moves a reviewed claim to APPROVED and drops the owner's cached draft
func (s *claimServiceImpl) Approve(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error) {
	claim, err := s.transition(ctx, view, claimID, expected, domainwf.TriggerApprove, "", nil)
	if err != nil {
		return nil, err
	}

	s.clearDraft(ctx, draft.KeyFor(claim))
	if err := s.notifier.ClaimApproved(ctx, claim); err != nil {
		s.logger.Error("Failed to send approval notification", "claim_id", claim.ID, "error", err)
	}
	return s.buildView(ctx, view, claim)
}

// Reject returns the claim to its owner. A reason is required.
func (s *claimServiceImpl) Reject(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status, reason string) (*ClaimView, error) {
	reason = strings.TrimSpace(reason)
	claim, err := s.transition(ctx, view, claimID, expected, domainwf.TriggerReject, reason,
		func(*entity.ExpenseClaim) appwf.Guards {
			return appwf.Guards{
				Reject: func(context.Context) error {
					if reason == "" {
						return entity.ErrReasonRequired
					}
					return nil
				},
			}
		})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.ClaimRejected(ctx, claim, reason); err != nil {
		s.logger.Error("Failed to send rejection notification", "claim_id", claim.ID, "error", err)
	}
	return s.buildView(ctx, view, claim)
}

// Complete closes an approved claim after payout
func (s *claimServiceImpl) Complete(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error) {
	claim, err := s.transition(ctx, view, claimID, expected, domainwf.TriggerComplete, "", nil)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, view, claim)
}

// Reopen returns a rejected claim to DRAFT
func (s *claimServiceImpl) Reopen(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error) {
	claim, err := s.transition(ctx, view, claimID, expected, domainwf.TriggerReopen, "", nil)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, view, claim)
}

// MarkNotSubmitted closes a DRAFT claim with nothing to pay
func (s *claimServiceImpl) MarkNotSubmitted(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error) {
	claim, err := s.transition(ctx, view, claimID, expected, domainwf.TriggerMarkNotSubmitted, "",
		func(current *entity.ExpenseClaim) appwf.Guards {
			return appwf.Guards{
				NotSubmitted: func(ctx context.Context) error {
					settings, err := s.fuelSettings(ctx, current.Period)
					if err != nil {
						return err
					}
					total := s.calc.Total(current.Rows, payment.NewContext(current, false), payment.NewPricing(settings, current))
					if total > 0 {
						return fmt.Errorf("%w: claim has payable rows totaling %s", entity.ErrValidation, money.Format(total))
					}
					return nil
				},
			}
		})
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, view, claim)
}

// Check sets the manager lock. Checking an already locked claim is a no-op.
func (s *claimServiceImpl) Check(ctx context.Context, view policy.ViewContext, claimID int64) (*ClaimView, error) {
	current, err := s.fetchByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckManagerLock(current, view); err != nil {
		return nil, err
	}
	if current.ManagerChecked {
		return s.buildView(ctx, view, current)
	}

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.gateway.SetManagerChecked(txCtx, claimID); err != nil {
			return fmt.Errorf("set manager checked: %w", err)
		}
		return s.recordHistory(txCtx, claimID, current.Status, current.Status, view.ViewerID, "manager check")
	}); err != nil {
		s.logger.Error("Failed to check claim", "claim_id", claimID, "error", err)
		return nil, entity.NewTransportError("check claim", err)
	}

	current.ManagerChecked = true
	s.logger.Info("Claim checked", "claim_id", claimID, "manager_id", view.ViewerID)
	return s.buildView(ctx, view, current)
}

// transition fires trigger on the stored claim and persists the new status with its audit entry
func (s *claimServiceImpl) transition(
	ctx context.Context,
	view policy.ViewContext,
	claimID int64,
	expected entity.Status,
	trigger domainwf.Trigger,
	reason string,
	guardsFor func(*entity.ExpenseClaim) appwf.Guards,
) (*entity.ExpenseClaim, error) {
	current, err := s.fetchByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if expected != "" && current.Status != expected {
		return nil, &entity.StaleStateError{ClaimID: claimID, Expected: expected, Actual: current.Status}
	}
	if err := policy.AuthorizeTrigger(current, view, trigger); err != nil {
		return nil, err
	}

	guards := noGuards
	if guardsFor != nil {
		guards = guardsFor(current)
	}
	machine, err := machineFor(current, guards)
	if err != nil {
		return nil, err
	}
	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, unwrapGuard(fmt.Sprintf("%s claim %d", strings.ToLower(trigger.String()), claimID), err)
	}

	from := current.Status
	to := appwf.StatusOf(machine.State())
	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.gateway.UpdateClaimStatus(txCtx, claimID, to, reason); err != nil {
			return fmt.Errorf("update claim status: %w", err)
		}
		return s.recordHistory(txCtx, claimID, from, to, view.ViewerID, reason)
	}); err != nil {
		s.logger.Error("Failed to update claim status", "claim_id", claimID, "from", from, "to", to, "error", err)
		return nil, entity.NewTransportError("update claim status", err)
	}

	updated := current.Clone()
	updated.Status = to
	s.logger.Info("Claim status changed", "claim_id", claimID, "from", from, "to", to, "actor", view.ViewerID)
	return updated, nil
}
