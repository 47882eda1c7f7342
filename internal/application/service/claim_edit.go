package service

import (
	"context"
	"errors"
	"fmt"

	appwf "github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/importer"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Save persists the claim content. A manager saving a SUBMITTED claim moves it to MODIFY.
func (s *claimServiceImpl) Save(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error) {
	merged, _, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(merged, view) {
		return nil, entity.ErrNotEditable
	}

	managerEditing := policy.ManagerEditing(merged, view)
	target := merged.Status
	if managerEditing && merged.Status == entity.StatusSubmitted {
		machine, err := machineFor(merged, noGuards)
		if err != nil {
			return nil, err
		}
		if err := machine.Fire(ctx, domainwf.TriggerModify); err != nil {
			return nil, fmt.Errorf("modify claim %d: %w", merged.ID, err)
		}
		target = appwf.StatusOf(machine.State())
	}

	settings, err := s.fuelSettings(ctx, merged.Period)
	if err != nil {
		return nil, err
	}
	stamped := s.calc.Stamp(merged, payment.NewContext(merged, managerEditing), payment.NewPricing(settings, merged))

	if err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.saveClaim(txCtx, stamped, target); err != nil {
			return err
		}
		if target != merged.Status {
			return s.recordHistory(txCtx, stamped.ID, merged.Status, target, view.ViewerID, "")
		}
		return nil
	}); err != nil {
		s.logger.Error("Failed to save claim", "claim_id", merged.ID, "owner_id", merged.OwnerID, "error", err)
		return nil, entity.NewTransportError("save claim", err)
	}

	stamped.Status = target
	stamped.DeletedRowIDs = nil
	s.logger.Info("Claim saved", "claim_id", stamped.ID, "status", target, "rows", len(stamped.Rows))
	return s.buildView(ctx, view, stamped)
}

// saveClaim writes the claim through the gateway and turns a rejected save into an error
func (s *claimServiceImpl) saveClaim(ctx context.Context, claim *entity.ExpenseClaim, target entity.Status) error {
	res, err := s.gateway.SaveClaim(ctx, claim, target)
	if err != nil {
		return err
	}
	if !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "save rejected"
		}
		return errors.New(msg)
	}
	return nil
}

// DeleteRow removes the row at index. Rows of a claim under manager review are deleted on the server at once;
// otherwise persisted rows are queued for the next save.
func (s *claimServiceImpl) DeleteRow(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, index int) (*ClaimView, error) {
	merged, server, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}

	decision, err := policy.CheckRowDeletion(merged, index, view)
	if err != nil {
		return nil, err
	}

	row := merged.Rows[index]
	switch {
	case decision == policy.DeletionImmediate:
		if storedRowsLeft(server, merged.DeletedRowIDs, *row.RowID) == 0 {
			return nil, entity.ErrLastRow
		}
		if err := s.gateway.DeleteRow(ctx, merged.ID, *row.RowID); err != nil {
			s.logger.Error("Failed to delete row", "claim_id", merged.ID, "row_id", *row.RowID, "error", err)
			return nil, entity.NewTransportError("delete row", err)
		}
		s.logger.Info("Row deleted", "claim_id", merged.ID, "row_id", *row.RowID)
	case row.IsPersisted():
		merged.DeletedRowIDs = append(merged.DeletedRowIDs, *row.RowID)
	}

	merged.Rows = append(merged.Rows[:index:index], merged.Rows[index+1:]...)
	return s.buildView(ctx, view, merged)
}

// storedRowsLeft counts the server rows that remain once rowID and the queued deletions are gone
func storedRowsLeft(server *entity.ExpenseClaim, queued []int64, rowID int64) int {
	if server == nil {
		return 0
	}
	gone := make(map[int64]bool, len(queued)+1)
	gone[rowID] = true
	for _, id := range queued {
		gone[id] = true
	}
	left := 0
	for _, row := range server.Rows {
		if row.RowID == nil || !gone[*row.RowID] {
			left++
		}
	}
	return left
}

// ConfirmRow sets the manager confirmation flag of the row at index
func (s *claimServiceImpl) ConfirmRow(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, index int, confirmed bool) (*ClaimView, error) {
	merged, _, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}
	if err := policy.CheckRowConfirm(merged, index, view); err != nil {
		return nil, err
	}

	merged.Rows[index].ManagerConfirmed = confirmed
	return s.buildView(ctx, view, merged)
}

// ImportRows appends the saved rows of another period of the same owner, re-dated into the claim period.
// A zero source means the previous month.
func (s *claimServiceImpl) ImportRows(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, source entity.Period) (*ClaimView, error) {
	merged, _, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}
	if !policy.CanEdit(merged, view) {
		return nil, entity.ErrNotEditable
	}
	if source.IsZero() {
		source = merged.Period.Prev()
	}
	if source == merged.Period {
		return nil, fmt.Errorf("%w: cannot import from %q", entity.ErrInvalidPeriod, source.String())
	}

	src, err := s.gateway.FetchClaim(ctx, source, merged.OwnerID)
	if err != nil {
		return nil, entity.NewTransportError("fetch source claim", err)
	}
	if !src.HasCommittedRows() {
		return nil, fmt.Errorf("%w: no saved rows in %s", entity.ErrClaimNotFound, source)
	}

	imported := importer.AppendImported(merged, src.CommittedRows())
	s.logger.Info("Rows imported", "owner_id", merged.OwnerID, "from", source.String(), "to", merged.Period.String(),
		"count", len(imported.Rows)-len(merged.Rows))
	return s.buildView(ctx, view, imported)
}
