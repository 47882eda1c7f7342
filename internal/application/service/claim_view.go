package service

import (
	"context"
	"time"

	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// ClaimView is a claim as seen by one viewer
type ClaimView struct {
	Claim          *entity.ExpenseClaim `json:"claim"`
	Editable       bool                 `json:"editable"`
	ManagerEditing bool                 `json:"manager_editing"`
	Summary        payment.Summary      `json:"summary"`
	Actions        []domainwf.Trigger   `json:"actions"`
	FuelTypes      []entity.FuelType    `json:"fuel_types"`
	DraftOutcome   draft.Outcome        `json:"draft_outcome,omitempty"`
	DraftShadowed  bool                 `json:"draft_shadowed,omitempty"`
}

// ClaimSummary is one line of a period listing
type ClaimSummary struct {
	ID             int64         `json:"id"`
	Period         entity.Period `json:"period"`
	OwnerID        string        `json:"owner_id"`
	Status         entity.Status `json:"status"`
	ManagerChecked bool          `json:"manager_checked"`
	RowCount       int           `json:"row_count"`
	Total          int64         `json:"total"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

var fuelOrder = []string{entity.FuelGasoline, entity.FuelDiesel, entity.FuelLPG, entity.FuelNone}

func (s *claimServiceImpl) buildView(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error) {
	settings, err := s.fuelSettings(ctx, claim.Period)
	if err != nil {
		return nil, err
	}

	managerEditing := policy.ManagerEditing(claim, view)
	pricing := payment.NewPricing(settings, claim)

	cv := &ClaimView{
		Claim:          claim,
		Editable:       policy.CanEdit(claim, view),
		ManagerEditing: managerEditing,
		Summary:        s.calc.Summarize(claim, payment.NewContext(claim, managerEditing), pricing),
		Actions:        permittedActions(claim, view),
	}
	for _, name := range fuelOrder {
		if ft, ok := pricing.Catalog.Lookup(name); ok {
			cv.FuelTypes = append(cv.FuelTypes, ft)
		}
	}
	return cv, nil
}

// permittedActions lists the triggers the viewer could fire now. Guards are not evaluated.
func permittedActions(claim *entity.ExpenseClaim, view policy.ViewContext) []domainwf.Trigger {
	actions := []domainwf.Trigger{}
	if claim.ID == 0 {
		// an unsaved claim can only be submitted
		if policy.AuthorizeTrigger(claim, view, domainwf.TriggerSubmit) == nil {
			actions = append(actions, domainwf.TriggerSubmit)
		}
		return actions
	}

	machine, err := machineFor(claim, noGuards)
	if err != nil {
		return actions
	}
	for _, trigger := range machine.PermittedTriggers() {
		// modify is implied by a manager save
		if trigger == domainwf.TriggerModify {
			continue
		}
		if policy.AuthorizeTrigger(claim, view, trigger) == nil {
			actions = append(actions, trigger)
		}
	}
	return actions
}
