package policy

import (
	"fmt"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Deletion tells the caller how a row removal must be carried out
type Deletion int

const (
	// DeletionDeferred removes the row locally; a persisted row is deleted on the next save
	DeletionDeferred Deletion = iota + 1
	// DeletionImmediate deletes the persisted row on the server right away
	DeletionImmediate
)

// CanView reports whether the viewer may see the claim
func CanView(claim *entity.ExpenseClaim, v ViewContext) bool {
	if claim == nil {
		return false
	}
	return v.IsManager() || claim.OwnerID == v.ViewerID
}

// CanEdit reports whether the viewer may change the claim's fields and rows
func CanEdit(claim *entity.ExpenseClaim, v ViewContext) bool {
	if !CanView(claim, v) || claim.ManagerChecked || claim.Status.IsFinal() {
		return false
	}

	if !v.IsManager() {
		return claim.Status.IsOpen()
	}

	switch {
	case claim.Status.IsOpen():
		return v.actsFor(claim.OwnerID)
	case claim.Status.InReview():
		return true
	case claim.Status == entity.StatusApproved:
		return v.IsProxy() && v.ActingAsOwnerID == claim.OwnerID
	default:
		return false
	}
}

// ManagerEditing reports whether a manager is revising a claim under review.
// Rows the manager touches then get a live pay instead of the stored figure.
func ManagerEditing(claim *entity.ExpenseClaim, v ViewContext) bool {
	return v.IsManager() && claim.Status.InReview() && !claim.ManagerChecked
}

// CheckRowDeletion decides whether the row at index may be removed and how
func CheckRowDeletion(claim *entity.ExpenseClaim, index int, v ViewContext) (Deletion, error) {
	if claim.ManagerChecked {
		return 0, entity.ErrClaimLocked
	}
	if !CanEdit(claim, v) {
		return 0, entity.ErrNotEditable
	}
	if index < 0 || index >= len(claim.Rows) {
		return 0, fmt.Errorf("%w: index %d", entity.ErrRowNotFound, index)
	}
	if len(claim.Rows) <= 1 {
		return 0, entity.ErrLastRow
	}

	if v.IsManager() && claim.Status.InReview() && claim.Rows[index].IsPersisted() {
		return DeletionImmediate, nil
	}
	return DeletionDeferred, nil
}

// CheckRowConfirm allows toggling the manager confirmation of a row during review
func CheckRowConfirm(claim *entity.ExpenseClaim, index int, v ViewContext) error {
	if !v.IsManager() {
		return entity.ErrForbidden
	}
	if claim.ManagerChecked {
		return entity.ErrClaimLocked
	}
	if !claim.Status.InReview() {
		return fmt.Errorf("%w: rows are confirmed during review, claim is %s", entity.ErrNotEditable, claim.Status)
	}
	if index < 0 || index >= len(claim.Rows) {
		return fmt.Errorf("%w: index %d", entity.ErrRowNotFound, index)
	}
	return nil
}

// CheckManagerLock allows a manager to set the manager-checked lock
func CheckManagerLock(claim *entity.ExpenseClaim, v ViewContext) error {
	if !v.IsManager() {
		return entity.ErrForbidden
	}
	switch claim.Status {
	case entity.StatusSubmitted, entity.StatusModify, entity.StatusApproved, entity.StatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: cannot check a %s claim", entity.ErrNotEditable, claim.Status)
	}
}

// AuthorizeTrigger checks that the viewer may fire trigger on the claim.
// Whether the transition exists is left to the state machine.
func AuthorizeTrigger(claim *entity.ExpenseClaim, v ViewContext, trigger domainwf.Trigger) error {
	if !CanView(claim, v) {
		return entity.ErrForbidden
	}
	if trigger.ManagerOnly() {
		if !v.IsManager() {
			return fmt.Errorf("%w: %s requires a manager", entity.ErrForbidden, trigger)
		}
		// the lock freezes content; approval and completion may still follow it
		if claim.ManagerChecked && trigger != domainwf.TriggerApprove && trigger != domainwf.TriggerComplete {
			return entity.ErrClaimLocked
		}
		return nil
	}

	// submit and reopen belong to the owner or a proxy manager
	if claim.ManagerChecked {
		return entity.ErrClaimLocked
	}
	if !v.actsFor(claim.OwnerID) {
		return fmt.Errorf("%w: %s is reserved to the owner", entity.ErrForbidden, trigger)
	}
	return nil
}
