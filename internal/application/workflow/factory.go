package workflow

import (
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Guards hold the per-request conditions of guarded transitions. A nil guard always passes.
type Guards struct {
	// Submit gates DRAFT/REJECTED -> SUBMITTED, normally claim validation
	Submit domainwf.GuardFunc
	// Reject requires a reason
	Reject domainwf.GuardFunc
	// NotSubmitted gates DRAFT -> NOT_SUBMITTED
	NotSubmitted domainwf.GuardFunc
}

// BuildClaimStateMachine creates a state machine configured for the expense claim workflow
func BuildClaimStateMachine(initialState domainwf.State, guards Guards) domainwf.StateMachine {
	builder := domainwf.NewBuilder()

	// DRAFT state transitions
	builder.Configure(domainwf.StateDraft).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateSubmitted, guards.Submit).
		PermitIf(domainwf.TriggerMarkNotSubmitted, domainwf.StateNotSubmitted, guards.NotSubmitted)

	// SUBMITTED state transitions
	builder.Configure(domainwf.StateSubmitted).
		Permit(domainwf.TriggerModify, domainwf.StateModify).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, guards.Reject)

	// MODIFY reviews like SUBMITTED
	builder.Configure(domainwf.StateModify).
		Permit(domainwf.TriggerModify, domainwf.StateModify).
		Permit(domainwf.TriggerApprove, domainwf.StateApproved).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, guards.Reject)

	// APPROVED state transitions; rejecting reopens the claim for the owner
	builder.Configure(domainwf.StateApproved).
		Permit(domainwf.TriggerComplete, domainwf.StateCompleted).
		PermitIf(domainwf.TriggerReject, domainwf.StateRejected, guards.Reject)

	// REJECTED state transitions
	builder.Configure(domainwf.StateRejected).
		PermitIf(domainwf.TriggerSubmit, domainwf.StateSubmitted, guards.Submit).
		Permit(domainwf.TriggerReopen, domainwf.StateDraft)

	// COMPLETED and NOT_SUBMITTED are terminal states - no outgoing transitions

	return builder.Build(initialState)
}

// StateOf maps a claim status onto the workflow state
func StateOf(status entity.Status) domainwf.State {
	return domainwf.State(status)
}

// StatusOf maps a workflow state back onto the claim status
func StatusOf(state domainwf.State) entity.Status {
	return entity.Status(state)
}
