package workflow

import "errors"

// Sentinel errors of the claim state machine. Callers match them with errors.Is;
// the machine wraps them with the trigger and source state.
var (
	// ErrInvalidTransition means no transition for the trigger exists from the current status.
	ErrInvalidTransition = errors.New("transition not permitted")

	// ErrGuardFailed means a transition exists but every guard on it refused.
	ErrGuardFailed = errors.New("transition guard refused")

	// ErrInvalidState means a stored status is not one the machine knows.
	ErrInvalidState = errors.New("unknown claim status")
)
