package workflow

import "context"

// StateMachine tracks the current status of one claim and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger has a configured transition from the current state.
	// Guards are not evaluated.
	CanFire(trigger Trigger) bool

	// Fire executes the trigger. When every guard fails the last guard error is wrapped with ErrGuardFailed.
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the configured triggers of the current state in configuration order
	PermittedTriggers() []Trigger
}
