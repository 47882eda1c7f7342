package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation is matched by every *ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrStaleState is matched by every *StaleStateError
	ErrStaleState = errors.New("claim status changed")

	// ErrConflict is matched by every *ConflictError
	ErrConflict = errors.New("cached draft needs confirmation")

	// ErrTransport is matched by every *TransportError
	ErrTransport = errors.New("backend call failed")

	ErrClaimNotFound  = errors.New("claim not found")
	ErrRowNotFound    = errors.New("row not found")
	ErrNotEditable    = errors.New("claim is not editable")
	ErrClaimLocked    = errors.New("claim is manager-checked")
	ErrLastRow        = errors.New("cannot delete the last row")
	ErrForbidden      = errors.New("operation not permitted for viewer")
	ErrReasonRequired = errors.New("reason is required")
	ErrInvalidPeriod  = errors.New("invalid period")
)

// Violation is a single failed check. Row is the zero-based row index, or -1 for claim-level checks.
type Violation struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Row < 0 {
		return fmt.Sprintf("%s: %s", v.Field, v.Message)
	}
	return fmt.Sprintf("row %d %s: %s", v.Row+1, v.Field, v.Message)
}

// ValidationError aggregates every violation found in a claim
type ValidationError struct {
	Violations []Violation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// StaleStateError is returned when a transition was requested from a status the claim no longer has
type StaleStateError struct {
	ClaimID  int64
	Expected Status
	Actual   Status
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("%s: claim %d expected %s, found %s", ErrStaleState, e.ClaimID, e.Expected, e.Actual)
}

func (e *StaleStateError) Unwrap() error {
	return ErrStaleState
}

// ConflictError carries both versions when a cached draft cannot be applied without confirmation
type ConflictError struct {
	Server *ExpenseClaim
	Cached *ExpenseClaim
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: period %s owner %s", ErrConflict, e.Cached.Period, e.Cached.OwnerID)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// TransportError wraps a failed backend operation
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Op, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// NewTransportError wraps err unless it is nil or already a TransportError
func NewTransportError(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{Op: op, Err: err}
}
