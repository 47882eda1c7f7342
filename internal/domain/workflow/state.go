package workflow

// State represents a claim status in the expense lifecycle
type State string

const (
	StateDraft        State = "DRAFT"
	StateSubmitted    State = "SUBMITTED"
	StateModify       State = "MODIFY"
	StateApproved     State = "APPROVED"
	StateRejected     State = "REJECTED"
	StateCompleted    State = "COMPLETED"
	StateNotSubmitted State = "NOT_SUBMITTED"
)

var validStates = map[State]bool{
	StateDraft:        true,
	StateSubmitted:    true,
	StateModify:       true,
	StateApproved:     true,
	StateRejected:     true,
	StateCompleted:    true,
	StateNotSubmitted: true,
}

var terminalStates = map[State]bool{
	StateCompleted:    true,
	StateNotSubmitted: true,
}

// IsTerminal returns true if the state has no outgoing transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known claim status
func (s State) IsValid() bool {
	return validStates[s]
}
