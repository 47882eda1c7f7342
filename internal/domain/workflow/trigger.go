package workflow

// Trigger represents an action that can move a claim to another status
type Trigger string

const (
	TriggerSubmit           Trigger = "SUBMIT"
	TriggerModify           Trigger = "MODIFY"
	TriggerApprove          Trigger = "APPROVE"
	TriggerReject           Trigger = "REJECT"
	TriggerComplete         Trigger = "COMPLETE"
	TriggerReopen           Trigger = "REOPEN"
	TriggerMarkNotSubmitted Trigger = "MARK_NOT_SUBMITTED"
)

var managerTriggers = map[Trigger]bool{
	TriggerModify:           true,
	TriggerApprove:          true,
	TriggerReject:           true,
	TriggerComplete:         true,
	TriggerMarkNotSubmitted: true,
}

// ManagerOnly returns true if only a manager may fire the trigger
func (t Trigger) ManagerOnly() bool {
	return managerTriggers[t]
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
