package entity

import "time"

// StatusHistory is the audit trail of claim status changes
type StatusHistory struct {
	ID         int64     `json:"id"`
	ClaimID    int64     `json:"claim_id"`
	FromStatus Status    `json:"from_status"`
	ToStatus   Status    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
