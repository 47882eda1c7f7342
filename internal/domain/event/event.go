package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// Payload keys
const (
	KeyTotal  = "total"
	KeyReason = "reason"
)

// Event is a claim status change published after it has been committed
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Claim     *entity.ExpenseClaim   `json:"claim"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an event for a snapshot of claim
func NewEvent(eventType Type, claim *entity.ExpenseClaim, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Claim:     claim.Clone(),
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// ClaimID returns the id of the claim the event is about
func (e *Event) ClaimID() int64 {
	if e.Claim == nil {
		return 0
	}
	return e.Claim.ID
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an int64 value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}
