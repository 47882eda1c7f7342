package dispatcher

import (
	"context"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/event"
)

// EventNotifier implements port.Notifier by publishing claim events asynchronously.
// Delivery failures end up in the dispatcher log and never reach the caller.
type EventNotifier struct {
	dispatcher Dispatcher
}

// NewEventNotifier creates a notifier publishing through d
func NewEventNotifier(d Dispatcher) *EventNotifier {
	return &EventNotifier{dispatcher: d}
}

func (n *EventNotifier) ClaimSubmitted(ctx context.Context, claim *entity.ExpenseClaim, total int64) error {
	n.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeClaimSubmitted, claim, map[string]interface{}{
		event.KeyTotal: total,
	}))
	return nil
}

func (n *EventNotifier) ClaimApproved(ctx context.Context, claim *entity.ExpenseClaim) error {
	n.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeClaimApproved, claim, nil))
	return nil
}

func (n *EventNotifier) ClaimRejected(ctx context.Context, claim *entity.ExpenseClaim, reason string) error {
	n.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeClaimRejected, claim, map[string]interface{}{
		event.KeyReason: reason,
	}))
	return nil
}

// SubscribeNotifier forwards every claim event to target under the given name
func SubscribeNotifier(d Dispatcher, name string, target port.Notifier) {
	d.SubscribeNamed(event.TypeClaimSubmitted, name, func(ctx context.Context, evt *event.Event) error {
		return target.ClaimSubmitted(ctx, evt.Claim, evt.GetPayloadInt(event.KeyTotal))
	})
	d.SubscribeNamed(event.TypeClaimApproved, name, func(ctx context.Context, evt *event.Event) error {
		return target.ClaimApproved(ctx, evt.Claim)
	})
	d.SubscribeNamed(event.TypeClaimRejected, name, func(ctx context.Context, evt *event.Event) error {
		reason := evt.GetPayloadString(event.KeyReason)
		if reason == "" {
			return fmt.Errorf("rejection event %s has no reason", evt.ID)
		}
		return target.ClaimRejected(ctx, evt.Claim, reason)
	})
}
