package dispatcher

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo names a registered handler for logging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
