package port

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// Notifier tells people about claim status changes
type Notifier interface {
	ClaimSubmitted(ctx context.Context, claim *entity.ExpenseClaim, total int64) error
	ClaimApproved(ctx context.Context, claim *entity.ExpenseClaim) error
	ClaimRejected(ctx context.Context, claim *entity.ExpenseClaim, reason string) error
}
