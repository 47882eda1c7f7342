package port

import (
	"context"
	"io"

	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
)

// DraftStore is the local cache of unsent drafts keyed by period and owner
type DraftStore interface {
	// Load returns (nil, nil) when no draft is cached
	Load(ctx context.Context, key draft.Key) (*entity.ExpenseClaim, error)
	Store(ctx context.Context, key draft.Key, claim *entity.ExpenseClaim) error
	Clear(ctx context.Context, key draft.Key) error
}

// Statement is the printable pay statement of one claim
type Statement struct {
	CompanyName string
	Claim       *entity.ExpenseClaim
	Summary     payment.Summary
	CardNames   map[string]string
}

// StatementWriter renders statements into a document format
type StatementWriter interface {
	Write(w io.Writer, statements []Statement) error
	ContentType() string
	Extension() string
}
