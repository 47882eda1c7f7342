package port

import (
	"context"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// SaveResult is the backend's answer to a claim save
type SaveResult struct {
	Success bool
	Message string
}

// ClaimGateway is the claim backend. Fetch methods return (nil, nil) when nothing exists.
type ClaimGateway interface {
	FetchClaim(ctx context.Context, period entity.Period, ownerID string) (*entity.ExpenseClaim, error)
	FetchClaimByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error)
	// SaveClaim persists claim content with the target status. New claims and rows get their ids assigned in place.
	SaveClaim(ctx context.Context, claim *entity.ExpenseClaim, target entity.Status) (SaveResult, error)
	UpdateClaimStatus(ctx context.Context, id int64, status entity.Status, reason string) error
	SetManagerChecked(ctx context.Context, id int64) error
	DeleteRow(ctx context.Context, claimID, rowID int64) error
	ListClaims(ctx context.Context, period entity.Period) ([]*entity.ExpenseClaim, error)
}

// SettingsRepository holds the fuel settings and corporate card catalogs
type SettingsRepository interface {
	// FetchFuelSettings returns (nil, nil) when the period has no settings
	FetchFuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error)
	SaveFuelSettings(ctx context.Context, settings *entity.FuelSettings) error
	FetchCorporateCards(ctx context.Context) ([]entity.CorporateCard, error)
	SaveCorporateCard(ctx context.Context, card entity.CorporateCard) error
}

// HistoryRepository defines persistence operations for StatusHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.StatusHistory) error
	GetByClaimID(ctx context.Context, claimID int64) ([]*entity.StatusHistory, error)
}

// TransactionManager manages database transactions
type TransactionManager interface {
	// WithTransaction executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
