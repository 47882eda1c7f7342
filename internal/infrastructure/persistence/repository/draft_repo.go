package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
)

// DraftRepository stores unsent drafts as JSON blobs keyed by period and owner
type DraftRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *sqlite.DB, logger *zap.Logger) *DraftRepository {
	return &DraftRepository{
		db:     db,
		logger: logger,
	}
}

// Load returns (nil, nil) when no draft is cached for key
func (r *DraftRepository) Load(ctx context.Context, key draft.Key) (*entity.ExpenseClaim, error) {
	var payload []byte
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT payload FROM claim_drafts WHERE period = ? AND owner_id = ?`,
		key.Period.String(), key.OwnerID,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load draft", zap.String("key", key.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}

	var claim entity.ExpenseClaim
	if err := json.Unmarshal(payload, &claim); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", key, err)
	}
	return &claim, nil
}

// Store replaces the cached draft for key
func (r *DraftRepository) Store(ctx context.Context, key draft.Key, claim *entity.ExpenseClaim) error {
	payload, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", key, err)
	}

	query := `
		INSERT INTO claim_drafts (period, owner_id, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (period, owner_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, key.Period.String(), key.OwnerID, payload); err != nil {
		r.logger.Error("Failed to store draft", zap.String("key", key.String()), zap.Error(err))
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// Clear removes the cached draft for key. Clearing a missing draft is not an error.
func (r *DraftRepository) Clear(ctx context.Context, key draft.Key) error {
	if _, err := r.db.Executor(ctx).ExecContext(ctx,
		`DELETE FROM claim_drafts WHERE period = ? AND owner_id = ?`,
		key.Period.String(), key.OwnerID,
	); err != nil {
		r.logger.Error("Failed to clear draft", zap.String("key", key.String()), zap.Error(err))
		return fmt.Errorf("failed to clear draft: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.DraftStore = (*DraftRepository)(nil)
