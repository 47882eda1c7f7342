package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a status change. It must run inside the transaction that changes the status.
func (r *HistoryRepository) Create(ctx context.Context, history *entity.StatusHistory) error {
	exec, err := r.db.TxExecutor(ctx, "create history")
	if err != nil {
		r.logger.Error("History written outside a status change", zap.Int64("claim_id", history.ClaimID))
		return err
	}

	query := `
		INSERT INTO claim_status_history (
			claim_id, from_status, to_status, actor_id, reason
		) VALUES (?, ?, ?, ?, ?)
	`

	result, err := exec.ExecContext(ctx, query,
		history.ClaimID,
		history.FromStatus,
		history.ToStatus,
		history.ActorID,
		history.Reason,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Int64("claim_id", history.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByClaimID retrieves all history records of a claim, oldest first
func (r *HistoryRepository) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, claim_id, from_status, to_status, actor_id, reason, created_at
		FROM claim_status_history
		WHERE claim_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, claimID)
	if err != nil {
		r.logger.Error("Failed to get history by claim ID", zap.Int64("claim_id", claimID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.StatusHistory
	for rows.Next() {
		var record entity.StatusHistory
		err := rows.Scan(
			&record.ID,
			&record.ClaimID,
			&record.FromStatus,
			&record.ToStatus,
			&record.ActorID,
			&record.Reason,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
