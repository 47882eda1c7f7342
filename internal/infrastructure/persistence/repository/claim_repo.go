package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
)

// ClaimRepository implements port.ClaimGateway on sqlite
type ClaimRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sqlite.DB, logger *zap.Logger) *ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// errSaveRejected rolls back a save the database refused without failing
var errSaveRejected = errors.New("save rejected")

const claimColumns = `
	id, period, owner_id, memo, vehicle_efficiency, derived_base_efficiency,
	status, manager_checked, created_at, updated_at
`

const rowColumns = `
	id, row_group, row_type, category, expense_date, description,
	amount, people, fuel_type, distance, toll_fee,
	corporate_card_id, merchant, manager_confirmed, stored_pay
`

// FetchClaim returns the claim of owner for period, or nil when none exists
func (r *ClaimRepository) FetchClaim(ctx context.Context, period entity.Period, ownerID string) (*entity.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE period = ? AND owner_id = ?`

	claim, err := r.scanClaim(r.db.Executor(ctx).QueryRowContext(ctx, query, period.String(), ownerID))
	if err != nil {
		r.logger.Error("Failed to fetch claim",
			zap.String("period", period.String()), zap.String("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch claim: %w", err)
	}
	if claim == nil {
		return nil, nil
	}
	return claim, r.loadRows(ctx, claim)
}

// FetchClaimByID returns the claim with id, or nil when none exists
func (r *ClaimRepository) FetchClaimByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE id = ?`

	claim, err := r.scanClaim(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		r.logger.Error("Failed to fetch claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch claim: %w", err)
	}
	if claim == nil {
		return nil, nil
	}
	return claim, r.loadRows(ctx, claim)
}

// ListClaims returns every claim of a period ordered by owner
func (r *ClaimRepository) ListClaims(ctx context.Context, period entity.Period) ([]*entity.ExpenseClaim, error) {
	query := `SELECT ` + claimColumns + ` FROM expense_claims WHERE period = ? ORDER BY owner_id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, period.String())
	if err != nil {
		r.logger.Error("Failed to list claims", zap.String("period", period.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	var claims []*entity.ExpenseClaim
	for rows.Next() {
		claim, err := r.scanClaim(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		claims = append(claims, claim)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// rows must be closed before loading children on a single connection
	rows.Close()

	for _, claim := range claims {
		if err := r.loadRows(ctx, claim); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

// SaveClaim inserts or updates the claim with all of its rows and applies queued row deletions.
// New claim and row ids are written back into claim.
func (r *ClaimRepository) SaveClaim(ctx context.Context, claim *entity.ExpenseClaim, target entity.Status) (port.SaveResult, error) {
	var rejected string

	err := r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		if claim.ID == 0 {
			res, err := exec.ExecContext(txCtx, `
				INSERT INTO expense_claims (
					period, owner_id, memo, vehicle_efficiency, derived_base_efficiency, status
				) VALUES (?, ?, ?, ?, ?, ?)
			`, claim.Period.String(), claim.OwnerID, claim.Memo, claim.VehicleEfficiency, claim.DerivedBaseEfficiency, target)
			if err != nil {
				return fmt.Errorf("failed to insert claim: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get last insert id: %w", err)
			}
			claim.ID = id
		} else {
			res, err := exec.ExecContext(txCtx, `
				UPDATE expense_claims
				SET memo = ?, vehicle_efficiency = ?, derived_base_efficiency = ?, status = ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE id = ? AND manager_checked = 0
			`, claim.Memo, claim.VehicleEfficiency, claim.DerivedBaseEfficiency, target, claim.ID)
			if err != nil {
				return fmt.Errorf("failed to update claim: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				rejected = fmt.Sprintf("claim %d is locked or missing", claim.ID)
				return errSaveRejected
			}
		}

		for _, rowID := range claim.DeletedRowIDs {
			if _, err := exec.ExecContext(txCtx,
				`DELETE FROM expense_rows WHERE id = ? AND claim_id = ?`, rowID, claim.ID); err != nil {
				return fmt.Errorf("failed to delete row %d: %w", rowID, err)
			}
		}

		for i := range claim.Rows {
			ok, err := r.saveRow(txCtx, exec, claim.ID, i, &claim.Rows[i])
			if err != nil {
				return err
			}
			if !ok {
				rejected = fmt.Sprintf("row %d no longer exists", *claim.Rows[i].RowID)
				return errSaveRejected
			}
		}

		claim.DeletedRowIDs = nil
		return nil
	})
	if errors.Is(err, errSaveRejected) {
		r.logger.Info("Claim save rejected", zap.Int64("id", claim.ID), zap.String("reason", rejected))
		return port.SaveResult{Success: false, Message: rejected}, nil
	}
	if err != nil {
		r.logger.Error("Failed to save claim", zap.Int64("id", claim.ID), zap.Error(err))
		return port.SaveResult{}, err
	}
	return port.SaveResult{Success: true}, nil
}

func (r *ClaimRepository) saveRow(ctx context.Context, exec sqlite.Executor, claimID int64, position int, row *entity.ExpenseRow) (bool, error) {
	storedPay := sql.NullInt64{}
	if row.StoredPay != nil {
		storedPay = sql.NullInt64{Int64: *row.StoredPay, Valid: true}
	}

	if row.RowID == nil {
		res, err := exec.ExecContext(ctx, `
			INSERT INTO expense_rows (
				claim_id, position, row_group, row_type, category, expense_date, description,
				amount, people, fuel_type, distance, toll_fee,
				corporate_card_id, merchant, manager_confirmed, stored_pay
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, claimID, position, row.Group, row.Type, row.Category, row.Date, row.Description,
			row.Amount, row.People, row.FuelType, row.Distance, row.TollFee,
			row.CorporateCardID, row.Merchant, row.ManagerConfirmed, storedPay)
		if err != nil {
			return false, fmt.Errorf("failed to insert row: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return false, fmt.Errorf("failed to get last insert id: %w", err)
		}
		row.RowID = entity.Ptr(id)
		return true, nil
	}

	res, err := exec.ExecContext(ctx, `
		UPDATE expense_rows
		SET position = ?, row_group = ?, row_type = ?, category = ?, expense_date = ?, description = ?,
			amount = ?, people = ?, fuel_type = ?, distance = ?, toll_fee = ?,
			corporate_card_id = ?, merchant = ?, manager_confirmed = ?, stored_pay = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND claim_id = ?
	`, position, row.Group, row.Type, row.Category, row.Date, row.Description,
		row.Amount, row.People, row.FuelType, row.Distance, row.TollFee,
		row.CorporateCardID, row.Merchant, row.ManagerConfirmed, storedPay,
		*row.RowID, claimID)
	if err != nil {
		return false, fmt.Errorf("failed to update row %d: %w", *row.RowID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateClaimStatus sets the status and the reason of the latest change
func (r *ClaimRepository) UpdateClaimStatus(ctx context.Context, id int64, status entity.Status, reason string) error {
	query := `
		UPDATE expense_claims
		SET status = ?, status_reason = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	return r.execOne(ctx, "update claim status", entity.ErrClaimNotFound, query, status, reason, id)
}

// SetManagerChecked sets the manager lock
func (r *ClaimRepository) SetManagerChecked(ctx context.Context, id int64) error {
	query := `UPDATE expense_claims SET manager_checked = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	return r.execOne(ctx, "set manager checked", entity.ErrClaimNotFound, query, id)
}

// DeleteRow removes one persisted row of a claim
func (r *ClaimRepository) DeleteRow(ctx context.Context, claimID, rowID int64) error {
	query := `DELETE FROM expense_rows WHERE id = ? AND claim_id = ?`
	return r.execOne(ctx, "delete row", entity.ErrRowNotFound, query, rowID, claimID)
}

// execOne runs a statement that must affect exactly one row
func (r *ClaimRepository) execOne(ctx context.Context, op string, notFound error, query string, args ...interface{}) error {
	res, err := r.db.Executor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanClaim returns (nil, nil) when the row does not exist
func (r *ClaimRepository) scanClaim(s scanner) (*entity.ExpenseClaim, error) {
	var claim entity.ExpenseClaim
	var period string

	err := s.Scan(
		&claim.ID,
		&period,
		&claim.OwnerID,
		&claim.Memo,
		&claim.VehicleEfficiency,
		&claim.DerivedBaseEfficiency,
		&claim.Status,
		&claim.ManagerChecked,
		&claim.CreatedAt,
		&claim.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan claim: %w", err)
	}

	if claim.Period, err = entity.ParsePeriod(period); err != nil {
		return nil, fmt.Errorf("claim %d: %w", claim.ID, err)
	}
	return &claim, nil
}

func (r *ClaimRepository) loadRows(ctx context.Context, claim *entity.ExpenseClaim) error {
	query := `SELECT ` + rowColumns + ` FROM expense_rows WHERE claim_id = ? ORDER BY position ASC, id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, claim.ID)
	if err != nil {
		r.logger.Error("Failed to load rows", zap.Int64("claim_id", claim.ID), zap.Error(err))
		return fmt.Errorf("failed to load rows: %w", err)
	}
	defer rows.Close()

	claim.Rows = nil
	for rows.Next() {
		var row entity.ExpenseRow
		var id int64
		var storedPay sql.NullInt64

		if err := rows.Scan(
			&id,
			&row.Group,
			&row.Type,
			&row.Category,
			&row.Date,
			&row.Description,
			&row.Amount,
			&row.People,
			&row.FuelType,
			&row.Distance,
			&row.TollFee,
			&row.CorporateCardID,
			&row.Merchant,
			&row.ManagerConfirmed,
			&storedPay,
		); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		row.RowID = entity.Ptr(id)
		if storedPay.Valid {
			row.StoredPay = entity.Ptr(storedPay.Int64)
		}
		claim.Rows = append(claim.Rows, row)
	}

	return rows.Err()
}

// Verify interface compliance
var _ port.ClaimGateway = (*ClaimRepository)(nil)
