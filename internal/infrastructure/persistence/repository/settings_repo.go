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

// SettingsRepository implements port.SettingsRepository
type SettingsRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *sqlite.DB, logger *zap.Logger) *SettingsRepository {
	return &SettingsRepository{
		db:     db,
		logger: logger,
	}
}

// FetchFuelSettings returns (nil, nil) when the period has no settings
func (r *SettingsRepository) FetchFuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error) {
	query := `
		SELECT gasoline_price, diesel_price, lpg_price, base_efficiency, maintenance_rate, updated_at
		FROM fuel_settings
		WHERE period = ?
	`

	settings := entity.FuelSettings{Period: period}
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, period.String()).Scan(
		&settings.GasolinePrice,
		&settings.DieselPrice,
		&settings.LPGPrice,
		&settings.BaseEfficiency,
		&settings.MaintenanceRate,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to fetch fuel settings", zap.String("period", period.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to fetch fuel settings: %w", err)
	}
	return &settings, nil
}

// SaveFuelSettings inserts or replaces the settings of a period
func (r *SettingsRepository) SaveFuelSettings(ctx context.Context, settings *entity.FuelSettings) error {
	query := `
		INSERT INTO fuel_settings (
			period, gasoline_price, diesel_price, lpg_price, base_efficiency, maintenance_rate, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (period) DO UPDATE SET
			gasoline_price = excluded.gasoline_price,
			diesel_price = excluded.diesel_price,
			lpg_price = excluded.lpg_price,
			base_efficiency = excluded.base_efficiency,
			maintenance_rate = excluded.maintenance_rate,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		settings.Period.String(),
		settings.GasolinePrice,
		settings.DieselPrice,
		settings.LPGPrice,
		settings.BaseEfficiency,
		settings.MaintenanceRate,
	)
	if err != nil {
		r.logger.Error("Failed to save fuel settings", zap.String("period", settings.Period.String()), zap.Error(err))
		return fmt.Errorf("failed to save fuel settings: %w", err)
	}
	return nil
}

// FetchCorporateCards lists every card ordered by id
func (r *SettingsRepository) FetchCorporateCards(ctx context.Context) ([]entity.CorporateCard, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `SELECT id, name, active FROM corporate_cards ORDER BY id ASC`)
	if err != nil {
		r.logger.Error("Failed to fetch corporate cards", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch corporate cards: %w", err)
	}
	defer rows.Close()

	cards := []entity.CorporateCard{}
	for rows.Next() {
		var card entity.CorporateCard
		if err := rows.Scan(&card.ID, &card.Name, &card.Active); err != nil {
			return nil, fmt.Errorf("failed to scan corporate card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// SaveCorporateCard inserts or updates a card
func (r *SettingsRepository) SaveCorporateCard(ctx context.Context, card entity.CorporateCard) error {
	query := `
		INSERT INTO corporate_cards (id, name, active) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, active = excluded.active
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, card.ID, card.Name, card.Active); err != nil {
		r.logger.Error("Failed to save corporate card", zap.String("id", card.ID), zap.Error(err))
		return fmt.Errorf("failed to save corporate card: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.SettingsRepository = (*SettingsRepository)(nil)
