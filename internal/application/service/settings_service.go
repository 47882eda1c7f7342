package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
)

// FuelQuote is the pay of a single fuel trip
type FuelQuote struct {
	FuelType       string          `json:"fuel_type"`
	Distance       decimal.Decimal `json:"distance"`
	BaseEfficiency decimal.Decimal `json:"base_efficiency"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	FuelCost       int64           `json:"fuel_cost"`
	TollFee        int64           `json:"toll_fee"`
	Total          int64           `json:"total"`
}

// SettingsService manages the per-period fuel settings and the corporate card list
type SettingsService interface {
	GetFuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error)
	UpdateFuelSettings(ctx context.Context, view policy.ViewContext, settings *entity.FuelSettings) error
	ListCorporateCards(ctx context.Context) ([]entity.CorporateCard, error)
	SaveCorporateCard(ctx context.Context, view policy.ViewContext, card entity.CorporateCard) error
	QuoteFuel(ctx context.Context, period entity.Period, fuelType string, distance, vehicleEfficiency decimal.Decimal, tollFee int64) (*FuelQuote, error)
}

type settingsServiceImpl struct {
	repo   port.SettingsRepository
	calc   *payment.Calculator
	logger Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo port.SettingsRepository, calc *payment.Calculator, logger Logger) SettingsService {
	if calc == nil {
		calc = payment.NewCalculator(payment.DefaultRules())
	}
	return &settingsServiceImpl{repo: repo, calc: calc, logger: logger}
}

// GetFuelSettings returns the stored settings or the defaults when none exist yet
func (s *settingsServiceImpl) GetFuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error) {
	settings, err := s.repo.FetchFuelSettings(ctx, period)
	if err != nil {
		return nil, entity.NewTransportError("fetch fuel settings", err)
	}
	if settings == nil {
		return entity.DefaultFuelSettings(period), nil
	}
	return settings, nil
}

func (s *settingsServiceImpl) UpdateFuelSettings(ctx context.Context, view policy.ViewContext, settings *entity.FuelSettings) error {
	if !view.IsManager() {
		return entity.ErrForbidden
	}
	if settings == nil || settings.Period.IsZero() {
		return fmt.Errorf("%w: fuel settings need a period", entity.ErrInvalidPeriod)
	}
	if violations := validateFuelSettings(settings); len(violations) > 0 {
		return &entity.ValidationError{Violations: violations}
	}

	settings.UpdatedAt = time.Now()
	if err := s.repo.SaveFuelSettings(ctx, settings); err != nil {
		s.logger.Error("Failed to save fuel settings", "period", settings.Period.String(), "error", err)
		return entity.NewTransportError("save fuel settings", err)
	}

	s.logger.Info("Fuel settings updated", "period", settings.Period.String(), "manager_id", view.ViewerID)
	return nil
}

func (s *settingsServiceImpl) ListCorporateCards(ctx context.Context) ([]entity.CorporateCard, error) {
	cards, err := s.repo.FetchCorporateCards(ctx)
	if err != nil {
		return nil, entity.NewTransportError("fetch corporate cards", err)
	}
	return cards, nil
}

func (s *settingsServiceImpl) SaveCorporateCard(ctx context.Context, view policy.ViewContext, card entity.CorporateCard) error {
	if !view.IsManager() {
		return entity.ErrForbidden
	}
	card.ID = strings.TrimSpace(card.ID)
	if card.ID == "" {
		return &entity.ValidationError{Violations: []entity.Violation{{Row: -1, Field: "id", Message: "is required"}}}
	}

	if err := s.repo.SaveCorporateCard(ctx, card); err != nil {
		return entity.NewTransportError("save corporate card", err)
	}
	s.logger.Info("Corporate card saved", "card_id", card.ID, "active", card.Active)
	return nil
}

// QuoteFuel prices one trip. A positive vehicle efficiency overrides the period's base efficiency.
func (s *settingsServiceImpl) QuoteFuel(ctx context.Context, period entity.Period, fuelType string, distance, vehicleEfficiency decimal.Decimal, tollFee int64) (*FuelQuote, error) {
	settings, err := s.GetFuelSettings(ctx, period)
	if err != nil {
		return nil, err
	}

	fuel, ok := settings.Catalog().Lookup(fuelType)
	if !ok {
		return nil, &entity.ValidationError{Violations: []entity.Violation{{Row: -1, Field: "fuel_type", Message: fmt.Sprintf("unknown fuel type %q", fuelType)}}}
	}

	base := fuel.BaseEfficiency
	if derived := s.calc.DeriveBaseEfficiency(vehicleEfficiency); derived.IsPositive() {
		base = derived
	}

	cost := s.calc.FuelCost(fuel, distance, base, settings.MaintenanceRate)
	return &FuelQuote{
		FuelType:       fuel.Name,
		Distance:       distance,
		BaseEfficiency: base,
		UnitPrice:      fuel.UnitPrice,
		FuelCost:       cost,
		TollFee:        tollFee,
		Total:          cost + tollFee,
	}, nil
}

func validateFuelSettings(settings *entity.FuelSettings) []entity.Violation {
	var violations []entity.Violation
	check := func(field string, v decimal.Decimal) {
		if v.IsNegative() {
			violations = append(violations, entity.Violation{Row: -1, Field: field, Message: "must not be negative"})
		}
	}
	check("gasoline_price", settings.GasolinePrice)
	check("diesel_price", settings.DieselPrice)
	check("lpg_price", settings.LPGPrice)
	check("maintenance_rate", settings.MaintenanceRate)
	if !settings.BaseEfficiency.IsPositive() {
		violations = append(violations, entity.Violation{Row: -1, Field: "base_efficiency", Message: "must be positive"})
	}
	return violations
}
