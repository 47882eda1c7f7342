package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// FuelSettings are the monthly reference values used for fuel reimbursement
type FuelSettings struct {
	Period          Period          `json:"period"`
	GasolinePrice   decimal.Decimal `json:"gasoline_price"`
	DieselPrice     decimal.Decimal `json:"diesel_price"`
	LPGPrice        decimal.Decimal `json:"lpg_price"`
	BaseEfficiency  decimal.Decimal `json:"base_efficiency"`
	MaintenanceRate decimal.Decimal `json:"maintenance_rate"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DefaultFuelSettings is used when a period has no configured settings: every price is zero
func DefaultFuelSettings(period Period) *FuelSettings {
	return &FuelSettings{
		Period:          period,
		GasolinePrice:   decimal.Zero,
		DieselPrice:     decimal.Zero,
		LPGPrice:        decimal.Zero,
		BaseEfficiency:  decimal.Zero,
		MaintenanceRate: decimal.NewFromInt(1),
	}
}

// FuelType is a catalog entry used by the fuel cost calculation
type FuelType struct {
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	BaseEfficiency decimal.Decimal `json:"base_efficiency"`
}

// FuelCatalog maps fuel type names to catalog entries
type FuelCatalog map[string]FuelType

// Catalog expands the settings into a fuel type catalog including the "none" sentinel
func (s *FuelSettings) Catalog() FuelCatalog {
	return FuelCatalog{
		FuelGasoline: {Name: FuelGasoline, UnitPrice: s.GasolinePrice, BaseEfficiency: s.BaseEfficiency},
		FuelDiesel:   {Name: FuelDiesel, UnitPrice: s.DieselPrice, BaseEfficiency: s.BaseEfficiency},
		FuelLPG:      {Name: FuelLPG, UnitPrice: s.LPGPrice, BaseEfficiency: s.BaseEfficiency},
		FuelNone:     {Name: FuelNone, UnitPrice: decimal.Zero, BaseEfficiency: s.BaseEfficiency},
	}
}

// Lookup returns the catalog entry for name
func (c FuelCatalog) Lookup(name string) (FuelType, bool) {
	ft, ok := c[name]
	return ft, ok
}

// Has reports whether name is a known fuel type
func (c FuelCatalog) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// CorporateCard is a company card rows may reference
type CorporateCard struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}
