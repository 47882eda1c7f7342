package payment

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

// FuelCost returns (distanceKm / baseEfficiency) * unitPrice * maintenanceRate rounded to the
// nearest rounding unit. The "none" fuel type, a non-positive base efficiency and a negative
// distance yield 0.
func (c *Calculator) FuelCost(fuel entity.FuelType, distanceKm, baseEfficiency, maintenanceRate decimal.Decimal) int64 {
	if fuel.Name == entity.FuelNone || fuel.Name == "" {
		return 0
	}
	if !baseEfficiency.IsPositive() || distanceKm.IsNegative() {
		return 0
	}

	raw := distanceKm.Div(baseEfficiency).Mul(fuel.UnitPrice)
	adjusted := raw.Mul(maintenanceRate)
	return c.roundToUnit(adjusted)
}

// roundToUnit rounds half away from zero to the nearest multiple of the rounding unit
func (c *Calculator) roundToUnit(d decimal.Decimal) int64 {
	unit := decimal.NewFromInt(c.rules.RoundingUnit)
	return d.Div(unit).Round(0).Mul(unit).IntPart()
}

// DeriveBaseEfficiency returns round(vehicleEfficiency * EfficiencyFactor, 1)
func (c *Calculator) DeriveBaseEfficiency(vehicleEfficiency decimal.Decimal) decimal.Decimal {
	if !vehicleEfficiency.IsPositive() {
		return decimal.Zero
	}
	return vehicleEfficiency.Mul(c.rules.EfficiencyFactor).Round(1)
}

// fuelPay is the live pay of a fuel row: fuel cost plus toll fee.
// An unknown fuel type contributes no fuel cost.
func (c *Calculator) fuelPay(row entity.ExpenseRow, pricing Pricing) int64 {
	toll := money.Parse(row.TollFee)
	fuel, ok := pricing.Catalog.Lookup(row.FuelType)
	if !ok {
		return toll
	}
	distance := money.ParseDecimal(row.Distance)
	return c.FuelCost(fuel, distance, pricing.baseEfficiency(fuel), pricing.MaintenanceRate) + toll
}
