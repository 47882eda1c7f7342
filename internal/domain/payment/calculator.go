// Package payment computes the payable amount of claim rows.
//
// Everything here is pure. Rows of a claim that left DRAFT/REJECTED keep the
// figure the server stored for them, so later changes to fuel prices or base
// efficiency settings never alter an already-quoted payout.
package payment

import (
	"github.com/shopspring/decimal"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

// Rules are the tunable business constants of the pay calculation
type Rules struct {
	MealCapPerPerson int64
	RoundingUnit     int64
	EfficiencyFactor decimal.Decimal
}

// DefaultRules returns the standard company rules
func DefaultRules() Rules {
	return Rules{
		MealCapPerPerson: 8000,
		RoundingUnit:     10,
		EfficiencyFactor: decimal.RequireFromString("0.85"),
	}
}

// Calculator applies Rules to claim rows
type Calculator struct {
	rules Rules
}

// NewCalculator creates a calculator. Non-positive rounding unit and meal cap fall back to the defaults.
func NewCalculator(rules Rules) *Calculator {
	def := DefaultRules()
	if rules.RoundingUnit <= 0 {
		rules.RoundingUnit = def.RoundingUnit
	}
	if rules.MealCapPerPerson <= 0 {
		rules.MealCapPerPerson = def.MealCapPerPerson
	}
	if !rules.EfficiencyFactor.IsPositive() {
		rules.EfficiencyFactor = def.EfficiencyFactor
	}
	return &Calculator{rules: rules}
}

// Rules returns the rules in effect
func (c *Calculator) Rules() Rules {
	return c.rules
}

// Context is the claim-level state that decides between stored and live pay
type Context struct {
	Status         entity.Status
	ManagerChecked bool
	// ManagerEditing is true while a manager is revising the claim under review
	ManagerEditing bool
}

// NewContext builds the pay context of a claim
func NewContext(claim *entity.ExpenseClaim, managerEditing bool) Context {
	return Context{
		Status:         claim.Status,
		ManagerChecked: claim.ManagerChecked,
		ManagerEditing: managerEditing,
	}
}

// Frozen reports whether the row's stored pay is authoritative
func (ctx Context) Frozen(row entity.ExpenseRow) bool {
	if ctx.Status.IsOpen() || row.StoredPay == nil {
		return false
	}
	revising := ctx.ManagerEditing && !ctx.ManagerChecked && ctx.Status.InReview() && row.Dirty
	return !revising
}

// Pricing is the read-only fuel reference data of a period
type Pricing struct {
	Catalog         entity.FuelCatalog
	MaintenanceRate decimal.Decimal
	// BaseEfficiency overrides the catalog value when positive
	BaseEfficiency decimal.Decimal
}

// NewPricing combines the period settings with the claim's derived base efficiency.
// Nil settings give the zero-priced default catalog.
func NewPricing(settings *entity.FuelSettings, claim *entity.ExpenseClaim) Pricing {
	if settings == nil {
		period := entity.Period{}
		if claim != nil {
			period = claim.Period
		}
		settings = entity.DefaultFuelSettings(period)
	}
	p := Pricing{
		Catalog:         settings.Catalog(),
		MaintenanceRate: settings.MaintenanceRate,
	}
	if claim != nil && claim.DerivedBaseEfficiency.IsPositive() {
		p.BaseEfficiency = claim.DerivedBaseEfficiency
	}
	return p
}

func (p Pricing) baseEfficiency(fuel entity.FuelType) decimal.Decimal {
	if p.BaseEfficiency.IsPositive() {
		return p.BaseEfficiency
	}
	return fuel.BaseEfficiency
}

// ComputePay returns the payable amount of a row
func (c *Calculator) ComputePay(row entity.ExpenseRow, ctx Context, pricing Pricing) int64 {
	if ctx.Frozen(row) {
		return *row.StoredPay
	}
	return c.LivePay(row, pricing)
}

// LivePay recomputes the row pay from its fields, ignoring any stored figure
func (c *Calculator) LivePay(row entity.ExpenseRow, pricing Pricing) int64 {
	switch row.Type {
	case entity.RowTypeFuel:
		return c.fuelPay(row, pricing)
	case entity.RowTypeCorporate:
		return money.Parse(row.Amount)
	default:
		amount := money.Parse(row.Amount)
		if row.Category.IsMeal() {
			limit := c.rules.MealCapPerPerson * int64(max(1, row.People))
			return min(amount, limit)
		}
		return amount
	}
}

// Pays returns the pay of every row in order
func (c *Calculator) Pays(rows []entity.ExpenseRow, ctx Context, pricing Pricing) []int64 {
	pays := make([]int64, len(rows))
	for i, row := range rows {
		pays[i] = c.ComputePay(row, ctx, pricing)
	}
	return pays
}

// Total sums ComputePay over rows
func (c *Calculator) Total(rows []entity.ExpenseRow, ctx Context, pricing Pricing) int64 {
	var total int64
	for _, row := range rows {
		total += c.ComputePay(row, ctx, pricing)
	}
	return total
}
