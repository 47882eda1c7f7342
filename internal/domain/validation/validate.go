// Package validation holds the completeness checks run before a claim is submitted.
package validation

import (
	"fmt"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/money"
)

// FuelTypes tests whether a fuel type name exists in the period catalog
type FuelTypes interface {
	Has(name string) bool
}

// ValidateClaim returns nil when the claim may be submitted, or a *entity.ValidationError listing every violation
func ValidateClaim(claim *entity.ExpenseClaim, fuelTypes FuelTypes) error {
	violations := ValidateRows(claim.Rows, claim.Period, fuelTypes)
	if len(claim.Rows) == 0 {
		violations = append([]entity.Violation{{Row: -1, Field: "rows", Message: "at least one row is required"}}, violations...)
	}
	if len(violations) == 0 {
		return nil
	}
	return &entity.ValidationError{Violations: violations}
}

// ValidateRows checks every row against the claim period
func ValidateRows(rows []entity.ExpenseRow, period entity.Period, fuelTypes FuelTypes) []entity.Violation {
	var violations []entity.Violation
	for i, row := range rows {
		violations = append(violations, ValidateRow(i, row, period, fuelTypes)...)
	}
	return violations
}

// ValidateRow checks a single row; index is used for reporting only
func ValidateRow(index int, row entity.ExpenseRow, period entity.Period, fuelTypes FuelTypes) []entity.Violation {
	var violations []entity.Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, entity.Violation{Row: index, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	switch {
	case row.Category == "":
		add("category", "is required")
	case !row.Category.IsValid():
		add("category", "unknown category %q", row.Category)
	}

	if row.Date == "" {
		add("date", "is required")
	} else if date, err := row.ParsedDate(); err != nil {
		add("date", "invalid date %q", row.Date)
	} else if !period.Contains(date) {
		add("date", "date %s not in %s", row.Date, period)
	}

	switch row.Type {
	case entity.RowTypeFuel:
		if row.Description == "" {
			add("description", "is required")
		}
		if row.FuelType == "" {
			add("fuel_type", "is required")
		} else if fuelTypes != nil && !fuelTypes.Has(row.FuelType) {
			add("fuel_type", "unknown fuel type %q", row.FuelType)
		}
		if row.FuelType != entity.FuelNone && !money.ParseDecimal(row.Distance).IsPositive() {
			add("distance", "is required")
		}

	case entity.RowTypeCorporate:
		if row.CorporateCardID == "" {
			add("corporate_card_id", "is required")
		}

	case entity.RowTypeExpense:
		if money.Parse(row.Amount) == 0 {
			add("amount", "must be non-zero")
		}
		if row.People < 1 {
			add("people", "must be at least 1")
		}

	default:
		add("type", "unknown row type %q", row.Type)
	}

	return violations
}
