// Package importer projects committed rows of a prior period onto a new period.
package importer

import (
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// ImportFromPeriod copies source rows into target, keeping each row's day of month.
// Days past the end of the target month are clamped to its last day; undated rows land on
// the first day. Imported rows are new: no row id, no stored pay, no manager confirmation,
// and dirty. Type-specific fields are copied verbatim. The source slice is not modified.
func ImportFromPeriod(source []entity.ExpenseRow, target entity.Period) []entity.ExpenseRow {
	rows := make([]entity.ExpenseRow, 0, len(source))
	for _, src := range source {
		row := src.Clone()
		row.RowID = nil
		row.StoredPay = nil
		row.ManagerConfirmed = false
		row.Dirty = true
		row.Date = projectDate(src, target)
		rows = append(rows, row)
	}
	return rows
}

// AppendImported returns a copy of claim with the rows of source projected onto the claim period appended
func AppendImported(claim *entity.ExpenseClaim, source []entity.ExpenseRow) *entity.ExpenseClaim {
	out := claim.Clone()
	out.Rows = append(out.Rows, ImportFromPeriod(source, claim.Period)...)
	return out
}

func projectDate(row entity.ExpenseRow, target entity.Period) string {
	day := 1
	if date, err := row.ParsedDate(); err == nil {
		day = date.Day()
	}
	return target.Date(day).Format(entity.DateLayout)
}
