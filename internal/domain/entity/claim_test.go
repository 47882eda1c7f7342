package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpenseRow_SameInput(t *testing.T) {
	base := ExpenseRow{RowID: Ptr(int64(1)), Category: CategoryLunch, Date: "2025-07-03", Amount: "7000", People: 1, StoredPay: Ptr(int64(7000))}

	other := base.Clone()
	other.RowID = Ptr(int64(2))
	other.StoredPay = nil
	other.ManagerConfirmed = true
	other.Dirty = true
	assert.True(t, base.SameInput(other))

	other.Amount = "7001"
	assert.False(t, base.SameInput(other))
}

func TestExpenseClaim_RowByID(t *testing.T) {
	claim := &ExpenseClaim{Rows: []ExpenseRow{{Amount: "1"}, {RowID: Ptr(int64(9)), Amount: "2"}}}

	row, ok := claim.RowByID(9)
	assert.True(t, ok)
	assert.Equal(t, "2", row.Amount)

	_, ok = claim.RowByID(1)
	assert.False(t, ok)
}
