package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseClaim is one employee's expense claim for a billing period
type ExpenseClaim struct {
	ID                    int64           `json:"id"`
	Period                Period          `json:"period"`
	OwnerID               string          `json:"owner_id"`
	Memo                  string          `json:"memo"`
	VehicleEfficiency     decimal.Decimal `json:"vehicle_efficiency"`
	DerivedBaseEfficiency decimal.Decimal `json:"derived_base_efficiency"`
	Status                Status          `json:"status"`
	ManagerChecked        bool            `json:"manager_checked"`
	Rows                  []ExpenseRow    `json:"rows"`
	// DeletedRowIDs queues persisted rows removed locally; they are deleted on the next save.
	DeletedRowIDs []int64   `json:"deleted_row_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ExpenseRow is one line item of a claim
type ExpenseRow struct {
	RowID       *int64   `json:"row_id"`
	Group       RowGroup `json:"group"`
	Type        RowType  `json:"type"`
	Category    Category `json:"category"`
	Date        string   `json:"date"`
	Description string   `json:"description"`

	// expense and corporate
	Amount string `json:"amount"`
	People int    `json:"people"`

	// fuel
	FuelType string `json:"fuel_type"`
	Distance string `json:"distance"`
	TollFee  string `json:"toll_fee"`

	// corporate
	CorporateCardID string `json:"corporate_card_id"`
	Merchant        string `json:"merchant"`

	ManagerConfirmed bool   `json:"manager_confirmed"`
	StoredPay        *int64 `json:"stored_pay"`
	Dirty            bool   `json:"dirty"`
}

// NewClaim returns a DRAFT claim with a single blank row dated the first day of the period
func NewClaim(period Period, ownerID string) *ExpenseClaim {
	return &ExpenseClaim{
		Period:  period,
		OwnerID: ownerID,
		Status:  StatusDraft,
		Rows:    []ExpenseRow{NewBlankRow(period)},
	}
}

// NewBlankRow returns an empty expense row dated the first day of the period
func NewBlankRow(period Period) ExpenseRow {
	return ExpenseRow{
		Group:  GroupExpense,
		Type:   RowTypeExpense,
		Date:   period.FirstDay().Format(DateLayout),
		People: 1,
	}
}

// ParsedDate parses the row date in DateLayout
func (r ExpenseRow) ParsedDate() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// IsPersisted reports whether the row has a server identity
func (r ExpenseRow) IsPersisted() bool {
	return r.RowID != nil
}

// SameInput reports whether both rows carry the same user-entered content.
// Identity, stored pay and the review flags are ignored.
func (r ExpenseRow) SameInput(o ExpenseRow) bool {
	r.RowID, o.RowID = nil, nil
	r.StoredPay, o.StoredPay = nil, nil
	r.ManagerConfirmed, o.ManagerConfirmed = false, false
	r.Dirty, o.Dirty = false, false
	return r == o
}

// RowByID returns the row with the given server id
func (c *ExpenseClaim) RowByID(id int64) (ExpenseRow, bool) {
	for _, row := range c.Rows {
		if row.RowID != nil && *row.RowID == id {
			return row, true
		}
	}
	return ExpenseRow{}, false
}

// Clone returns a deep copy of the row
func (r ExpenseRow) Clone() ExpenseRow {
	c := r
	if r.RowID != nil {
		id := *r.RowID
		c.RowID = &id
	}
	if r.StoredPay != nil {
		pay := *r.StoredPay
		c.StoredPay = &pay
	}
	return c
}

// Clone returns a deep copy of the claim
func (c *ExpenseClaim) Clone() *ExpenseClaim {
	if c == nil {
		return nil
	}
	out := *c
	out.Rows = make([]ExpenseRow, len(c.Rows))
	for i, row := range c.Rows {
		out.Rows[i] = row.Clone()
	}
	if c.DeletedRowIDs != nil {
		out.DeletedRowIDs = append([]int64(nil), c.DeletedRowIDs...)
	}
	return &out
}

// HasRows reports whether the claim carries any row
func (c *ExpenseClaim) HasRows() bool {
	return c != nil && len(c.Rows) > 0
}

// HasCommittedRows reports whether any row has been persisted by the server
func (c *ExpenseClaim) HasCommittedRows() bool {
	if c == nil {
		return false
	}
	for _, row := range c.Rows {
		if row.IsPersisted() {
			return true
		}
	}
	return false
}

// CommittedRows returns the rows that have a server identity
func (c *ExpenseClaim) CommittedRows() []ExpenseRow {
	if c == nil {
		return nil
	}
	rows := make([]ExpenseRow, 0, len(c.Rows))
	for _, row := range c.Rows {
		if row.IsPersisted() {
			rows = append(rows, row)
		}
	}
	return rows
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
