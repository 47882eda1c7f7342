package entity

// Status is the lifecycle status of an ExpenseClaim
type Status string

// Claim status constants
const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusModify       Status = "MODIFY"
	StatusApproved     Status = "APPROVED"
	StatusRejected     Status = "REJECTED"
	StatusCompleted    Status = "COMPLETED"
	StatusNotSubmitted Status = "NOT_SUBMITTED"
)

// IsOpen reports whether the owner still holds the claim (DRAFT or REJECTED).
// Pay is recomputed live for open claims.
func (s Status) IsOpen() bool {
	return s == StatusDraft || s == StatusRejected
}

// InReview reports whether the claim is waiting on a manager (SUBMITTED or MODIFY)
func (s Status) InReview() bool {
	return s == StatusSubmitted || s == StatusModify
}

// IsFinal reports whether the claim can no longer change
func (s Status) IsFinal() bool {
	return s == StatusCompleted || s == StatusNotSubmitted
}

func (s Status) String() string {
	return string(s)
}

// RowGroup separates employee spend from administrative card spend
type RowGroup string

// Row group constants
const (
	GroupExpense   RowGroup = "EXPENSE"
	GroupCorporate RowGroup = "CORPORATE"
)

// RowType selects which row fields are meaningful and which pay rule applies
type RowType string

// Row type constants
const (
	RowTypeExpense   RowType = "expense"
	RowTypeFuel      RowType = "fuel"
	RowTypeCorporate RowType = "corporate"
)

// Category is the business classification of a row
type Category string

// Category constants
const (
	CategoryLunch   Category = "LUNCH"
	CategoryDinner  Category = "DINNER"
	CategoryParty   Category = "PARTY"
	CategoryMeeting Category = "MEETING"
	CategoryUtility Category = "UTILITY"
	CategoryFuel    Category = "FUEL"
	CategoryEtc     Category = "ETC"
)

var validCategories = map[Category]bool{
	CategoryLunch:   true,
	CategoryDinner:  true,
	CategoryParty:   true,
	CategoryMeeting: true,
	CategoryUtility: true,
	CategoryFuel:    true,
	CategoryEtc:     true,
}

// IsValid returns true if the category is one of the known codes
func (c Category) IsValid() bool {
	return validCategories[c]
}

// IsMeal returns true for categories subject to the per-person meal cap
func (c Category) IsMeal() bool {
	return c == CategoryLunch || c == CategoryDinner
}

// Fuel type names. FuelNone means only the toll fee is claimed.
const (
	FuelNone     = "none"
	FuelGasoline = "gasoline"
	FuelDiesel   = "diesel"
	FuelLPG      = "lpg"
)

// DateLayout is the wire format of row dates
const DateLayout = "2006-01-02"
