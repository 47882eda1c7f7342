package payment

import "github.com/garyjia/expense-workflow/internal/domain/entity"

// Summary is the pay breakdown of a claim
type Summary struct {
	Pays       []int64                   `json:"pays"`
	Total      int64                     `json:"total"`
	ByCategory map[entity.Category]int64 `json:"by_category"`
	ByType     map[entity.RowType]int64  `json:"by_type"`
	ByGroup    map[entity.RowGroup]int64 `json:"by_group"`
}

// Summarize computes per-row pay and the totals of a claim
func (c *Calculator) Summarize(claim *entity.ExpenseClaim, ctx Context, pricing Pricing) Summary {
	s := Summary{
		Pays:       c.Pays(claim.Rows, ctx, pricing),
		ByCategory: make(map[entity.Category]int64),
		ByType:     make(map[entity.RowType]int64),
		ByGroup:    make(map[entity.RowGroup]int64),
	}
	for i, row := range claim.Rows {
		pay := s.Pays[i]
		s.Total += pay
		if row.Category != "" {
			s.ByCategory[row.Category] += pay
		}
		s.ByType[row.Type] += pay
		group := row.Group
		if group == "" {
			group = entity.GroupExpense
		}
		s.ByGroup[group] += pay
	}
	return s
}

// Stamp records the current pay of every row as its stored pay and clears the dirty flags.
// It returns a new claim and leaves the input untouched.
func (c *Calculator) Stamp(claim *entity.ExpenseClaim, ctx Context, pricing Pricing) *entity.ExpenseClaim {
	out := claim.Clone()
	for i := range out.Rows {
		pay := c.ComputePay(claim.Rows[i], ctx, pricing)
		out.Rows[i].StoredPay = &pay
		out.Rows[i].Dirty = false
	}
	return out
}
