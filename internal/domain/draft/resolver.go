// Package draft reconciles a locally cached draft with the claim fetched from the server.
//
// Server rows always win. A cached draft is only offered when the server has nothing for
// the period, and only a Confirmer may accept it; without one the caller gets a
// *entity.ConflictError carrying both versions.
package draft

import (
	"context"
	"fmt"
	"reflect"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// Key identifies a cached draft
type Key struct {
	Period  entity.Period
	OwnerID string
}

// KeyFor returns the cache key of a claim
func KeyFor(claim *entity.ExpenseClaim) Key {
	return Key{Period: claim.Period, OwnerID: claim.OwnerID}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Period, k.OwnerID)
}

// Confirmer decides whether a cached draft replaces an empty server claim.
// server is nil when the period has no claim yet.
type Confirmer interface {
	ConfirmApply(ctx context.Context, server, cached *entity.ExpenseClaim) (bool, error)
}

// ConfirmerFunc adapts a function to Confirmer
type ConfirmerFunc func(ctx context.Context, server, cached *entity.ExpenseClaim) (bool, error)

// ConfirmApply calls f
func (f ConfirmerFunc) ConfirmApply(ctx context.Context, server, cached *entity.ExpenseClaim) (bool, error) {
	return f(ctx, server, cached)
}

// Fixed policies for callers that already asked the user
var (
	AlwaysApply   Confirmer = ConfirmerFunc(func(context.Context, *entity.ExpenseClaim, *entity.ExpenseClaim) (bool, error) { return true, nil })
	AlwaysDiscard Confirmer = ConfirmerFunc(func(context.Context, *entity.ExpenseClaim, *entity.ExpenseClaim) (bool, error) { return false, nil })
)

// Outcome tells which data the resolved claim came from
type Outcome string

const (
	OutcomeServer        Outcome = "server"
	OutcomeDraftApplied  Outcome = "draft_applied"
	OutcomeDraftDeclined Outcome = "draft_declined"
	OutcomeBlank         Outcome = "blank"
)

// Resolution is the result of Reconcile
type Resolution struct {
	Claim   *entity.ExpenseClaim
	Outcome Outcome
	// DraftShadowed is set when a cached draft exists but the server version was used; the cache is kept
	DraftShadowed bool
	// ClearDraft asks the caller to drop the cached draft
	ClearDraft bool
}

// Reconcile merges the server claim and the cached draft for key. Inputs are never modified.
func Reconcile(ctx context.Context, key Key, server, cached *entity.ExpenseClaim, confirmer Confirmer) (Resolution, error) {
	if server.HasRows() {
		return Resolution{Claim: server.Clone(), Outcome: OutcomeServer, DraftShadowed: cached != nil}, nil
	}

	base := blankFrom(key, server)
	if !cached.HasRows() {
		return Resolution{Claim: base, Outcome: OutcomeBlank}, nil
	}

	// a non-editable server claim cannot take the draft
	if server != nil && !server.Status.IsOpen() {
		return Resolution{Claim: base, Outcome: OutcomeServer, DraftShadowed: true}, nil
	}

	applied := applyDraft(base, cached)
	if sameContent(base, applied) {
		return Resolution{Claim: base, Outcome: OutcomeBlank}, nil
	}

	if confirmer == nil {
		return Resolution{}, &entity.ConflictError{Server: server.Clone(), Cached: cached.Clone()}
	}

	ok, err := confirmer.ConfirmApply(ctx, server.Clone(), cached.Clone())
	if err != nil {
		return Resolution{}, fmt.Errorf("confirm cached draft %s: %w", key, err)
	}
	if !ok {
		return Resolution{Claim: base, Outcome: OutcomeDraftDeclined, ClearDraft: true}, nil
	}
	return Resolution{Claim: applied, Outcome: OutcomeDraftApplied}, nil
}

// blankFrom returns the server claim, or a new claim, with a single blank row when it has none
func blankFrom(key Key, server *entity.ExpenseClaim) *entity.ExpenseClaim {
	if server == nil {
		return entity.NewClaim(key.Period, key.OwnerID)
	}
	claim := server.Clone()
	if len(claim.Rows) == 0 {
		claim.Rows = []entity.ExpenseRow{entity.NewBlankRow(claim.Period)}
	}
	return claim
}

// applyDraft keeps the identity and status of base and takes the editable content of cached.
// Row identities from the cache are dropped since the server holds no rows.
func applyDraft(base, cached *entity.ExpenseClaim) *entity.ExpenseClaim {
	claim := base.Clone()
	claim.Memo = cached.Memo
	claim.VehicleEfficiency = cached.VehicleEfficiency
	claim.DerivedBaseEfficiency = cached.DerivedBaseEfficiency
	claim.DeletedRowIDs = nil
	claim.Rows = make([]entity.ExpenseRow, len(cached.Rows))
	for i, row := range cached.Rows {
		row = row.Clone()
		row.RowID = nil
		row.StoredPay = nil
		row.ManagerConfirmed = false
		row.Dirty = true
		claim.Rows[i] = row
	}
	return claim
}

func sameContent(a, b *entity.ExpenseClaim) bool {
	if a.Memo != b.Memo || !a.VehicleEfficiency.Equal(b.VehicleEfficiency) || len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		x, y := a.Rows[i].Clone(), b.Rows[i].Clone()
		x.Dirty, y.Dirty = false, false
		if !reflect.DeepEqual(x, y) {
			return false
		}
	}
	return true
}
