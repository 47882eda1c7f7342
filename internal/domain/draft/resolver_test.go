package draft

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

var key = Key{Period: entity.Period{Year: 2025, Month: 7}, OwnerID: "emp-1"}

type recordingConfirmer struct {
	answer bool
	err    error
	calls  int
}

func (c *recordingConfirmer) ConfirmApply(ctx context.Context, server, cached *entity.ExpenseClaim) (bool, error) {
	c.calls++
	return c.answer, c.err
}

func serverWithRows() *entity.ExpenseClaim {
	claim := entity.NewClaim(key.Period, key.OwnerID)
	claim.ID = 42
	claim.Status = entity.StatusSubmitted
	claim.Rows[0].RowID = entity.Ptr(int64(100))
	claim.Rows[0].Category = entity.CategoryLunch
	claim.Rows[0].Amount = "7000"
	return claim
}

func cachedDraft() *entity.ExpenseClaim {
	claim := entity.NewClaim(key.Period, key.OwnerID)
	claim.Memo = "july trip"
	claim.Rows[0].Category = entity.CategoryDinner
	claim.Rows[0].Amount = "15000"
	claim.Rows[0].People = 2
	claim.Rows[0].RowID = entity.Ptr(int64(5))
	claim.Rows[0].Dirty = true
	return claim
}

func TestReconcile_ServerRowsWinSilently(t *testing.T) {
	confirmer := &recordingConfirmer{answer: true}
	server := serverWithRows()

	res, err := Reconcile(context.Background(), key, server, cachedDraft(), confirmer)

	require.NoError(t, err)
	assert.Equal(t, OutcomeServer, res.Outcome)
	assert.True(t, res.DraftShadowed)
	assert.False(t, res.ClearDraft)
	assert.Equal(t, server, res.Claim)
	assert.NotSame(t, server, res.Claim)
	assert.Zero(t, confirmer.calls)
}

func TestReconcile_NeitherExists(t *testing.T) {
	res, err := Reconcile(context.Background(), key, nil, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, OutcomeBlank, res.Outcome)
	require.Len(t, res.Claim.Rows, 1)
	assert.Equal(t, entity.RowTypeExpense, res.Claim.Rows[0].Type)
	assert.Equal(t, "2025-07-01", res.Claim.Rows[0].Date)
	assert.Equal(t, entity.StatusDraft, res.Claim.Status)
	assert.Equal(t, "emp-1", res.Claim.OwnerID)
}

func TestReconcile_EmptyServerClaimGetsBlankRow(t *testing.T) {
	server := &entity.ExpenseClaim{ID: 9, Period: key.Period, OwnerID: key.OwnerID, Status: entity.StatusDraft, Memo: "kept"}

	res, err := Reconcile(context.Background(), key, server, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, int64(9), res.Claim.ID)
	assert.Equal(t, "kept", res.Claim.Memo)
	assert.Len(t, res.Claim.Rows, 1)
	assert.Empty(t, server.Rows)
}

func TestReconcile_AmbiguousWithoutConfirmerIsConflict(t *testing.T) {
	cached := cachedDraft()

	_, err := Reconcile(context.Background(), key, nil, cached, nil)

	var conflict *entity.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, entity.ErrConflict)
	assert.Nil(t, conflict.Server)
	assert.Equal(t, cached, conflict.Cached)
}

func TestReconcile_ConfirmApply(t *testing.T) {
	confirmer := &recordingConfirmer{answer: true}
	server := &entity.ExpenseClaim{ID: 9, Period: key.Period, OwnerID: key.OwnerID, Status: entity.StatusRejected}

	res, err := Reconcile(context.Background(), key, server, cachedDraft(), confirmer)

	require.NoError(t, err)
	assert.Equal(t, 1, confirmer.calls)
	assert.Equal(t, OutcomeDraftApplied, res.Outcome)
	assert.Equal(t, int64(9), res.Claim.ID)
	assert.Equal(t, entity.StatusRejected, res.Claim.Status)
	assert.Equal(t, "july trip", res.Claim.Memo)
	require.Len(t, res.Claim.Rows, 1)
	assert.Equal(t, entity.CategoryDinner, res.Claim.Rows[0].Category)
	assert.Nil(t, res.Claim.Rows[0].RowID)
	assert.True(t, res.Claim.Rows[0].Dirty)
}

func TestReconcile_ConfirmDecline(t *testing.T) {
	res, err := Reconcile(context.Background(), key, nil, cachedDraft(), AlwaysDiscard)

	require.NoError(t, err)
	assert.Equal(t, OutcomeDraftDeclined, res.Outcome)
	assert.True(t, res.ClearDraft)
	assert.Empty(t, res.Claim.Rows[0].Amount)
}

func TestReconcile_ConfirmerError(t *testing.T) {
	boom := errors.New("prompt closed")

	_, err := Reconcile(context.Background(), key, nil, cachedDraft(), &recordingConfirmer{err: boom})

	assert.ErrorIs(t, err, boom)
}

func TestReconcile_IdenticalDraftNeedsNoPrompt(t *testing.T) {
	confirmer := &recordingConfirmer{answer: true}
	cached := entity.NewClaim(key.Period, key.OwnerID)
	cached.Rows[0].Dirty = true

	res, err := Reconcile(context.Background(), key, nil, cached, confirmer)

	require.NoError(t, err)
	assert.Equal(t, OutcomeBlank, res.Outcome)
	assert.Zero(t, confirmer.calls)
}

func TestReconcile_LockedEmptyServerKeepsDraftCached(t *testing.T) {
	server := &entity.ExpenseClaim{ID: 3, Period: key.Period, OwnerID: key.OwnerID, Status: entity.StatusNotSubmitted}

	res, err := Reconcile(context.Background(), key, server, cachedDraft(), AlwaysApply)

	require.NoError(t, err)
	assert.Equal(t, OutcomeServer, res.Outcome)
	assert.True(t, res.DraftShadowed)
	assert.False(t, res.ClearDraft)
	assert.Equal(t, entity.StatusNotSubmitted, res.Claim.Status)
}

func TestKey(t *testing.T) {
	claim := entity.NewClaim(key.Period, "emp-1")
	assert.Equal(t, key, KeyFor(claim))
	assert.Equal(t, "2025-07/emp-1", key.String())
}
