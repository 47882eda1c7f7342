package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-workflow/pkg/database"
)

var july = entity.Period{Year: 2025, Month: 7}

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	logger := zap.NewNop()

	raw, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "expense.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })

	_, err = database.NewMigrator(raw, database.Migrations(), logger).Run(context.Background())
	require.NoError(t, err)

	return sqlite.NewDB(raw.DB, logger)
}

func sampleClaim() *entity.ExpenseClaim {
	claim := entity.NewClaim(july, "emp-1")
	claim.Memo = "july"
	claim.VehicleEfficiency = decimal.RequireFromString("15")
	claim.DerivedBaseEfficiency = decimal.RequireFromString("12.8")
	claim.Rows = []entity.ExpenseRow{
		{
			Group: entity.GroupExpense, Type: entity.RowTypeExpense, Category: entity.CategoryLunch,
			Date: "2025-07-03", Amount: "7000", People: 1, StoredPay: entity.Ptr(int64(7000)),
		},
		{
			Group: entity.GroupExpense, Type: entity.RowTypeFuel, Category: entity.CategoryFuel,
			Date: "2025-07-04", Description: "site visit", FuelType: entity.FuelGasoline,
			Distance: "120.5", TollFee: "3000", People: 1,
		},
	}
	return claim
}

func TestClaimRepository_SaveAndFetch(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	claim := sampleClaim()
	res, err := repo.SaveClaim(ctx, claim, entity.StatusDraft)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotZero(t, claim.ID)
	require.NotNil(t, claim.Rows[0].RowID)
	require.NotNil(t, claim.Rows[1].RowID)

	got, err := repo.FetchClaim(ctx, july, "emp-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, claim.ID, got.ID)
	assert.Equal(t, july, got.Period)
	assert.Equal(t, "july", got.Memo)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.True(t, got.VehicleEfficiency.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, "12.8", got.DerivedBaseEfficiency.String())
	require.Len(t, got.Rows, 2)
	assert.Equal(t, int64(7000), *got.Rows[0].StoredPay)
	assert.Nil(t, got.Rows[1].StoredPay)
	assert.Equal(t, "120.5", got.Rows[1].Distance)
	assert.Equal(t, entity.RowTypeFuel, got.Rows[1].Type)
	assert.False(t, got.CreatedAt.IsZero())

	byID, err := repo.FetchClaimByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Rows, byID.Rows)

	missing, err := repo.FetchClaim(ctx, july, "emp-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestClaimRepository_UpdateWithDeletions(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	claim := sampleClaim()
	_, err := repo.SaveClaim(ctx, claim, entity.StatusDraft)
	require.NoError(t, err)

	removed := *claim.Rows[1].RowID
	claim.DeletedRowIDs = []int64{removed}
	claim.Rows = claim.Rows[:1]
	claim.Rows[0].Amount = "6500"
	claim.Rows = append(claim.Rows, entity.ExpenseRow{
		Group: entity.GroupCorporate, Type: entity.RowTypeCorporate, Category: entity.CategoryEtc,
		Date: "2025-07-09", Amount: "42000", CorporateCardID: "card-1", Merchant: "Office Depot", People: 1,
	})

	res, err := repo.SaveClaim(ctx, claim, entity.StatusSubmitted)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Empty(t, claim.DeletedRowIDs)

	got, err := repo.FetchClaimByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "6500", got.Rows[0].Amount)
	assert.Equal(t, "card-1", got.Rows[1].CorporateCardID)
	for _, row := range got.Rows {
		assert.NotEqual(t, removed, *row.RowID)
	}
}

func TestClaimRepository_LockedClaimRejectsSave(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	claim := sampleClaim()
	_, err := repo.SaveClaim(ctx, claim, entity.StatusSubmitted)
	require.NoError(t, err)
	require.NoError(t, repo.SetManagerChecked(ctx, claim.ID))

	claim.Memo = "changed"
	res, err := repo.SaveClaim(ctx, claim, entity.StatusModify)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "locked")

	got, err := repo.FetchClaimByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, "july", got.Memo)
	assert.True(t, got.ManagerChecked)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
}

func TestClaimRepository_VanishedRowRollsBack(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	claim := sampleClaim()
	_, err := repo.SaveClaim(ctx, claim, entity.StatusSubmitted)
	require.NoError(t, err)
	require.NoError(t, repo.DeleteRow(ctx, claim.ID, *claim.Rows[1].RowID))

	claim.Memo = "edited"
	res, err := repo.SaveClaim(ctx, claim, entity.StatusModify)
	require.NoError(t, err)
	assert.False(t, res.Success)

	got, err := repo.FetchClaimByID(ctx, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, "july", got.Memo)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
	assert.Len(t, got.Rows, 1)
}

func TestClaimRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	assert.ErrorIs(t, repo.UpdateClaimStatus(ctx, 404, entity.StatusApproved, ""), entity.ErrClaimNotFound)
	assert.ErrorIs(t, repo.SetManagerChecked(ctx, 404), entity.ErrClaimNotFound)
	assert.ErrorIs(t, repo.DeleteRow(ctx, 404, 1), entity.ErrRowNotFound)

	_, err := repo.SaveClaim(ctx, sampleClaim(), entity.StatusDraft)
	require.NoError(t, err)
	// one claim per owner and period
	_, err = repo.SaveClaim(ctx, sampleClaim(), entity.StatusDraft)
	assert.Error(t, err)
}

func TestClaimRepository_StatusAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewClaimRepository(newTestDB(t), zap.NewNop())

	first := sampleClaim()
	_, err := repo.SaveClaim(ctx, first, entity.StatusSubmitted)
	require.NoError(t, err)
	second := sampleClaim()
	second.OwnerID = "emp-0"
	_, err = repo.SaveClaim(ctx, second, entity.StatusDraft)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateClaimStatus(ctx, first.ID, entity.StatusRejected, "missing receipt"))

	claims, err := repo.ListClaims(ctx, july)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "emp-0", claims[0].OwnerID)
	assert.Equal(t, entity.StatusRejected, claims[1].Status)
	assert.Len(t, claims[1].Rows, 2)

	empty, err := repo.ListClaims(ctx, july.Next())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingsRepository(newTestDB(t), zap.NewNop())

	settings, err := repo.FetchFuelSettings(ctx, july)
	require.NoError(t, err)
	assert.Nil(t, settings)

	in := &entity.FuelSettings{
		Period:          july,
		GasolinePrice:   decimal.RequireFromString("1689.5"),
		DieselPrice:     decimal.NewFromInt(1550),
		LPGPrice:        decimal.NewFromInt(990),
		BaseEfficiency:  decimal.NewFromInt(10),
		MaintenanceRate: decimal.RequireFromString("1.1"),
	}
	require.NoError(t, repo.SaveFuelSettings(ctx, in))
	in.DieselPrice = decimal.NewFromInt(1600)
	require.NoError(t, repo.SaveFuelSettings(ctx, in))

	got, err := repo.FetchFuelSettings(ctx, july)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1689.5", got.GasolinePrice.String())
	assert.Equal(t, "1600", got.DieselPrice.String())
	assert.Equal(t, "1.1", got.MaintenanceRate.String())

	cards, err := repo.FetchCorporateCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, cards)

	require.NoError(t, repo.SaveCorporateCard(ctx, entity.CorporateCard{ID: "b", Name: "Travel", Active: true}))
	require.NoError(t, repo.SaveCorporateCard(ctx, entity.CorporateCard{ID: "a", Name: "Ops", Active: true}))
	require.NoError(t, repo.SaveCorporateCard(ctx, entity.CorporateCard{ID: "a", Name: "Ops", Active: false}))

	cards, err = repo.FetchCorporateCards(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.CorporateCard{{ID: "a", Name: "Ops", Active: false}, {ID: "b", Name: "Travel", Active: true}}, cards)
}

func TestHistoryRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	claims := NewClaimRepository(db, zap.NewNop())
	repo := NewHistoryRepository(db, zap.NewNop())

	claim := sampleClaim()
	_, err := claims.SaveClaim(ctx, claim, entity.StatusSubmitted)
	require.NoError(t, err)

	err = db.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := repo.Create(txCtx, &entity.StatusHistory{ClaimID: claim.ID, FromStatus: entity.StatusDraft, ToStatus: entity.StatusSubmitted, ActorID: "emp-1"}); err != nil {
			return err
		}
		return repo.Create(txCtx, &entity.StatusHistory{ClaimID: claim.ID, FromStatus: entity.StatusSubmitted, ToStatus: entity.StatusRejected, ActorID: "mgr-1", Reason: "late"})
	})
	require.NoError(t, err)

	history, err := repo.GetByClaimID(ctx, claim.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.StatusSubmitted, history[0].ToStatus)
	assert.Equal(t, "late", history[1].Reason)
	assert.False(t, history[1].CreatedAt.IsZero())

	t.Run("outside a transaction", func(t *testing.T) {
		err := repo.Create(ctx, &entity.StatusHistory{ClaimID: claim.ID, FromStatus: entity.StatusRejected, ToStatus: entity.StatusDraft, ActorID: "emp-1"})
		assert.ErrorIs(t, err, sqlite.ErrNoTransaction)

		history, err := repo.GetByClaimID(ctx, claim.ID)
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestDraftRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDraftRepository(newTestDB(t), zap.NewNop())
	key := draft.Key{Period: july, OwnerID: "emp-1"}

	got, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	claim := sampleClaim()
	claim.Rows[0].Dirty = true
	require.NoError(t, repo.Store(ctx, key, claim))
	claim.Memo = "second"
	require.NoError(t, repo.Store(ctx, key, claim))

	got, err = repo.Load(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Memo)
	assert.Equal(t, july, got.Period)
	assert.Equal(t, "12.8", got.DerivedBaseEfficiency.String())
	require.Len(t, got.Rows, 2)
	assert.True(t, got.Rows[0].Dirty)
	assert.Equal(t, int64(7000), *got.Rows[0].StoredPay)

	require.NoError(t, repo.Clear(ctx, key))
	require.NoError(t, repo.Clear(ctx, key))
	got, err = repo.Load(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}
