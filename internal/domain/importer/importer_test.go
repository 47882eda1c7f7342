package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

var (
	may  = entity.Period{Year: 2025, Month: 5}
	june = entity.Period{Year: 2025, Month: 6}
)

func committedRows() []entity.ExpenseRow {
	return []entity.ExpenseRow{
		{
			RowID: entity.Ptr(int64(1)), Type: entity.RowTypeExpense, Group: entity.GroupExpense,
			Category: entity.CategoryLunch, Date: "2025-05-15", Amount: "9000", People: 1,
			StoredPay: entity.Ptr(int64(8000)), ManagerConfirmed: true,
		},
		{
			RowID: entity.Ptr(int64(2)), Type: entity.RowTypeFuel, Group: entity.GroupExpense,
			Category: entity.CategoryFuel, Date: "2025-05-20", Description: "commute",
			FuelType: entity.FuelDiesel, Distance: "42.5", TollFee: "1,800",
		},
		{
			RowID: entity.Ptr(int64(3)), Type: entity.RowTypeCorporate, Group: entity.GroupCorporate,
			Category: entity.CategoryMeeting, Date: "2025-05-31", CorporateCardID: "card-9",
			Merchant: "Cafe", Amount: "33000",
		},
	}
}

func TestImportFromPeriod_KeepsDayOfMonth(t *testing.T) {
	source := committedRows()[:1]

	got := ImportFromPeriod(source, june)

	require.Len(t, got, 1)
	assert.Equal(t, "2025-06-15", got[0].Date)
	assert.Nil(t, got[0].RowID)
	assert.True(t, got[0].Dirty)
	assert.Nil(t, got[0].StoredPay)
	assert.False(t, got[0].ManagerConfirmed)
}

func TestImportFromPeriod_PreservesTypeFields(t *testing.T) {
	source := committedRows()

	got := ImportFromPeriod(source, june)

	require.Len(t, got, len(source))
	for i := range source {
		src, dst := source[i], got[i]
		srcDate, err := src.ParsedDate()
		require.NoError(t, err)
		dstDate, err := dst.ParsedDate()
		require.NoError(t, err)

		assert.Equal(t, src.Type, dst.Type)
		assert.Equal(t, src.Group, dst.Group)
		assert.Equal(t, src.Category, dst.Category)
		assert.Equal(t, src.Amount, dst.Amount)
		assert.Equal(t, src.People, dst.People)
		assert.Equal(t, src.FuelType, dst.FuelType)
		assert.Equal(t, src.Distance, dst.Distance)
		assert.Equal(t, src.TollFee, dst.TollFee)
		assert.Equal(t, src.CorporateCardID, dst.CorporateCardID)
		assert.Equal(t, src.Merchant, dst.Merchant)
		assert.Equal(t, src.Description, dst.Description)
		if srcDate.Day() <= june.Days() {
			assert.Equal(t, srcDate.Day(), dstDate.Day())
		}
		assert.True(t, june.Contains(dstDate))
	}
}

func TestImportFromPeriod_ClampsShortMonth(t *testing.T) {
	got := ImportFromPeriod(committedRows()[2:], june)
	assert.Equal(t, "2025-06-30", got[0].Date)

	feb := entity.Period{Year: 2025, Month: 2}
	got = ImportFromPeriod([]entity.ExpenseRow{{Type: entity.RowTypeExpense, Date: "2025-01-31"}}, feb)
	assert.Equal(t, "2025-02-28", got[0].Date)
}

func TestImportFromPeriod_UndatedRowLandsOnFirstDay(t *testing.T) {
	got := ImportFromPeriod([]entity.ExpenseRow{{Type: entity.RowTypeExpense}}, june)
	assert.Equal(t, "2025-06-01", got[0].Date)
}

func TestImportFromPeriod_DoesNotMutateSource(t *testing.T) {
	source := committedRows()

	got := ImportFromPeriod(source, june)
	got[1].Distance = "999"

	assert.Equal(t, "2025-05-15", source[0].Date)
	require.NotNil(t, source[0].RowID)
	assert.Equal(t, int64(1), *source[0].RowID)
	assert.Equal(t, int64(8000), *source[0].StoredPay)
	assert.False(t, source[0].Dirty)
	assert.Equal(t, "42.5", source[1].Distance)
}

func TestAppendImported(t *testing.T) {
	claim := entity.NewClaim(june, "emp-1")

	got := AppendImported(claim, committedRows())

	assert.Len(t, got.Rows, 4)
	assert.Len(t, claim.Rows, 1)
	assert.Equal(t, entity.NewBlankRow(june), got.Rows[0])
}
