package service

import (
	"context"
	"io"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
)

// Mock repositories
type mockClaimGateway struct {
	fetchClaimFunc        func(ctx context.Context, period entity.Period, ownerID string) (*entity.ExpenseClaim, error)
	fetchClaimByIDFunc    func(ctx context.Context, id int64) (*entity.ExpenseClaim, error)
	saveClaimFunc         func(ctx context.Context, claim *entity.ExpenseClaim, target entity.Status) (port.SaveResult, error)
	updateClaimStatusFunc func(ctx context.Context, id int64, status entity.Status, reason string) error
	setManagerCheckedFunc func(ctx context.Context, id int64) error
	deleteRowFunc         func(ctx context.Context, claimID, rowID int64) error
	listClaimsFunc        func(ctx context.Context, period entity.Period) ([]*entity.ExpenseClaim, error)

	saved         []*entity.ExpenseClaim
	savedTargets  []entity.Status
	statusUpdates []entity.Status
	deletedRows   []int64
	checked       []int64
}

func (m *mockClaimGateway) FetchClaim(ctx context.Context, period entity.Period, ownerID string) (*entity.ExpenseClaim, error) {
	if m.fetchClaimFunc != nil {
		return m.fetchClaimFunc(ctx, period, ownerID)
	}
	return nil, nil
}

func (m *mockClaimGateway) FetchClaimByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	if m.fetchClaimByIDFunc != nil {
		return m.fetchClaimByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockClaimGateway) SaveClaim(ctx context.Context, claim *entity.ExpenseClaim, target entity.Status) (port.SaveResult, error) {
	if m.saveClaimFunc != nil {
		return m.saveClaimFunc(ctx, claim, target)
	}
	if claim.ID == 0 {
		claim.ID = 10
	}
	for i := range claim.Rows {
		if claim.Rows[i].RowID == nil {
			claim.Rows[i].RowID = entity.Ptr(int64(1000 + i))
		}
	}
	m.saved = append(m.saved, claim.Clone())
	m.savedTargets = append(m.savedTargets, target)
	return port.SaveResult{Success: true}, nil
}

func (m *mockClaimGateway) UpdateClaimStatus(ctx context.Context, id int64, status entity.Status, reason string) error {
	if m.updateClaimStatusFunc != nil {
		return m.updateClaimStatusFunc(ctx, id, status, reason)
	}
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

func (m *mockClaimGateway) SetManagerChecked(ctx context.Context, id int64) error {
	if m.setManagerCheckedFunc != nil {
		return m.setManagerCheckedFunc(ctx, id)
	}
	m.checked = append(m.checked, id)
	return nil
}

func (m *mockClaimGateway) DeleteRow(ctx context.Context, claimID, rowID int64) error {
	if m.deleteRowFunc != nil {
		return m.deleteRowFunc(ctx, claimID, rowID)
	}
	m.deletedRows = append(m.deletedRows, rowID)
	return nil
}

func (m *mockClaimGateway) ListClaims(ctx context.Context, period entity.Period) ([]*entity.ExpenseClaim, error) {
	if m.listClaimsFunc != nil {
		return m.listClaimsFunc(ctx, period)
	}
	return []*entity.ExpenseClaim{}, nil
}

type mockSettingsRepo struct {
	fetchFuelSettingsFunc func(ctx context.Context, period entity.Period) (*entity.FuelSettings, error)
	saveFuelSettingsFunc  func(ctx context.Context, settings *entity.FuelSettings) error
	cards                 []entity.CorporateCard
}

func (m *mockSettingsRepo) FetchFuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error) {
	if m.fetchFuelSettingsFunc != nil {
		return m.fetchFuelSettingsFunc(ctx, period)
	}
	return nil, nil
}

func (m *mockSettingsRepo) SaveFuelSettings(ctx context.Context, settings *entity.FuelSettings) error {
	if m.saveFuelSettingsFunc != nil {
		return m.saveFuelSettingsFunc(ctx, settings)
	}
	return nil
}

func (m *mockSettingsRepo) FetchCorporateCards(ctx context.Context) ([]entity.CorporateCard, error) {
	return m.cards, nil
}

func (m *mockSettingsRepo) SaveCorporateCard(ctx context.Context, card entity.CorporateCard) error {
	m.cards = append(m.cards, card)
	return nil
}

type mockDraftStore struct {
	drafts  map[draft.Key]*entity.ExpenseClaim
	loadErr error
	cleared []draft.Key
}

func newMockDraftStore() *mockDraftStore {
	return &mockDraftStore{drafts: make(map[draft.Key]*entity.ExpenseClaim)}
}

func (m *mockDraftStore) Load(ctx context.Context, key draft.Key) (*entity.ExpenseClaim, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.drafts[key].Clone(), nil
}

func (m *mockDraftStore) Store(ctx context.Context, key draft.Key, claim *entity.ExpenseClaim) error {
	m.drafts[key] = claim.Clone()
	return nil
}

func (m *mockDraftStore) Clear(ctx context.Context, key draft.Key) error {
	m.cleared = append(m.cleared, key)
	delete(m.drafts, key)
	return nil
}

type mockHistoryRepo struct {
	createFunc func(ctx context.Context, history *entity.StatusHistory) error
	entries    []*entity.StatusHistory
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.StatusHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	m.entries = append(m.entries, history)
	return nil
}

func (m *mockHistoryRepo) GetByClaimID(ctx context.Context, claimID int64) ([]*entity.StatusHistory, error) {
	var out []*entity.StatusHistory
	for _, h := range m.entries {
		if h.ClaimID == claimID {
			out = append(out, h)
		}
	}
	return out, nil
}

type mockNotifier struct {
	err       error
	submitted []int64
	approved  []int64
	rejected  []string
}

func (m *mockNotifier) ClaimSubmitted(ctx context.Context, claim *entity.ExpenseClaim, total int64) error {
	m.submitted = append(m.submitted, total)
	return m.err
}

func (m *mockNotifier) ClaimApproved(ctx context.Context, claim *entity.ExpenseClaim) error {
	m.approved = append(m.approved, claim.ID)
	return m.err
}

func (m *mockNotifier) ClaimRejected(ctx context.Context, claim *entity.ExpenseClaim, reason string) error {
	m.rejected = append(m.rejected, reason)
	return m.err
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockStatementWriter struct {
	statements []port.Statement
	err        error
}

func (m *mockStatementWriter) Write(w io.Writer, statements []port.Statement) error {
	m.statements = statements
	if m.err != nil {
		return m.err
	}
	_, err := io.WriteString(w, "statements")
	return err
}

func (m *mockStatementWriter) ContentType() string { return "text/plain" }
func (m *mockStatementWriter) Extension() string   { return ".txt" }
