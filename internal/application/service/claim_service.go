package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/expense-workflow/internal/application/port"
	appwf "github.com/garyjia/expense-workflow/internal/application/workflow"
	"github.com/garyjia/expense-workflow/internal/domain/draft"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
	domainwf "github.com/garyjia/expense-workflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DraftDecision is the caller's answer to a pending cached draft
type DraftDecision string

const (
	// DraftAsk leaves the decision open; an ambiguous draft yields a ConflictError
	DraftAsk     DraftDecision = ""
	DraftApply   DraftDecision = "apply"
	DraftDiscard DraftDecision = "discard"
)

func (d DraftDecision) confirmer() draft.Confirmer {
	switch d {
	case DraftApply:
		return draft.AlwaysApply
	case DraftDiscard:
		return draft.AlwaysDiscard
	default:
		return nil
	}
}

// ClaimService drives the expense claim workflow for one viewer at a time.
// Claims passed in are client state; status, ownership and the manager lock are always re-read from the gateway.
type ClaimService interface {
	Load(ctx context.Context, view policy.ViewContext, decision DraftDecision) (*ClaimView, error)
	Quote(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error)
	SaveDraft(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) error
	Save(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error)
	Submit(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error)

	Approve(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error)
	Reject(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status, reason string) (*ClaimView, error)
	Complete(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error)
	Reopen(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error)
	MarkNotSubmitted(ctx context.Context, view policy.ViewContext, claimID int64, expected entity.Status) (*ClaimView, error)
	Check(ctx context.Context, view policy.ViewContext, claimID int64) (*ClaimView, error)

	DeleteRow(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, index int) (*ClaimView, error)
	ConfirmRow(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, index int, confirmed bool) (*ClaimView, error)
	ImportRows(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim, source entity.Period) (*ClaimView, error)

	History(ctx context.Context, view policy.ViewContext, claimID int64) ([]*entity.StatusHistory, error)
	ListPeriod(ctx context.Context, view policy.ViewContext, period entity.Period) ([]ClaimSummary, error)
}

// ClaimServiceOption configures the claim service
type ClaimServiceOption func(*claimServiceImpl)

// WithNotifier sets the notifier used after status changes
func WithNotifier(n port.Notifier) ClaimServiceOption {
	return func(s *claimServiceImpl) {
		s.notifier = n
	}
}

// WithCalculator overrides the pay calculator
func WithCalculator(c *payment.Calculator) ClaimServiceOption {
	return func(s *claimServiceImpl) {
		s.calc = c
	}
}

type claimServiceImpl struct {
	gateway   port.ClaimGateway
	settings  port.SettingsRepository
	drafts    port.DraftStore
	history   port.HistoryRepository
	txManager port.TransactionManager
	notifier  port.Notifier
	calc      *payment.Calculator
	logger    Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	gateway port.ClaimGateway,
	settings port.SettingsRepository,
	drafts port.DraftStore,
	history port.HistoryRepository,
	txManager port.TransactionManager,
	logger Logger,
	opts ...ClaimServiceOption,
) ClaimService {
	s := &claimServiceImpl{
		gateway:   gateway,
		settings:  settings,
		drafts:    drafts,
		history:   history,
		txManager: txManager,
		notifier:  nopNotifier{},
		calc:      payment.NewCalculator(payment.DefaultRules()),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the selected claim and reconciles it with the cached draft
func (s *claimServiceImpl) Load(ctx context.Context, view policy.ViewContext, decision DraftDecision) (*ClaimView, error) {
	server, key, err := s.fetchSelected(ctx, view)
	if err != nil {
		return nil, err
	}

	cached, err := s.drafts.Load(ctx, key)
	if err != nil {
		// the draft stays in the cache; it is only unavailable for this load
		s.logger.Error("Failed to load cached draft", "key", key.String(), "error", err)
		cached = nil
	}

	res, err := draft.Reconcile(ctx, key, server, cached, decision.confirmer())
	if err != nil {
		return nil, err
	}

	if res.ClearDraft {
		s.clearDraft(ctx, key)
	}

	if res.Outcome == draft.OutcomeDraftApplied {
		s.normalize(res.Claim)
	}

	cv, err := s.buildView(ctx, view, res.Claim)
	if err != nil {
		return nil, err
	}
	cv.DraftOutcome = res.Outcome
	cv.DraftShadowed = res.DraftShadowed
	return cv, nil
}

// Quote recomputes pay and editability of an unsaved claim
func (s *claimServiceImpl) Quote(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*ClaimView, error) {
	merged, _, err := s.acceptEdits(ctx, view, claim)
	if err != nil {
		return nil, err
	}
	return s.buildView(ctx, view, merged)
}

// SaveDraft stores the claim in the local draft cache
func (s *claimServiceImpl) SaveDraft(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) error {
	if claim == nil {
		return fmt.Errorf("%w: claim is required", entity.ErrValidation)
	}
	if !view.IsManager() && claim.OwnerID != view.ViewerID {
		return entity.ErrForbidden
	}

	c := claim.Clone()
	s.normalize(c)
	key := draft.KeyFor(c)
	if err := s.drafts.Store(ctx, key, c); err != nil {
		s.logger.Error("Failed to store draft", "key", key.String(), "error", err)
		return fmt.Errorf("store draft: %w", err)
	}
	return nil
}

// History returns the status audit trail of a claim
func (s *claimServiceImpl) History(ctx context.Context, view policy.ViewContext, claimID int64) ([]*entity.StatusHistory, error) {
	claim, err := s.fetchByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !policy.CanView(claim, view) {
		return nil, entity.ErrForbidden
	}

	history, err := s.history.GetByClaimID(ctx, claimID)
	if err != nil {
		return nil, entity.NewTransportError("fetch history", err)
	}
	return history, nil
}

// ListPeriod summarizes every claim of a period for managers
func (s *claimServiceImpl) ListPeriod(ctx context.Context, view policy.ViewContext, period entity.Period) ([]ClaimSummary, error) {
	if !view.IsManager() {
		return nil, entity.ErrForbidden
	}

	claims, err := s.gateway.ListClaims(ctx, period)
	if err != nil {
		return nil, entity.NewTransportError("list claims", err)
	}

	settings, err := s.fuelSettings(ctx, period)
	if err != nil {
		return nil, err
	}

	summaries := make([]ClaimSummary, 0, len(claims))
	for _, claim := range claims {
		sum := s.calc.Summarize(claim, payment.NewContext(claim, false), payment.NewPricing(settings, claim))
		summaries = append(summaries, ClaimSummary{
			ID:             claim.ID,
			Period:         claim.Period,
			OwnerID:        claim.OwnerID,
			Status:         claim.Status,
			ManagerChecked: claim.ManagerChecked,
			RowCount:       len(claim.Rows),
			Total:          sum.Total,
			UpdatedAt:      claim.UpdatedAt,
		})
	}
	return summaries, nil
}

// fetchSelected loads the claim named by the view's selection. The claim is nil for an empty period.
func (s *claimServiceImpl) fetchSelected(ctx context.Context, view policy.ViewContext) (*entity.ExpenseClaim, draft.Key, error) {
	sel := view.ClaimSelection
	if sel.ByID() {
		claim, err := s.fetchByID(ctx, sel.ClaimID)
		if err != nil {
			return nil, draft.Key{}, err
		}
		if !policy.CanView(claim, view) {
			return nil, draft.Key{}, entity.ErrForbidden
		}
		return claim, draft.KeyFor(claim), nil
	}

	if sel.Period.IsZero() {
		return nil, draft.Key{}, fmt.Errorf("%w: no period selected", entity.ErrInvalidPeriod)
	}
	key := draft.Key{Period: sel.Period, OwnerID: view.OwnerID()}
	claim, err := s.gateway.FetchClaim(ctx, key.Period, key.OwnerID)
	if err != nil {
		return nil, key, entity.NewTransportError("fetch claim", err)
	}
	return claim, key, nil
}

func (s *claimServiceImpl) fetchByID(ctx context.Context, id int64) (*entity.ExpenseClaim, error) {
	claim, err := s.gateway.FetchClaimByID(ctx, id)
	if err != nil {
		return nil, entity.NewTransportError("fetch claim", err)
	}
	if claim == nil {
		return nil, fmt.Errorf("%w: id %d", entity.ErrClaimNotFound, id)
	}
	return claim, nil
}

// acceptEdits merges client content with the authoritative server state of the claim.
// Status, owner, period and the manager lock come from the server; a status mismatch is stale.
// Stored pay and manager confirmation of each row are taken from the server row with the same id,
// and the dirty flag is raised for every row whose input differs from it.
func (s *claimServiceImpl) acceptEdits(ctx context.Context, view policy.ViewContext, claim *entity.ExpenseClaim) (*entity.ExpenseClaim, *entity.ExpenseClaim, error) {
	if claim == nil {
		return nil, nil, fmt.Errorf("%w: claim is required", entity.ErrValidation)
	}
	if len(claim.Rows) == 0 {
		return nil, nil, entity.ErrLastRow
	}
	merged := claim.Clone()

	var (
		server *entity.ExpenseClaim
		err    error
	)
	if claim.ID > 0 {
		server, err = s.fetchByID(ctx, claim.ID)
	} else {
		if claim.Period.IsZero() {
			return nil, nil, fmt.Errorf("%w: claim has no period", entity.ErrInvalidPeriod)
		}
		server, err = s.gateway.FetchClaim(ctx, claim.Period, claim.OwnerID)
		err = entity.NewTransportError("fetch claim", err)
	}
	if err != nil {
		return nil, nil, err
	}

	if server == nil {
		if merged.OwnerID != view.OwnerID() {
			return nil, nil, entity.ErrForbidden
		}
		if len(merged.DeletedRowIDs) > 0 {
			return nil, nil, fmt.Errorf("%w: rows of an unsaved claim cannot be deleted", entity.ErrStaleState)
		}
		for i := range merged.Rows {
			row := &merged.Rows[i]
			if row.IsPersisted() {
				return nil, nil, fmt.Errorf("%w: row %d belongs to no saved claim", entity.ErrStaleState, *row.RowID)
			}
			row.StoredPay = nil
			row.ManagerConfirmed = false
		}
		merged.Status = entity.StatusDraft
		merged.ManagerChecked = false
		s.normalize(merged)
		return merged, nil, nil
	}

	if !policy.CanView(server, view) {
		return nil, nil, entity.ErrForbidden
	}
	if claim.ID == 0 && server.HasCommittedRows() {
		return nil, nil, fmt.Errorf("%w: claim %d already exists for %s", entity.ErrStaleState, server.ID, server.Period)
	}
	if claim.Status != "" && claim.Status != server.Status {
		return nil, nil, &entity.StaleStateError{ClaimID: server.ID, Expected: claim.Status, Actual: server.Status}
	}

	merged.ID = server.ID
	merged.OwnerID = server.OwnerID
	merged.Period = server.Period
	merged.Status = server.Status
	merged.ManagerChecked = server.ManagerChecked
	merged.CreatedAt = server.CreatedAt

	reviewing := view.IsManager() && server.Status.InReview() && !server.ManagerChecked
	if err := mergeRows(merged, server, reviewing); err != nil {
		return nil, nil, err
	}
	s.normalize(merged)
	return merged, server, nil
}

// mergeRows restores the server-owned fields of every row and checks the deletion queue
// against the rows the server holds.
func mergeRows(merged, server *entity.ExpenseClaim, reviewing bool) error {
	seen := make(map[int64]bool, len(merged.Rows))
	for i := range merged.Rows {
		row := &merged.Rows[i]
		if !row.IsPersisted() {
			row.StoredPay = nil
			row.ManagerConfirmed = row.ManagerConfirmed && reviewing
			continue
		}

		id := *row.RowID
		stored, ok := server.RowByID(id)
		if !ok || seen[id] {
			return fmt.Errorf("%w: row %d is not part of claim %d", entity.ErrStaleState, id, server.ID)
		}
		seen[id] = true

		row.StoredPay = stored.Clone().StoredPay
		if !reviewing {
			row.ManagerConfirmed = stored.ManagerConfirmed
		}
		row.Dirty = row.Dirty || !row.SameInput(stored)
	}

	var queued []int64
	for _, id := range merged.DeletedRowIDs {
		if seen[id] {
			return fmt.Errorf("%w: row %d is kept or queued twice", entity.ErrValidation, id)
		}
		if _, ok := server.RowByID(id); !ok {
			return fmt.Errorf("%w: row %d is not part of claim %d", entity.ErrStaleState, id, server.ID)
		}
		seen[id] = true
		queued = append(queued, id)
	}
	merged.DeletedRowIDs = queued
	return nil
}

// normalize keeps derived claim fields in step with their inputs
func (s *claimServiceImpl) normalize(claim *entity.ExpenseClaim) {
	claim.DerivedBaseEfficiency = s.calc.DeriveBaseEfficiency(claim.VehicleEfficiency)
}

func (s *claimServiceImpl) fuelSettings(ctx context.Context, period entity.Period) (*entity.FuelSettings, error) {
	settings, err := s.settings.FetchFuelSettings(ctx, period)
	if err != nil {
		return nil, entity.NewTransportError("fetch fuel settings", err)
	}
	if settings == nil {
		return entity.DefaultFuelSettings(period), nil
	}
	return settings, nil
}

// machineFor builds the state machine of a claim
func machineFor(claim *entity.ExpenseClaim, guards appwf.Guards) (domainwf.StateMachine, error) {
	state := appwf.StateOf(claim.Status)
	if !state.IsValid() {
		return nil, fmt.Errorf("%w: %q", domainwf.ErrInvalidState, claim.Status)
	}
	return appwf.BuildClaimStateMachine(state, guards), nil
}

func (s *claimServiceImpl) recordHistory(ctx context.Context, claimID int64, from, to entity.Status, actor, reason string) error {
	if err := s.history.Create(ctx, &entity.StatusHistory{
		ClaimID:    claimID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor,
		Reason:     reason,
	}); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

func (s *claimServiceImpl) clearDraft(ctx context.Context, key draft.Key) {
	if err := s.drafts.Clear(ctx, key); err != nil {
		s.logger.Error("Failed to clear cached draft", "key", key.String(), "error", err)
	}
}

// unwrapGuard surfaces the guard's own error when the caller can act on it
func unwrapGuard(op string, err error) error {
	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	if errors.Is(err, entity.ErrReasonRequired) {
		return entity.ErrReasonRequired
	}
	return fmt.Errorf("%s: %w", op, err)
}

type nopNotifier struct{}

func (nopNotifier) ClaimSubmitted(context.Context, *entity.ExpenseClaim, int64) error { return nil }
func (nopNotifier) ClaimApproved(context.Context, *entity.ExpenseClaim) error         { return nil }
func (nopNotifier) ClaimRejected(context.Context, *entity.ExpenseClaim, string) error { return nil }
