package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/expense-workflow/internal/application/port"
	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/payment"
	"github.com/garyjia/expense-workflow/internal/domain/policy"
)

// ExportService renders pay statements
type ExportService interface {
	// ExportClaim writes the statement of one claim the viewer can see
	ExportClaim(ctx context.Context, view policy.ViewContext, claimID int64, w io.Writer) error
	// ExportPeriod writes the statements of every claim of a period; managers only
	ExportPeriod(ctx context.Context, view policy.ViewContext, period entity.Period, w io.Writer) error
	ContentType() string
	Extension() string
}

type exportServiceImpl struct {
	gateway     port.ClaimGateway
	settings    port.SettingsRepository
	writer      port.StatementWriter
	calc        *payment.Calculator
	companyName string
	logger      Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	gateway port.ClaimGateway,
	settings port.SettingsRepository,
	writer port.StatementWriter,
	calc *payment.Calculator,
	companyName string,
	logger Logger,
) ExportService {
	if calc == nil {
		calc = payment.NewCalculator(payment.DefaultRules())
	}
	return &exportServiceImpl{
		gateway:     gateway,
		settings:    settings,
		writer:      writer,
		calc:        calc,
		companyName: companyName,
		logger:      logger,
	}
}

func (s *exportServiceImpl) ContentType() string { return s.writer.ContentType() }
func (s *exportServiceImpl) Extension() string   { return s.writer.Extension() }

func (s *exportServiceImpl) ExportClaim(ctx context.Context, view policy.ViewContext, claimID int64, w io.Writer) error {
	claim, err := s.gateway.FetchClaimByID(ctx, claimID)
	if err != nil {
		return entity.NewTransportError("fetch claim", err)
	}
	if claim == nil {
		return fmt.Errorf("%w: id %d", entity.ErrClaimNotFound, claimID)
	}
	if !policy.CanView(claim, view) {
		return entity.ErrForbidden
	}

	return s.write(ctx, claim.Period, []*entity.ExpenseClaim{claim}, w)
}

func (s *exportServiceImpl) ExportPeriod(ctx context.Context, view policy.ViewContext, period entity.Period, w io.Writer) error {
	if !view.IsManager() {
		return entity.ErrForbidden
	}

	claims, err := s.gateway.ListClaims(ctx, period)
	if err != nil {
		return entity.NewTransportError("list claims", err)
	}
	if len(claims) == 0 {
		return fmt.Errorf("%w: no claims in %s", entity.ErrClaimNotFound, period)
	}

	return s.write(ctx, period, claims, w)
}

func (s *exportServiceImpl) write(ctx context.Context, period entity.Period, claims []*entity.ExpenseClaim, w io.Writer) error {
	settings, err := s.settings.FetchFuelSettings(ctx, period)
	if err != nil {
		return entity.NewTransportError("fetch fuel settings", err)
	}
	if settings == nil {
		settings = entity.DefaultFuelSettings(period)
	}

	cards, err := s.settings.FetchCorporateCards(ctx)
	if err != nil {
		return entity.NewTransportError("fetch corporate cards", err)
	}
	cardNames := make(map[string]string, len(cards))
	for _, card := range cards {
		cardNames[card.ID] = card.Name
	}

	statements := make([]port.Statement, 0, len(claims))
	for _, claim := range claims {
		statements = append(statements, port.Statement{
			CompanyName: s.companyName,
			Claim:       claim,
			Summary:     s.calc.Summarize(claim, payment.NewContext(claim, false), payment.NewPricing(settings, claim)),
			CardNames:   cardNames,
		})
	}

	if err := s.writer.Write(w, statements); err != nil {
		s.logger.Error("Failed to write statements", "period", period.String(), "count", len(statements), "error", err)
		return fmt.Errorf("write statements: %w", err)
	}
	s.logger.Info("Statements exported", "period", period.String(), "count", len(statements))
	return nil
}
