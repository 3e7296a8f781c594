package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryService aggregates a project's invoices into the payment summary
// shown on both dashboards.
type SummaryService struct {
	projectRepo billing.ProjectRepository
	invoiceRepo billing.InvoiceRepository
	cache       SummaryCache
	logger      *zap.Logger
}

// SummaryServiceConfig holds dependencies for SummaryService
type SummaryServiceConfig struct {
	ProjectRepo billing.ProjectRepository
	InvoiceRepo billing.InvoiceRepository
	Cache       SummaryCache
	Logger      *zap.Logger
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(cfg SummaryServiceConfig) *SummaryService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		projectRepo: cfg.ProjectRepo,
		invoiceRepo: cfg.InvoiceRepo,
		cache:       cfg.Cache,
		logger:      logger,
	}
}

// GetPaymentSummary computes the payment summary for a project.
//
// A project without invoices, including an unknown project ID, yields a
// zero-valued summary rather than an error; dashboards render it as an
// empty state.
func (s *SummaryService) GetPaymentSummary(ctx context.Context, projectID uuid.UUID) (billing.PaymentSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, projectID); ok {
			return *cached, nil
		}
	}

	totalBudget := decimal.Zero
	project, err := s.projectRepo.FindByID(ctx, projectID)
	switch {
	case err == nil:
		totalBudget = project.TotalBudget
	case errors.Is(err, shared.ErrNotFound):
		// Fall through with a zero budget.
	default:
		return billing.PaymentSummary{}, err
	}

	invoices, err := s.invoiceRepo.FindByProject(ctx, projectID)
	if err != nil {
		return billing.PaymentSummary{}, err
	}

	summary := billing.NewPaymentSummary(totalBudget, invoices)

	if s.cache != nil {
		s.cache.Set(ctx, projectID, summary)
	}
	return summary, nil
}
