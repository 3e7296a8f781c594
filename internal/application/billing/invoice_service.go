package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InvoiceService generates invoices for completed milestones and serves
// invoice reads for the dashboards.
type InvoiceService struct {
	projectRepo billing.ProjectRepository
	invoiceRepo billing.InvoiceRepository
	events      shared.EventPublisher
	cache       SummaryCache
	logger      *zap.Logger
}

// InvoiceServiceConfig holds dependencies for InvoiceService
type InvoiceServiceConfig struct {
	ProjectRepo billing.ProjectRepository
	InvoiceRepo billing.InvoiceRepository
	Events      shared.EventPublisher
	Cache       SummaryCache
	Logger      *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(cfg InvoiceServiceConfig) *InvoiceService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		projectRepo: cfg.ProjectRepo,
		invoiceRepo: cfg.InvoiceRepo,
		events:      cfg.Events,
		cache:       cfg.Cache,
		logger:      logger,
	}
}

// GenerateForMilestone creates the invoice for a completed milestone.
//
// The nil/nil return is the at-most-once guard: a milestone that is not
// completed, or that already carries an invoice reference, silently
// produces nothing. Duplicate generation attempts are expected (progress
// ranges get re-processed), not exceptional, so no error is raised.
func (s *InvoiceService) GenerateForMilestone(ctx context.Context, project *billing.Project, m *billing.Milestone) (*billing.Invoice, error) {
	if m.Status != billing.MilestoneStatusCompleted || m.HasInvoice() {
		return nil, nil
	}

	// The store is the second guard. A prior run may have saved the invoice
	// but lost the milestone link; relink it instead of generating twice.
	existing, err := s.invoiceRepo.FindByMilestone(ctx, m.ID)
	if err == nil {
		if err := m.AttachInvoice(existing.ID); err != nil {
			return nil, err
		}
		if err := s.projectRepo.Save(ctx, project); err != nil {
			return nil, fmt.Errorf("failed to relink invoice %s: %w", existing.InvoiceNumber, err)
		}
		return nil, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	seq, err := s.invoiceRepo.NextInvoiceSequence(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate invoice sequence: %w", err)
	}
	number := formatInvoiceNumber(project.NumberPrefix(), seq, time.Now())

	inv, err := billing.NewInvoiceForMilestone(project, m, number)
	if err != nil {
		return nil, err
	}

	if err := m.AttachInvoice(inv.ID); err != nil {
		// Lost the race with a concurrent generator; the milestone already
		// has its one invoice.
		return nil, nil
	}

	// Milestone mutation and invoice append are persisted together so a
	// crossed milestone is never left invoiced-but-unlinked.
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project after invoice generation: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, project.ID)
	}

	s.publishEvents(ctx, inv)

	s.logger.Info("invoice generated for milestone",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("project_id", project.ID.String()),
		zap.String("milestone_id", m.ID.String()),
		zap.Int("percentage", m.Percentage),
		zap.String("amount", inv.Amount.String()))

	return inv, nil
}

// GetInvoice fetches a single invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, invoiceID uuid.UUID) (*billing.Invoice, error) {
	return s.invoiceRepo.FindByID(ctx, invoiceID)
}

// GetProjectInvoices lists a project's invoices in issue order
func (s *InvoiceService) GetProjectInvoices(ctx context.Context, projectID uuid.UUID) ([]billing.Invoice, error) {
	return s.invoiceRepo.FindByProject(ctx, projectID)
}

func (s *InvoiceService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, agg.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}

// formatInvoiceNumber renders INV-<project prefix>-<sequence>-<time suffix>.
// The time suffix only guards against human collision when reading numbers
// across stores; identity is always the invoice ID.
func formatInvoiceNumber(prefix string, seq int64, now time.Time) string {
	millis := now.UnixMilli() % 1_000_000
	return fmt.Sprintf("INV-%s-%03d-%06d", prefix, seq, millis)
}
