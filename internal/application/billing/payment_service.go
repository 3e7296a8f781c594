package billing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PaymentService drives the invoice lifecycle: manual status transitions,
// payment intent creation, processor callbacks and the overdue sweep.
type PaymentService struct {
	projectRepo billing.ProjectRepository
	invoiceRepo billing.InvoiceRepository
	gateway     billing.PaymentGateway
	events      shared.EventPublisher
	cache       SummaryCache
	logger      *zap.Logger

	processedIntents sync.Map // intent ID -> struct{}
}

// PaymentServiceConfig holds dependencies for PaymentService
type PaymentServiceConfig struct {
	ProjectRepo billing.ProjectRepository
	InvoiceRepo billing.InvoiceRepository
	Gateway     billing.PaymentGateway
	Events      shared.EventPublisher
	Cache       SummaryCache
	Logger      *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		projectRepo: cfg.ProjectRepo,
		invoiceRepo: cfg.InvoiceRepo,
		gateway:     cfg.Gateway,
		events:      cfg.Events,
		cache:       cfg.Cache,
		logger:      logger,
	}
}

// UpdateInvoiceStatus transitions an invoice to the target status.
//
// An unknown invoice yields shared.ErrNotFound so callers can map it to a
// client error instead of retrying. A transition to PAID also marks the
// linked milestone as paid.
func (s *PaymentService) UpdateInvoiceStatus(ctx context.Context, invoiceID uuid.UUID, target billing.InvoiceStatus, meta *billing.PaymentMetadata) (*billing.Invoice, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.TransitionTo(target, meta); err != nil {
		return nil, err
	}

	if target == billing.InvoiceStatusPaid {
		if err := s.markMilestonePaid(ctx, inv); err != nil {
			return nil, err
		}
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, inv.ProjectID)
	}
	s.publishEvents(ctx, inv)

	s.logger.Info("invoice status updated",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("status", target.String()))

	return inv, nil
}

// CreatePaymentIntent registers a charge for an outstanding invoice with the
// card processor and returns the handle the homeowner's browser needs.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, invoiceID uuid.UUID) (*billing.PaymentIntent, error) {
	if s.gateway == nil {
		return nil, shared.NewDomainError("PAYMENTS_DISABLED", "no payment gateway is configured")
	}

	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if !inv.Status.IsOutstanding() && inv.Status != billing.InvoiceStatusViewed {
		return nil, shared.NewDomainError("INVOICE_NOT_PAYABLE",
			fmt.Sprintf("invoice %s is %s and cannot be charged", inv.InvoiceNumber, inv.Status))
	}

	description := fmt.Sprintf("%s: %s", inv.InvoiceNumber, inv.Description)
	intent, err := s.gateway.CreateIntent(ctx, inv.ID, inv.Amount, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	inv.PaymentIntentID = intent.IntentID
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("payment intent created",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("intent_id", intent.IntentID))

	return intent, nil
}

// HandlePaymentCallback verifies a processor callback and settles the
// referenced invoice. Replays of an already-settled intent are no-ops; the
// processor retries webhooks and must always receive success for them.
func (s *PaymentService) HandlePaymentCallback(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return shared.NewDomainError("PAYMENTS_DISABLED", "no payment gateway is configured")
	}

	confirmation, err := s.gateway.VerifyCallback(ctx, payload, signature)
	if err != nil {
		return err
	}
	if confirmation == nil {
		// Event type we do not care about.
		return nil
	}
	if !confirmation.Succeeded {
		s.logger.Warn("payment failed at processor",
			zap.String("invoice_id", confirmation.InvoiceID.String()),
			zap.String("intent_id", confirmation.IntentID))
		return nil
	}

	if _, seen := s.processedIntents.LoadOrStore(confirmation.IntentID, struct{}{}); seen {
		return nil
	}

	inv, err := s.invoiceRepo.FindByID(ctx, confirmation.InvoiceID)
	if err != nil {
		return err
	}
	if inv.IsPaid() {
		return nil
	}

	meta := &billing.PaymentMetadata{
		PaymentIntentID: confirmation.IntentID,
		PaymentMethod:   confirmation.PaymentMethod,
	}
	if _, err := s.UpdateInvoiceStatus(ctx, inv.ID, billing.InvoiceStatusPaid, meta); err != nil {
		return err
	}

	s.logger.Info("payment confirmed",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("intent_id", confirmation.IntentID))

	return nil
}

// MarkOverdueInvoices flips SENT invoices past their due date to OVERDUE.
// Invoked periodically by the server's sweep ticker.
func (s *PaymentService) MarkOverdueInvoices(ctx context.Context, now time.Time) (int, error) {
	outstanding, err := s.invoiceRepo.FindOutstanding(ctx)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for i := range outstanding {
		inv := &outstanding[i]
		if inv.Status != billing.InvoiceStatusSent || !inv.IsOverdue(now) {
			continue
		}
		if err := inv.TransitionTo(billing.InvoiceStatusOverdue, nil); err != nil {
			s.logger.Warn("failed to mark invoice overdue",
				zap.String("invoice_id", inv.ID.String()), zap.Error(err))
			continue
		}
		if err := s.invoiceRepo.Save(ctx, inv); err != nil {
			return flipped, fmt.Errorf("failed to save overdue invoice: %w", err)
		}
		if s.cache != nil {
			s.cache.Invalidate(ctx, inv.ProjectID)
		}
		flipped++
	}

	if flipped > 0 {
		s.logger.Info("overdue sweep completed", zap.Int("invoices_flipped", flipped))
	}
	return flipped, nil
}

func (s *PaymentService) markMilestonePaid(ctx context.Context, inv *billing.Invoice) error {
	project, err := s.projectRepo.FindByID(ctx, inv.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project for paid invoice %s: %w", inv.InvoiceNumber, err)
	}
	m := project.MilestoneByID(inv.MilestoneID)
	if m == nil {
		return shared.NewDomainError("MILESTONE_MISSING",
			fmt.Sprintf("invoice %s references milestone %s which is not on project %s",
				inv.InvoiceNumber, inv.MilestoneID, inv.ProjectID))
	}
	if err := m.MarkPaid(); err != nil {
		return err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *PaymentService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, agg.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}
