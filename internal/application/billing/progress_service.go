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

// ProgressService applies contractor progress reports to projects and turns
// newly crossed milestones into invoices.
//
// Updates for the same project are serialized with a per-project lock, so
// two concurrent reports can never both invoice the same milestone. Updates
// for different projects run in parallel.
type ProgressService struct {
	projectRepo billing.ProjectRepository
	invoiceSvc  *InvoiceService
	events      shared.EventPublisher
	logger      *zap.Logger

	projectLocks sync.Map // uuid.UUID -> *sync.Mutex
}

// ProgressServiceConfig holds dependencies for ProgressService
type ProgressServiceConfig struct {
	ProjectRepo billing.ProjectRepository
	InvoiceSvc  *InvoiceService
	Events      shared.EventPublisher
	Logger      *zap.Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(cfg ProgressServiceConfig) *ProgressService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		projectRepo: cfg.ProjectRepo,
		invoiceSvc:  cfg.InvoiceSvc,
		events:      cfg.Events,
		logger:      logger,
	}
}

// ProgressResult reports the effect of a single progress update
type ProgressResult struct {
	Project          *billing.Project  `json:"project"`
	PreviousProgress int               `json:"previous_progress"`
	NewInvoices      []billing.Invoice `json:"new_invoices"`
}

// ProcessProgressUpdate records a progress report and generates invoices for
// every milestone whose threshold now lies in (previous, current].
//
// Only milestones the contractor has marked started are completed and
// invoiced; crossed milestones still PENDING are skipped. Re-reporting the
// same or a lower percentage is valid and crosses nothing; milestones
// already invoiced stay invoiced, so replaying an update yields no new
// invoices.
func (s *ProgressService) ProcessProgressUpdate(ctx context.Context, projectID uuid.UUID, newProgress int) (*ProgressResult, error) {
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	previous := project.Progress
	if err := project.ApplyProgress(newProgress); err != nil {
		return nil, err
	}

	crossed := project.MilestonesCrossed(previous, newProgress)
	now := time.Now()
	newInvoices := make([]billing.Invoice, 0, len(crossed))
	for _, m := range crossed {
		// Work that was never marked started stays PENDING; a progress
		// report alone cannot complete it.
		if m.Status == billing.MilestoneStatusPending {
			s.logger.Info("crossed milestone skipped, not started",
				zap.String("project_id", projectID.String()),
				zap.String("milestone_id", m.ID.String()),
				zap.Int("percentage", m.Percentage))
			continue
		}
		if m.Status == billing.MilestoneStatusInProgress {
			if err := m.Complete(now); err != nil {
				return nil, err
			}
			project.AddDomainEvent(billing.NewMilestoneCompletedEvent(project, m))
		}

		inv, err := s.invoiceSvc.GenerateForMilestone(ctx, project, m)
		if err != nil {
			return nil, fmt.Errorf("failed to invoice milestone %s: %w", m.ID, err)
		}
		if inv != nil {
			newInvoices = append(newInvoices, *inv)
		}
	}

	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project progress: %w", err)
	}

	s.publishEvents(ctx, project)

	s.logger.Info("progress update processed",
		zap.String("project_id", projectID.String()),
		zap.Int("previous_progress", previous),
		zap.Int("new_progress", newProgress),
		zap.Int("milestones_crossed", len(crossed)),
		zap.Int("invoices_generated", len(newInvoices)))

	return &ProgressResult{
		Project:          project,
		PreviousProgress: previous,
		NewInvoices:      newInvoices,
	}, nil
}

// StartMilestone moves a pending milestone into IN_PROGRESS
func (s *ProgressService) StartMilestone(ctx context.Context, projectID, milestoneID uuid.UUID) (*billing.Milestone, error) {
	lock := s.lockFor(projectID)
	lock.Lock()
	defer lock.Unlock()

	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	m := project.MilestoneByID(milestoneID)
	if m == nil {
		return nil, shared.ErrNotFound
	}
	if err := m.Start(); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}

	s.logger.Info("milestone started",
		zap.String("project_id", projectID.String()),
		zap.String("milestone_id", milestoneID.String()),
		zap.Int("percentage", m.Percentage))

	return m, nil
}

func (s *ProgressService) lockFor(projectID uuid.UUID) *sync.Mutex {
	v, _ := s.projectLocks.LoadOrStore(projectID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (s *ProgressService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, agg.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}
