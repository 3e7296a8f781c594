package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProjectService handles project setup and reads
type ProjectService struct {
	projectRepo billing.ProjectRepository
	events      shared.EventPublisher
	logger      *zap.Logger
}

// ProjectServiceConfig holds dependencies for ProjectService
type ProjectServiceConfig struct {
	ProjectRepo billing.ProjectRepository
	Events      shared.EventPublisher
	Logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(cfg ProjectServiceConfig) *ProjectService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projectRepo: cfg.ProjectRepo,
		events:      cfg.Events,
		logger:      logger,
	}
}

// MilestoneInput describes one payment milestone of a new project.
// A zero AmountDue means the amount is derived from the budget share.
type MilestoneInput struct {
	Percentage  int
	Description string
	AmountDue   decimal.Decimal
	DueInDays   int
}

// CreateProject sets up a renovation project with its milestone schedule
func (s *ProjectService) CreateProject(ctx context.Context, name, address string, homeownerID, contractorID uuid.UUID, totalBudget decimal.Decimal, milestones []MilestoneInput) (*billing.Project, error) {
	project, err := billing.NewProject(name, address, homeownerID, contractorID, valueobject.NewMoneyUSD(totalBudget))
	if err != nil {
		return nil, err
	}

	for _, in := range milestones {
		var dueDate *time.Time
		if in.DueInDays > 0 {
			d := time.Now().AddDate(0, 0, in.DueInDays)
			dueDate = &d
		}
		if _, err := project.AddMilestone(in.Percentage, in.Description, in.AmountDue, dueDate); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	s.publishEvents(ctx, project)

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("name", project.Name),
		zap.Int("milestones", len(project.Milestones)))

	return project, nil
}

// GetProject fetches a project with its milestone schedule
func (s *ProjectService) GetProject(ctx context.Context, projectID uuid.UUID) (*billing.Project, error) {
	return s.projectRepo.FindByID(ctx, projectID)
}

// ListByContractor lists a contractor's projects
func (s *ProjectService) ListByContractor(ctx context.Context, contractorID uuid.UUID) ([]billing.Project, error) {
	return s.projectRepo.FindByContractor(ctx, contractorID)
}

// ListByHomeowner lists a homeowner's projects
func (s *ProjectService) ListByHomeowner(ctx context.Context, homeownerID uuid.UUID) ([]billing.Project, error) {
	return s.projectRepo.FindByHomeowner(ctx, homeownerID)
}

func (s *ProjectService) publishEvents(ctx context.Context, agg shared.AggregateRoot) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, agg.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	agg.ClearDomainEvents()
}
