package billing

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Project represents a renovation engagement between a homeowner and a
// contractor. It is the aggregate root owning the milestone schedule.
type Project struct {
	shared.BaseAggregateRoot
	Name         string          `json:"name"`
	Address      string          `json:"address"`
	HomeownerID  uuid.UUID       `json:"homeowner_id"`
	ContractorID uuid.UUID       `json:"contractor_id"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
	Progress     int             `json:"progress"` // 0-100 completion percentage
	Milestones   []Milestone     `json:"milestones"`
}

// NewProject creates a new project with an empty milestone schedule
func NewProject(name, address string, homeownerID, contractorID uuid.UUID, totalBudget valueobject.Money) (*Project, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Project name cannot be empty")
	}
	if homeownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_HOMEOWNER", "Homeowner ID cannot be empty")
	}
	if contractorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CONTRACTOR", "Contractor ID cannot be empty")
	}
	if totalBudget.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_BUDGET", "Total budget must be positive")
	}

	p := &Project{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Address:           address,
		HomeownerID:       homeownerID,
		ContractorID:      contractorID,
		TotalBudget:       totalBudget.Amount(),
		Progress:          0,
		Milestones:        make([]Milestone, 0),
	}

	p.AddDomainEvent(NewProjectCreatedEvent(p))

	return p, nil
}

// AddMilestone appends a milestone to the schedule. Percentage thresholds
// must be unique within a project. When amountDue is zero, the amount is
// derived as the milestone's percentage share of the total budget.
func (p *Project) AddMilestone(percentage int, description string, amountDue decimal.Decimal, dueDate *time.Time) (*Milestone, error) {
	for i := range p.Milestones {
		if p.Milestones[i].Percentage == percentage {
			return nil, shared.NewDomainError("DUPLICATE_THRESHOLD",
				fmt.Sprintf("A milestone at %d%% already exists", percentage))
		}
	}

	if amountDue.IsZero() {
		amountDue = p.TotalBudget.Mul(decimal.NewFromInt(int64(percentage))).Div(decimal.NewFromInt(100)).Round(2)
	}

	m, err := NewMilestone(p.ID, percentage, description, amountDue, dueDate)
	if err != nil {
		return nil, err
	}

	p.Milestones = append(p.Milestones, *m)
	sort.SliceStable(p.Milestones, func(i, j int) bool {
		return p.Milestones[i].Percentage < p.Milestones[j].Percentage
	})
	p.IncrementVersion()

	return p.MilestoneByID(m.ID), nil
}

// MilestoneByID returns a pointer into the schedule, or nil when absent
func (p *Project) MilestoneByID(id uuid.UUID) *Milestone {
	for i := range p.Milestones {
		if p.Milestones[i].ID == id {
			return &p.Milestones[i]
		}
	}
	return nil
}

// MilestonesCrossed returns the milestones whose threshold lies in
// (previous, current]. A progress decrease yields no crossings.
func (p *Project) MilestonesCrossed(previous, current int) []*Milestone {
	crossed := make([]*Milestone, 0)
	for i := range p.Milestones {
		pct := p.Milestones[i].Percentage
		if previous < pct && pct <= current {
			crossed = append(crossed, &p.Milestones[i])
		}
	}
	return crossed
}

// ApplyProgress records a new completion percentage. Values outside 0-100
// are rejected; a decrease is recorded as reported (no milestone ever
// regresses because of it).
func (p *Project) ApplyProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return shared.NewDomainError("INVALID_PROGRESS", "Progress must be between 0 and 100")
	}
	previous := p.Progress
	p.Progress = progress
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProjectProgressUpdatedEvent(p, previous, progress))
	return nil
}

// TotalBudgetMoney returns the total budget as Money
func (p *Project) TotalBudgetMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.TotalBudget)
}

// NumberPrefix returns the short project identifier used in invoice numbers
func (p *Project) NumberPrefix() string {
	return strings.ToUpper(p.ID.String()[:8])
}
