// Package memory provides mutex-protected in-memory repositories.
// They back the default "memory" database driver and the service tests;
// semantics mirror the GORM repositories.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
)

// ProjectRepository is an in-memory implementation of billing.ProjectRepository
type ProjectRepository struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]billing.Project
}

// NewProjectRepository creates a new in-memory project repository
func NewProjectRepository() *ProjectRepository {
	return &ProjectRepository{
		projects: make(map[uuid.UUID]billing.Project),
	}
}

// FindByID finds a project by its ID
func (r *ProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneProject(&p), nil
}

// FindByContractor lists projects for a contractor
func (r *ProjectRepository) FindByContractor(ctx context.Context, contractorID uuid.UUID) ([]billing.Project, error) {
	return r.filter(func(p *billing.Project) bool { return p.ContractorID == contractorID }), nil
}

// FindByHomeowner lists projects for a homeowner
func (r *ProjectRepository) FindByHomeowner(ctx context.Context, homeownerID uuid.UUID) ([]billing.Project, error) {
	return r.filter(func(p *billing.Project) bool { return p.HomeownerID == homeownerID }), nil
}

// Save creates or updates a project
func (r *ProjectRepository) Save(ctx context.Context, project *billing.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.projects[project.ID] = *cloneProject(project)
	return nil
}

func (r *ProjectRepository) filter(keep func(*billing.Project) bool) []billing.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]billing.Project, 0)
	for id := range r.projects {
		p := r.projects[id]
		if keep(&p) {
			result = append(result, *cloneProject(&p))
		}
	}
	return result
}

// cloneProject deep-copies a project so callers never share milestone slices
// with the store.
func cloneProject(p *billing.Project) *billing.Project {
	cp := *p
	cp.Milestones = make([]billing.Milestone, len(p.Milestones))
	copy(cp.Milestones, p.Milestones)
	cp.ClearDomainEvents()
	return &cp
}

var _ billing.ProjectRepository = (*ProjectRepository)(nil)
