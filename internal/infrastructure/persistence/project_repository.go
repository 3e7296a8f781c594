package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements billing.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by its ID, milestones included
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("percentage ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByContractor lists projects for a contractor
func (r *GormProjectRepository) FindByContractor(ctx context.Context, contractorID uuid.UUID) ([]billing.Project, error) {
	return r.findBy(ctx, "contractor_id = ?", contractorID)
}

// FindByHomeowner lists projects for a homeowner
func (r *GormProjectRepository) FindByHomeowner(ctx context.Context, homeownerID uuid.UUID) ([]billing.Project, error) {
	return r.findBy(ctx, "homeowner_id = ?", homeownerID)
}

func (r *GormProjectRepository) findBy(ctx context.Context, cond string, arg any) ([]billing.Project, error) {
	var projectModels []models.ProjectModel
	if err := r.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("percentage ASC")
		}).
		Where(cond, arg).
		Order("created_at DESC").
		Find(&projectModels).Error; err != nil {
		return nil, err
	}
	projects := make([]billing.Project, len(projectModels))
	for i := range projectModels {
		projects[i] = *projectModels[i].ToDomain()
	}
	return projects, nil
}

// Save creates or updates a project and its milestone schedule
func (r *GormProjectRepository) Save(ctx context.Context, project *billing.Project) error {
	model := models.ProjectModelFromDomain(project)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		milestones := model.Milestones
		model.Milestones = nil
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
			return err
		}
		for i := range milestones {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&milestones[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

var _ billing.ProjectRepository = (*GormProjectRepository)(nil)
