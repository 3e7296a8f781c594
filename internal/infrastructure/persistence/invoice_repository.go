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

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMilestone finds the invoice generated for a milestone, if any
func (r *GormInvoiceRepository) FindByMilestone(ctx context.Context, milestoneID uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("milestone_id = ?", milestoneID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject lists all invoices for a project in issue order
func (r *GormInvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("issue_date ASC, created_at ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// FindOutstanding lists SENT and OVERDUE invoices across all projects
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context) ([]billing.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []billing.InvoiceStatus{billing.InvoiceStatusSent, billing.InvoiceStatusOverdue}).
		Order("issue_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = *invoiceModels[i].ToDomain()
	}
	return invoices, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

// NextInvoiceSequence atomically increments and returns the project-scoped
// invoice sequence
func (r *GormInvoiceRepository) NextInvoiceSequence(ctx context.Context, projectID uuid.UUID) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var seq models.InvoiceSequenceModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&seq, "project_id = ?", projectID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			seq = models.InvoiceSequenceModel{ProjectID: projectID, NextValue: 1}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		}
		next = seq.NextValue
		seq.NextValue++
		return tx.Save(&seq).Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
