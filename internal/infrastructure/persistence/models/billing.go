package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// ProjectModel is the persistence model for the Project aggregate root
type ProjectModel struct {
	AggregateModel
	Name         string           `gorm:"type:varchar(200);not null"`
	Address      string           `gorm:"type:varchar(500)"`
	HomeownerID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	ContractorID uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalBudget  decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Progress     int              `gorm:"not null;default:0"`
	Milestones   []MilestoneModel `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// MilestoneModel is the persistence model for milestones within a project
type MilestoneModel struct {
	ID          uuid.UUID               `gorm:"type:uuid;primary_key"`
	ProjectID   uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex:idx_milestone_project_pct,priority:1"`
	Percentage  int                     `gorm:"not null;uniqueIndex:idx_milestone_project_pct,priority:2"`
	Description string                  `gorm:"type:varchar(500)"`
	AmountDue   decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Status      billing.MilestoneStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	DueDate     *time.Time
	CompletedAt *time.Time
	InvoiceID   *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (MilestoneModel) TableName() string {
	return "milestones"
}

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	AggregateModel
	InvoiceNumber   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	ProjectID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	MilestoneID     uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	HomeownerID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	ContractorID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Percentage      int                   `gorm:"not null"`
	Description     string                `gorm:"type:varchar(500)"`
	IssueDate       time.Time             `gorm:"not null;index"`
	DueDate         *time.Time            `gorm:"index"`
	Status          billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'SENT';index"`
	PaidAt          *time.Time
	PaymentIntentID string `gorm:"type:varchar(100);index"`
	PaymentMethod   string `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// InvoiceSequenceModel backs the per-project invoice sequence counter
type InvoiceSequenceModel struct {
	ProjectID uuid.UUID `gorm:"type:uuid;primary_key"`
	NextValue int64     `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}

// ToDomain converts the persistence model to a domain Project aggregate
func (m *ProjectModel) ToDomain() *billing.Project {
	p := &billing.Project{
		Name:         m.Name,
		Address:      m.Address,
		HomeownerID:  m.HomeownerID,
		ContractorID: m.ContractorID,
		TotalBudget:  m.TotalBudget,
		Progress:     m.Progress,
		Milestones:   make([]billing.Milestone, len(m.Milestones)),
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	for i := range m.Milestones {
		p.Milestones[i] = *m.Milestones[i].ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Project aggregate
func (m *ProjectModel) FromDomain(p *billing.Project) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Name = p.Name
	m.Address = p.Address
	m.HomeownerID = p.HomeownerID
	m.ContractorID = p.ContractorID
	m.TotalBudget = p.TotalBudget
	m.Progress = p.Progress
	m.Milestones = make([]MilestoneModel, len(p.Milestones))
	for i := range p.Milestones {
		m.Milestones[i].FromDomain(&p.Milestones[i])
	}
}

// ProjectModelFromDomain creates a new persistence model from a domain Project
func ProjectModelFromDomain(p *billing.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// ToDomain converts the persistence model to a domain Milestone entity
func (m *MilestoneModel) ToDomain() *billing.Milestone {
	return &billing.Milestone{
		ID:          m.ID,
		ProjectID:   m.ProjectID,
		Percentage:  m.Percentage,
		Description: m.Description,
		AmountDue:   m.AmountDue,
		Status:      m.Status,
		DueDate:     m.DueDate,
		CompletedAt: m.CompletedAt,
		InvoiceID:   m.InvoiceID,
	}
}

// FromDomain populates the persistence model from a domain Milestone entity
func (m *MilestoneModel) FromDomain(ms *billing.Milestone) {
	m.ID = ms.ID
	m.ProjectID = ms.ProjectID
	m.Percentage = ms.Percentage
	m.Description = ms.Description
	m.AmountDue = ms.AmountDue
	m.Status = ms.Status
	m.DueDate = ms.DueDate
	m.CompletedAt = ms.CompletedAt
	m.InvoiceID = ms.InvoiceID
}

// ToDomain converts the persistence model to a domain Invoice aggregate
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		InvoiceNumber:   m.InvoiceNumber,
		ProjectID:       m.ProjectID,
		MilestoneID:     m.MilestoneID,
		HomeownerID:     m.HomeownerID,
		ContractorID:    m.ContractorID,
		Amount:          m.Amount,
		Percentage:      m.Percentage,
		Description:     m.Description,
		IssueDate:       m.IssueDate,
		DueDate:         m.DueDate,
		Status:          m.Status,
		PaidAt:          m.PaidAt,
		PaymentIntentID: m.PaymentIntentID,
		PaymentMethod:   m.PaymentMethod,
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)
	return inv
}

// FromDomain populates the persistence model from a domain Invoice aggregate
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.ProjectID = inv.ProjectID
	m.MilestoneID = inv.MilestoneID
	m.HomeownerID = inv.HomeownerID
	m.ContractorID = inv.ContractorID
	m.Amount = inv.Amount
	m.Percentage = inv.Percentage
	m.Description = inv.Description
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.Status = inv.Status
	m.PaidAt = inv.PaidAt
	m.PaymentIntentID = inv.PaymentIntentID
	m.PaymentMethod = inv.PaymentMethod
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
