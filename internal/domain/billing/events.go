package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names published on the event bus
const (
	EventTypeProjectCreated         = "ProjectCreated"
	EventTypeProjectProgressUpdated = "ProjectProgressUpdated"
	EventTypeMilestoneCompleted     = "MilestoneCompleted"
	EventTypeInvoiceIssued          = "InvoiceIssued"
	EventTypeInvoicePaid            = "InvoicePaid"
	EventTypeInvoiceCancelled       = "InvoiceCancelled"
)

// ProjectCreatedEvent is raised when a new project is set up
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID    uuid.UUID       `json:"project_id"`
	Name         string          `json:"name"`
	HomeownerID  uuid.UUID       `json:"homeowner_id"`
	ContractorID uuid.UUID       `json:"contractor_id"`
	TotalBudget  decimal.Decimal `json:"total_budget"`
}

// NewProjectCreatedEvent creates a new ProjectCreatedEvent
func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, "Project", p.ID),
		ProjectID:       p.ID,
		Name:            p.Name,
		HomeownerID:     p.HomeownerID,
		ContractorID:    p.ContractorID,
		TotalBudget:     p.TotalBudget,
	}
}

// ProjectProgressUpdatedEvent is raised whenever a contractor reports progress
type ProjectProgressUpdatedEvent struct {
	shared.BaseDomainEvent
	ProjectID        uuid.UUID `json:"project_id"`
	PreviousProgress int       `json:"previous_progress"`
	NewProgress      int       `json:"new_progress"`
}

// NewProjectProgressUpdatedEvent creates a new ProjectProgressUpdatedEvent
func NewProjectProgressUpdatedEvent(p *Project, previous, current int) *ProjectProgressUpdatedEvent {
	return &ProjectProgressUpdatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeProjectProgressUpdated, "Project", p.ID),
		ProjectID:        p.ID,
		PreviousProgress: previous,
		NewProgress:      current,
	}
}

// MilestoneCompletedEvent is raised when a progress report crosses a
// milestone threshold
type MilestoneCompletedEvent struct {
	shared.BaseDomainEvent
	ProjectID   uuid.UUID       `json:"project_id"`
	MilestoneID uuid.UUID       `json:"milestone_id"`
	Percentage  int             `json:"percentage"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	CompletedAt time.Time       `json:"completed_at"`
}

// NewMilestoneCompletedEvent creates a new MilestoneCompletedEvent
func NewMilestoneCompletedEvent(p *Project, m *Milestone) *MilestoneCompletedEvent {
	completedAt := time.Now()
	if m.CompletedAt != nil {
		completedAt = *m.CompletedAt
	}
	return &MilestoneCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMilestoneCompleted, "Project", p.ID),
		ProjectID:       p.ID,
		MilestoneID:     m.ID,
		Percentage:      m.Percentage,
		AmountDue:       m.AmountDue,
		CompletedAt:     completedAt,
	}
}

// InvoiceIssuedEvent is raised when an invoice is generated for a milestone
type InvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ProjectID     uuid.UUID       `json:"project_id"`
	MilestoneID   uuid.UUID       `json:"milestone_id"`
	HomeownerID   uuid.UUID       `json:"homeowner_id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
}

// NewInvoiceIssuedEvent creates a new InvoiceIssuedEvent
func NewInvoiceIssuedEvent(inv *Invoice) *InvoiceIssuedEvent {
	return &InvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceIssued, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID,
		MilestoneID:     inv.MilestoneID,
		HomeownerID:     inv.HomeownerID,
		Amount:          inv.Amount,
		DueDate:         inv.DueDate,
	}
}

// InvoicePaidEvent is raised when a payment is confirmed for an invoice
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	InvoiceNumber   string          `json:"invoice_number"`
	ProjectID       uuid.UUID       `json:"project_id"`
	MilestoneID     uuid.UUID       `json:"milestone_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	PaidAt          time.Time       `json:"paid_at"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(inv *Invoice) *InvoicePaidEvent {
	paidAt := time.Now()
	if inv.PaidAt != nil {
		paidAt = *inv.PaidAt
	}
	return &InvoicePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaid, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID,
		MilestoneID:     inv.MilestoneID,
		Amount:          inv.Amount,
		PaymentIntentID: inv.PaymentIntentID,
		PaymentMethod:   inv.PaymentMethod,
		PaidAt:          paidAt,
	}
}

// InvoiceCancelledEvent is raised when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	InvoiceNumber  string        `json:"invoice_number"`
	ProjectID      uuid.UUID     `json:"project_id"`
	PreviousStatus InvoiceStatus `json:"previous_status"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice, previous InvoiceStatus) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID,
		PreviousStatus:  previous,
	}
}
