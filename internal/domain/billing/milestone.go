package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// MilestoneStatus represents the status of a payment milestone
type MilestoneStatus string

const (
	MilestoneStatusPending    MilestoneStatus = "PENDING"     // Work not started
	MilestoneStatusInProgress MilestoneStatus = "IN_PROGRESS" // Contractor has started work
	MilestoneStatusCompleted  MilestoneStatus = "COMPLETED"   // Threshold crossed, invoice issued
	MilestoneStatusPaid       MilestoneStatus = "PAID"        // Linked invoice paid
)

// IsValid checks if the status is a valid MilestoneStatus
func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestoneStatusPending, MilestoneStatusInProgress,
		MilestoneStatusCompleted, MilestoneStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of MilestoneStatus
func (s MilestoneStatus) String() string {
	return string(s)
}

// Milestone is a payment checkpoint tied to a completion percentage.
// It is an entity within the Project aggregate.
type Milestone struct {
	ID          uuid.UUID       `json:"id"`
	ProjectID   uuid.UUID       `json:"project_id"`
	Percentage  int             `json:"percentage"` // 0-100, unique within a project
	Description string          `json:"description"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Status      MilestoneStatus `json:"status"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	InvoiceID   *uuid.UUID      `json:"invoice_id,omitempty"` // Set exactly once
}

// NewMilestone creates a new pending milestone
func NewMilestone(projectID uuid.UUID, percentage int, description string, amountDue decimal.Decimal, dueDate *time.Time) (*Milestone, error) {
	if percentage < 0 || percentage > 100 {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Milestone percentage must be between 0 and 100")
	}
	if amountDue.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Milestone amount due must be positive")
	}
	return &Milestone{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Percentage:  percentage,
		Description: description,
		AmountDue:   amountDue,
		Status:      MilestoneStatusPending,
		DueDate:     dueDate,
	}, nil
}

// Start marks the milestone as in progress. Only a pending milestone can
// be started; later states never regress.
func (m *Milestone) Start() error {
	if m.Status != MilestoneStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Only a pending milestone can be started")
	}
	m.Status = MilestoneStatusInProgress
	return nil
}

// Complete marks the milestone as completed and stamps the completion time.
// A milestone must have been started first; progress reports that arrive
// out of order must not retroactively complete work that never began.
func (m *Milestone) Complete(at time.Time) error {
	if m.Status != MilestoneStatusInProgress {
		return shared.NewDomainError("INVALID_STATE", "Only an in-progress milestone can be completed")
	}
	m.Status = MilestoneStatusCompleted
	m.CompletedAt = &at
	return nil
}

// MarkPaid marks the milestone as paid once its invoice has been settled
func (m *Milestone) MarkPaid() error {
	if m.Status != MilestoneStatusCompleted {
		return shared.NewDomainError("INVALID_STATE", "Only a completed milestone can be marked paid")
	}
	m.Status = MilestoneStatusPaid
	return nil
}

// AttachInvoice links the milestone to its invoice. The link is set exactly
// once; a second attempt is rejected.
func (m *Milestone) AttachInvoice(invoiceID uuid.UUID) error {
	if m.InvoiceID != nil {
		return shared.NewDomainError("INVOICE_ALREADY_ATTACHED", "Milestone already has an invoice")
	}
	if invoiceID == uuid.Nil {
		return shared.NewDomainError("INVALID_INVOICE_ID", "Invoice ID cannot be empty")
	}
	m.InvoiceID = &invoiceID
	return nil
}

// HasInvoice returns true if an invoice has been generated for this milestone
func (m *Milestone) HasInvoice() bool {
	return m.InvoiceID != nil
}

// IsCompleted returns true if the milestone is completed or paid
func (m *Milestone) IsCompleted() bool {
	return m.Status == MilestoneStatusCompleted || m.Status == MilestoneStatusPaid
}

// AmountDueMoney returns the amount due as a Money value object
func (m *Milestone) AmountDueMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(m.AmountDue)
}
