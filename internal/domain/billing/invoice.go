package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/renovate/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the payment lifecycle status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"     // Created but not yet delivered
	InvoiceStatusSent      InvoiceStatus = "SENT"      // Delivered to the homeowner, awaiting payment
	InvoiceStatusViewed    InvoiceStatus = "VIEWED"    // Opened by the homeowner
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Payment confirmed
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Past due date, still unpaid
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided, terminal
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transitions are allowed
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// IsOutstanding returns true if the invoice still awaits payment.
// VIEWED is deliberately excluded: it counts toward the invoiced total
// but toward neither the paid nor the pending bucket.
func (s InvoiceStatus) IsOutstanding() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusOverdue
}

// rank orders the forward lattice DRAFT < SENT < VIEWED < PAID.
// OVERDUE shares SENT's rank so the pair can move in both directions.
func (s InvoiceStatus) rank() int {
	switch s {
	case InvoiceStatusDraft:
		return 0
	case InvoiceStatusSent, InvoiceStatusOverdue:
		return 1
	case InvoiceStatusViewed:
		return 2
	case InvoiceStatusPaid:
		return 3
	}
	return -1
}

// CanTransitionTo reports whether moving from s to target is allowed.
// The lattice is forward-only; the SENT/OVERDUE pair may flip either way
// (a correction path), and CANCELLED is reachable from any non-terminal
// state.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	if !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == InvoiceStatusCancelled {
		return true
	}
	if s == target {
		return false
	}
	// SENT <-> OVERDUE correction
	if s.rank() == 1 && target.rank() == 1 {
		return true
	}
	return target.rank() > s.rank()
}

// PaymentMetadata carries the external processor's confirmation details
type PaymentMetadata struct {
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
}

// Invoice is the payment artifact generated when a milestone completes.
// There is exactly one invoice per milestone, and its amount is immutable
// after creation.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber   string          `json:"invoice_number"`
	ProjectID       uuid.UUID       `json:"project_id"`
	MilestoneID     uuid.UUID       `json:"milestone_id"`
	HomeownerID     uuid.UUID       `json:"homeowner_id"`
	ContractorID    uuid.UUID       `json:"contractor_id"`
	Amount          decimal.Decimal `json:"amount"`
	Percentage      int             `json:"percentage"` // Copied from the milestone, informational
	Description     string          `json:"description"`
	IssueDate       time.Time       `json:"issue_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Status          InvoiceStatus   `json:"status"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
}

// NewInvoiceForMilestone builds the invoice for a completed milestone.
// Invoices are emitted as SENT, not left in DRAFT: completion notifies the
// homeowner synchronously.
func NewInvoiceForMilestone(project *Project, m *Milestone, invoiceNumber string) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if m.Status != MilestoneStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE", "Invoice can only be generated for a completed milestone")
	}
	if m.ProjectID != project.ID {
		return nil, shared.NewDomainError("MILESTONE_PROJECT_MISMATCH",
			fmt.Sprintf("Milestone %s does not belong to project %s", m.ID, project.ID))
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		ProjectID:         project.ID,
		MilestoneID:       m.ID,
		HomeownerID:       project.HomeownerID,
		ContractorID:      project.ContractorID,
		Amount:            m.AmountDue,
		Percentage:        m.Percentage,
		Description:       m.Description,
		IssueDate:         time.Now(),
		DueDate:           m.DueDate,
		Status:            InvoiceStatusSent,
	}

	inv.AddDomainEvent(NewInvoiceIssuedEvent(inv))

	return inv, nil
}

// MarkPaid records a confirmed payment. The processor reference and method
// are optional; the paid timestamp is always stamped.
func (inv *Invoice) MarkPaid(meta PaymentMetadata) error {
	if !inv.Status.CanTransitionTo(InvoiceStatusPaid) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot mark invoice %s paid from %s", inv.InvoiceNumber, inv.Status))
	}
	now := time.Now()
	inv.Status = InvoiceStatusPaid
	inv.PaidAt = &now
	inv.PaymentIntentID = meta.PaymentIntentID
	inv.PaymentMethod = meta.PaymentMethod
	inv.UpdatedAt = now
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaidEvent(inv))

	return nil
}

// TransitionTo applies a lifecycle transition. A move to PAID delegates to
// MarkPaid with the given metadata. Backward moves are rejected except for
// the SENT/OVERDUE correction pair.
func (inv *Invoice) TransitionTo(target InvoiceStatus, meta *PaymentMetadata) error {
	if target == InvoiceStatusPaid {
		if meta == nil {
			meta = &PaymentMetadata{}
		}
		return inv.MarkPaid(*meta)
	}
	if !inv.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION",
			fmt.Sprintf("Cannot transition invoice %s from %s to %s", inv.InvoiceNumber, inv.Status, target))
	}
	previous := inv.Status
	inv.Status = target
	inv.Touch()
	inv.IncrementVersion()

	if target == InvoiceStatusCancelled {
		inv.AddDomainEvent(NewInvoiceCancelledEvent(inv, previous))
	}

	return nil
}

// IsPaid returns true if the invoice has been paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// IsOverdue returns true if the invoice is unpaid and past its due date
func (inv *Invoice) IsOverdue(now time.Time) bool {
	if inv.Status != InvoiceStatusSent && inv.Status != InvoiceStatusOverdue {
		return false
	}
	if inv.DueDate == nil {
		return false
	}
	return now.After(*inv.DueDate)
}

// AmountMoney returns the invoice amount as Money
func (inv *Invoice) AmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.Amount)
}
