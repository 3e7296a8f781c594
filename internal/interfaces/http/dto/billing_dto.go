package dto

import (
	"time"

	"github.com/renovate/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// CreateProjectRequest creates a renovation project with its milestone schedule
type CreateProjectRequest struct {
	Name         string                   `json:"name" binding:"required,max=200"`
	Address      string                   `json:"address" binding:"max=500"`
	HomeownerID  string                   `json:"homeowner_id" binding:"required,uuid"`
	ContractorID string                   `json:"contractor_id" binding:"required,uuid"`
	TotalBudget  decimal.Decimal          `json:"total_budget" binding:"required"`
	Milestones   []CreateMilestoneRequest `json:"milestones" binding:"dive"`
}

// CreateMilestoneRequest describes one payment milestone.
// AmountDue is optional; when omitted the amount is the milestone's
// percentage share of the total budget.
type CreateMilestoneRequest struct {
	Percentage  int             `json:"percentage" binding:"percent"`
	Description string          `json:"description" binding:"max=500"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	DueInDays   int             `json:"due_in_days" binding:"min=0"`
}

// UpdateProgressRequest reports a project's new completion percentage
type UpdateProgressRequest struct {
	Progress int `json:"progress" binding:"percent"`
}

// UpdateInvoiceStatusRequest transitions an invoice to a new status
type UpdateInvoiceStatusRequest struct {
	Status          string `json:"status" binding:"required,oneof=DRAFT SENT VIEWED PAID OVERDUE CANCELLED"`
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentMethod   string `json:"payment_method"`
}

// MilestoneResponse is the API view of a milestone
type MilestoneResponse struct {
	ID          string          `json:"id"`
	Percentage  int             `json:"percentage"`
	Description string          `json:"description"`
	AmountDue   decimal.Decimal `json:"amount_due"`
	Status      string          `json:"status"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	InvoiceID   *string         `json:"invoice_id,omitempty"`
}

// ProjectResponse is the API view of a project
type ProjectResponse struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Address      string              `json:"address"`
	HomeownerID  string              `json:"homeowner_id"`
	ContractorID string              `json:"contractor_id"`
	TotalBudget  decimal.Decimal     `json:"total_budget"`
	Progress     int                 `json:"progress"`
	Milestones   []MilestoneResponse `json:"milestones"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// InvoiceResponse is the API view of an invoice
type InvoiceResponse struct {
	ID              string          `json:"id"`
	InvoiceNumber   string          `json:"invoice_number"`
	ProjectID       string          `json:"project_id"`
	MilestoneID     string          `json:"milestone_id"`
	Amount          decimal.Decimal `json:"amount"`
	Percentage      int             `json:"percentage"`
	Description     string          `json:"description"`
	IssueDate       time.Time       `json:"issue_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	Status          string          `json:"status"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
}

// ProgressUpdateResponse reports the outcome of a progress update
type ProgressUpdateResponse struct {
	Project          ProjectResponse   `json:"project"`
	PreviousProgress int               `json:"previous_progress"`
	NewInvoices      []InvoiceResponse `json:"new_invoices"`
}

// PaymentSummaryResponse is the API view of a project's payment summary
type PaymentSummaryResponse struct {
	TotalBudget         decimal.Decimal   `json:"total_budget"`
	TotalInvoiced       decimal.Decimal   `json:"total_invoiced"`
	TotalPaid           decimal.Decimal   `json:"total_paid"`
	TotalPending        decimal.Decimal   `json:"total_pending"`
	PendingInvoiceCount int               `json:"pending_invoice_count"`
	PaidInvoiceCount    int               `json:"paid_invoice_count"`
	OverdueInvoiceCount int               `json:"overdue_invoice_count"`
	Invoices            []InvoiceResponse `json:"invoices"`
}

// PaymentIntentResponse returns the processor handle for a charge
type PaymentIntentResponse struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
}

// ToMilestoneResponse converts a domain milestone to its API view
func ToMilestoneResponse(m *billing.Milestone) MilestoneResponse {
	resp := MilestoneResponse{
		ID:          m.ID.String(),
		Percentage:  m.Percentage,
		Description: m.Description,
		AmountDue:   m.AmountDue,
		Status:      m.Status.String(),
		DueDate:     m.DueDate,
		CompletedAt: m.CompletedAt,
	}
	if m.InvoiceID != nil {
		id := m.InvoiceID.String()
		resp.InvoiceID = &id
	}
	return resp
}

// ToProjectResponse converts a domain project to its API view
func ToProjectResponse(p *billing.Project) ProjectResponse {
	milestones := make([]MilestoneResponse, len(p.Milestones))
	for i := range p.Milestones {
		milestones[i] = ToMilestoneResponse(&p.Milestones[i])
	}
	return ProjectResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Address:      p.Address,
		HomeownerID:  p.HomeownerID.String(),
		ContractorID: p.ContractorID.String(),
		TotalBudget:  p.TotalBudget,
		Progress:     p.Progress,
		Milestones:   milestones,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ToProjectResponses converts a slice of domain projects to API views
func ToProjectResponses(projects []billing.Project) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i := range projects {
		result[i] = ToProjectResponse(&projects[i])
	}
	return result
}

// ToInvoiceResponse converts a domain invoice to its API view
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:              inv.ID.String(),
		InvoiceNumber:   inv.InvoiceNumber,
		ProjectID:       inv.ProjectID.String(),
		MilestoneID:     inv.MilestoneID.String(),
		Amount:          inv.Amount,
		Percentage:      inv.Percentage,
		Description:     inv.Description,
		IssueDate:       inv.IssueDate,
		DueDate:         inv.DueDate,
		Status:          inv.Status.String(),
		PaidAt:          inv.PaidAt,
		PaymentIntentID: inv.PaymentIntentID,
		PaymentMethod:   inv.PaymentMethod,
	}
}

// ToInvoiceResponses converts a slice of domain invoices to API views
func ToInvoiceResponses(invoices []billing.Invoice) []InvoiceResponse {
	result := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		result[i] = ToInvoiceResponse(&invoices[i])
	}
	return result
}

// ToPaymentSummaryResponse converts a domain payment summary to its API view
func ToPaymentSummaryResponse(s *billing.PaymentSummary) PaymentSummaryResponse {
	return PaymentSummaryResponse{
		TotalBudget:         s.TotalBudget,
		TotalInvoiced:       s.TotalInvoiced,
		TotalPaid:           s.TotalPaid,
		TotalPending:        s.TotalPending,
		PendingInvoiceCount: s.PendingInvoiceCount,
		PaidInvoiceCount:    s.PaidInvoiceCount,
		OverdueInvoiceCount: s.OverdueInvoiceCount,
		Invoices:            ToInvoiceResponses(s.Invoices),
	}
}
