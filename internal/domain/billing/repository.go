package billing

import (
	"context"

	"github.com/google/uuid"
)

// ProjectRepository persists Project aggregates
type ProjectRepository interface {
	// FindByID finds a project by its ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	// FindByContractor lists projects for a contractor
	FindByContractor(ctx context.Context, contractorID uuid.UUID) ([]Project, error)
	// FindByHomeowner lists projects for a homeowner
	FindByHomeowner(ctx context.Context, homeownerID uuid.UUID) ([]Project, error)
	// Save creates or updates a project and its milestone schedule
	Save(ctx context.Context, project *Project) error
}

// InvoiceRepository persists Invoice aggregates. Invoices are kept per
// project in issue order; the per-project sequence counter backing invoice
// numbers lives with the store and is never reused as identity.
type InvoiceRepository interface {
	// FindByID finds an invoice by its ID, returning shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindByMilestone finds the invoice generated for a milestone, if any
	FindByMilestone(ctx context.Context, milestoneID uuid.UUID) (*Invoice, error)
	// FindByProject lists all invoices for a project in issue order.
	// An unknown project yields an empty slice, not an error.
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Invoice, error)
	// FindOutstanding lists SENT and OVERDUE invoices across all projects
	FindOutstanding(ctx context.Context) ([]Invoice, error)
	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error
	// NextInvoiceSequence returns the next value of the project-scoped,
	// monotonically increasing invoice sequence
	NextInvoiceSequence(ctx context.Context, projectID uuid.UUID) (int64, error)
}
