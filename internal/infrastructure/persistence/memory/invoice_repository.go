package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/billing"
	"github.com/renovate/backend/internal/domain/shared"
)

// InvoiceRepository is an in-memory implementation of billing.InvoiceRepository
type InvoiceRepository struct {
	mu        sync.RWMutex
	invoices  map[uuid.UUID]billing.Invoice
	byProject map[uuid.UUID][]uuid.UUID // project -> invoice IDs in issue order
	sequences map[uuid.UUID]int64       // project -> next sequence value
}

// NewInvoiceRepository creates a new in-memory invoice repository
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices:  make(map[uuid.UUID]billing.Invoice),
		byProject: make(map[uuid.UUID][]uuid.UUID),
		sequences: make(map[uuid.UUID]int64),
	}
}

// FindByID finds an invoice by its ID
func (r *InvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneInvoice(&inv), nil
}

// FindByMilestone finds the invoice generated for a milestone, if any
func (r *InvoiceRepository) FindByMilestone(ctx context.Context, milestoneID uuid.UUID) (*billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id := range r.invoices {
		inv := r.invoices[id]
		if inv.MilestoneID == milestoneID {
			return cloneInvoice(&inv), nil
		}
	}
	return nil, shared.ErrNotFound
}

// FindByProject lists all invoices for a project in issue order.
// An unknown project yields an empty slice.
func (r *InvoiceRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byProject[projectID]
	result := make([]billing.Invoice, 0, len(ids))
	for _, id := range ids {
		inv := r.invoices[id]
		result = append(result, *cloneInvoice(&inv))
	}
	return result, nil
}

// FindOutstanding lists SENT and OVERDUE invoices across all projects
func (r *InvoiceRepository) FindOutstanding(ctx context.Context) ([]billing.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]billing.Invoice, 0)
	for id := range r.invoices {
		inv := r.invoices[id]
		if inv.Status.IsOutstanding() {
			result = append(result, *cloneInvoice(&inv))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].IssueDate.Before(result[j].IssueDate)
	})
	return result, nil
}

// Save creates or updates an invoice
func (r *InvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.invoices[invoice.ID]; !exists {
		r.byProject[invoice.ProjectID] = append(r.byProject[invoice.ProjectID], invoice.ID)
	}
	r.invoices[invoice.ID] = *cloneInvoice(invoice)
	return nil
}

// NextInvoiceSequence returns the next value of the project-scoped counter
func (r *InvoiceRepository) NextInvoiceSequence(ctx context.Context, projectID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.sequences[projectID] + 1
	r.sequences[projectID] = next
	return next, nil
}

func cloneInvoice(inv *billing.Invoice) *billing.Invoice {
	cp := *inv
	cp.ClearDomainEvents()
	return &cp
}

var _ billing.InvoiceRepository = (*InvoiceRepository)(nil)
