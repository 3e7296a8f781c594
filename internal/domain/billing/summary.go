package billing

import (
	"github.com/shopspring/decimal"
)

// PaymentSummary is the read-only aggregate view of a project's invoices
// consumed by both dashboards.
type PaymentSummary struct {
	TotalBudget         decimal.Decimal `json:"total_budget"`
	TotalInvoiced       decimal.Decimal `json:"total_invoiced"`
	TotalPaid           decimal.Decimal `json:"total_paid"`
	TotalPending        decimal.Decimal `json:"total_pending"`
	PendingInvoiceCount int             `json:"pending_invoice_count"`
	PaidInvoiceCount    int             `json:"paid_invoice_count"`
	OverdueInvoiceCount int             `json:"overdue_invoice_count"`
	Invoices            []Invoice       `json:"invoices"`
}

// NewPaymentSummary folds a project's invoices into dashboard totals.
//
// TotalInvoiced sums every invoice regardless of status. TotalPaid sums
// PAID invoices, TotalPending sums SENT and OVERDUE ones. DRAFT, VIEWED
// and CANCELLED invoices therefore contribute to TotalInvoiced only, so
// TotalPaid + TotalPending <= TotalInvoiced always holds.
func NewPaymentSummary(totalBudget decimal.Decimal, invoices []Invoice) PaymentSummary {
	s := PaymentSummary{
		TotalBudget:   totalBudget,
		TotalInvoiced: decimal.Zero,
		TotalPaid:     decimal.Zero,
		TotalPending:  decimal.Zero,
		Invoices:      invoices,
	}
	if s.Invoices == nil {
		s.Invoices = []Invoice{}
	}

	for i := range invoices {
		inv := &invoices[i]
		s.TotalInvoiced = s.TotalInvoiced.Add(inv.Amount)

		switch inv.Status {
		case InvoiceStatusPaid:
			s.TotalPaid = s.TotalPaid.Add(inv.Amount)
			s.PaidInvoiceCount++
		case InvoiceStatusSent, InvoiceStatusOverdue:
			s.TotalPending = s.TotalPending.Add(inv.Amount)
			s.PendingInvoiceCount++
			if inv.Status == InvoiceStatusOverdue {
				s.OverdueInvoiceCount++
			}
		}
	}

	return s
}
